package dashboard

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/movieboard/internal/model"
	"github.com/verte-zerg/movieboard/internal/stats"
)

const (
	fieldYear = iota
	fieldGenres
	fieldMin
	fieldMax
	fieldCount
)

const controlsHelp = "tab/shift+tab: field  left/right: year  space: toggle  a/n: all/none  [ ]: min  { }: max  enter: apply  esc: cancel"

var (
	focusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
)

// controlsForm edits a FilterSelection before it is applied.
type controlsForm struct {
	years  []string
	genres []string
	lo, hi float64

	field       int
	yearIndex   int
	genreCursor int
	selected    map[string]bool
	minInput    textinput.Model
	maxInput    textinput.Model
	err         string
}

func newControlsForm(opts stats.ControlOptions) controlsForm {
	return controlsForm{
		years:    opts.Years,
		genres:   opts.Genres,
		lo:       opts.ScoreMin,
		hi:       opts.ScoreMax,
		selected: map[string]bool{},
		minInput: newScoreInput("Min score: "),
		maxInput: newScoreInput("Max score: "),
	}
}

func newScoreInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 8
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

// load copies sel into the form fields.
func (f *controlsForm) load(sel model.FilterSelection) {
	f.err = ""
	f.yearIndex = 0
	for i, y := range f.years {
		if y == sel.Year {
			f.yearIndex = i
			break
		}
	}
	f.selected = make(map[string]bool, len(sel.Genres))
	for _, g := range sel.Genres {
		f.selected[g] = true
	}
	f.genreCursor = 0
	f.minInput.SetValue(formatScore(sel.Score.Min))
	f.maxInput.SetValue(formatScore(sel.Score.Max))
}

func (f *controlsForm) setWidth(width int) {
	for _, input := range []*textinput.Model{&f.minInput, &f.maxInput} {
		promptWidth := lipgloss.Width(input.Prompt)
		input.Width = maxInt(10, minInt(width-promptWidth-2, 20))
	}
}

func (f *controlsForm) setField(idx int) tea.Cmd {
	if idx < 0 {
		idx = fieldCount - 1
	}
	if idx >= fieldCount {
		idx = 0
	}
	f.field = idx
	f.minInput.Blur()
	f.maxInput.Blur()
	switch f.field {
	case fieldMin:
		return f.minInput.Focus()
	case fieldMax:
		return f.maxInput.Focus()
	}
	return nil
}

func (f *controlsForm) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyTab:
		return f.setField(f.field + 1)
	case tea.KeyShiftTab:
		return f.setField(f.field - 1)
	}
	switch msg.String() {
	case "[":
		f.stepInput(&f.minInput, -1)
		return nil
	case "]":
		f.stepInput(&f.minInput, 1)
		return nil
	case "{":
		f.stepInput(&f.maxInput, -1)
		return nil
	case "}":
		f.stepInput(&f.maxInput, 1)
		return nil
	}

	switch f.field {
	case fieldYear:
		switch msg.String() {
		case "left", "h":
			f.cycleYear(-1)
		case "right", "l":
			f.cycleYear(1)
		}
		return nil
	case fieldGenres:
		switch {
		case msg.Type == tea.KeySpace || msg.String() == " ":
			f.toggleGenre()
		case msg.String() == "up" || msg.String() == "k":
			f.genreCursor = maxInt(0, f.genreCursor-1)
		case msg.String() == "down" || msg.String() == "j":
			f.genreCursor = minInt(len(f.genres)-1, f.genreCursor+1)
		case msg.String() == "a":
			for _, g := range f.genres {
				f.selected[g] = true
			}
		case msg.String() == "n":
			f.selected = map[string]bool{}
		}
		return nil
	case fieldMin:
		var cmd tea.Cmd
		f.minInput, cmd = f.minInput.Update(msg)
		return cmd
	case fieldMax:
		var cmd tea.Cmd
		f.maxInput, cmd = f.maxInput.Update(msg)
		return cmd
	}
	return nil
}

func (f *controlsForm) cycleYear(delta int) {
	count := len(f.years)
	if count == 0 {
		return
	}
	f.yearIndex = (f.yearIndex + delta + count) % count
}

func (f *controlsForm) toggleGenre() {
	if f.genreCursor < 0 || f.genreCursor >= len(f.genres) {
		return
	}
	g := f.genres[f.genreCursor]
	if f.selected[g] {
		delete(f.selected, g)
	} else {
		f.selected[g] = true
	}
}

// stepInput nudges a score input by one step within the dataset bounds.
func (f *controlsForm) stepInput(input *textinput.Model, steps int) {
	v, err := parseScore(input.Value())
	if err != nil {
		f.err = err.Error()
		return
	}
	f.err = ""
	input.SetValue(formatScore(stats.StepScore(v, steps, f.lo, f.hi)))
}

// selection builds the FilterSelection described by the form.
func (f *controlsForm) selection() (model.FilterSelection, error) {
	minScore, err := parseScore(f.minInput.Value())
	if err != nil {
		return model.FilterSelection{}, fmt.Errorf("invalid min score: %w", err)
	}
	maxScore, err := parseScore(f.maxInput.Value())
	if err != nil {
		return model.FilterSelection{}, fmt.Errorf("invalid max score: %w", err)
	}
	sel := model.FilterSelection{
		Genres: f.selectedGenres(),
		Score:  model.ScoreRange{Min: minScore, Max: maxScore},
	}
	if len(f.years) > 0 {
		sel.Year = f.years[f.yearIndex]
	}
	return sel, nil
}

// selectedGenres keeps dataset genre order.
func (f *controlsForm) selectedGenres() []string {
	out := []string{}
	for _, g := range f.genres {
		if f.selected[g] {
			out = append(out, g)
		}
	}
	return out
}

func (f *controlsForm) view() string {
	lines := []string{"Filters (enter to apply, esc to cancel)", ""}

	year := "-"
	if len(f.years) > 0 {
		year = f.years[f.yearIndex]
	}
	lines = append(lines, f.label(fieldYear, fmt.Sprintf("Year: < %s >", year)), "")

	lines = append(lines, f.label(fieldGenres, fmt.Sprintf("Genres (%d selected):", len(f.selectedGenres()))))
	for i, g := range f.genres {
		mark := "[ ]"
		if f.selected[g] {
			mark = "[x]"
		}
		pointer := "  "
		if f.field == fieldGenres && i == f.genreCursor {
			pointer = "> "
		}
		line := pointer + mark + " " + g
		if f.selected[g] {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	lines = append(lines, "")
	lines = append(lines, f.minInput.View(), f.maxInput.View())
	lines = append(lines, headerStyle.Render(fmt.Sprintf("Score bounds: %s - %s, step %s",
		formatScore(f.lo), formatScore(f.hi), formatScore(stats.ScoreStep))))
	if f.err != "" {
		lines = append(lines, errorStyle.Render(f.err))
	}
	return strings.Join(lines, "\n")
}

func (f *controlsForm) label(field int, text string) string {
	if f.field == field {
		return focusStyle.Render(text)
	}
	return text
}

func parseScore(input string) (float64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, fmt.Errorf("score is required")
	}
	v, err := strconv.ParseFloat(input, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a number", input)
	}
	return v, nil
}

func formatScore(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
