// Package dashboard provides the Bubble Tea movies dashboard.
package dashboard

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/movieboard/internal/model"
	"github.com/verte-zerg/movieboard/internal/stats"
)

const (
	tabMovies = iota
	tabScores
	tabBudgets
)

const plotHeight = 10

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	titleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea dashboard.
type Model struct {
	ds   model.Dataset
	opts stats.ControlOptions
	sel  model.FilterSelection
	view stats.View
	log  *zap.Logger

	tabs        []string
	activeTab   int
	viewports   []viewport.Model
	movieTable  table.Model
	tableLayout tableLayout

	width  int
	height int

	controlsMode bool
	controls     controlsForm
}

type tableLayout struct {
	width    int
	height   int
	rowCount int
}

// NewModel constructs a dashboard over ds starting from sel.
func NewModel(ds model.Dataset, sel model.FilterSelection, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Model{
		ds:   ds,
		opts: stats.Options(ds),
		sel:  sel,
		log:  logger,
		tabs: []string{"Movies", "Scores", "Budgets"},
	}
	m.controls = newControlsForm(m.opts)
	m.movieTable = buildMovieTable(nil, 0, 1)
	m.initViewports()
	m.refreshView()
	return m
}

// Selection returns the selection currently applied.
func (m *Model) Selection() model.FilterSelection {
	return m.sel
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.controlsMode {
			return m.updateControls(msg)
		}
		if msg.String() == "q" {
			return m, tea.Quit
		}
		if m.activeTab == tabMovies {
			m.movieTable.Focus()
		} else {
			m.movieTable.Blur()
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "/":
			return m.startControls()
		case "g", "home":
			if m.activeTab == tabMovies {
				m.movieTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabMovies {
				m.movieTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabMovies {
				var cmd tea.Cmd
				m.movieTable, cmd = m.movieTable.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.applyMovieTable(m.width, vpHeight, true)
	m.controls.setWidth(m.width)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabMovies {
		m.movieTable.Focus()
	} else {
		m.movieTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	summary := padLines(m.renderSelectionSummary(), m.width)
	return tabs + "\n" + summary
}

func (m *Model) renderSelectionSummary() string {
	summary := "Settings: " + stats.SelectionSummary(m.sel)
	summary = truncateLine(summary, m.width)
	return headerStyle.Render(summary)
}

func (m *Model) renderHelp() string {
	return headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Filters: /  Quit: q")
}

func (m *Model) renderFooter() string {
	if m.controlsMode {
		return headerStyle.Render(controlsHelp)
	}
	return m.renderHelp()
}

func (m *Model) renderBody(height int) string {
	if m.controlsMode {
		return fitLines(m.controls.view(), m.width, height)
	}
	if m.activeTab == tabMovies {
		title := titleStyle.Render(stats.TableTitle)
		if len(m.view.Table) == 0 {
			return fitLines(title+"\n"+stats.EmptyTableMessage, m.width, height)
		}
		view := tableMutedStyle.Render(m.movieTable.View())
		return fitLines(title+"\n"+view, m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) refreshView() {
	m.view = stats.BuildView(m.ds, m.sel)
	m.log.Debug("view refreshed",
		zap.String("year", m.sel.Year),
		zap.Strings("genres", m.sel.Genres),
		zap.Float64("min_score", m.sel.Score.Min),
		zap.Float64("max_score", m.sel.Score.Max),
		zap.Int("rows", len(m.view.Table)),
		zap.Int("score_genres", m.view.Scores.Len()),
	)
	width := m.width
	if width <= 0 {
		width = 80
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.applyMovieTable(width, bodyHeight, true)
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabScores].SetContent(renderScores(m.view.Scores, width))
	m.viewports[tabBudgets].SetContent(renderBudgets(m.view.Budgets, width))
}

func renderScores(series model.AggregateSeries, width int) string {
	var buf bytes.Buffer
	if err := stats.RenderScores(&buf, series, width, plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render scores: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func renderBudgets(series model.AggregateSeries, width int) string {
	var buf bytes.Buffer
	if err := stats.RenderBudgets(&buf, series, width, true); err != nil {
		return fmt.Sprintf("Failed to render budgets: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func (m *Model) startControls() (tea.Model, tea.Cmd) {
	m.controlsMode = true
	m.controls.load(m.sel)
	return m, m.controls.setField(fieldYear)
}

func (m *Model) updateControls(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.controlsMode = false
		m.controls.err = ""
		return m, nil
	case tea.KeyEnter:
		sel, err := m.controls.selection()
		if err != nil {
			m.controls.err = err.Error()
			return m, nil
		}
		m.controlsMode = false
		m.controls.err = ""
		m.sel = sel
		m.refreshView()
		m.updateLayout()
		return m, nil
	}
	return m, m.controls.update(msg)
}

func buildMovieTable(rows []model.TableRow, width, height int) table.Model {
	cols, tableRows := buildMovieTableData(rows, width)
	t := table.New(
		table.WithColumns(cols),
		table.WithRows(tableRows),
		table.WithHeight(maxInt(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(movieTableStyles())
	return t
}

func buildMovieTableData(rows []model.TableRow, width int) ([]table.Column, []table.Row) {
	genreWidth := len("Genre")
	for _, r := range rows {
		genreWidth = maxInt(genreWidth, lipgloss.Width(r.Genre))
	}
	yearWidth := len("Year")
	for _, r := range rows {
		yearWidth = maxInt(yearWidth, lipgloss.Width(r.Year))
	}
	// Each cell carries one column of right padding.
	nameWidth := maxInt(len("Name"), width-genreWidth-yearWidth-3)
	columns := []table.Column{
		{Title: "Name", Width: nameWidth},
		{Title: "Genre", Width: genreWidth},
		{Title: "Year", Width: yearWidth},
	}
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, table.Row{r.Name, r.Genre, r.Year})
	}
	return columns, out
}

func (m *Model) applyMovieTable(width, height int, force bool) {
	cols, rows := buildMovieTableData(m.view.Table, width)
	// One body line is taken by the table title.
	viewportHeight := maxInt(1, height-2)
	if !force &&
		m.tableLayout.width == width &&
		m.tableLayout.height == viewportHeight &&
		m.tableLayout.rowCount == len(rows) {
		return
	}
	m.movieTable.SetColumns(cols)
	m.movieTable.SetRows(rows)
	m.movieTable.SetWidth(width)
	m.movieTable.SetHeight(viewportHeight)
	m.movieTable.GotoTop()
	m.tableLayout = tableLayout{width: width, height: viewportHeight, rowCount: len(rows)}
	if adjusted := m.adjustTableHeight(height - 1); adjusted != viewportHeight {
		m.tableLayout.height = adjusted
		m.movieTable.SetHeight(adjusted)
	}
}

func movieTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

// adjustTableHeight resizes the table so its rendered view fills target lines.
func (m *Model) adjustTableHeight(target int) int {
	target = maxInt(1, target)
	height := m.movieTable.Height()
	viewHeight := lipgloss.Height(m.movieTable.View())
	if viewHeight == target {
		return height
	}
	height += target - viewHeight
	if height < 1 {
		height = 1
	}
	m.movieTable.SetHeight(height)
	viewHeight = lipgloss.Height(m.movieTable.View())
	if viewHeight == target {
		return height
	}
	height += target - viewHeight
	if height < 1 {
		height = 1
	}
	return height
}
