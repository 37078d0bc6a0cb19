package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/movieboard/internal/model"
)

const columnGap = "  "

// textTable lays out string cells in columns sized to their widest cell.
type textTable struct {
	header []string
	rows   [][]string
	// right marks columns aligned to the right edge, such as numbers.
	right map[int]bool
}

func movieTable(rows []model.TableRow) textTable {
	t := textTable{header: []string{"Name", "Genre", "Year"}}
	for _, r := range rows {
		t.rows = append(t.rows, []string{r.Name, r.Genre, r.Year})
	}
	return t
}

func seriesTable(valueHeader string, series model.AggregateSeries, format func(float64) string) textTable {
	t := textTable{header: []string{"Genre", valueHeader}, right: map[int]bool{1: true}}
	for _, p := range series.Points {
		t.rows = append(t.rows, []string{p.Genre, format(p.Value)})
	}
	return t
}

// widths returns the cell width of every column; short rows count as blank cells.
func (t textTable) widths() []int {
	var widths []int
	grow := func(cells []string) {
		for i, cell := range cells {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = maxWidth(widths[i], displayWidth(cell))
		}
	}
	grow(t.header)
	for _, row := range t.rows {
		grow(row)
	}
	return widths
}

// lines renders the header followed by every row, trailing spaces trimmed.
func (t textTable) lines() []string {
	widths := t.widths()
	if len(widths) == 0 {
		return nil
	}
	out := make([]string, 0, len(t.rows)+1)
	if len(t.header) > 0 {
		out = append(out, t.line(t.header, widths))
	}
	for _, row := range t.rows {
		out = append(out, t.line(row, widths))
	}
	return out
}

func (t textTable) line(cells []string, widths []int) string {
	padded := make([]string, len(widths))
	for i, w := range widths {
		if i < len(cells) {
			padded[i] = padCell(cells[i], w, t.right[i])
		} else {
			padded[i] = strings.Repeat(" ", w)
		}
	}
	return strings.TrimRight(strings.Join(padded, columnGap), " ")
}

func padCell(value string, width int, alignRight bool) string {
	gap := width - displayWidth(value)
	if gap <= 0 {
		return value
	}
	if alignRight {
		return strings.Repeat(" ", gap) + value
	}
	return value + strings.Repeat(" ", gap)
}

// Movie titles can contain wide runes, so width is measured in terminal cells.
func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}

func maxWidth(a, b int) int {
	if a > b {
		return a
	}
	return b
}
