package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/verte-zerg/movieboard/internal/model"
)

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisLabelWidth      = 6
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

// EmptyChartMessage is rendered in place of a chart with no genres.
const EmptyChartMessage = "No data for the selected range."

type ansiColor struct {
	name string
	code string
}

var (
	lineColor = ansiColor{name: "cyan", code: "\x1b[36m"}
	barColor  = ansiColor{name: "red", code: "\x1b[31m"}
)

// PlotSeries renders a braille line chart with one point per genre.
func PlotSeries(w io.Writer, title, name string, series model.AggregateSeries, width, height int) error {
	return plotSeries(w, title, name, series, width, height, false)
}

// PlotSeriesWithColor renders a line chart with optional forced color output.
func PlotSeriesWithColor(w io.Writer, title, name string, series model.AggregateSeries, width, height int, forceColor bool) error {
	return plotSeries(w, title, name, series, width, height, forceColor)
}

func plotSeries(w io.Writer, title, name string, series model.AggregateSeries, width, height int, forceColor bool) error {
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	if series.Len() == 0 {
		_, err := fmt.Fprintln(w, EmptyChartMessage)
		return err
	}

	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = autoPlotWidth()
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	values := series.Values()
	minVal, maxVal := seriesMinMax(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		minVal--
		maxVal++
	}

	cells := makeCells(height, width)
	xs := pointColumns(len(values), width*2)
	prevX, prevY := -1, -1
	for i, v := range values {
		px := xs[i]
		py := valueToRow(v, minVal, maxVal, height*4)
		if prevX >= 0 {
			drawLine(prevX, prevY, px, py, func(dx, dy int) {
				setBrailleDot(cells, dx, dy)
			})
		} else {
			setBrailleDot(cells, px, py)
		}
		// Markers are two dots wide so single points stay visible.
		setBrailleDot(cells, px^1, py)
		prevX, prevY = px, py
	}

	useColor := shouldUseColor(w, forceColor)
	axisLabels := makeAxisLabels(height, minVal, maxVal)

	if name != "" {
		if _, err := fmt.Fprintf(w, "%s: min=%.2f max=%.2f\n", name, minVal, maxVal); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(fmt.Sprintf("%*s%s", axisLabelWidth, axisLabels[y], axisSeparator))
		if useColor {
			row.WriteString(lineColor.code)
		}
		for x := 0; x < width; x++ {
			row.WriteRune(brailleFromMask(cells[y][x]))
		}
		if useColor {
			row.WriteString(colorReset)
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, renderTicks(xs, width)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Genre (left to right): %s\n", strings.Join(series.Labels(), ", ")); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

func autoPlotWidth() int {
	return PlotWidthFor(terminalWidth())
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	plotWidth := totalWidth - axisLabelWidth - displayWidth(axisSeparator)
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func makeAxisLabels(height int, minVal, maxVal float64) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = fmt.Sprintf("%.2f", maxVal)
	if height > 2 {
		labels[height/2] = fmt.Sprintf("%.2f", (minVal+maxVal)/2)
	}
	if height > 1 {
		labels[height-1] = fmt.Sprintf("%.2f", minVal)
	}
	return labels
}

// pointColumns spreads n points across dotWidth braille dot columns.
func pointColumns(n, dotWidth int) []int {
	xs := make([]int, n)
	if n == 1 {
		xs[0] = dotWidth / 2
		return xs
	}
	for i := range xs {
		xs[i] = int(math.Round(float64(i) * float64(dotWidth-1) / float64(n-1)))
	}
	return xs
}

func renderTicks(xs []int, width int) string {
	line := []rune(strings.Repeat("─", width))
	for _, x := range xs {
		cell := x / 2
		if cell >= 0 && cell < len(line) {
			line[cell] = '┴'
		}
	}
	return fmt.Sprintf("%*s └%s", axisLabelWidth, "", string(line))
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := 0; y < height; y++ {
		cells[y] = make([]uint8, width)
	}
	return cells
}

func seriesMinMax(values []float64) (float64, float64) {
	minVal := math.Inf(1)
	maxVal := math.Inf(-1)
	for _, v := range values {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if minVal == math.Inf(1) {
		minVal = 0
	}
	if maxVal == math.Inf(-1) {
		maxVal = 0
	}
	return minVal, maxVal
}

func valueToRow(v, minVal, maxVal float64, height int) int {
	if height <= 1 {
		return 0
	}
	pos := (v - minVal) / (maxVal - minVal)
	row := int(math.Round((1 - pos) * float64(height-1)))
	if row < 0 {
		row = 0
	}
	if row >= height {
		row = height - 1
	}
	return row
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := int(math.Abs(float64(x1 - x0)))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -int(math.Abs(float64(y1 - y0)))
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if y < 0 || x < 0 {
		return
	}
	cellY := y / 4
	cellX := x / 2
	if cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

func brailleDotMask(x, y int) uint8 {
	switch {
	case x == 0 && y == 0:
		return 0x01
	case x == 0 && y == 1:
		return 0x02
	case x == 0 && y == 2:
		return 0x04
	case x == 0 && y == 3:
		return 0x40
	case x == 1 && y == 0:
		return 0x08
	case x == 1 && y == 1:
		return 0x10
	case x == 1 && y == 2:
		return 0x20
	case x == 1 && y == 3:
		return 0x80
	default:
		return 0
	}
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
