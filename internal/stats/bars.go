package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/movieboard/internal/model"
)

const minBarWidth = 10

var barEighths = []rune{' ', '▏', '▎', '▍', '▌', '▋', '▊', '▉'}

// FormatScore renders a mean score.
func FormatScore(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// FormatBudget renders a mean budget with thousands separators.
func FormatBudget(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

// PlotBars renders a horizontal bar chart with one bar per genre.
func PlotBars(w io.Writer, title string, series model.AggregateSeries, width int, format func(float64) string) error {
	return plotBars(w, title, series, width, format, false)
}

// PlotBarsWithColor renders a bar chart with optional forced color output.
func PlotBarsWithColor(w io.Writer, title string, series model.AggregateSeries, width int, format func(float64) string, forceColor bool) error {
	return plotBars(w, title, series, width, format, forceColor)
}

func plotBars(w io.Writer, title string, series model.AggregateSeries, width int, format func(float64) string, forceColor bool) error {
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	if series.Len() == 0 {
		_, err := fmt.Fprintln(w, EmptyChartMessage)
		return err
	}
	if format == nil {
		format = FormatScore
	}
	if width <= 0 {
		width = terminalWidth()
	}

	labelWidth := 0
	valueWidth := 0
	maxVal := 0.0
	formatted := make([]string, series.Len())
	for i, p := range series.Points {
		if lw := displayWidth(p.Genre); lw > labelWidth {
			labelWidth = lw
		}
		formatted[i] = format(p.Value)
		if vw := displayWidth(formatted[i]); vw > valueWidth {
			valueWidth = vw
		}
		if p.Value > maxVal {
			maxVal = p.Value
		}
	}
	barWidth := width - labelWidth - valueWidth - displayWidth(axisSeparator) - 1
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}

	useColor := shouldUseColor(w, forceColor)
	for i, p := range series.Points {
		bar := renderBar(p.Value, maxVal, barWidth)
		// Block runes are counted as cells; East Asian width would count them twice.
		padding := strings.Repeat(" ", barWidth-utf8.RuneCountInString(bar))
		if useColor {
			bar = barColor.code + bar + colorReset
		}
		line := fmt.Sprintf("%s%s%s%s %*s",
			padCell(p.Genre, labelWidth, false),
			axisSeparator,
			bar,
			padding,
			valueWidth,
			formatted[i],
		)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// renderBar draws v relative to maxVal using eighth-block precision.
func renderBar(v, maxVal float64, width int) string {
	if maxVal <= 0 || v <= 0 || width <= 0 {
		return ""
	}
	eighths := int(math.Round(v / maxVal * float64(width*8)))
	if eighths > width*8 {
		eighths = width * 8
	}
	full := eighths / 8
	rest := eighths % 8
	var b strings.Builder
	b.WriteString(strings.Repeat("█", full))
	if rest > 0 {
		b.WriteRune(barEighths[rest])
	}
	return b.String()
}
