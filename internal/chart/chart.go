// Package chart renders genre aggregates as PNG charts.
package chart

import (
	"errors"
	"fmt"
	"io"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/verte-zerg/movieboard/internal/model"
	"github.com/verte-zerg/movieboard/internal/stats"
)

const (
	DefaultWidth  = 1024
	DefaultHeight = 512
)

// ErrEmptySeries is returned when there is nothing to draw.
var ErrEmptySeries = errors.New("series has no genres")

var (
	lineColor = drawing.Color{R: 31, G: 119, B: 180, A: 255}
	barColor  = drawing.Color{R: 128, G: 0, B: 0, A: 255}
)

// Size is the output image size in pixels.
type Size struct {
	Width  int
	Height int
}

func (s Size) orDefault() Size {
	if s.Width <= 0 {
		s.Width = DefaultWidth
	}
	if s.Height <= 0 {
		s.Height = DefaultHeight
	}
	return s
}

// RenderScores writes a PNG line chart of average score by genre.
func RenderScores(w io.Writer, series model.AggregateSeries) error {
	return RenderScoresSize(w, series, Size{})
}

// RenderScoresSize is RenderScores with an explicit image size.
func RenderScoresSize(w io.Writer, series model.AggregateSeries, size Size) error {
	if series.Len() == 0 {
		return ErrEmptySeries
	}
	size = size.orDefault()
	xs, ys, xAxis := categoryAxis(series)
	xAxis.Name = "Genre"

	yAxis := gochart.YAxis{
		Name: "Score",
		ValueFormatter: func(v interface{}) string {
			if f, ok := v.(float64); ok {
				return stats.FormatScore(f)
			}
			return ""
		},
	}
	if lo, hi := minMax(ys); hi-lo < 1e-9 {
		yAxis.Range = &gochart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}

	ch := gochart.Chart{
		Title:      stats.ScoresTitle,
		Width:      size.Width,
		Height:     size.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 40}},
		XAxis:      xAxis,
		YAxis:      yAxis,
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    "Score",
				XValues: xs,
				YValues: ys,
				Style: gochart.Style{
					StrokeColor: lineColor,
					StrokeWidth: 2,
					DotColor:    lineColor,
					DotWidth:    4,
				},
			},
		},
	}
	if err := ch.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("failed to render score chart: %w", err)
	}
	return nil
}

// RenderBudgets writes a PNG bar chart of average budget by genre.
func RenderBudgets(w io.Writer, series model.AggregateSeries) error {
	return RenderBudgetsSize(w, series, Size{})
}

// RenderBudgetsSize is RenderBudgets with an explicit image size.
func RenderBudgetsSize(w io.Writer, series model.AggregateSeries, size Size) error {
	if series.Len() == 0 {
		return ErrEmptySeries
	}
	size = size.orDefault()

	bars := make([]gochart.Value, 0, series.Len())
	for _, p := range series.Points {
		bars = append(bars, gochart.Value{
			Label: p.Genre,
			Value: p.Value,
			Style: gochart.Style{FillColor: barColor, StrokeColor: barColor},
		})
	}
	_, hi := minMax(series.Values())
	if hi <= 0 {
		hi = 1
	}

	bc := gochart.BarChart{
		Title:      stats.BudgetsTitle,
		Width:      size.Width,
		Height:     size.Height,
		BarWidth:   barWidth(size.Width, series.Len()),
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis: gochart.YAxis{
			Name:  "Average Budget",
			Range: &gochart.ContinuousRange{Min: 0, Max: hi * 1.1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return stats.FormatBudget(f)
				}
				return ""
			},
		},
		Bars: bars,
	}
	if err := bc.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("failed to render budget chart: %w", err)
	}
	return nil
}

// categoryAxis places genres at x = 1..n with one labelled tick each.
func categoryAxis(series model.AggregateSeries) ([]float64, []float64, gochart.XAxis) {
	n := series.Len()
	xs := make([]float64, n)
	ys := series.Values()
	ticks := make([]gochart.Tick, 0, n)
	for i, p := range series.Points {
		x := float64(i + 1)
		xs[i] = x
		ticks = append(ticks, gochart.Tick{Value: x, Label: p.Genre})
	}
	if n == 1 {
		// A continuous series needs two points to span a range.
		xs = []float64{0.9, 1.1}
		ys = []float64{ys[0], ys[0]}
	}
	xAxis := gochart.XAxis{
		Ticks: ticks,
		Range: &gochart.ContinuousRange{Min: 0.5, Max: float64(n) + 0.5},
	}
	return xs, ys, xAxis
}

func barWidth(width, count int) int {
	if count <= 0 {
		return 0
	}
	w := (width - 120) / count * 6 / 10
	if w < 8 {
		w = 8
	}
	if w > 80 {
		w = 80
	}
	return w
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
