package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/verte-zerg/movieboard/internal/model"
)

const (
	TableTitle   = "Lists of movies filtered by year and Genre"
	ScoresTitle  = "User Score of Movies and Their Genre"
	BudgetsTitle = "Average Movie Budget by Genre"

	// EmptyTableMessage replaces the movie table when no row matches.
	EmptyTableMessage = "No movies match the selected filters."
)

// RenderSelection prints the active filter values on one line.
func RenderSelection(w io.Writer, sel model.FilterSelection) error {
	_, err := fmt.Fprintln(w, SelectionSummary(sel))
	return err
}

// SelectionSummary formats a selection as "year=... genres=... score=[a, b]".
func SelectionSummary(sel model.FilterSelection) string {
	year := sel.Year
	if year == "" {
		year = "-"
	}
	genres := "none"
	if len(sel.Genres) > 0 {
		genres = strings.Join(sel.Genres, ",")
	}
	return fmt.Sprintf("year=%s genres=%s score=[%.1f, %.1f]", year, genres, sel.Score.Min, sel.Score.Max)
}

// RenderTable prints the filtered movie table.
func RenderTable(w io.Writer, rows []model.TableRow) error {
	if _, err := fmt.Fprintln(w, TableTitle); err != nil {
		return err
	}
	if len(rows) == 0 {
		if _, err := fmt.Fprintln(w, EmptyTableMessage); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w, "")
		return err
	}
	for _, line := range movieTable(rows).lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// RenderScores prints the score line chart followed by its values.
func RenderScores(w io.Writer, series model.AggregateSeries, totalWidth, height int, useColor bool) error {
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	if err := PlotSeriesWithColor(w, ScoresTitle, "Score", series, width, height, useColor); err != nil {
		return err
	}
	if series.Len() == 0 {
		return nil
	}
	return renderSeriesTable(w, "Score", series, FormatScore)
}

// RenderBudgets prints the budget bar chart.
func RenderBudgets(w io.Writer, series model.AggregateSeries, totalWidth int, useColor bool) error {
	return PlotBarsWithColor(w, BudgetsTitle, series, totalWidth, FormatBudget, useColor)
}

// RenderView prints the selection, the table and both charts.
func RenderView(w io.Writer, view View, totalWidth, height int, useColor bool) error {
	if err := RenderSelection(w, view.Selection); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	if err := RenderTable(w, view.Table); err != nil {
		return err
	}
	if err := RenderScores(w, view.Scores, totalWidth, height, useColor); err != nil {
		return err
	}
	return RenderBudgets(w, view.Budgets, totalWidth, useColor)
}

func renderSeriesTable(w io.Writer, valueHeader string, series model.AggregateSeries, format func(float64) string) error {
	for _, line := range seriesTable(valueHeader, series, format).lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}
