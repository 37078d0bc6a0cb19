package stats

import (
	"fmt"
	"math"
	"strings"

	"github.com/verte-zerg/movieboard/internal/model"
)

// ScoreStep is the increment used by score range controls.
const ScoreStep = 0.1

// View contains the derived data for one filter selection.
type View struct {
	Selection model.FilterSelection
	Table     []model.TableRow
	Scores    model.AggregateSeries
	Budgets   model.AggregateSeries
}

// ControlOptions lists the values available to selection controls.
type ControlOptions struct {
	Years         []string
	Genres        []string
	DefaultGenres []string
	ScoreMin      float64
	ScoreMax      float64
	ScoreStep     float64
	DefaultScore  model.ScoreRange
}

// BuildView computes the movie table, the score series and the budget series.
func BuildView(ds model.Dataset, sel model.FilterSelection) View {
	inYear := FilterByYearAndGenre(ds, sel.Year, sel.Genres)
	inRange := FilterByScoreRange(ds, sel.Score.Min, sel.Score.Max)
	return View{
		Selection: sel,
		Table:     ProjectTable(inYear),
		Scores:    AverageScoreByGenre(inRange),
		Budgets:   AverageBudgetByGenre(ds.Records),
	}
}

// DefaultSelection picks the first year, the first genres and the default score range.
func DefaultSelection(ds model.Dataset) model.FilterSelection {
	sel := model.FilterSelection{
		Genres: DefaultGenres(ds),
		Score:  model.DefaultScoreRange,
	}
	if years := ds.Years(); len(years) > 0 {
		sel.Year = years[0]
	}
	return sel
}

// DefaultGenres returns the first DefaultGenreCount distinct genres.
func DefaultGenres(ds model.Dataset) []string {
	genres := ds.Genres()
	if len(genres) > model.DefaultGenreCount {
		genres = genres[:model.DefaultGenreCount]
	}
	return genres
}

// Options derives control values from the dataset.
func Options(ds model.Dataset) ControlOptions {
	opts := ControlOptions{
		Years:         ds.Years(),
		Genres:        ds.Genres(),
		DefaultGenres: DefaultGenres(ds),
		ScoreStep:     ScoreStep,
		DefaultScore:  model.DefaultScoreRange,
	}
	if minScore, maxScore, ok := ds.ScoreBounds(); ok {
		opts.ScoreMin = minScore
		opts.ScoreMax = maxScore
	}
	return opts
}

// StepScore moves v by steps increments of ScoreStep, clamped to [lo, hi].
func StepScore(v float64, steps int, lo, hi float64) float64 {
	v = RoundTo(v+float64(steps)*ScoreStep, 1)
	if lo <= hi {
		if v < lo {
			v = lo
		}
		if v > hi {
			v = hi
		}
	}
	return v
}

// ValidateSelection reports selection values that cannot match the dataset.
// It never clamps; a min above max is accepted and yields empty results.
func ValidateSelection(opts ControlOptions, sel model.FilterSelection) error {
	if math.IsNaN(sel.Score.Min) || math.IsNaN(sel.Score.Max) {
		return fmt.Errorf("score range must be numeric")
	}
	if sel.Year != "" && !contains(opts.Years, sel.Year) {
		return fmt.Errorf("unknown year %q", sel.Year)
	}
	var unknown []string
	for _, g := range sel.Genres {
		if !contains(opts.Genres, g) {
			unknown = append(unknown, g)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown genres: %s", strings.Join(unknown, ", "))
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
