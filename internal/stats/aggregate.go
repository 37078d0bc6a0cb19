package stats

import (
	"math"

	"github.com/verte-zerg/movieboard/internal/model"
)

const (
	scorePrecision  = 2
	budgetPrecision = 0
)

type sumCount struct {
	sum   float64
	count int
}

// AverageScoreByGenre returns the mean score per genre rounded to 2 decimals.
func AverageScoreByGenre(records []model.MovieRecord) model.AggregateSeries {
	return averageByGenre(records, func(r model.MovieRecord) float64 { return r.Score }, scorePrecision)
}

// AverageBudgetByGenre returns the mean budget per genre rounded to a whole number.
func AverageBudgetByGenre(records []model.MovieRecord) model.AggregateSeries {
	return averageByGenre(records, func(r model.MovieRecord) float64 { return r.Budget }, budgetPrecision)
}

func averageByGenre(records []model.MovieRecord, value func(model.MovieRecord) float64, places int) model.AggregateSeries {
	groups := map[string]*sumCount{}
	for _, r := range records {
		g, ok := groups[r.Genre]
		if !ok {
			g = &sumCount{}
			groups[r.Genre] = g
		}
		g.sum += value(r)
		g.count++
	}
	means := make(map[string]float64, len(groups))
	for genre, g := range groups {
		means[genre] = RoundTo(g.sum/float64(g.count), places)
	}
	return model.NewAggregateSeries(means)
}

// RoundTo rounds v to the given number of decimal places, halves away from zero.
func RoundTo(v float64, places int) float64 {
	if places <= 0 {
		return math.Round(v)
	}
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
