// Package model defines shared data structures.
package model

import (
	"maps"
	"sort"
)

// DefaultGenreCount is the number of distinct genres preselected in a new selection.
const DefaultGenreCount = 4

// DefaultScoreRange is the score range applied before the user picks one.
var DefaultScoreRange = ScoreRange{Min: 3.0, Max: 4.0}

// MovieRecord is one cleaned row of the movies dataset.
type MovieRecord struct {
	Name   string
	Genre  string
	Year   string
	Score  float64
	Budget float64
	// Extra holds the remaining CSV columns keyed by header name.
	Extra map[string]string
}

// Clone returns a copy of r that shares no map with it.
func (r MovieRecord) Clone() MovieRecord {
	r.Extra = maps.Clone(r.Extra)
	return r
}

// Dataset is the cleaned collection of movie records.
// Records must not be modified after load; filters hand out clones.
type Dataset struct {
	Records []MovieRecord
}

// NewDataset wraps records into a Dataset.
func NewDataset(records []MovieRecord) Dataset {
	return Dataset{Records: records}
}

// Len returns the number of records.
func (d Dataset) Len() int {
	return len(d.Records)
}

// Years returns distinct years in first-appearance order.
func (d Dataset) Years() []string {
	return distinct(d.Records, func(r MovieRecord) string { return r.Year })
}

// Genres returns distinct genres in first-appearance order.
func (d Dataset) Genres() []string {
	return distinct(d.Records, func(r MovieRecord) string { return r.Genre })
}

// ScoreBounds returns the lowest and highest score. ok is false for an empty dataset.
func (d Dataset) ScoreBounds() (minScore, maxScore float64, ok bool) {
	if len(d.Records) == 0 {
		return 0, 0, false
	}
	minScore = d.Records[0].Score
	maxScore = d.Records[0].Score
	for _, r := range d.Records[1:] {
		if r.Score < minScore {
			minScore = r.Score
		}
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	return minScore, maxScore, true
}

func distinct(records []MovieRecord, key func(MovieRecord) string) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, r := range records {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// ScoreRange is an inclusive score interval.
type ScoreRange struct {
	Min float64
	Max float64
}

// Contains reports whether score lies within the range, both ends inclusive.
func (r ScoreRange) Contains(score float64) bool {
	return r.Min <= score && score <= r.Max
}

// FilterSelection is the current set of user-chosen filter values.
type FilterSelection struct {
	Year   string
	Genres []string
	Score  ScoreRange
}

// TableRow is a record projected to the columns shown in the movie table.
type TableRow struct {
	Name  string `json:"name"`
	Genre string `json:"genre"`
	Year  string `json:"year"`
}

// SeriesPoint is one genre and its aggregated value.
type SeriesPoint struct {
	Genre string  `json:"genre"`
	Value float64 `json:"value"`
}

// AggregateSeries maps genres to a rounded mean, ordered by ascending genre label.
type AggregateSeries struct {
	Points []SeriesPoint
}

// NewAggregateSeries builds a series from a genre->value map, sorted by genre.
func NewAggregateSeries(values map[string]float64) AggregateSeries {
	points := make([]SeriesPoint, 0, len(values))
	for genre, v := range values {
		points = append(points, SeriesPoint{Genre: genre, Value: v})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Genre < points[j].Genre
	})
	return AggregateSeries{Points: points}
}

// Len returns the number of genres in the series.
func (s AggregateSeries) Len() int {
	return len(s.Points)
}

// Get returns the value for genre.
func (s AggregateSeries) Get(genre string) (float64, bool) {
	for _, p := range s.Points {
		if p.Genre == genre {
			return p.Value, true
		}
	}
	return 0, false
}

// Labels returns the genres in series order.
func (s AggregateSeries) Labels() []string {
	out := make([]string, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Genre
	}
	return out
}

// Values returns the values in series order.
func (s AggregateSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}
