// Package stats contains filtering, aggregation and text rendering of movie views.
package stats

import "github.com/verte-zerg/movieboard/internal/model"

// FilterByYearAndGenre returns records released in year whose genre is in genres.
// An empty genre list matches nothing. Dataset order is kept.
func FilterByYearAndGenre(ds model.Dataset, year string, genres []string) []model.MovieRecord {
	out := []model.MovieRecord{}
	if len(genres) == 0 {
		return out
	}
	allowed := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		allowed[g] = struct{}{}
	}
	for _, r := range ds.Records {
		if r.Year != year {
			continue
		}
		if _, ok := allowed[r.Genre]; !ok {
			continue
		}
		out = append(out, r.Clone())
	}
	return out
}

// FilterByScoreRange returns records with minScore <= score <= maxScore.
// minScore > maxScore yields an empty result. Dataset order is kept.
func FilterByScoreRange(ds model.Dataset, minScore, maxScore float64) []model.MovieRecord {
	out := []model.MovieRecord{}
	rng := model.ScoreRange{Min: minScore, Max: maxScore}
	for _, r := range ds.Records {
		if rng.Contains(r.Score) {
			out = append(out, r.Clone())
		}
	}
	return out
}

// ProjectTable keeps the name, genre and year columns of records.
func ProjectTable(records []model.MovieRecord) []model.TableRow {
	rows := make([]model.TableRow, len(records))
	for i, r := range records {
		rows[i] = model.TableRow{Name: r.Name, Genre: r.Genre, Year: r.Year}
	}
	return rows
}
