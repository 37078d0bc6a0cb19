package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/verte-zerg/movieboard/internal/chart"
	"github.com/verte-zerg/movieboard/internal/dataset"
	"github.com/verte-zerg/movieboard/internal/model"
	"github.com/verte-zerg/movieboard/internal/stats"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Records int    `json:"records"`
}

type scoreRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type optionsResponse struct {
	Years         []string   `json:"years"`
	Genres        []string   `json:"genres"`
	DefaultYear   string     `json:"default_year"`
	DefaultGenres []string   `json:"default_genres"`
	DefaultScore  scoreRange `json:"default_score"`
	ScoreBounds   scoreRange `json:"score_bounds"`
	ScoreStep     float64    `json:"score_step"`
}

type moviesResponse struct {
	Year   string           `json:"year"`
	Genres []string         `json:"genres"`
	Movies []model.TableRow `json:"movies"`
}

type seriesResponse struct {
	Score  *scoreRange         `json:"score,omitempty"`
	Series []model.SeriesPoint `json:"series"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Code: code, Message: message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, healthResponse{Status: "ok", Records: s.ds.Len()})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, optionsResponse{
		Years:         nonNil(s.opts.Years),
		Genres:        nonNil(s.opts.Genres),
		DefaultYear:   s.def.Year,
		DefaultGenres: nonNil(s.opts.DefaultGenres),
		DefaultScore:  scoreRange{Min: s.opts.DefaultScore.Min, Max: s.opts.DefaultScore.Max},
		ScoreBounds:   scoreRange{Min: s.opts.ScoreMin, Max: s.opts.ScoreMax},
		ScoreStep:     s.opts.ScoreStep,
	})
}

func (s *Server) handleMovies(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	year := s.def.Year
	if _, ok := query["year"]; ok {
		year = dataset.NormalizeYear(query.Get("year"))
	}
	genres := queryList(query["genre"])
	rows := stats.ProjectTable(stats.FilterByYearAndGenre(s.ds, year, genres))
	render.JSON(w, r, moviesResponse{Year: year, Genres: genres, Movies: rows})
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	rng, err := s.scoreRangeParam(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}
	series := stats.AverageScoreByGenre(stats.FilterByScoreRange(s.ds, rng.Min, rng.Max))
	render.JSON(w, r, seriesResponse{
		Score:  &scoreRange{Min: rng.Min, Max: rng.Max},
		Series: points(series),
	})
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	series := stats.AverageBudgetByGenre(s.ds.Records)
	render.JSON(w, r, seriesResponse{Series: points(series)})
}

func (s *Server) handleScoresChart(w http.ResponseWriter, r *http.Request) {
	rng, err := s.scoreRangeParam(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}
	series := stats.AverageScoreByGenre(stats.FilterByScoreRange(s.ds, rng.Min, rng.Max))
	s.writePNG(w, r, func(out io.Writer) error {
		return chart.RenderScores(out, series)
	})
}

func (s *Server) handleBudgetsChart(w http.ResponseWriter, r *http.Request) {
	series := stats.AverageBudgetByGenre(s.ds.Records)
	s.writePNG(w, r, func(out io.Writer) error {
		return chart.RenderBudgets(out, series)
	})
}

// writePNG renders into a buffer first so a failed render can still produce a JSON error.
func (s *Server) writePNG(w http.ResponseWriter, r *http.Request, draw func(io.Writer) error) {
	var buf bytes.Buffer
	if err := draw(&buf); err != nil {
		if errors.Is(err, chart.ErrEmptySeries) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.log.Error("chart render failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "render_failed", "failed to render chart")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.log.Debug("write chart failed", zap.Error(err))
	}
}

func (s *Server) scoreRangeParam(r *http.Request) (model.ScoreRange, error) {
	rng := s.opts.DefaultScore
	var err error
	if rng.Min, err = floatParam(r, "min", rng.Min); err != nil {
		return model.ScoreRange{}, err
	}
	if rng.Max, err = floatParam(r, "max", rng.Max); err != nil {
		return model.ScoreRange{}, err
	}
	return rng, nil
}

func floatParam(r *http.Request, name string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be a number, got %q", name, raw)
	}
	return v, nil
}

// queryList accepts repeated and comma separated values.
func queryList(values []string) []string {
	out := []string{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func points(series model.AggregateSeries) []model.SeriesPoint {
	if series.Points == nil {
		return []model.SeriesPoint{}
	}
	return series.Points
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
