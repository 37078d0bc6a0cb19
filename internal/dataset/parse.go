package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/verte-zerg/movieboard/internal/model"
)

// Required column names, matched case-insensitively.
const (
	ColumnName   = "name"
	ColumnGenre  = "genre"
	ColumnYear   = "year"
	ColumnScore  = "score"
	ColumnBudget = "budget"
)

var requiredColumns = []string{ColumnName, ColumnGenre, ColumnYear, ColumnScore, ColumnBudget}

// Tokens read as missing values, in addition to the empty string.
var missingTokens = map[string]struct{}{
	"NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
	"null": {}, "NULL": {}, "None": {}, "<NA>": {}, "#N/A": {}, "#NA": {},
	"#N/A N/A": {}, "1.#IND": {}, "-1.#IND": {}, "1.#QNAN": {}, "-1.#QNAN": {},
}

// ParseStats counts rows seen and dropped while cleaning.
type ParseStats struct {
	RowsRead    int
	RowsDropped int
}

// Parse reads a CSV document into a cleaned Dataset.
func Parse(r io.Reader) (model.Dataset, error) {
	ds, _, err := parseWithStats(r)
	if err != nil {
		return model.Dataset{}, &DataSourceError{Op: "parse", Err: err}
	}
	return ds, nil
}

func parseWithStats(r io.Reader) (model.Dataset, ParseStats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	var stats ParseStats

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return model.Dataset{}, stats, fmt.Errorf("document is empty")
		}
		return model.Dataset{}, stats, fmt.Errorf("failed to read CSV header: %w", err)
	}
	index, err := columnIndex(headers)
	if err != nil {
		return model.Dataset{}, stats, err
	}

	records := []model.MovieRecord{}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.Dataset{}, stats, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if len(row) > len(headers) {
			line, _ := reader.FieldPos(0)
			return model.Dataset{}, stats, fmt.Errorf("row on line %d has %d fields, header has %d", line, len(row), len(headers))
		}
		stats.RowsRead++
		// Short rows are missing their trailing fields.
		if len(row) < len(headers) {
			stats.RowsDropped++
			continue
		}
		rec, ok := cleanRow(row, headers, index)
		if !ok {
			stats.RowsDropped++
			continue
		}
		records = append(records, rec)
	}
	return model.NewDataset(records), stats, nil
}

func columnIndex(headers []string) (map[string]int, error) {
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, ok := index[key]; ok {
			continue
		}
		index[key] = i
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return index, nil
}

// cleanRow drops rows with any missing field, then coerces typed columns.
// Rows whose score or budget is not a finite number are dropped too.
func cleanRow(row, headers []string, index map[string]int) (model.MovieRecord, bool) {
	for _, v := range row {
		if isMissing(v) {
			return model.MovieRecord{}, false
		}
	}
	score, ok := parseNumber(row[index[ColumnScore]])
	if !ok {
		return model.MovieRecord{}, false
	}
	budget, ok := parseNumber(row[index[ColumnBudget]])
	if !ok {
		return model.MovieRecord{}, false
	}

	rec := model.MovieRecord{
		Name:   strings.TrimSpace(row[index[ColumnName]]),
		Genre:  strings.TrimSpace(row[index[ColumnGenre]]),
		Year:   NormalizeYear(row[index[ColumnYear]]),
		Score:  score,
		Budget: budget,
	}
	for i, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h))
		if isRequired(key) {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = map[string]string{}
		}
		rec.Extra[strings.TrimSpace(h)] = strings.TrimSpace(row[i])
	}
	return rec, true
}

func isMissing(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	_, ok := missingTokens[v]
	return ok
}

func isRequired(key string) bool {
	for _, col := range requiredColumns {
		if col == key {
			return true
		}
	}
	return false
}

func parseNumber(v string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// NormalizeYear renders integral numeric years without a fraction ("1980.0" -> "1980").
// Other values are returned trimmed.
func NormalizeYear(v string) string {
	v = strings.TrimSpace(v)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return v
	}
	if f != math.Trunc(f) || math.Abs(f) > 1e15 {
		return v
	}
	return strconv.FormatInt(int64(f), 10)
}
