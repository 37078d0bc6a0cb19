package dataset

import "fmt"

// DataSourceError reports that the dataset could not be fetched or parsed.
// It is fatal for the session.
type DataSourceError struct {
	Source string
	Op     string
	Err    error
}

func (e *DataSourceError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("dataset %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("dataset %s failed for %s: %v", e.Op, e.Source, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}
