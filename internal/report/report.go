// Package report runs the fixed catalog of read-only aggregate queries over
// the observation table.
package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/couchcryptid/bird-observation-etl/internal/observability"
)

var (
	// ErrQueryFailure matches every error returned by a report run.
	ErrQueryFailure = errors.New("report query failed")

	// ErrUnknownReport means the requested name is not in the catalog.
	ErrUnknownReport = errors.New("unknown report")

	// ErrMissingParameter means a report that needs a parameter did not get one.
	ErrMissingParameter = errors.New("missing required parameter")

	// ErrInvalidParameter means a parameter value is out of range.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// QueryError wraps a failed report run. It matches ErrQueryFailure and
// unwraps to the cause.
type QueryError struct {
	Report string
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("report %q: %v", e.Report, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

func (e *QueryError) Is(target error) bool {
	return target == ErrQueryFailure
}

// IsBadRequest reports whether err was caused by the request rather than the store.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrUnknownReport) || errors.Is(err, ErrMissingParameter) || errors.Is(err, ErrInvalidParameter)
}

// Querier runs read-only SQL. *sql.DB and sqlstore.Store satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Dialect renders the engine-specific parts of a query. sqlstore dialects
// satisfy it.
type Dialect interface {
	Placeholder(n int) string
	Quote(ident string) string
	Year(dateExpr string) string
	Month(dateExpr string) string
	Hour(timeExpr string) string
	Floor(expr string) string
}

// Filter narrows every report to matching rows. Empty fields do not filter.
type Filter struct {
	LocationTypes []string `json:"location_types,omitempty"`
	Years         []int    `json:"years,omitempty"`
	Observers     []string `json:"observers,omitempty"`
	Species       []string `json:"species,omitempty"`
}

// Request names a report and its parameters.
type Request struct {
	Name   string
	Filter Filter
	// Species selects the subject of the species detail reports.
	Species string
	// Limit caps ranked reports; zero means DefaultLimit.
	Limit int
}

const (
	DefaultLimit = 10
	MaxLimit     = 1000
)

// SetSpecies assigns species names the way the report expects them: the
// single subject of a species detail report, or a filter for any other.
func (r *Request) SetSpecies(names []string) error {
	if def, ok := Lookup(r.Name); ok && def.RequiresSpecies {
		if len(names) > 1 {
			return fmt.Errorf("%w: %s takes one species", ErrInvalidParameter, r.Name)
		}
		r.Species = ""
		if len(names) == 1 {
			r.Species = names[0]
		}
		return nil
	}
	r.Filter.Species = names
	return nil
}

// Result is one report's tabular output.
type Result struct {
	Report  string   `json:"report"`
	Title   string   `json:"title"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Runner executes report requests.
type Runner interface {
	Run(ctx context.Context, req Request) (Result, error)
}

// Service runs catalog reports against a store.
type Service struct {
	db      Querier
	dialect Dialect
	table   string
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewService creates a Service querying table through db.
func NewService(db Querier, dialect Dialect, table string, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{db: db, dialect: dialect, table: table, metrics: metrics, logger: logger}
}

// Run executes one catalog report. Every error is a *QueryError.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	def, ok := Lookup(req.Name)
	if !ok {
		return Result{}, &QueryError{Report: req.Name, Err: ErrUnknownReport}
	}
	if err := validate(def, req); err != nil {
		return Result{}, &QueryError{Report: req.Name, Err: err}
	}

	b := newBuilder(s.dialect, s.table, req)
	query := def.build(b)

	start := time.Now()
	res, err := s.query(ctx, def, query, b.args)
	s.metrics.ReportDuration.WithLabelValues(def.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.ReportQueries.WithLabelValues(def.Name, "error").Inc()
		s.logger.Error("report query failed", "report", def.Name, "error", err)
		return Result{}, &QueryError{Report: def.Name, Err: err}
	}
	s.metrics.ReportQueries.WithLabelValues(def.Name, "success").Inc()
	return res, nil
}

func validate(def Definition, req Request) error {
	if def.RequiresSpecies && req.Species == "" {
		return fmt.Errorf("%w: species", ErrMissingParameter)
	}
	if req.Limit < 0 || req.Limit > MaxLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidParameter, MaxLimit)
	}
	return nil
}

func (s *Service) query(ctx context.Context, def Definition, query string, args []any) (Result, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, err
	}
	res := Result{Report: def.Name, Title: def.Title, Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Result{}, err
		}
		for i, v := range values {
			values[i] = normalizeValue(v)
		}
		res.Rows = append(res.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}
	return res, nil
}

// normalizeValue maps driver values to JSON-friendly ones: dates become
// YYYY-MM-DD, byte strings become text, floats are rounded to two places.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.DateOnly)
	case []byte:
		return string(t)
	case float64:
		return math.Round(t*100) / 100
	case int32:
		return int64(t)
	default:
		return v
	}
}
