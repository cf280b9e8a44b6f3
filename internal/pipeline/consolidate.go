package pipeline

import (
	"github.com/couchcryptid/bird-observation-etl/internal/domain"
)

// Batch is the surviving observations of one worksheet.
type Batch struct {
	Sheet        domain.SheetRef
	Observations []domain.Observation
}

// ConsolidateOptions controls post-processing of the consolidated set.
type ConsolidateOptions struct {
	// ImputeMissingWeather fills NULL temperature and humidity with the mean
	// of the non-NULL values.
	ImputeMissingWeather bool
}

// Consolidate concatenates batches in order. Duplicates are kept and every
// record keeps its source sheet. It returns domain.ErrIngestionEmpty when no
// batch holds an observation.
func Consolidate(batches []Batch, opts ConsolidateOptions) ([]domain.Observation, error) {
	n := 0
	for _, b := range batches {
		n += len(b.Observations)
	}
	if n == 0 {
		return nil, domain.ErrIngestionEmpty
	}

	out := make([]domain.Observation, 0, n)
	for _, b := range batches {
		out = append(out, b.Observations...)
	}

	if opts.ImputeMissingWeather {
		imputeMean(out, func(o *domain.Observation) **float64 { return &o.Temperature })
		imputeMean(out, func(o *domain.Observation) **float64 { return &o.Humidity })
	}
	return out, nil
}

// imputeMean replaces NULLs in one column with the column mean. A column
// with no values at all is left NULL.
func imputeMean(obs []domain.Observation, field func(*domain.Observation) **float64) {
	var (
		sum   float64
		count int
	)
	for i := range obs {
		if v := *field(&obs[i]); v != nil {
			sum += *v
			count++
		}
	}
	if count == 0 || count == len(obs) {
		return
	}
	mean := sum / float64(count)
	for i := range obs {
		if f := field(&obs[i]); *f == nil {
			v := mean
			*f = &v
		}
	}
}
