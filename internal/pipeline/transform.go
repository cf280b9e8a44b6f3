package pipeline

import (
	"context"

	"github.com/couchcryptid/bird-observation-etl/internal/domain"
)

// ObservationTransformer implements Transformer using domain.Normalize.
type ObservationTransformer struct{}

// NewTransformer creates an ObservationTransformer.
func NewTransformer() *ObservationTransformer {
	return &ObservationTransformer{}
}

func (t *ObservationTransformer) Transform(_ context.Context, raw domain.RawRow) (domain.Observation, error) {
	return domain.Normalize(raw)
}
