package pipeline_test

import (
	"testing"

	"github.com/couchcryptid/bird-observation-etl/internal/domain"
	"github.com/couchcryptid/bird-observation-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func obs(sheet domain.SheetRef, species string, temp, humidity *float64) domain.Observation {
	return domain.Observation{
		CommonName:   species,
		LocationType: sheet.LocationType,
		Temperature:  temp,
		Humidity:     humidity,
		Source:       sheet,
	}
}

func TestConsolidate_PreservesOrderAndDuplicates(t *testing.T) {
	batches := []pipeline.Batch{
		{Sheet: forestSheet, Observations: []domain.Observation{
			obs(forestSheet, "American Robin", nil, nil),
			obs(forestSheet, "American Robin", nil, nil),
		}},
		{Sheet: grasslandSheet},
		{Sheet: grasslandSheet, Observations: []domain.Observation{
			obs(grasslandSheet, "Field Sparrow", nil, nil),
		}},
	}

	out, err := pipeline.Consolidate(batches, pipeline.ConsolidateOptions{})
	require.NoError(t, err)
	require.Len(t, out, 3, "duplicates are kept")
	assert.Equal(t, "American Robin", out[0].CommonName)
	assert.Equal(t, "Field Sparrow", out[2].CommonName)
	assert.Equal(t, grasslandSheet, out[2].Source)
	assert.Nil(t, out[0].Temperature, "no imputation unless asked")
}

func TestConsolidate_Empty(t *testing.T) {
	tests := []struct {
		name    string
		batches []pipeline.Batch
	}{
		{"nil", nil},
		{"empty sheets", []pipeline.Batch{{Sheet: forestSheet}, {Sheet: grasslandSheet}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pipeline.Consolidate(tt.batches, pipeline.ConsolidateOptions{ImputeMissingWeather: true})
			require.ErrorIs(t, err, domain.ErrIngestionEmpty)
		})
	}
}

func TestConsolidate_ImputesMissingWeather(t *testing.T) {
	batches := []pipeline.Batch{
		{Sheet: forestSheet, Observations: []domain.Observation{
			obs(forestSheet, "a", ptr(10.0), nil),
			obs(forestSheet, "b", nil, nil),
		}},
		{Sheet: grasslandSheet, Observations: []domain.Observation{
			obs(grasslandSheet, "c", ptr(20.0), nil),
			obs(grasslandSheet, "d", nil, nil),
		}},
	}

	out, err := pipeline.Consolidate(batches, pipeline.ConsolidateOptions{ImputeMissingWeather: true})
	require.NoError(t, err)

	for _, o := range out {
		require.NotNil(t, o.Temperature, o.CommonName)
		assert.Nil(t, o.Humidity, "an all-NULL column stays NULL")
	}
	assert.InDelta(t, 10.0, *out[0].Temperature, 0)
	assert.InDelta(t, 15.0, *out[1].Temperature, 0)
	assert.InDelta(t, 15.0, *out[3].Temperature, 0)

	*out[1].Temperature = 99
	assert.InDelta(t, 15.0, *out[3].Temperature, 0, "imputed values are not shared")
}
