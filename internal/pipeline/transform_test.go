package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/bird-observation-etl/internal/domain"
	"github.com/couchcryptid/bird-observation-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSheetRow map[string]string

func TestObservationTransformer_WithMockRows(t *testing.T) {
	transformer := pipeline.NewTransformer()
	plotSheet := domain.SheetRef{Workbook: "Bird_Monitoring_Data_FOREST.XLSX", Sheet: "Forest_Plot_A", LocationType: domain.LocationForest}

	cases := []struct {
		name     string
		sheet    domain.SheetRef
		row      mockSheetRow
		unit     string
		site     string
		sex      domain.Sex
		distance domain.DistanceBucket
		date     *time.Time
	}{
		{
			name:  "forest plot sheet",
			sheet: plotSheet,
			row: mockSheetRow{
				domain.ColCommonName: "Ovenbird", domain.ColSex: "M", domain.ColDistance: "<= 50 Meters",
				domain.ColDate: "2018-05-22",
			},
			unit: "Plot_A", site: domain.Unknown, sex: domain.SexMale, distance: domain.DistanceUpTo50,
			date: ptr(time.Date(2018, time.May, 22, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:  "grassland unit sheet",
			sheet: grasslandSheet,
			row: mockSheetRow{
				domain.ColCommonName: "Field Sparrow", domain.ColSex: "", domain.ColDistance: "50 - 100 Meters",
				domain.ColSiteName: "MONO 1",
			},
			unit: "MONO", site: "MONO 1", sex: domain.SexUnknown, distance: domain.Distance50To100,
		},
		{
			name:  "undetermined far bird",
			sheet: forestSheet,
			row: mockSheetRow{
				domain.ColScientificName: "Hylocichla mustelina", domain.ColSex: "Undetermined", domain.ColDistance: "> 100 Meters",
			},
			unit: "ANTI", site: domain.Unknown, sex: domain.SexUndetermined, distance: domain.DistanceOver100,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := domain.RawRow{Sheet: tc.sheet, Line: 2, Values: tc.row}

			out, err := transformer.Transform(context.Background(), raw)
			require.NoError(t, err)
			assert.Equal(t, tc.unit, out.AdminUnitCode)
			assert.Equal(t, tc.site, out.SiteName)
			assert.Equal(t, tc.sex, out.Sex)
			assert.Equal(t, tc.distance, out.Distance)
			assert.Equal(t, tc.sheet.LocationType, out.LocationType)
			assert.Equal(t, tc.date, out.Date)
			assert.Equal(t, tc.sheet, out.Source)
		})
	}
}

func TestObservationTransformer_Rejects(t *testing.T) {
	transformer := pipeline.NewTransformer()

	_, err := transformer.Transform(context.Background(), domain.RawRow{Sheet: forestSheet, Line: 7, Values: mockSheetRow{domain.ColSex: "M"}})
	require.ErrorIs(t, err, domain.ErrRowRejected)

	var rejected *domain.RowRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, 7, rejected.Line)
	assert.Equal(t, domain.ReasonMissingSpecies, rejected.Reason)
}
