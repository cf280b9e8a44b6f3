package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testForestBook = "Bird_Monitoring_Data_FOREST.XLSX"
	testRobin      = "American Robin"
)

func forestRow(sheet string, values map[string]string) RawRow {
	return RawRow{
		Sheet:  SheetRef{Workbook: testForestBook, Sheet: sheet, LocationType: LocationForest},
		Line:   2,
		Values: values,
	}
}

func TestNormalize_SpecExample(t *testing.T) {
	obs, err := Normalize(forestRow("Forest_Plot_A", map[string]string{
		ColCommonName: testRobin,
		ColDate:       "2018-06-05",
		ColSex:        "M",
	}))
	require.NoError(t, err)

	assert.Equal(t, LocationForest, obs.LocationType)
	assert.Equal(t, "Plot_A", obs.AdminUnitCode)
	require.NotNil(t, obs.Date)
	assert.Equal(t, time.Date(2018, time.June, 5, 0, 0, 0, 0, time.UTC), *obs.Date)
	assert.Equal(t, SexMale, obs.Sex)
	assert.Equal(t, testRobin, obs.CommonName)
	assert.Equal(t, Unknown, obs.ScientificName)
	require.NotNil(t, obs.Year)
	assert.Equal(t, 2018, *obs.Year)
}

func TestNormalize_FullRow(t *testing.T) {
	row := forestRow("ANTI", map[string]string{
		ColAdminUnitCode:       "IGNORED",
		ColSubUnitCode:         "",
		ColSiteName:            "ANTI 1",
		ColPlotName:            "ANTI-0036",
		ColYear:                "2018",
		ColDate:                "43256",
		ColStartTime:           "0.2604166667",
		ColEndTime:             "06:35:00",
		ColObserver:            "Elizabeth Oswald",
		ColVisit:               "1",
		ColIntervalLength:      "0-2.5 min",
		ColIDMethod:            "Singing",
		ColDistance:            "<= 50 Meters",
		ColFlyover:             "FALSE",
		ColSex:                 "Undetermined",
		ColCommonName:          "Eastern Towhee",
		ColScientificName:      "Pipilo erythrophthalmus",
		ColAcceptedTSN:         "179276.0",
		ColNPSTaxonCode:        "88886",
		ColAOUCode:             "EATO",
		ColPIFWatchlist:        "FALSE",
		ColRegionalStewardship: "TRUE",
		ColTemperature:         "19.9",
		ColHumidity:            "79.4",
		ColSky:                 "Cloudy/Overcast",
		ColWind:                "calm (< 1 mph) smoke rises vertically",
		ColDisturbance:         "No effect on count",
		ColPreviouslyObs:       "",
		ColInitialThreeMinCnt:  "TRUE",
	})

	obs, err := Normalize(row)
	require.NoError(t, err)

	assert.Equal(t, "ANTI", obs.AdminUnitCode)
	assert.Equal(t, Unknown, obs.SubUnitCode)
	assert.Equal(t, "ANTI 1", obs.SiteName)
	assert.Equal(t, "ANTI-0036", obs.PlotName)
	assert.Equal(t, 2018, *obs.Year)
	assert.Equal(t, "2018-06-05", obs.Date.Format("2006-01-02"))
	assert.Equal(t, "06:15:00", obs.StartTime.String())
	assert.Equal(t, "06:35:00", obs.EndTime.String())
	assert.Equal(t, "Elizabeth Oswald", obs.Observer)
	assert.Equal(t, 1, obs.Visit)
	assert.Equal(t, "0-2.5 min", obs.IntervalLength)
	assert.Equal(t, DistanceUpTo50, obs.Distance)
	assert.False(t, obs.Flyover)
	assert.Equal(t, SexUndetermined, obs.Sex)
	require.NotNil(t, obs.AcceptedTSN)
	assert.Equal(t, 179276, *obs.AcceptedTSN)
	assert.Equal(t, "EATO", obs.AOUCode)
	assert.False(t, obs.PIFWatchlist)
	assert.True(t, obs.RegionalStewardship)
	assert.True(t, obs.AtRisk())
	assert.InDelta(t, 19.9, *obs.Temperature, 1e-9)
	assert.InDelta(t, 79.4, *obs.Humidity, 1e-9)
	assert.Equal(t, "Calm (< 1 mph) smoke rises vertically", obs.Wind)
	assert.Equal(t, Unknown, obs.PreviouslyObserved)
	assert.Equal(t, "Yes", obs.InitialThreeMinute)
	assert.Equal(t, row.Sheet, obs.Source)
	assert.Equal(t, 2, obs.Line)
}

func TestNormalize_BlankCategoricalsBecomeUnknown(t *testing.T) {
	obs, err := Normalize(forestRow("ANTI", map[string]string{ColCommonName: testRobin}))
	require.NoError(t, err)

	assert.Equal(t, SexUnknown, obs.Sex)
	assert.Equal(t, DistanceUnknown, obs.Distance)
	assert.Equal(t, Unknown, obs.IDMethod)
	assert.Equal(t, Unknown, obs.Sky)
	assert.Equal(t, Unknown, obs.Wind)
	assert.Equal(t, Unknown, obs.Disturbance)
	assert.Equal(t, Unknown, obs.Observer)
	assert.Equal(t, Unknown, obs.SiteName)
	assert.Nil(t, obs.Date)
	assert.Nil(t, obs.Year)
	assert.Nil(t, obs.StartTime)
	assert.Nil(t, obs.Temperature)
	assert.Nil(t, obs.AcceptedTSN)
	assert.Equal(t, 0, obs.Visit)
	assert.False(t, obs.Flyover)
	assert.False(t, obs.PIFWatchlist)
	assert.False(t, obs.RegionalStewardship)
}

func TestNormalize_UnparseableDateKeepsRow(t *testing.T) {
	obs, err := Normalize(forestRow("ANTI", map[string]string{
		ColCommonName: testRobin,
		ColDate:       "sometime in June",
	}))
	require.NoError(t, err)
	assert.Nil(t, obs.Date)
	assert.Nil(t, obs.Year)
}

func TestNormalize_UnknownSheetFallsBackToRowUnitCode(t *testing.T) {
	obs, err := Normalize(forestRow("", map[string]string{
		ColCommonName:    testRobin,
		ColAdminUnitCode: "CATO",
	}))
	require.NoError(t, err)
	assert.Equal(t, "CATO", obs.AdminUnitCode)

	obs, err = Normalize(forestRow("", map[string]string{ColCommonName: testRobin}))
	require.NoError(t, err)
	assert.Equal(t, Unknown, obs.AdminUnitCode)
}

func TestNormalize_SiteFromSheetName(t *testing.T) {
	obs, err := Normalize(forestRow("GWMP - Turkey Run", map[string]string{ColCommonName: testRobin}))
	require.NoError(t, err)
	assert.Equal(t, "GWMP", obs.AdminUnitCode)
	assert.Equal(t, "Turkey Run", obs.SiteName)
}

func TestNormalize_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		column string
		reason string
	}{
		{"no species", map[string]string{ColSex: "M"}, "", ReasonMissingSpecies},
		{"fractional visit", map[string]string{ColCommonName: testRobin, ColVisit: "1.5"}, ColVisit, ReasonInvalidNumber},
		{"text tsn", map[string]string{ColCommonName: testRobin, ColAcceptedTSN: "n/a"}, ColAcceptedTSN, ReasonInvalidNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(forestRow("ANTI", tt.values))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrRowRejected))

			var rejected *RowRejectedError
			require.ErrorAs(t, err, &rejected)
			assert.Equal(t, tt.column, rejected.Column)
			assert.Equal(t, tt.reason, rejected.Reason)
			assert.Equal(t, 2, rejected.Line)
			assert.Contains(t, err.Error(), testForestBook+"/ANTI row 2")
		})
	}
}

func TestNormalize_TextWeatherBecomesNull(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{"text temperature", map[string]string{ColCommonName: testRobin, ColTemperature: "warm", ColHumidity: "61"}},
		{"NA humidity", map[string]string{ColCommonName: testRobin, ColTemperature: "19.9", ColHumidity: "NA"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, err := Normalize(forestRow("ANTI", tt.values))
			require.NoError(t, err)
			assert.Equal(t, testRobin, obs.CommonName)
			if tt.values[ColTemperature] == "warm" {
				assert.Nil(t, obs.Temperature)
				require.NotNil(t, obs.Humidity)
				assert.InDelta(t, 61, *obs.Humidity, 1e-9)
			} else {
				assert.Nil(t, obs.Humidity)
				require.NotNil(t, obs.Temperature)
				assert.InDelta(t, 19.9, *obs.Temperature, 1e-9)
			}
		})
	}
}

func TestNormalize_ScientificNameAlone(t *testing.T) {
	obs, err := Normalize(forestRow("ANTI", map[string]string{ColScientificName: "Turdus migratorius"}))
	require.NoError(t, err)
	assert.Equal(t, Unknown, obs.CommonName)
	assert.Equal(t, "Turdus migratorius", obs.ScientificName)
}

func TestNormalize_Deterministic(t *testing.T) {
	row := forestRow("ANTI", map[string]string{ColCommonName: testRobin, ColDate: "05-06-2018", ColTemperature: "20"})
	first, err := Normalize(row)
	require.NoError(t, err)
	second, err := Normalize(row)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
