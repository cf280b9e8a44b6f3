package domain

import "time"

// Vocabularies for case normalization of free-text categoricals. Values
// outside these lists are kept with an upper-cased first letter.
var (
	idMethodVocab = []string{"Singing", "Calling", "Visualization"}

	skyVocab = []string{
		"Clear or Few Clouds",
		"Partly Cloudy",
		"Cloudy/Overcast",
		"Fog",
		"Mist/Drizzle",
		"Rain",
	}

	windVocab = []string{
		"Calm (< 1 mph) smoke rises vertically",
		"Light air movement (1-3 mph) smoke drifts",
		"Light breeze (4-7 mph) wind felt on face",
		"Gentle breeze (8-12 mph), leaves in motion",
		"Moderate breeze (13-18 mph) raises dust, moves branches",
	}

	disturbanceVocab = []string{
		"No effect on count",
		"Slight effect on count",
		"Moderate effect on count",
		"Serious effect on count",
	}

	intervalVocab = []string{"0-2.5 min", "2.5 - 5 min", "5 - 7.5 min", "7.5 - 10 min"}
)

// Normalize converts one raw sheet row into an Observation. It returns a
// *RowRejectedError when the row names no species or Visit or AcceptedTSN
// holds non-numeric text. Non-numeric Temperature and Humidity become NULL.
func Normalize(row RawRow) (Observation, error) {
	common := CleanText(row.Get(ColCommonName))
	scientific := CleanText(row.Get(ColScientificName))
	if common == "" && scientific == "" {
		return Observation{}, &RowRejectedError{Sheet: row.Sheet, Line: row.Line, Reason: ReasonMissingSpecies}
	}

	temperature := weatherColumn(row, ColTemperature)
	humidity := weatherColumn(row, ColHumidity)
	visit, err := integerColumn(row, ColVisit)
	if err != nil {
		return Observation{}, err
	}
	tsn, err := integerColumn(row, ColAcceptedTSN)
	if err != nil {
		return Observation{}, err
	}

	identity := ParseSheetName(row.Sheet.Sheet)
	date := ParseDate(row.Get(ColDate))

	obs := Observation{
		AdminUnitCode: adminUnitCode(identity, row),
		SubUnitCode:   Categorical(row.Get(ColSubUnitCode)),
		SiteName:      siteName(identity, row),
		PlotName:      Categorical(row.Get(ColPlotName)),
		LocationType:  row.Sheet.LocationType,

		Year:      observationYear(row.Get(ColYear), date),
		Date:      date,
		StartTime: ParseTimeOfDay(row.Get(ColStartTime)),
		EndTime:   ParseTimeOfDay(row.Get(ColEndTime)),

		Observer:       Categorical(row.Get(ColObserver)),
		IntervalLength: Categorical(row.Get(ColIntervalLength), intervalVocab...),
		IDMethod:       Categorical(row.Get(ColIDMethod), idMethodVocab...),
		Distance:       ParseDistance(row.Get(ColDistance)),
		Flyover:        ParseTriState(row.Get(ColFlyover)).Bool(),
		Sex:            ParseSex(row.Get(ColSex)),

		CommonName:     orUnknown(common),
		ScientificName: orUnknown(scientific),
		AcceptedTSN:    tsn,
		NPSTaxonCode:   Categorical(row.Get(ColNPSTaxonCode)),
		AOUCode:        Categorical(row.Get(ColAOUCode)),

		PIFWatchlist:        ParseTriState(row.Get(ColPIFWatchlist)).Bool(),
		RegionalStewardship: ParseTriState(row.Get(ColRegionalStewardship)).Bool(),

		Temperature: temperature,
		Humidity:    humidity,
		Sky:         Categorical(row.Get(ColSky), skyVocab...),
		Wind:        Categorical(row.Get(ColWind), windVocab...),
		Disturbance: Categorical(row.Get(ColDisturbance), disturbanceVocab...),

		PreviouslyObserved: ParseTriState(row.Get(ColPreviouslyObs)).Label(),
		InitialThreeMinute: ParseTriState(row.Get(ColInitialThreeMinCnt)).Label(),

		Source: row.Sheet,
		Line:   row.Line,
	}
	if visit != nil {
		obs.Visit = *visit
	}
	return obs, nil
}

func adminUnitCode(identity SheetIdentity, row RawRow) string {
	if identity.UnitCode != Unknown {
		return identity.UnitCode
	}
	return orUnknown(CleanText(row.Get(ColAdminUnitCode)))
}

func siteName(identity SheetIdentity, row RawRow) string {
	if site := CleanText(row.Get(ColSiteName)); site != "" && site != Unknown {
		return site
	}
	return identity.SiteName
}

// observationYear prefers the sheet's Year column and falls back to the
// parsed date.
func observationYear(raw string, date *time.Time) *int {
	if y, ok := parseInteger(raw); ok && y != nil && *y > 0 {
		return y
	}
	if date != nil {
		y := date.Year()
		return &y
	}
	return nil
}

// weatherColumn coerces a reading to a float, leaving text such as "NA" NULL
// for the consolidator's imputation.
func weatherColumn(row RawRow, column string) *float64 {
	v, _ := parseNumber(row.Get(column))
	return v
}

func integerColumn(row RawRow, column string) (*int, error) {
	raw := row.Get(column)
	v, ok := parseInteger(raw)
	if !ok {
		return nil, &RowRejectedError{Sheet: row.Sheet, Line: row.Line, Column: column, Value: raw, Reason: ReasonInvalidNumber}
	}
	return v, nil
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
