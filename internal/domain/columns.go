package domain

import (
	"strings"
	"unicode"
)

// Canonical column names. They double as the persisted column names and the
// backup CSV header, so they are case-sensitive.
const (
	ColAdminUnitCode       = "Admin_Unit_Code"
	ColSubUnitCode         = "Sub_Unit_Code"
	ColSiteName            = "Site_Name"
	ColPlotName            = "Plot_Name"
	ColLocationType        = "Location_Type"
	ColYear                = "Year"
	ColDate                = "Date"
	ColStartTime           = "Start_Time"
	ColEndTime             = "End_Time"
	ColObserver            = "Observer"
	ColVisit               = "Visit"
	ColIntervalLength      = "Interval_Length"
	ColIDMethod            = "ID_Method"
	ColDistance            = "Distance"
	ColFlyover             = "Flyover_Observed"
	ColSex                 = "Sex"
	ColCommonName          = "Common_Name"
	ColScientificName      = "Scientific_Name"
	ColAcceptedTSN         = "AcceptedTSN"
	ColNPSTaxonCode        = "NPSTaxonCode"
	ColAOUCode             = "AOU_Code"
	ColPIFWatchlist        = "PIF_Watchlist_Status"
	ColRegionalStewardship = "Regional_Stewardship_Status"
	ColTemperature         = "Temperature"
	ColHumidity            = "Humidity"
	ColSky                 = "Sky"
	ColWind                = "Wind"
	ColDisturbance         = "Disturbance"
	ColPreviouslyObs       = "Previously_Obs"
	ColInitialThreeMinCnt  = "Initial_Three_Min_Cnt"
)

// Columns lists the persisted columns in table and backup order.
var Columns = []string{
	ColAdminUnitCode,
	ColSubUnitCode,
	ColSiteName,
	ColPlotName,
	ColLocationType,
	ColYear,
	ColDate,
	ColStartTime,
	ColEndTime,
	ColObserver,
	ColVisit,
	ColIntervalLength,
	ColIDMethod,
	ColDistance,
	ColFlyover,
	ColSex,
	ColCommonName,
	ColScientificName,
	ColAcceptedTSN,
	ColNPSTaxonCode,
	ColAOUCode,
	ColPIFWatchlist,
	ColRegionalStewardship,
	ColTemperature,
	ColHumidity,
	ColSky,
	ColWind,
	ColDisturbance,
	ColPreviouslyObs,
	ColInitialThreeMinCnt,
}

// headerAliases maps folded header spellings that do not fold onto a
// canonical name by themselves.
var headerAliases = map[string]string{
	"species":              ColCommonName,
	"observationdate":      ColDate,
	"time":                 ColStartTime,
	"identification":       ColIDMethod,
	"flyover":              ColFlyover,
	"pifwatchlist":         ColPIFWatchlist,
	"watchlist":            ColPIFWatchlist,
	"regionalstewardship":  ColRegionalStewardship,
	"stewardship":          ColRegionalStewardship,
	"temp":                 ColTemperature,
	"previouslyobserved":   ColPreviouslyObs,
	"initialthreemincount": ColInitialThreeMinCnt,
	"unitcode":             ColAdminUnitCode,
	"site":                 ColSiteName,
	"plot":                 ColPlotName,
}

var foldedColumns = func() map[string]string {
	m := make(map[string]string, len(Columns)+len(headerAliases))
	for alias, col := range headerAliases {
		m[alias] = col
	}
	for _, col := range Columns {
		m[foldHeader(col)] = col
	}
	return m
}()

// CanonicalColumn maps a sheet header to its canonical column name. The
// second result is false for headers that belong to no known column.
func CanonicalColumn(header string) (string, bool) {
	col, ok := foldedColumns[foldHeader(header)]
	return col, ok
}

// foldHeader lower-cases and drops everything but letters and digits, so
// "Common Name", "COMMON_NAME" and "common-name" compare equal.
func foldHeader(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
