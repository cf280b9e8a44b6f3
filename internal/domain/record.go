package domain

import (
	"strconv"
	"time"
)

// Record renders the observation as text in Columns order, the layout of the
// backup extract. NULL values render as the empty string.
func (o Observation) Record() []string {
	return []string{
		o.AdminUnitCode,
		o.SubUnitCode,
		o.SiteName,
		o.PlotName,
		string(o.LocationType),
		formatInt(o.Year),
		formatDate(o.Date),
		formatTimeOfDay(o.StartTime),
		formatTimeOfDay(o.EndTime),
		o.Observer,
		strconv.Itoa(o.Visit),
		o.IntervalLength,
		o.IDMethod,
		string(o.Distance),
		strconv.FormatBool(o.Flyover),
		string(o.Sex),
		o.CommonName,
		o.ScientificName,
		formatInt(o.AcceptedTSN),
		o.NPSTaxonCode,
		o.AOUCode,
		strconv.FormatBool(o.PIFWatchlist),
		strconv.FormatBool(o.RegionalStewardship),
		FormatFloat(o.Temperature),
		FormatFloat(o.Humidity),
		o.Sky,
		o.Wind,
		o.Disturbance,
		o.PreviouslyObserved,
		o.InitialThreeMinute,
	}
}

// FormatFloat renders a nullable float with the shortest exact representation.
func FormatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

func formatTimeOfDay(t *TimeOfDay) string {
	if t == nil {
		return ""
	}
	return t.String()
}
