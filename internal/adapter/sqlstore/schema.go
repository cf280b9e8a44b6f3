package sqlstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/bird-observation-etl/internal/domain"
)

// ColumnKind is the logical type of a persisted column.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindInteger
	KindFloat
	KindBool
	KindDate
)

// Column is one persisted column.
type Column struct {
	Name string
	Kind ColumnKind
}

// Schema lists the observation table columns in domain.Columns order.
var Schema = []Column{
	{domain.ColAdminUnitCode, KindText},
	{domain.ColSubUnitCode, KindText},
	{domain.ColSiteName, KindText},
	{domain.ColPlotName, KindText},
	{domain.ColLocationType, KindText},
	{domain.ColYear, KindInteger},
	{domain.ColDate, KindDate},
	{domain.ColStartTime, KindText},
	{domain.ColEndTime, KindText},
	{domain.ColObserver, KindText},
	{domain.ColVisit, KindInteger},
	{domain.ColIntervalLength, KindText},
	{domain.ColIDMethod, KindText},
	{domain.ColDistance, KindText},
	{domain.ColFlyover, KindBool},
	{domain.ColSex, KindText},
	{domain.ColCommonName, KindText},
	{domain.ColScientificName, KindText},
	{domain.ColAcceptedTSN, KindInteger},
	{domain.ColNPSTaxonCode, KindText},
	{domain.ColAOUCode, KindText},
	{domain.ColPIFWatchlist, KindBool},
	{domain.ColRegionalStewardship, KindBool},
	{domain.ColTemperature, KindFloat},
	{domain.ColHumidity, KindFloat},
	{domain.ColSky, KindText},
	{domain.ColWind, KindText},
	{domain.ColDisturbance, KindText},
	{domain.ColPreviouslyObs, KindText},
	{domain.ColInitialThreeMinCnt, KindText},
}

func createTableSQL(d Dialect, table string) string {
	defs := make([]string, len(Schema))
	for i, c := range Schema {
		defs[i] = d.Quote(c.Name) + " " + d.ColumnType(c.Kind)
	}
	return fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", d.Quote(table), strings.Join(defs, ",\n\t"))
}

func columnList(d Dialect) string {
	names := make([]string, len(Schema))
	for i, c := range Schema {
		names[i] = d.Quote(c.Name)
	}
	return strings.Join(names, ", ")
}

// rowValues returns the bind values for one observation in Schema order.
func rowValues(d Dialect, o domain.Observation) []any {
	var date any
	if o.Date != nil {
		date = d.DateValue(*o.Date)
	}
	return []any{
		o.AdminUnitCode,
		o.SubUnitCode,
		o.SiteName,
		o.PlotName,
		string(o.LocationType),
		nullableInt(o.Year),
		date,
		nullableTime(o.StartTime),
		nullableTime(o.EndTime),
		o.Observer,
		int64(o.Visit),
		o.IntervalLength,
		o.IDMethod,
		string(o.Distance),
		o.Flyover,
		string(o.Sex),
		o.CommonName,
		o.ScientificName,
		nullableInt(o.AcceptedTSN),
		o.NPSTaxonCode,
		o.AOUCode,
		o.PIFWatchlist,
		o.RegionalStewardship,
		nullableFloat(o.Temperature),
		nullableFloat(o.Humidity),
		o.Sky,
		o.Wind,
		o.Disturbance,
		o.PreviouslyObserved,
		o.InitialThreeMinute,
	}
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTime(t *domain.TimeOfDay) any {
	if t == nil {
		return nil
	}
	return t.String()
}

// formatValue renders a scanned value the way domain.Observation.Record
// renders the same column, so table contents compare with the backup.
func formatValue(kind ColumnKind, v any) string {
	if v == nil {
		return ""
	}
	switch kind {
	case KindBool:
		switch b := v.(type) {
		case bool:
			return strconv.FormatBool(b)
		case int64:
			return strconv.FormatBool(b != 0)
		}
	case KindFloat:
		if f, ok := v.(float64); ok {
			return domain.FormatFloat(&f)
		}
	case KindDate:
		switch t := v.(type) {
		case time.Time:
			return t.Format(time.DateOnly)
		case string:
			if len(t) >= len(time.DateOnly) {
				return t[:len(time.DateOnly)]
			}
			return t
		}
	}
	switch t := v.(type) {
	case []byte:
		return string(t)
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}
