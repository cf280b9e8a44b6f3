package domain

import (
	"fmt"
	"time"
)

// Unknown is the sentinel stored in categorical columns whose source value is
// missing or unparseable.
const Unknown = "Unknown"

// LocationType is the habitat classification derived from the source workbook.
type LocationType string

const (
	LocationForest    LocationType = "Forest"
	LocationGrassland LocationType = "Grassland"
)

// Sex is the recorded sex of the observed bird.
type Sex string

const (
	SexMale         Sex = "Male"
	SexFemale       Sex = "Female"
	SexUndetermined Sex = "Undetermined"
	SexUnknown      Sex = Unknown
)

// DistanceBucket is the ordered distance-from-observer category.
type DistanceBucket string

const (
	DistanceUpTo50  DistanceBucket = "<=50 Meters"
	Distance50To100 DistanceBucket = "50-100 Meters"
	DistanceOver100 DistanceBucket = ">100 Meters"
	DistanceUnknown DistanceBucket = Unknown
)

const distanceRankOther = 4

// DistanceBuckets lists the buckets in report order.
var DistanceBuckets = []DistanceBucket{DistanceUpTo50, Distance50To100, DistanceOver100, DistanceUnknown}

// Rank returns the 1-based report position of the bucket. Values outside the
// three measured buckets sort last.
func (d DistanceBucket) Rank() int {
	switch d {
	case DistanceUpTo50:
		return 1
	case Distance50To100:
		return 2
	case DistanceOver100:
		return 3
	default:
		return distanceRankOther
	}
}

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// String formats the time as HH:MM:SS.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// SheetRef identifies the workbook sheet a row was read from.
type SheetRef struct {
	Workbook     string
	Sheet        string
	LocationType LocationType
}

func (s SheetRef) String() string {
	return s.Workbook + "/" + s.Sheet
}

// RawRow is one non-blank sheet row keyed by canonical column name.
type RawRow struct {
	Sheet  SheetRef
	Line   int // 1-based row number in the sheet
	Values map[string]string
}

// Get returns the cell for a canonical column, or "" when absent.
func (r RawRow) Get(column string) string {
	return r.Values[column]
}

// SheetBatch is the non-blank rows of one worksheet, in sheet order.
type SheetBatch struct {
	Sheet SheetRef
	Rows  []RawRow
}

// Observation is one normalized bird sighting.
type Observation struct {
	AdminUnitCode string
	SubUnitCode   string
	SiteName      string
	PlotName      string
	LocationType  LocationType

	Year      *int
	Date      *time.Time
	StartTime *TimeOfDay
	EndTime   *TimeOfDay

	Observer       string
	Visit          int
	IntervalLength string
	IDMethod       string
	Distance       DistanceBucket
	Flyover        bool
	Sex            Sex

	CommonName     string
	ScientificName string
	AcceptedTSN    *int
	NPSTaxonCode   string
	AOUCode        string

	PIFWatchlist        bool
	RegionalStewardship bool

	Temperature *float64
	Humidity    *float64
	Sky         string
	Wind        string
	Disturbance string

	PreviouslyObserved string
	InitialThreeMinute string

	// Source is kept for debugging and log context; it is not persisted.
	Source SheetRef
	Line   int
}

// AtRisk reports whether the species is on the PIF watchlist or is a
// regional stewardship species.
func (o Observation) AtRisk() bool {
	return o.PIFWatchlist || o.RegionalStewardship
}
