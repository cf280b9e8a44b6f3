// Command genmock writes deterministic synthetic forest and grassland
// monitoring workbooks for local runs and demos. The same seed always produces
// the same cells, including a sprinkling of rows the normalizer rejects.
//
// Usage:
//
//	go run ./cmd/genmock -out data -rows 200 -seed 42
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/bird-observation-etl/internal/domain"
)

type species struct {
	common, scientific, aou string
	tsn                     int
	pif, stewardship        bool
}

var catalog = []species{
	{"American Robin", "Turdus migratorius", "AMRO", 179759, false, false},
	{"Wood Thrush", "Hylocichla mustelina", "WOTH", 179779, true, true},
	{"Red-eyed Vireo", "Vireo olivaceus", "REVI", 179074, false, true},
	{"Ovenbird", "Seiurus aurocapilla", "OVEN", 178844, false, true},
	{"Eastern Wood-Pewee", "Contopus virens", "EAWP", 178532, false, true},
	{"Northern Cardinal", "Cardinalis cardinalis", "NOCA", 179124, false, false},
	{"Carolina Wren", "Thryothorus ludovicianus", "CARW", 178608, false, false},
	{"Field Sparrow", "Spizella pusilla", "FISP", 179432, false, true},
	{"Grasshopper Sparrow", "Ammodramus savannarum", "GRSP", 179333, false, true},
	{"Eastern Meadowlark", "Sturnella magna", "EAME", 179034, false, true},
	{"Indigo Bunting", "Passerina cyanea", "INBU", 179150, false, false},
	{"Prairie Warbler", "Setophaga discolor", "PRAW", 178970, true, true},
}

type workbookDef struct {
	file     string
	location domain.LocationType
	sheets   []string
}

var workbooks = []workbookDef{
	{
		file:     "Bird_Monitoring_Data_FOREST.XLSX",
		location: domain.LocationForest,
		sheets:   []string{"ANTI", "CATO", "CHOH", "GWMP", "HAFE", "MANA", "MONO", "NACE", "PRWI", "ROCR", "WOTR"},
	},
	{
		file:     "Bird_Monitoring_Data_GRASSLAND.XLSX",
		location: domain.LocationGrassland,
		sheets:   []string{"ANTI", "CATO", "CHOH", "HAFE", "MANA", "MONO"},
	},
}

var (
	observers   = []string{"Elizabeth Oswald", "Brian Swimelar", "Kimberly Serno"}
	idMethods   = []string{"Singing", "Calling", "Visualization"}
	distances   = []string{"<= 50 Meters", "50 - 100 Meters", "> 100 Meters", ""}
	sexes       = []string{"Male", "Female", "Undetermined", ""}
	skies       = []string{"Clear or Few Clouds", "Partly Cloudy", "Cloudy/Overcast", "Fog", "Mist/Drizzle"}
	winds       = []string{"Calm (< 1 mph) smoke rises vertically", "Light air movement (1-3 mph) smoke drifts", "Light breeze (4-7 mph) wind felt on face"}
	disturbance = []string{"No effect on count", "Slight effect on count", "Moderate effect on count"}
	intervals   = []string{"0-2.5 min", "2.5 - 5 min", "5 - 7.5 min", "7.5 - 10 min"}
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", ".", "directory to write the workbooks into")
	rows := flag.Int("rows", 100, "data rows per sheet")
	seed := flag.Uint64("seed", 42, "random seed")
	flag.Parse()

	if *rows < 1 {
		flag.Usage()
		return fmt.Errorf("-rows must be positive")
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	for _, wb := range workbooks {
		path := filepath.Join(*outDir, wb.file)
		n, err := writeWorkbook(path, wb, *rows, rng)
		if err != nil {
			return fmt.Errorf("writing %s: %w", wb.file, err)
		}
		log.Printf("%s: %d sheets, %d rows", path, len(wb.sheets), n)
	}
	return nil
}

func writeWorkbook(path string, wb workbookDef, rows int, rng *rand.Rand) (int, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		return 0, err
	}
	timeStyle, err := f.NewStyle(&excelize.Style{NumFmt: 21})
	if err != nil {
		return 0, err
	}

	total := 0
	for _, sheet := range wb.sheets {
		if _, err := f.NewSheet(sheet); err != nil {
			return total, err
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return total, err
		}
		line := 2
		for i := range rows {
			if i > 0 && i%50 == 0 {
				line++ // blank separator row
			}
			cell, err := excelize.CoordinatesToCellName(1, line)
			if err != nil {
				return total, err
			}
			row := mockRow(sheet, wb.location, i, rng)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return total, err
			}
			line++
			total++
		}
		last := line - 1
		if err := f.SetCellStyle(sheet, "G2", fmt.Sprintf("G%d", last), dateStyle); err != nil {
			return total, err
		}
		if err := f.SetCellStyle(sheet, "H2", fmt.Sprintf("I%d", last), timeStyle); err != nil {
			return total, err
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return total, err
	}
	return total, f.SaveAs(path)
}

var header = []any{
	"Admin_Unit_Code", "Sub_Unit_Code", "Site_Name", "Plot_Name", "Location_Type", "Year", "Date",
	"Start_Time", "End_Time", "Observer", "Visit", "Interval_Length", "ID_Method", "Distance",
	"Flyover_Observed", "Sex", "Common_Name", "Scientific_Name", "AcceptedTSN", "NPSTaxonCode",
	"AOU_Code", "PIF_Watchlist_Status", "Regional_Stewardship_Status", "Temperature", "Humidity",
	"Sky", "Wind", "Disturbance", "Previously_Obs", "Initial_Three_Min_Cnt",
}

// mockRow fills one data row. Every 40th row names no species and every 97th
// holds a non-numeric visit, so a run always has rejections to report. Some
// rows carry "NA" weather, which the loader imputes.
func mockRow(unit string, loc domain.LocationType, i int, rng *rand.Rand) []any {
	sp := catalog[rng.IntN(len(catalog))]
	year := 2018
	date := time.Date(year, time.Month(5+rng.IntN(3)), 1+rng.IntN(28), 0, 0, 0, 0, time.UTC)
	startMin := (5+rng.IntN(5))*60 + rng.IntN(4)*15
	start, end := dayFraction(startMin), dayFraction(startMin+10)

	var temp any = round1(12 + rng.Float64()*18)
	var humidity any = round1(40 + rng.Float64()*50)
	if rng.IntN(20) == 0 {
		temp, humidity = "", "NA"
	}
	var visit any = 1 + rng.IntN(2)
	if i%97 == 96 {
		visit = "second"
	}
	common, scientific := sp.common, sp.scientific
	if i%40 == 39 {
		common, scientific = "", ""
	}

	plot := fmt.Sprintf("%s-%04d", unit, 1+rng.IntN(60))
	return []any{
		unit, "", unit + " " + fmt.Sprint(1+rng.IntN(3)), plot, string(loc), year, date,
		start, end, observers[rng.IntN(len(observers))], visit, intervals[rng.IntN(len(intervals))],
		idMethods[rng.IntN(len(idMethods))], distances[rng.IntN(len(distances))],
		yesNo(rng.IntN(10) == 0), sexes[rng.IntN(len(sexes))], common, scientific, sp.tsn, fmt.Sprint(sp.tsn + 1000),
		sp.aou, yesNo(sp.pif), yesNo(sp.stewardship), temp, humidity,
		skies[rng.IntN(len(skies))], winds[rng.IntN(len(winds))], disturbance[rng.IntN(len(disturbance))],
		yesNo(rng.IntN(3) == 0), yesNo(rng.IntN(2) == 0),
	}
}

func yesNo(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// dayFraction renders minutes after midnight the way Excel stores a time.
func dayFraction(minutes int) float64 {
	return float64(minutes) / (24 * 60)
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
