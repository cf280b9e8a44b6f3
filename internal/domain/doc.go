// Package domain models bird monitoring observations collected on forest and
// grassland plots and the rules that turn raw spreadsheet rows into them.
//
// # Data Source
//
// Observations arrive as two Excel workbooks, one per habitat:
//
//	Bird_Monitoring_Data_FOREST.XLSX     -> Location_Type "Forest"
//	Bird_Monitoring_Data_GRASSLAND.XLSX  -> Location_Type "Grassland"
//
// Each workbook holds one sheet per administrative unit (a park code such as
// "ANTI" or "GWMP"), sometimes suffixed with a site name. The first non-blank
// row of a sheet is the header. Header spellings drift between sheets
// ("Common_Name", "Common Name", "COMMON NAME"); [CanonicalColumn] folds them
// to one canonical name.
//
// # Sheet Naming
//
// Sheet names are parsed by [ParseSheetName]:
//
//	"ANTI"                 -> unit ANTI,   site Unknown
//	"GWMP - Turkey Run"    -> unit GWMP,   site Turkey Run
//	"Grassland_MONO_Site2" -> unit MONO,   site Site2
//	"Forest_Plot_A"        -> unit Plot_A, site Unknown
//
// A leading habitat prefix is dropped. A unit code is 2-6 upper-case letters
// or digits starting with a letter. Anything unparseable becomes [Unknown].
//
// # Value Conventions
//
// Dates are DD-MM-YYYY in the source sheets, ISO 8601 in re-exported sheets,
// or Excel serial day numbers when read raw. Times are HH:MM:SS, 12-hour
// clock strings, or Excel day fractions (0.25 = 06:00). Unparseable dates and
// times become NULL; the row is kept.
//
// Boolean-like cells use TRUE/FALSE, Yes/No, Y/N or 1/0. Blank and
// unrecognized cells are tri-state unknown. Conservation flags and the
// flyover flag collapse unknown to false; Previously_Obs and
// Initial_Three_Min_Cnt keep "Unknown".
//
// Distance is bucketed into "<=50 Meters", "50-100 Meters", ">100 Meters"
// and "Unknown", in that report order. See [DistanceBucket.Rank].
//
// # Rejection
//
// A row is rejected ([ErrRowRejected]) when it names no species at all or
// when a numeric column holds non-numeric text. Rejected rows are logged and
// dropped; the run continues.
package domain
