// Package excel reads the forest and grassland monitoring workbooks into raw
// sheet batches.
package excel

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/bird-observation-etl/internal/config"
	"github.com/couchcryptid/bird-observation-etl/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Workbook is one source workbook and the location type its rows carry.
type Workbook struct {
	Path         string
	LocationType domain.LocationType
}

// Reader extracts every sheet of the configured workbooks.
// It implements pipeline.Extractor.
type Reader struct {
	workbooks []Workbook
	logger    *slog.Logger
}

// NewReader creates a Reader for the configured forest and grassland workbooks.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	return NewReaderFor([]Workbook{
		{Path: cfg.ForestPath(), LocationType: domain.LocationForest},
		{Path: cfg.GrasslandPath(), LocationType: domain.LocationGrassland},
	}, logger)
}

// NewReaderFor creates a Reader over an explicit workbook list.
func NewReaderFor(workbooks []Workbook, logger *slog.Logger) *Reader {
	return &Reader{workbooks: workbooks, logger: logger}
}

// Extract reads each workbook in order. A workbook that is missing or cannot
// be opened is logged and skipped, so the result may be empty; only context
// cancellation is returned as an error.
func (r *Reader) Extract(ctx context.Context) ([]domain.SheetBatch, error) {
	var batches []domain.SheetBatch
	for _, wb := range r.workbooks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		got, err := r.readWorkbook(ctx, wb)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Warn("skipping workbook", "workbook", wb.Path, "location_type", wb.LocationType, "error", err)
			continue
		}
		batches = append(batches, got...)
	}
	return batches, nil
}

func (r *Reader) readWorkbook(ctx context.Context, wb Workbook) ([]domain.SheetBatch, error) {
	if _, err := os.Stat(wb.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("workbook not found: %w", err)
		}
		return nil, err
	}

	f, err := excelize.OpenFile(wb.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			r.logger.Debug("close workbook", "workbook", wb.Path, "error", cerr)
		}
	}()

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	name := filepath.Base(wb.Path)
	var batches []domain.SheetBatch
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		ref := domain.SheetRef{Workbook: name, Sheet: sheet, LocationType: wb.LocationType}
		batch, unmapped := sheetBatch(ref, rows, date1904)
		if len(unmapped) > 0 {
			r.logger.Debug("ignoring unrecognized columns", "workbook", name, "sheet", sheet, "columns", unmapped)
		}
		r.logger.Info("sheet read", "workbook", name, "sheet", sheet, "rows", len(batch.Rows))
		batches = append(batches, batch)
	}
	return batches, nil
}

// sheetBatch converts sheet rows into raw rows. The first non-blank row is
// the header; headers are reconciled to canonical column names and the first
// occurrence of a duplicate wins. Blank rows are skipped.
func sheetBatch(ref domain.SheetRef, rows [][]string, date1904 bool) (domain.SheetBatch, []string) {
	batch := domain.SheetBatch{Sheet: ref}

	headerAt := -1
	for i, row := range rows {
		if !blank(row) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return batch, nil
	}

	columns, unmapped := headerColumns(rows[headerAt])
	for i := headerAt + 1; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		values := make(map[string]string, len(columns))
		for j, cell := range row {
			if j >= len(columns) || columns[j] == "" {
				continue
			}
			values[columns[j]] = cell
		}
		if v, ok := values[domain.ColDate]; ok {
			values[domain.ColDate] = serialDate(v, date1904)
		}
		batch.Rows = append(batch.Rows, domain.RawRow{Sheet: ref, Line: i + 1, Values: values})
	}
	return batch, unmapped
}

func headerColumns(header []string) ([]string, []string) {
	columns := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	var unmapped []string
	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			continue
		}
		canonical, ok := domain.CanonicalColumn(h)
		if !ok {
			unmapped = append(unmapped, h)
			continue
		}
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		columns[i] = canonical
	}
	return columns, unmapped
}

// Serial dates converted by the reader must land in this year range; other
// numbers pass through for the normalizer to reject.
const (
	minSerialYear = 1950
	maxSerialYear = 2099
)

// serialDate converts a raw numeric date cell to ISO form using the
// workbook's date system. Non-numeric values pass through unchanged.
func serialDate(v string, date1904 bool) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || serial <= 0 {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil || t.Year() < minSerialYear || t.Year() > maxSerialYear {
		return v
	}
	return t.Format("2006-01-02")
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
