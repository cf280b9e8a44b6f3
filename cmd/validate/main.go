// Command validate checks that the CSV backup extract and the loaded
// observation table hold the same data: identical headers, row counts, and
// per-column values compared as multisets, plus basic invariants on the
// loaded rows. The database is located through the same environment and
// config file as cmd/etl.
//
// Usage:
//
//	go run ./cmd/validate -backup cleaned_bird_observations.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/couchcryptid/bird-observation-etl/internal/adapter/backup"
	"github.com/couchcryptid/bird-observation-etl/internal/adapter/sqlstore"
	"github.com/couchcryptid/bird-observation-etl/internal/config"
	"github.com/couchcryptid/bird-observation-etl/internal/domain"
)

// maxDiffs bounds the mismatches reported per column.
const maxDiffs = 5

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	backupPath := flag.String("backup", "", "backup CSV path (default: BACKUP_PATH)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}
	if *backupPath == "" {
		*backupPath = cfg.BackupPath
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := sqlstore.Open(ctx, sqlstore.ConfigFrom(cfg), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open store: %v\n", err)
		os.Exit(1)
	}
	code := run(ctx, os.Stdout, *backupPath, store)
	_ = store.Close()
	os.Exit(code)
}

type recordSource interface {
	Records(ctx context.Context) ([][]string, error)
}

func run(ctx context.Context, out io.Writer, backupPath string, table recordSource) int {
	fmt.Fprintln(out, "=== Bird Observation Integrity Validation ===")
	fmt.Fprintln(out)

	header, backupRows, err := backup.ReadCSV(backupPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load backup: %v\n", err)
		return 1
	}
	tableRows, err := table.Records(ctx)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load table: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateHeader(header),
		validateCounts(backupRows, tableRows),
		validateColumns(backupRows, tableRows),
		validateRows(tableRows),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-34s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d backup CSV, %d table\n", len(backupRows), len(tableRows))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func validateHeader(header []string) *phase {
	p := &phase{name: "Backup header matches schema"}
	if !slices.Equal(header, domain.Columns) {
		p.errorf("header %v, want %v", header, domain.Columns)
	}
	return p
}

func validateCounts(backupRows, tableRows [][]string) *phase {
	p := &phase{name: "Row counts match"}
	if len(backupRows) != len(tableRows) {
		p.errorf("backup has %d rows, table has %d", len(backupRows), len(tableRows))
	}
	for i, r := range backupRows {
		if len(r) != len(domain.Columns) {
			p.errorf("backup row %d: %d fields, want %d", i+2, len(r), len(domain.Columns))
		}
	}
	return p
}

// validateColumns compares each column as a sorted multiset, so the check is
// independent of the order the table returns rows in.
func validateColumns(backupRows, tableRows [][]string) *phase {
	p := &phase{name: "Per-column values match"}
	for i, col := range domain.Columns {
		want := column(backupRows, i)
		got := column(tableRows, i)
		if len(want) != len(got) {
			continue // reported by validateCounts
		}
		diffs := 0
		for j := range want {
			if want[j] == got[j] {
				continue
			}
			if diffs < maxDiffs {
				p.errorf("%s: backup %q, table %q", col, want[j], got[j])
			}
			diffs++
		}
		if diffs > maxDiffs {
			p.errorf("%s: %d more mismatches", col, diffs-maxDiffs)
		}
	}
	return p
}

func column(rows [][]string, i int) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if i < len(r) {
			out = append(out, r[i])
		}
	}
	slices.Sort(out)
	return out
}

func validateRows(rows [][]string) *phase {
	p := &phase{name: "Loaded rows are well formed"}
	species := slices.Index(domain.Columns, domain.ColCommonName)
	location := slices.Index(domain.Columns, domain.ColLocationType)
	for i, r := range rows {
		if strings.TrimSpace(r[species]) == "" {
			p.errorf("row %d: empty %s", i+1, domain.ColCommonName)
		}
		switch domain.LocationType(r[location]) {
		case domain.LocationForest, domain.LocationGrassland:
		default:
			p.errorf("row %d: %s %q", i+1, domain.ColLocationType, r[location])
		}
	}
	return p
}
