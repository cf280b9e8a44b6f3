//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/bird-observation-etl/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("birdetl-test"))
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start kafka container")

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// startPostgres runs a Postgres server and returns a config pointing at it.
func startPostgres(ctx context.Context, t *testing.T) *config.Config {
	t.Helper()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("birds"),
		tcpostgres.WithUsername("etl"),
		tcpostgres.WithPassword("etl"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start postgres container")

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return &config.Config{
		DBDriver:        config.DriverPostgres,
		DBHost:          host,
		DBPort:          port.Int(),
		DBName:          "birds",
		DBUser:          "etl",
		DBPassword:      "etl",
		DBSSLMode:       "disable",
		DBTable:         "bird_observations",
		InsertBatchSize: 2,
	}
}

var header = []any{
	"Admin_Unit_Code", "Site_Name", "Plot_Name", "Date", "Start_Time", "Observer", "Visit",
	"Distance", "Flyover_Observed", "Sex", "Common_Name", "Scientific_Name", "AcceptedTSN",
	"PIF_Watchlist_Status", "Temperature", "Humidity",
}

// writeWorkbooks writes a small forest and grassland workbook pair into dir
// and points cfg at them. One forest row has no species and is rejected.
func writeWorkbooks(t *testing.T, dir string, cfg *config.Config) {
	t.Helper()
	writeWorkbook(t, filepath.Join(dir, "forest.xlsx"), map[string][][]any{
		"ANTI": {
			{"ANTI", "ANTI 1", "ANTI-0036", "05-06-2018", "06:15", "Elizabeth Oswald", 1, "<= 50 Meters", "FALSE", "Male", "Wood Thrush", "Hylocichla mustelina", 179779, "TRUE", 19.9, 79.4},
			{"ANTI", "ANTI 1", "ANTI-0036", "05-06-2018", "06:15", "Elizabeth Oswald", 1, "50 - 100 Meters", "FALSE", "Female", "American Robin", "Turdus migratorius", 179759, "FALSE", 19.9, ""},
			{"ANTI", "ANTI 1", "ANTI-0037", "05-06-2018", "06:40", "Elizabeth Oswald", 1, "", "TRUE", "", "", "", "", "FALSE", 21.1, 70},
		},
		"CATO": {
			{"CATO", "CATO 2", "CATO-0101", "12-07-2018", "07:05", "Brian Swimelar", 2, "> 100 Meters", "FALSE", "Male", "American Robin", "Turdus migratorius", 179759, "FALSE", "", 82.2},
		},
	})
	writeWorkbook(t, filepath.Join(dir, "grassland.xlsx"), map[string][][]any{
		"MONO": {
			{"MONO", "MONO 3", "MONO-0010", "20-06-2018", "08:00", "Kimberly Serno", 1, "<= 50 Meters", "FALSE", "Undetermined", "Field Sparrow", "Spizella pusilla", 179432, "FALSE", 24.4, 60.1},
		},
	})
	cfg.DataDir = dir
	cfg.ForestWorkbook = "forest.xlsx"
	cfg.GrasslandWorkbook = "grassland.xlsx"
	cfg.BackupPath = filepath.Join(dir, "cleaned_bird_observations.csv")
	cfg.ImputeMissingWeather = true
}

func writeWorkbook(t *testing.T, path string, sheets map[string][][]any) {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for sheet, rows := range sheets {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(sheet, cell, &row))
		}
	}
	require.NoError(t, f.DeleteSheet("Sheet1"))
	require.NoError(t, f.SaveAs(path))
}
