package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/couchcryptid/bird-observation-etl/internal/domain"
	"github.com/couchcryptid/bird-observation-etl/internal/observability"
	"github.com/couchcryptid/bird-observation-etl/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	sheets []domain.SheetBatch
	err    error
}

func (m *mockExtractor) Extract(ctx context.Context) ([]domain.SheetBatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.sheets, m.err
}

type mockBackup struct {
	written [][]domain.Observation
	err     error
}

func (m *mockBackup) Write(_ context.Context, obs []domain.Observation) (domain.BackupArtifact, error) {
	if m.err != nil {
		return domain.BackupArtifact{}, m.err
	}
	m.written = append(m.written, obs)
	return domain.BackupArtifact{Path: "/tmp/cleaned_bird_observations.csv"}, nil
}

type mockStore struct {
	loads [][]domain.Observation
	err   error
}

func (m *mockStore) Replace(_ context.Context, obs []domain.Observation) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.loads = append(m.loads, obs)
	return len(obs), nil
}

type mockPublisher struct {
	published []domain.RunSummary
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, s domain.RunSummary) error {
	m.published = append(m.published, s)
	return m.err
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	forestSheet    = domain.SheetRef{Workbook: "Bird_Monitoring_Data_FOREST.XLSX", Sheet: "ANTI", LocationType: domain.LocationForest}
	grasslandSheet = domain.SheetRef{Workbook: "Bird_Monitoring_Data_GRASSLAND.XLSX", Sheet: "MONO", LocationType: domain.LocationGrassland}
)

func row(sheet domain.SheetRef, line int, values map[string]string) domain.RawRow {
	return domain.RawRow{Sheet: sheet, Line: line, Values: values}
}

func validRow(sheet domain.SheetRef, line int, species string) domain.RawRow {
	return row(sheet, line, map[string]string{
		domain.ColCommonName:  species,
		domain.ColSex:         "Male",
		domain.ColDistance:    "<= 50 Meters",
		domain.ColTemperature: "19.9",
		domain.ColDate:        "2018-06-05",
	})
}

func sampleSheets() []domain.SheetBatch {
	return []domain.SheetBatch{
		{Sheet: forestSheet, Rows: []domain.RawRow{
			validRow(forestSheet, 2, "American Robin"),
			row(forestSheet, 3, map[string]string{domain.ColSex: "F"}),
			validRow(forestSheet, 4, "Wood Thrush"),
		}},
		{Sheet: grasslandSheet, Rows: []domain.RawRow{
			validRow(grasslandSheet, 2, "Field Sparrow"),
			row(grasslandSheet, 3, map[string]string{domain.ColCommonName: "Eastern Towhee", domain.ColVisit: "second"}),
		}},
	}
}

type harness struct {
	ext     *mockExtractor
	backup  *mockBackup
	store   *mockStore
	pub     *mockPublisher
	metrics *observability.Metrics
	p       *pipeline.Pipeline
}

func newHarness(sheets []domain.SheetBatch, opts pipeline.Options) *harness {
	h := &harness{
		ext:     &mockExtractor{sheets: sheets},
		backup:  &mockBackup{},
		store:   &mockStore{},
		pub:     &mockPublisher{},
		metrics: newTestMetrics(),
	}
	if opts.Table == "" {
		opts.Table = "bird_observations"
	}
	opts.Publisher = h.pub
	h.p = pipeline.New(h.ext, pipeline.NewTransformer(), h.backup, h.store, opts, discardLogger(), h.metrics)
	return h
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	h := newHarness(sampleSheets(), pipeline.Options{})

	summary, err := h.p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.SheetsRead)
	assert.Equal(t, 5, summary.RowsRead)
	assert.Equal(t, 2, summary.RowsRejected)
	assert.Equal(t, summary.RowsRead-summary.RowsRejected, summary.Loaded)
	assert.Equal(t, map[domain.LocationType]int{domain.LocationForest: 2, domain.LocationGrassland: 1}, summary.ByLocation)
	assert.Equal(t, "bird_observations", summary.Table)
	assert.Equal(t, "/tmp/cleaned_bird_observations.csv", summary.BackupPath)
	assert.NotEmpty(t, summary.RunID)
	assert.False(t, summary.FinishedAt.IsZero())

	require.Len(t, h.store.loads, 1)
	require.Len(t, h.backup.written, 1)
	assert.Equal(t, h.backup.written[0], h.store.loads[0], "backup and table hold the same rows")

	var species []string
	for _, o := range h.store.loads[0] {
		species = append(species, o.CommonName)
	}
	assert.Equal(t, []string{"American Robin", "Wood Thrush", "Field Sparrow"}, species)

	require.Len(t, h.pub.published, 1)
	assert.Equal(t, summary.RunID, h.pub.published[0].RunID)

	assert.InDelta(t, 5, testutil.ToFloat64(h.metrics.RowsRead), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.RowsRejected.WithLabelValues(domain.ReasonMissingSpecies)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.RowsRejected.WithLabelValues(domain.ReasonInvalidNumber)), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(h.metrics.RecordsLoaded), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.SheetsRead.WithLabelValues("Forest")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.Runs.WithLabelValues("success")), 0)
}

func TestPipeline_Run_NoForestRows(t *testing.T) {
	sheets := []domain.SheetBatch{
		{Sheet: forestSheet},
		{Sheet: grasslandSheet, Rows: []domain.RawRow{
			validRow(grasslandSheet, 2, "Field Sparrow"),
			validRow(grasslandSheet, 3, "Grasshopper Sparrow"),
		}},
	}
	h := newHarness(sheets, pipeline.Options{})

	summary, err := h.p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Loaded)
	assert.Equal(t, 0, summary.ByLocation[domain.LocationForest])
	assert.Equal(t, 2, summary.ByLocation[domain.LocationGrassland])
}

func TestPipeline_Run_Empty(t *testing.T) {
	sheets := []domain.SheetBatch{
		{Sheet: forestSheet, Rows: []domain.RawRow{row(forestSheet, 2, map[string]string{domain.ColSex: "M"})}},
	}
	h := newHarness(sheets, pipeline.Options{})

	summary, err := h.p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrIngestionEmpty)
	assert.False(t, summary.FinishedAt.IsZero(), "a failed run is still stamped")
	assert.Equal(t, 1, summary.RowsRejected)
	assert.Empty(t, h.backup.written, "nothing is persisted")
	assert.Empty(t, h.store.loads)
	assert.Empty(t, h.pub.published)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.Runs.WithLabelValues("empty")), 0)
}

func TestPipeline_Run_NoWorkbooks(t *testing.T) {
	h := newHarness(nil, pipeline.Options{})
	_, err := h.p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrIngestionEmpty)
}

func TestPipeline_Run_BackupFailure(t *testing.T) {
	h := newHarness(sampleSheets(), pipeline.Options{})
	h.backup.err = errors.New("disk full")

	_, err := h.p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write backup")
	assert.Empty(t, h.store.loads, "the table is not touched after a failed backup")
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.Runs.WithLabelValues("error")), 0)
}

func TestPipeline_Run_StoreFailure(t *testing.T) {
	h := newHarness(sampleSheets(), pipeline.Options{})
	h.store.err = &domain.StoreWriteError{Op: "insert", Table: "bird_observations", Err: errors.New("connection reset")}

	summary, err := h.p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrStoreWrite)
	assert.False(t, summary.FinishedAt.IsZero(), "a failed run is still stamped")
	assert.False(t, summary.FinishedAt.Before(summary.StartedAt))
	assert.Empty(t, h.pub.published)
	assert.InDelta(t, 0, testutil.ToFloat64(h.metrics.LastSuccess), 0)
}

func TestPipeline_Run_PublishFailureIsNotFatal(t *testing.T) {
	h := newHarness(sampleSheets(), pipeline.Options{})
	h.pub.err = errors.New("broker down")

	summary, err := h.p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Loaded)
}

func TestPipeline_Run_ExtractFailure(t *testing.T) {
	h := newHarness(nil, pipeline.Options{})
	h.ext.err = errors.New("boom")

	_, err := h.p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extract")
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	h := newHarness(sampleSheets(), pipeline.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.store.loads)
}

func TestPipeline_Run_IsIdempotent(t *testing.T) {
	h := newHarness(sampleSheets(), pipeline.Options{ImputeMissingWeather: true})

	_, err := h.p.Run(context.Background())
	require.NoError(t, err)
	_, err = h.p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, h.store.loads, 2)
	if diff := cmp.Diff(h.store.loads[0], h.store.loads[1], cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
}

func TestPipeline_Run_PushesMetrics(t *testing.T) {
	var pushes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/job/"+observability.PushJob) {
			pushes.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := newHarness(sampleSheets(), pipeline.Options{PushgatewayURL: srv.URL})
	_, err := h.p.Run(context.Background())
	require.NoError(t, err)

	h.store.err = errors.New("down")
	_, err = h.p.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, int32(2), pushes.Load(), "failed runs are pushed too")
}
