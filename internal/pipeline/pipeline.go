package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/bird-observation-etl/internal/domain"
	"github.com/couchcryptid/bird-observation-etl/internal/observability"
)

// Extractor reads every worksheet of the source workbooks.
type Extractor interface {
	Extract(ctx context.Context) ([]domain.SheetBatch, error)
}

// Transformer converts a raw sheet row into an observation.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawRow) (domain.Observation, error)
}

// BackupWriter writes the flat backup extract.
type BackupWriter interface {
	Write(ctx context.Context, obs []domain.Observation) (domain.BackupArtifact, error)
}

// Store replaces the observation table contents.
type Store interface {
	Replace(ctx context.Context, obs []domain.Observation) (int, error)
}

// SummaryPublisher announces a finished run.
type SummaryPublisher interface {
	Publish(ctx context.Context, summary domain.RunSummary) error
}

// Options tune a pipeline run.
type Options struct {
	Table                string
	ImputeMissingWeather bool

	// Publisher is optional; nil skips the summary message.
	Publisher SummaryPublisher
	// PushgatewayURL is optional; empty skips the metrics push.
	PushgatewayURL string
}

// Pipeline runs one extract-normalize-consolidate-load pass.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	backup      BackupWriter
	store       Store
	opts        Options
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, t Transformer, b BackupWriter, s Store, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		backup:      b,
		store:       s,
		opts:        opts,
		logger:      logger,
		metrics:     metrics,
	}
}

// Run executes a single ingestion pass. Rejected rows are skipped and
// counted; an empty result, a backup failure or a store failure aborts the
// run before anything further is written.
func (p *Pipeline) Run(ctx context.Context) (domain.RunSummary, error) {
	start := time.Now()
	summary, err := p.run(ctx)
	if summary.FinishedAt.IsZero() {
		summary.Finish()
	}
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		p.metrics.Runs.WithLabelValues("success").Inc()
		p.metrics.LastSuccess.SetToCurrentTime()
	case errors.Is(err, domain.ErrIngestionEmpty):
		p.metrics.Runs.WithLabelValues("empty").Inc()
	default:
		p.metrics.Runs.WithLabelValues("error").Inc()
	}

	if p.opts.PushgatewayURL != "" {
		// The push runs even after a cancelled run so the failure is visible.
		if perr := p.metrics.Push(context.WithoutCancel(ctx), p.opts.PushgatewayURL); perr != nil {
			p.logger.Warn("metrics push failed", "error", perr)
		}
	}
	return summary, err
}

func (p *Pipeline) run(ctx context.Context) (domain.RunSummary, error) {
	summary := domain.NewRunSummary()
	summary.Table = p.opts.Table
	p.logger.Info("ingestion started", "run_id", summary.RunID)

	stage := time.Now()
	sheets, err := p.extractor.Extract(ctx)
	p.observeStage("extract", stage)
	if err != nil {
		return summary, fmt.Errorf("extract: %w", err)
	}

	stage = time.Now()
	batches, err := p.normalize(ctx, sheets, &summary)
	p.observeStage("normalize", stage)
	if err != nil {
		return summary, err
	}

	stage = time.Now()
	obs, err := Consolidate(batches, ConsolidateOptions{ImputeMissingWeather: p.opts.ImputeMissingWeather})
	p.observeStage("consolidate", stage)
	if err != nil {
		p.logger.Error("nothing to load", "rows", summary.RowsRead, "rejected", summary.RowsRejected)
		return summary, err
	}

	stage = time.Now()
	artifact, err := p.backup.Write(ctx, obs)
	p.observeStage("backup", stage)
	if err != nil {
		return summary, fmt.Errorf("write backup: %w", err)
	}
	summary.BackupPath = artifact.Path
	summary.BackupURI = artifact.URI

	stage = time.Now()
	loaded, err := p.store.Replace(ctx, obs)
	p.observeStage("load", stage)
	if err != nil {
		return summary, fmt.Errorf("load: %w", err)
	}
	summary.Loaded = loaded
	for _, o := range obs {
		summary.ByLocation[o.LocationType]++
	}
	p.metrics.RecordsLoaded.Set(float64(loaded))
	summary.Finish()

	p.logger.Info("ingestion complete",
		"run_id", summary.RunID,
		"rows", summary.RowsRead,
		"rejected", summary.RowsRejected,
		"loaded", summary.Loaded,
		"table", summary.Table,
		"duration", summary.Duration(),
	)

	p.publish(ctx, summary)
	return summary, nil
}

// normalize converts every row, skipping the ones that cannot be coerced.
func (p *Pipeline) normalize(ctx context.Context, sheets []domain.SheetBatch, summary *domain.RunSummary) ([]Batch, error) {
	batches := make([]Batch, 0, len(sheets))
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		summary.SheetsRead++
		p.metrics.SheetsRead.WithLabelValues(string(sheet.Sheet.LocationType)).Inc()

		batch := Batch{Sheet: sheet.Sheet, Observations: make([]domain.Observation, 0, len(sheet.Rows))}
		for _, raw := range sheet.Rows {
			summary.RowsRead++
			p.metrics.RowsRead.Inc()

			obs, err := p.transformer.Transform(ctx, raw)
			if err != nil {
				var rejected *domain.RowRejectedError
				if !errors.As(err, &rejected) {
					return nil, fmt.Errorf("normalize %s row %d: %w", raw.Sheet, raw.Line, err)
				}
				p.logger.Warn("row rejected, skipping",
					"workbook", raw.Sheet.Workbook,
					"sheet", raw.Sheet.Sheet,
					"row", raw.Line,
					"error", err,
				)
				p.metrics.RowsRejected.WithLabelValues(rejected.Reason).Inc()
				summary.RowsRejected++
				continue
			}
			batch.Observations = append(batch.Observations, obs)
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

// publish sends the run summary. The load already committed, so a failure
// here is logged and not returned.
func (p *Pipeline) publish(ctx context.Context, summary domain.RunSummary) {
	if p.opts.Publisher == nil {
		return
	}
	stage := time.Now()
	err := p.opts.Publisher.Publish(ctx, summary)
	p.observeStage("publish", stage)
	if err != nil {
		p.logger.Warn("publish run summary failed", "run_id", summary.RunID, "error", err)
	}
}

func (p *Pipeline) observeStage(name string, start time.Time) {
	p.metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
