package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/bird-observation-etl/internal/adapter/backup"
	"github.com/couchcryptid/bird-observation-etl/internal/adapter/excel"
	kafkaadapter "github.com/couchcryptid/bird-observation-etl/internal/adapter/kafka"
	"github.com/couchcryptid/bird-observation-etl/internal/pipeline"
)

func newIngestCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Read both workbooks, write the backup extract, and replace the observation table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.ingest(cmd.Context(), cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.String("data-dir", "", "directory holding the workbooks")
	flags.String("forest-workbook", "", "forest workbook file name")
	flags.String("grassland-workbook", "", "grassland workbook file name")
	flags.String("backup-path", "", "backup CSV path")
	flags.String("backup-s3-bucket", "", "also upload the backup to this S3 bucket")
	flags.Bool("impute-missing-weather", true, "fill missing temperature and humidity with the mean")
	flags.Int("insert-batch-size", 0, "rows per insert statement")
	flags.String("pushgateway-url", "", "push run metrics to this Prometheus Pushgateway")
	bindFlags(a.v, flags)

	return cmd
}

func (a *app) ingest(ctx context.Context, out io.Writer) error {
	cfg := a.cfg
	metrics := a.newMetrics()

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	backupWriter, err := backup.NewWriterFromConfig(ctx, cfg, a.logger)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		Table:                cfg.DBTable,
		ImputeMissingWeather: cfg.ImputeMissingWeather,
		PushgatewayURL:       cfg.PushgatewayURL,
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafkaadapter.NewPublisher(cfg, a.logger)
		defer func() {
			if err := publisher.Close(); err != nil {
				a.logger.Error("kafka writer close error", "error", err)
			}
		}()
		opts.Publisher = publisher
	}

	p := pipeline.New(excel.NewReader(cfg, a.logger), pipeline.NewTransformer(), backupWriter, store, opts, a.logger, metrics)
	summary, err := p.Run(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
