package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/bird-observation-etl/internal/report"
)

func newReportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "List or run catalog reports",
	}
	cmd.AddCommand(newReportListCommand(), newReportRunCommand(a))
	return cmd
}

func newReportListCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the report catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if format == report.FormatJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report.Catalog())
			}
			return report.WriteCatalog(out, report.Catalog())
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", report.FormatTable, "output format: table or json")
	return cmd
}

type runFlags struct {
	format        string
	locationTypes []string
	years         []int
	observers     []string
	species       []string
	limit         int
}

func newReportRunCommand(a *app) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Run one report against the observation table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := report.Request{
				Name:  args[0],
				Limit: f.limit,
				Filter: report.Filter{
					LocationTypes: f.locationTypes,
					Years:         f.years,
					Observers:     f.observers,
				},
			}
			if err := req.SetSpecies(f.species); err != nil {
				return err
			}
			return a.runReport(cmd.Context(), cmd.OutOrStdout(), req, f.format)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.format, "format", "f", report.FormatTable, "output format: table or json")
	flags.StringSliceVar(&f.locationTypes, "location-type", nil, "only these location types (Forest, Grassland)")
	flags.IntSliceVar(&f.years, "year", nil, "only these years")
	flags.StringSliceVar(&f.observers, "observer", nil, "only these observers")
	flags.StringSliceVar(&f.species, "species", nil, "subject of species detail reports, otherwise a species filter")
	flags.IntVar(&f.limit, "limit", 0, fmt.Sprintf("rows for ranked reports (default %d)", report.DefaultLimit))
	return cmd
}

func (a *app) runReport(ctx context.Context, out io.Writer, req report.Request, format string) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	svc := report.NewService(store, store.Dialect(), store.Table(), a.newMetrics(), a.logger)
	res, err := svc.Run(ctx, req)
	if err != nil {
		return err
	}
	return report.Write(out, res, format)
}
