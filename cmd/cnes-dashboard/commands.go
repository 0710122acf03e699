package main

import (
	"github.com/spf13/cobra"

	"cnes-dashboard/internal/app"
	"cnes-dashboard/internal/common/logger"
	"cnes-dashboard/internal/lookup"
	"cnes-dashboard/internal/models"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	return withApp(ctx, "", func(a *app.App) error {
		return a.Serve(ctx)
	})
}

var (
	queryEstado    string
	queryMunicipio string
	queryPage      int
	queryPageSize  int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Print one page of establishments as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		return withApp(ctx, "stderr", func(a *app.App) error {
			res, err := a.Fetcher.Fetch(ctx,
				models.FilterCriteria{Region: queryEstado, SubRegion: queryMunicipio},
				models.PageRequest{Page: queryPage, Size: queryPageSize},
			)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"rows":    res.Rows,
				"page":    res.Page,
				"summary": res.Summary(),
				"filters": res.Criteria,
			})
		})
	},
}

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "Print the distinct estado/municipio pairs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		return withApp(ctx, "stderr", func(a *app.App) error {
			idx, err := a.Fetcher.Regions(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), idx.Pairs)
		})
	},
}

// lookupCmd needs no backend connection, only the lookup section.
var lookupCmd = &cobra.Command{
	Use:   "lookup <cnes>",
	Short: "Fetch one establishment from the public CNES API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		zapLog := newLogger(cfg, "stderr")
		defer zapLog.Sync()

		client, err := lookup.NewClient(lookup.LoadConfig(cfg), logger.NewZapAdapter(zapLog))
		if err != nil {
			return err
		}
		record, err := client.Lookup(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), record)
	},
}
