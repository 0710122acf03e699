package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cnes-dashboard/internal/app"
	"cnes-dashboard/internal/common/config"
	"cnes-dashboard/internal/common/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "cnes-dashboard",
	Short: "Browse Brazilian health establishments (CNES)",
	Long: `cnes-dashboard serves a paginated, filterable view of the CNES
establishment table and looks up single establishments in the public
CNES API.

Without a subcommand the HTTP server is started.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a config YAML (default: configs/config.yaml)")

	queryCmd.Flags().StringVar(&queryEstado, "estado", "", "Filter by estado")
	queryCmd.Flags().StringVar(&queryMunicipio, "municipio", "", "Filter by municipio (requires --estado)")
	queryCmd.Flags().IntVar(&queryPage, "page", 1, "Page number, 1-based")
	queryCmd.Flags().IntVar(&queryPageSize, "page-size", 0, "Rows per page (default: backend.page_size)")

	rootCmd.AddCommand(serveCmd, queryCmd, regionsCmd, lookupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// newLogger writes to stderr for the one-shot commands so their stdout
// stays machine readable. Empty output uses logging.output.
func newLogger(cfg *config.Config, output string) *zap.Logger {
	if output == "" {
		output = cfg.Logging.Output
	}
	return logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, output)
}

// withApp loads config, builds the app and hands it to fn, closing it
// afterwards.
func withApp(ctx context.Context, output string, fn func(*app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	zapLog := newLogger(cfg, output)
	defer zapLog.Sync()

	a, err := app.New(ctx, cfg, zapLog, app.Options{})
	if err != nil {
		zapLog.Error("startup failed", zap.Error(err))
		return err
	}
	defer a.Close()
	return fn(a)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
