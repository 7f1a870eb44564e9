package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/ultimatefreight/freightdesk/internal/export"
	"github.com/ultimatefreight/freightdesk/internal/server"
	"github.com/ultimatefreight/freightdesk/internal/store"
	"github.com/ultimatefreight/freightdesk/pkg/pricing"
	"github.com/ultimatefreight/freightdesk/pkg/validation"
	"go.uber.org/zap"
)

var version = "0.1.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "freightdesk",
	Short:   "Ultimate Freight desk - shipping price calculator and lead intake service",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Calculate a shipping price with the stored pricing configuration",
	RunE:  runPrice,
}

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Inspect or reset the pricing configuration",
}

var pricingShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active pricing configuration",
	RunE:  runPricingShow,
}

var pricingResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default pricing configuration",
	RunE:  runPricingReset,
}

var queriesCmd = &cobra.Command{
	Use:   "queries",
	Short: "Manage the recorded query log",
}

var queriesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded queries as XLSX or CSV",
	RunE:  runQueriesExport,
}

var queriesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every recorded query",
	RunE:  runQueriesClear,
}

var (
	priceReq     pricing.ShipmentRequest
	priceType    string
	exportFormat string
	exportOutput string
)

func init() {
	f := priceCmd.Flags()
	f.StringVar(&priceReq.OriginCountry, "origin-country", "", "origin country code (e.g. US)")
	f.StringVar(&priceReq.OriginCity, "origin-city", "", "origin city code (e.g. NYC)")
	f.StringVar(&priceReq.DestinationCountry, "dest-country", "", "destination country code")
	f.StringVar(&priceReq.DestinationCity, "dest-city", "", "destination city code")
	f.StringVar(&priceType, "type", "ocean", "shipment type: ocean, air, ground, express or rail")
	f.Float64Var(&priceReq.WeightKg, "weight", 0, "actual weight in kg")
	f.Float64Var(&priceReq.Dimensions.Length, "length", 0, "length in cm")
	f.Float64Var(&priceReq.Dimensions.Width, "width", 0, "width in cm")
	f.Float64Var(&priceReq.Dimensions.Height, "height", 0, "height in cm")
	f.StringVar(&priceReq.Currency, "currency", pricing.ReferenceCurrency, "display currency")
	f.BoolVar(&priceReq.Urgent, "urgent", false, "urgent handling")

	queriesExportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "export format: xlsx or csv")
	queriesExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default queries_export_<date>.<ext>)")

	pricingCmd.AddCommand(pricingShowCmd, pricingResetCmd)
	queriesCmd.AddCommand(queriesExportCmd, queriesClearCmd)
	rootCmd.AddCommand(serveCmd, priceCmd, pricingCmd, queriesCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Initialize telemetry
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(context.Background())
	}

	kv, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer kv.Close()

	out := initSinks(cfg, logger)
	defer out.Close(logger)

	svc := newService(cfg, kv, out, logger)

	logger.Info("Starting freight desk",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.String("storage", cfg.StorageBackend),
	)

	// Start HTTP server
	srv := server.New(server.Config{Port: cfg.Port, AdminPassword: cfg.AdminPassword}, svc, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// withStore runs fn with the configured storage backend for one-shot commands.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, kv store.KV, logger *otelzap.Logger) error) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	kv, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer kv.Close()
	return fn(ctx, kv, logger)
}

func runPrice(cmd *cobra.Command, args []string) error {
	req := priceReq
	req.ShipmentType = pricing.ShipmentType(priceType)
	req.Normalize()
	if err := pricing.Validate(req); err != nil {
		if errs, ok := validation.As(err); ok {
			for _, fe := range errs {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", fe.Field, fe.Message)
			}
		}
		return err
	}
	return withStore(cmd, func(ctx context.Context, kv store.KV, logger *otelzap.Logger) error {
		cfg := store.NewConfigStore(kv, logger).Get(ctx)
		return printJSON(cmd.OutOrStdout(), pricing.CalculatePrice(req, cfg, time.Now()))
	})
}

func runPricingShow(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, kv store.KV, logger *otelzap.Logger) error {
		return printJSON(cmd.OutOrStdout(), store.NewConfigStore(kv, logger).Get(ctx))
	})
}

func runPricingReset(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, kv store.KV, logger *otelzap.Logger) error {
		cfg, err := store.NewConfigStore(kv, logger).Reset(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), cfg)
	})
}

func runQueriesExport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}
	return withStore(cmd, func(ctx context.Context, kv store.KV, logger *otelzap.Logger) error {
		records, err := store.NewQueryLog(kv, logger).List(ctx)
		if err != nil {
			return err
		}
		data, format, err := export.NewExporter(logger).Render(ctx, format, export.Flatten(records))
		if err != nil {
			return err
		}
		path := exportOutput
		if path == "" {
			path = export.Filename(time.Now(), format)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d queries to %s\n", len(records), path)
		return nil
	})
}

func runQueriesClear(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, kv store.KV, logger *otelzap.Logger) error {
		if err := store.NewQueryLog(kv, logger).Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All queries cleared")
		return nil
	})
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

