package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tournevent/postage/internal/server"
	"github.com/tournevent/postage/pkg/shipper"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "postage",
	Short:   "Postage quote engine - compares Australian parcel rates across carriers",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and GraphQL server",
	RunE:  runServe,
}

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a shipment request read from a JSON file",
	RunE:  runQuote,
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show carrier enablement and credential status",
	RunE:  runProviders,
}

var quoteFile string

func init() {
	quoteCmd.Flags().StringVarP(&quoteFile, "file", "f", "-", "shipment request JSON file, - for stdin")
	rootCmd.AddCommand(serveCmd, quoteCmd, providersCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
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

	tracer, tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(context.WithoutCancel(ctx))
	}

	a, err := newApp(ctx, cfg, logger, tracer)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("Failed to release resources", zap.Error(err))
		}
	}()

	logProviderDiagnostics(ctx, logger, a.registry, a.providers)
	logger.Info("Starting postage quote service",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.String("store", cfg.StoreDriver),
	)

	srv := server.New(server.Config{Port: cfg.Port}, server.Deps{
		Catalog:   a.catalog,
		Quotes:    a.quotes,
		Registry:  a.registry,
		Providers: a.providers,
		Logger:    logger,
		Metrics:   a.metrics,
		Gatherer:  a.gatherer,
	})
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runQuote(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// keep stdout for the result
	logger, err := initLogger("error")
	if err != nil {
		return err
	}
	defer logger.Sync()

	req, err := readShipmentRequest(cmd.InOrStdin(), quoteFile)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.quotes.Quote(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func readShipmentRequest(stdin io.Reader, path string) (shipper.ShipmentRequest, error) {
	var req shipper.ShipmentRequest

	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return req, fmt.Errorf("open request: %w", err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return req, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

func runProviders(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := initLogger("error")
	if err != nil {
		return err
	}
	defer logger.Sync()

	registry := initShipperRegistry(cfg, logger, nil)

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tENABLED\tCREDENTIALS")
	for _, st := range registry.Status(cfg.Providers()) {
		fmt.Fprintf(tw, "%s\t%t\t%t\n", st.Name, st.Enabled, st.CredentialsPresent)
	}
	return tw.Flush()
}
