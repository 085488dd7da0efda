package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vidyasagar/framesurf/internal/gateway"
	"github.com/vidyasagar/framesurf/internal/logging"
)

var (
	gatewayAddr     string
	gatewaySanitize bool
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Run the fetch gateway service",
	Long: `Runs the HTTP fetch gateway. GET /fetch?url=<absolute url> answers with
the page text, or with "Error: <message>" and the X-Fetch-Error header.

Configuration comes from FRAMESURF_GATEWAY_* variables; flags override them.
/healthz and /metrics are served alongside /fetch.`,
	Args: cobra.NoArgs,
	RunE: runGateway,
}

func init() {
	gatewayCmd.Flags().StringVar(&gatewayAddr, "addr", "", "listen address (default :8090)")
	gatewayCmd.Flags().BoolVar(&gatewaySanitize, "sanitize", false, "strip scripts and event handlers from fetched pages")
	rootCmd.AddCommand(gatewayCmd)
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := gateway.LoadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Addr = gatewayAddr
	}
	if cmd.Flags().Changed("sanitize") {
		cfg.Sanitize = gatewaySanitize
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevelFlag
	}

	logCfg := logging.Config{
		Level:       cfg.LogLevel,
		Development: cfg.LogDev,
		OutputPaths: []string{"stdout"},
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	opts := cfg.FetchOptions()
	opts.Logger = logger.Named("fetch")
	server := gateway.NewServer(cfg, gateway.NewDirect(opts), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		logger.Error("gateway stopped", zap.Error(err))
		return err
	}
	return nil
}
