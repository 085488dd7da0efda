package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vidyasagar/framesurf/internal/app"
	"github.com/vidyasagar/framesurf/internal/browser"
	"github.com/vidyasagar/framesurf/internal/gateway"
	"github.com/vidyasagar/framesurf/internal/logging"
	"github.com/vidyasagar/framesurf/internal/storage"
	"github.com/vidyasagar/framesurf/internal/theme"
)

var (
	themeFlag    string
	gatewayFlag  string
	logLevelFlag string
	plainFlag    bool
)

var rootCmd = &cobra.Command{
	Use:   "framesurf [url]",
	Short: "A sandboxed terminal web surface",
	Long: `framesurf loads pages through a fetch gateway, rewrites their links
against the page address, and shows them in an isolated terminal frame.
Link clicks inside the frame become navigations of the frame itself.

Examples:
  framesurf                         # start with the welcome screen
  framesurf example.com             # auto-adds https://
  framesurf --gateway http://localhost:8090
  framesurf gateway --addr :8090    # run the fetch gateway service`,
	Args:          cobra.MaximumNArgs(1),
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBrowse,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&gatewayFlag, "gateway", "", "fetch gateway endpoint; empty fetches directly")
	rootCmd.Flags().StringVar(&themeFlag, "theme", "", "color theme ("+strings.Join(theme.List(), ", ")+")")
	rootCmd.Flags().BoolVar(&plainFlag, "plain", false, "render without glamour")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig reads the user configuration and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*storage.Config, error) {
	cfg, err := storage.LoadConfig()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("theme") {
		cfg.Theme = themeFlag
	}
	if cmd.Flags().Changed("gateway") {
		cfg.Gateway = gatewayFlag
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevelFlag
	}
	if plainFlag {
		cfg.PlainRender = true
	}
	return cfg, nil
}

// newFetcher picks the remote gateway when one is configured.
func newFetcher(cfg *storage.Config, logger *zap.Logger) browser.Fetcher {
	opts := gateway.Options{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.RequestTimeout(),
		RetryMax:  cfg.RetryMax,
		Logger:    logger.Named("gateway"),
	}
	if cfg.Gateway != "" {
		return gateway.NewRemote(cfg.Gateway, opts)
	}
	return gateway.NewDirect(opts)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.Theme != "" && !theme.Set(cfg.Theme) {
		return fmt.Errorf("unknown theme %q (available: %s)", cfg.Theme, strings.Join(theme.List(), ", "))
	}

	logger := logging.NewNop()
	if logPath, err := storage.LogPath(); err == nil {
		if l, err := logging.New(logging.FileConfig(cfg.LogLevel, logPath)); err == nil {
			logger = l
		}
	}
	defer logger.Sync() //nolint:errcheck

	opts := app.Options{
		Fetcher:         newFetcher(cfg, logger),
		Logger:          logger,
		StartURL:        cfg.Homepage,
		PlainRender:     cfg.PlainRender,
		RenderCacheSize: cfg.RenderCacheSize,
	}
	if len(args) > 0 {
		opts.StartURL = args[0]
	}

	// Bookmarks are optional; the browser still works without a database.
	if dataDir, err := storage.DataDir(); err == nil {
		if db, err := storage.OpenDB(dataDir); err == nil {
			defer db.Close()
			opts.Bookmarks = storage.NewBookmarkStore(db)
		} else {
			logger.Warn("bookmarks unavailable", zap.Error(err))
		}
	}

	logger.Info("starting framesurf",
		zap.String("version", version),
		zap.String("gateway", cfg.Gateway),
		zap.String("theme", theme.Current.Name),
	)

	p := tea.NewProgram(app.New(opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running browser: %w", err)
	}
	return nil
}
