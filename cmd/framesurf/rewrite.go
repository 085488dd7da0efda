package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vidyasagar/framesurf/internal/browser"
	"github.com/vidyasagar/framesurf/internal/logging"
	"github.com/vidyasagar/framesurf/internal/storage"
)

var rewriteTitle bool

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <url>",
	Short: "Fetch a page and print its rewritten markup",
	Long: `Loads one page exactly as the browser would: through the configured
gateway, with links made absolute and marked, and a <base> injected.
The result is printed to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runRewrite,
}

func init() {
	rewriteCmd.Flags().BoolVar(&rewriteTitle, "title", false, "print only the page title")
	rootCmd.AddCommand(rewriteCmd)
}

func runRewrite(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// stdout carries the page, so logs go to stderr.
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logger, err := logging.New(logCfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return rewritePage(ctx, cfg, logger, args[0], rewriteTitle, cmd.OutOrStdout())
}

// rewritePage runs a single navigation and prints its outcome to out.
func rewritePage(ctx context.Context, cfg *storage.Config, logger *zap.Logger, raw string, titleOnly bool, out io.Writer) error {
	controller := browser.NewController(newFetcher(cfg, logger), logger)
	load, ok := controller.Submit(raw)
	if !ok {
		return errors.New("empty url")
	}
	controller.Navigate(ctx, load)

	st := controller.State()
	if st.Phase == browser.PhaseFailed {
		return errors.New(st.Err)
	}
	if titleOnly {
		_, err := fmt.Fprintln(out, st.Title)
		return err
	}
	_, err := fmt.Fprint(out, st.Markup)
	return err
}
