package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	clear "github.com/J3rome/CLEAR-AQA-Dataset-Generator"
	httpadapter "github.com/J3rome/CLEAR-AQA-Dataset-Generator/internal/adapters/http"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/internal/presentation/tui"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/catalog"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/render"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generation engine over HTTP",
	Long: `Loads the template catalog once and exposes POST /generate, which accepts
scene graphs and replies with records and a run report. Prometheus metrics
are served on /metrics.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("templates", "", "Template catalog file (YAML)")
	serveCmd.Flags().String("synonyms", "", "Synonym dictionary file (YAML, optional)")
	serveCmd.Flags().String("config", "", "Run configuration file (YAML, optional)")
	serveCmd.Flags().String("addr", ":8080", "Listen address")
	_ = serveCmd.MarkFlagRequired("templates")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)

	templatesPath, _ := cmd.Flags().GetString("templates")
	cat, err := catalog.LoadFile(templatesPath)
	if err != nil {
		return err
	}

	var lexicon render.Lexicon
	if path, _ := cmd.Flags().GetString("synonyms"); path != "" {
		lexicon, err = render.LoadLexiconFile(path)
		if err != nil {
			return err
		}
	}

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	opts := append(cfg.options(lexicon),
		clear.WithLogger(logger),
		clear.WithMetricsRegistry(registry),
	)
	engine, err := clear.New(cat, opts...)
	if err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	server := &nethttp.Server{
		Addr:              addr,
		Handler:           httpadapter.NewHandler(engine, logger, registry),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tui.PrintBanner()
	logger.Info("listening", "addr", addr, "version", strings.TrimSpace(clear.Version))

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
