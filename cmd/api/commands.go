package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"automation-builder/api/internal/config"
	"automation-builder/api/internal/logging"
	"automation-builder/api/services/catalog"
)

const shutdownTimeout = 10 * time.Second

var (
	templatesFile   string
	templatesOutput string

	rootCmd = &cobra.Command{
		Use:          "api",
		Short:        "Automation builder API",
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create the database tables",
		RunE:  runMigrate,
	}

	templatesCmd = &cobra.Command{
		Use:   "templates",
		Short: "Validate a node template catalog and print it",
		RunE:  runTemplates,
	}
)

func init() {
	templatesCmd.Flags().StringVarP(&templatesFile, "file", "f", "", "catalog file (defaults to the embedded catalog)")
	templatesCmd.Flags().StringVarP(&templatesOutput, "output", "o", "yaml", "output format: yaml or json")

	rootCmd.AddCommand(serveCmd, migrateCmd, templatesCmd)
}

// setup loads the configuration and installs the default logger.
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr))
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           a.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Listening", "addr", srv.Addr, "history", cfg.HistoryBackend, "remote_persist", cfg.PersistURL != "")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.migrate(cmd.Context()); err != nil {
		return err
	}
	slog.Info("Migrations applied")
	return nil
}

func runTemplates(cmd *cobra.Command, _ []string) error {
	c, err := loadCatalog(templatesFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch templatesOutput {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(c.Groups())
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(map[string]any{"templates": c.List()})
	}
	return fmt.Errorf("unknown output format %q", templatesOutput)
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}
