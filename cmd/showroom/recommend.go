package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"showroom"
	"showroom/app"
)

func newRecommendCmd() *cobra.Command {
	var logDir string

	cmd := &cobra.Command{
		Use:   "recommend <query>",
		Short: "Run one recommendation query end to end",
		Long: `Loads the catalog, asks the configured reasoning backend for candidates and
prints the reconciled recommendations. The exchange is recorded under --log-dir.`,
		Example: `  showroom recommend "가족용 SUV 추천해줘"
  RECOMMEND_BACKEND=ollama showroom recommend "연비 좋은 차량"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			query := strings.Join(args, " ")

			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}

			httpClient := &http.Client{}
			catalog, cleanup, err := app.NewCatalog(ctx, cfg.Catalog, httpClient)
			if err != nil {
				return err
			}
			defer cleanup() // nolint: errcheck

			logger, flush, err := newExchangeLogger(logDir, cfg.Recommend.Backend)
			if err != nil {
				return err
			}
			defer func() {
				if err := flush(); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "failed to flush exchange log:", err)
				}
			}()

			svc, err := app.NewService(ctx, cfg, app.ServiceOpts{
				Catalog:    catalog,
				Logger:     logger,
				HTTPClient: httpClient,
			})
			if err != nil {
				return err
			}

			recs, err := svc.Recommend(ctx, query)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"success":         true,
				"recommendations": recs,
			})
		},
	}

	cmd.Flags().StringVar(&logDir, "log-dir", "./logs", "Directory for exchange logs")

	return cmd
}

func newExchangeLogger(dir, backend string) (showroom.ExchangeLogger, func() error, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFilePath := filepath.Join(dir, filepath.Base(showroom.NewExchangeLogFilePath(backend)))
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := showroom.NewFileExchangeLogger(logFile)
	flush := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, flush, nil
}
