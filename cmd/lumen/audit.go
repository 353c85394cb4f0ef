package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/FranksOps/lumen/internal/audit"
	"github.com/FranksOps/lumen/internal/config"
	"github.com/FranksOps/lumen/internal/logging"
	"github.com/FranksOps/lumen/internal/metrics"
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run one visibility audit and write the report",
	RunE:  runAudit,
}

var (
	auditConfigPath string
	auditOut        string
	auditFormats    []string
	auditMetrics    string
	auditTextfile   string
)

func init() {
	auditCmd.Flags().StringVarP(&auditConfigPath, "config", "c", "", "Config file (default lumen.yaml if present)")
	auditCmd.Flags().StringVarP(&auditOut, "out", "o", "", "Report path (default data/report.json)")
	auditCmd.Flags().StringSliceVar(&auditFormats, "format", nil, "Extra report formats: json, text, html, yaml")
	auditCmd.Flags().StringVar(&auditMetrics, "metrics-addr", "", "Serve Prometheus /metrics on this address during the run")
	auditCmd.Flags().StringVar(&auditTextfile, "metrics-textfile", "", "Write metrics in textfile-collector format after the run")

	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(auditConfigPath)
	if err != nil {
		return err
	}
	if auditOut != "" {
		cfg.Output.Path = auditOut
	}
	if len(auditFormats) > 0 {
		cfg.Output.Formats = auditFormats
	}
	if auditMetrics != "" {
		cfg.Metrics.Addr = auditMetrics
	}
	if auditTextfile != "" {
		cfg.Metrics.Textfile = auditTextfile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog.Close()
	slog.SetDefault(logger)

	if cfg.Metrics.Addr != "" {
		srv, err := metrics.Start(cfg.Metrics.Addr, logger)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(sctx)
		}()
	}

	pipeline, closeCache, err := audit.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	rep, err := pipeline.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("audit interrupted: %w", err)
		}
		return err
	}

	written, err := audit.Publish(rep, cfg)
	if err != nil {
		return err
	}
	for _, p := range written {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", p)
	}
	logger.Info("report written", "paths", strings.Join(written, ","), "score", rep.ScoreOverall)
	return nil
}
