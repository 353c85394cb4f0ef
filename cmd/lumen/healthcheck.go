package main

import (
	"fmt"
	"os"
	"time"

	"github.com/FranksOps/lumen/internal/healthcheck"
	"github.com/spf13/cobra"
)

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that a URL answers with a non-error status",
	RunE:  runHealthcheck,
}

var (
	healthcheckURL     string
	healthcheckTimeout time.Duration
)

func init() {
	healthcheckCmd.Flags().StringVarP(&healthcheckURL, "url", "u", "", "URL to probe (required)")
	healthcheckCmd.Flags().DurationVar(&healthcheckTimeout, "timeout", healthcheck.DefaultTimeout, "Request timeout")

	if err := healthcheckCmd.MarkFlagRequired("url"); err != nil {
		panic(fmt.Sprintf("failed to mark url flag as required: %v", err))
	}

	rootCmd.AddCommand(healthcheckCmd)
}

func runHealthcheck(cmd *cobra.Command, _ []string) error {
	status, err := healthcheck.Check(cmd.Context(), healthcheckURL, healthcheckTimeout)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "ERROR: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintln(cmd.OutOrStdout(), healthcheck.OKLine(time.Now(), status))
	return nil
}
