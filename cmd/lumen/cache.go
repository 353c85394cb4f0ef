package main

import (
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/FranksOps/lumen/internal/audit"
	"github.com/FranksOps/lumen/internal/config"
	"github.com/FranksOps/lumen/internal/report"
	"github.com/FranksOps/lumen/internal/storage"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the fetch cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached fetches, newest first",
	RunE:  runCacheList,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize cached fetches",
	RunE:  runCacheStats,
}

var (
	cacheConfigPath string
	cacheURL        string
	cacheLimit      int
	cacheSince      time.Duration
)

func init() {
	cacheCmd.PersistentFlags().StringVarP(&cacheConfigPath, "config", "c", "", "Config file (default lumen.yaml if present)")
	cacheCmd.PersistentFlags().StringVar(&cacheURL, "url", "", "Only fetches of this URL")
	cacheCmd.PersistentFlags().DurationVar(&cacheSince, "since", 0, "Only fetches newer than this age, e.g. 24h")
	cacheListCmd.Flags().IntVar(&cacheLimit, "limit", 20, "Maximum rows")

	cacheCmd.AddCommand(cacheListCmd, cacheStatsCmd)
	rootCmd.AddCommand(cacheCmd)
}

func queryCache(cmd *cobra.Command, limit int) ([]*storage.FetchRecord, error) {
	cfg, err := config.Load(cacheConfigPath)
	if err != nil {
		return nil, err
	}
	b, err := audit.OpenCache(cmd.Context(), cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("open fetch cache: %w", err)
	}
	if b == nil {
		return nil, fmt.Errorf("no fetch cache configured (cache.driver is none)")
	}
	defer b.Close()

	f := storage.Filter{URL: cacheURL, Limit: limit}
	if cacheSince > 0 {
		since := time.Now().Add(-cacheSince)
		f.Since = &since
	}
	return b.Query(cmd.Context(), f)
}

func runCacheList(cmd *cobra.Command, _ []string) error {
	recs, err := queryCache(cmd, cacheLimit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FETCHED\tSTATUS\tBYTES\tCHALLENGE\tURL")
	for _, r := range recs {
		status := fmt.Sprint(r.StatusCode)
		if r.Error != "" {
			status = "error"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			r.CreatedAt.Format(time.RFC3339), status, len(r.Body), r.DetectionSrc, r.URL)
	}
	return w.Flush()
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	recs, err := queryCache(cmd, 0)
	if err != nil {
		return err
	}

	s := report.Summarize(recs)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Fetches:    %d (%d errors, %d challenged)\n", s.TotalRequests, s.TotalErrors, s.TotalDetections)
	fmt.Fprintf(out, "Bytes:      %d\n", s.TotalBytes)
	if s.TotalRequests > 0 {
		fmt.Fprintf(out, "Span:       %s to %s\n", s.StartTime.Format(time.RFC3339), s.EndTime.Format(time.RFC3339))
	}
	for _, code := range slices.Sorted(maps.Keys(s.StatusCodes)) {
		fmt.Fprintf(out, "  %d: %d\n", code, s.StatusCodes[code])
	}
	for _, src := range slices.Sorted(maps.Keys(s.DetectionsBySrc)) {
		fmt.Fprintf(out, "  %s: %d\n", src, s.DetectionsBySrc[src])
	}
	return nil
}
