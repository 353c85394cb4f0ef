package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/FranksOps/lumen/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumen_fetch_requests_total",
			Help: "Total number of outbound fetches",
		},
		[]string{"host", "status", "detected", "detection_src", "cached"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lumen_fetch_duration_seconds",
			Help:    "Duration of outbound fetches in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"host"},
	)

	FetchBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumen_fetch_bytes_total",
			Help: "Total response bytes downloaded",
		},
		[]string{"host"},
	)

	ProxyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumen_proxy_failures_total",
			Help: "Total number of fetches that failed through a proxy",
		},
		[]string{"proxy_url"},
	)

	SearchResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lumen_search_results",
			Help:    "Organic results kept per query",
			Buckets: []float64{0, 1, 3, 5, 8, 10},
		},
		[]string{"provider"},
	)

	MarketScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lumen_market_score",
			Help: "Market sub-scores of the last audit, 0 to 100",
		},
		[]string{"brand", "market", "component"},
	)

	OverallScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lumen_overall_score",
			Help: "Weighted overall visibility score of the last audit",
		},
		[]string{"brand"},
	)

	AuditLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lumen_audit_last_success_timestamp_seconds",
			Help: "Unix time the last audit finished writing its report",
		},
		[]string{"brand"},
	)
)

// RecordFetch updates the fetch counters for one record.
func RecordFetch(host string, rec *storage.FetchRecord) {
	if rec == nil {
		return
	}

	status := strconv.Itoa(rec.StatusCode)
	if rec.Error != "" {
		status = "error"
	}

	FetchRequestsTotal.WithLabelValues(host, status,
		strconv.FormatBool(rec.DetectedBot), rec.DetectionSrc,
		strconv.FormatBool(rec.FromCache)).Inc()
	if rec.FromCache {
		return
	}
	FetchDuration.WithLabelValues(host).Observe(rec.Duration.Seconds())
	FetchBytesTotal.WithLabelValues(host).Add(float64(len(rec.Body)))
}

// SetMarket publishes a market's four percentages.
func SetMarket(brand, market string, recognition, context, sentiment, competitive float64) {
	MarketScore.WithLabelValues(brand, market, "recognition").Set(recognition)
	MarketScore.WithLabelValues(brand, market, "context").Set(context)
	MarketScore.WithLabelValues(brand, market, "sentiment").Set(sentiment)
	MarketScore.WithLabelValues(brand, market, "competitive").Set(competitive)
}

// WriteTextfile dumps the default registry in the text exposition format, for
// node_exporter's textfile collector. The write is atomic.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv  *http.Server
	addr net.Addr
}

// Start listens on addr (":9090", "127.0.0.1:0") and serves /metrics in the
// background. Listen errors are returned immediately.
func Start(addr string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", ln.Addr().String(), "err", err)
		}
	}()

	logger.Info("metrics server listening", "addr", ln.Addr().String())
	return &Server{srv: srv, addr: ln.Addr()}, nil
}

// Addr is the bound listen address.
func (s *Server) Addr() string {
	if s == nil || s.addr == nil {
		return ""
	}
	return s.addr.String()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
