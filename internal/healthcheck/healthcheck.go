// Package healthcheck is a one-shot liveness probe for a URL.
package healthcheck

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/FranksOps/lumen/pkg/httpclient"
)

// DefaultTimeout bounds the probe when none is given.
const DefaultTimeout = 15 * time.Second

// StampLayout prefixes the success line.
const StampLayout = "2006-01-02 15:04:05"

// Check GETs target once. It returns the status code, or an error for a
// transport failure or a status of 400 and above.
func Check(ctx context.Context, target string, timeout time.Duration) (int, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client, err := httpclient.New(httpclient.Config{Timeout: timeout, MaxRedirects: 10})
	if err != nil {
		return 0, err
	}

	resp, err := client.Get(ctx, target, nil)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, fmt.Errorf("%d %s for url: %s", resp.StatusCode, http.StatusText(resp.StatusCode), target)
	}
	return resp.StatusCode, nil
}

// OKLine is what a successful check prints.
func OKLine(now time.Time, status int) string {
	return fmt.Sprintf("%s OK %d", now.Format(StampLayout), status)
}
