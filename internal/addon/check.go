package addon

import (
	"context"
	"net/http"
	"time"

	"github.com/mik25/your-series/internal/log"
	"github.com/mik25/your-series/internal/metrics"
)

// StreamChecker reports whether a stream URL currently answers.
type StreamChecker interface {
	Live(ctx context.Context, url string) bool
}

// HeadChecker treats a stream as live when a HEAD request returns 200.
type HeadChecker struct {
	Client  *http.Client
	Timeout time.Duration
}

// Live issues the HEAD request. Any error counts as dead.
func (c HeadChecker) Live(ctx context.Context, url string) bool {
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	live := false
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err == nil {
		var resp *http.Response
		resp, err = client.Do(req)
		if err == nil {
			resp.Body.Close()
			live = resp.StatusCode == http.StatusOK
		}
	}
	if err != nil {
		log.WithField("url", url).Debugf("stream check failed: %v", err)
	}

	result := "dead"
	if live {
		result = "live"
	}
	metrics.StreamChecks.WithLabelValues(result).Inc()
	return live
}
