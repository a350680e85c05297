package adclient

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Tracker reports impressions, clicks and view durations.
//
// Every call returns immediately; the request runs in its own goroutine, is
// never retried and only logs failures.
type Tracker struct {
	client  *resty.Client
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewTracker creates a new Tracker.
func NewTracker(cfg ClientConfig, logger *zap.Logger) *Tracker {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Tracker{
		client:  newTrackingClient(cfg),
		timeout: timeout,
		logger:  logger,
	}
}

// Impression reports that an ad became visible.
func (t *Tracker) Impression(adID string) {
	t.send(adID, "impression", nil)
}

// Click reports a click on a visible ad.
func (t *Tracker) Click(adID string) {
	t.send(adID, "click", nil)
}

// ViewDuration reports how long an ad stayed visible.
func (t *Tracker) ViewDuration(adID string, d time.Duration) {
	t.send(adID, "view-duration", map[string]int64{"duration_ms": d.Milliseconds()})
}

// Wait blocks until every in-flight call has finished.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

func (t *Tracker) send(adID, event string, body any) {
	if adID == "" {
		return
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()

		req := t.client.R().SetContext(ctx)
		if body != nil {
			req.SetBody(body)
		}

		resp, err := req.Post(fmt.Sprintf("/api/v1/ads/%s/%s", url.PathEscape(adID), event))
		if err == nil && resp.IsError() {
			err = fmt.Errorf("tracking API returned status %d", resp.StatusCode())
		}
		if err != nil {
			t.logger.Warn("tracking call failed",
				zap.String("ad_id", adID),
				zap.String("event", event),
				zap.Error(err),
			)
			return
		}

		t.logger.Debug("tracking call sent",
			zap.String("ad_id", adID),
			zap.String("event", event),
		)
	}()
}
