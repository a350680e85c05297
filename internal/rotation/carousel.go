// Package rotation drives the sliding ad window on the client side: a
// timer-driven carousel and visibility-based tracking.
package rotation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"ad-placement-service/internal/domain"
)

// Frame is the window shown after a change.
type Frame struct {
	Window []domain.RankedAd
	Cursor int
	Manual bool // advanced by Next rather than the timer
}

// Option configures a Carousel.
type Option func(*Carousel)

// WithOnChange registers a callback invoked after every window change.
// Callbacks are serialized.
func WithOnChange(fn func(Frame)) Option {
	return func(c *Carousel) {
		c.onChange = fn
	}
}

// WithInterval overrides the interval derived from the displayed ads.
func WithInterval(d time.Duration) Option {
	return func(c *Carousel) {
		c.fixedInterval = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Carousel) {
		c.logger = logger
	}
}

// Carousel advances a domain.Rotation on a timer.
//
// The delay before each step is the rotation interval of the window being
// shown, so a window of slow ads stays up longer. Carousel is safe for
// concurrent use.
type Carousel struct {
	mu       sync.Mutex
	rotation *domain.Rotation

	fixedInterval time.Duration
	onChange      func(Frame)
	notifyMu      sync.Mutex
	logger        *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a carousel over rotation.
func New(rotation *domain.Rotation, opts ...Option) *Carousel {
	c := &Carousel{
		rotation: rotation,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Window returns the ads currently displayed.
func (c *Carousel) Window() []domain.RankedAd {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rotation.Window()
}

// Cursor returns the current window start.
func (c *Carousel) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rotation.Cursor()
}

// CanRotate reports whether the window can change.
func (c *Carousel) CanRotate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rotation.CanRotate()
}

// Interval returns the delay before the next timed step.
func (c *Carousel) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.interval()
}

// Next advances the window on demand. It is a no-op when rotation cannot run.
func (c *Carousel) Next() []domain.RankedAd {
	frame, changed := c.advance(true)
	if changed {
		c.notify(frame)
	}
	return frame.Window
}

// Start runs the timer until ctx is cancelled or Stop is called.
// It returns false, without starting anything, when rotation cannot run or
// the carousel is already running.
func (c *Carousel) Start(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.rotation.CanRotate() || c.cancel != nil {
		return false
	}

	ctx, c.cancel = context.WithCancel(ctx)

	c.logger.Debug("carousel started",
		zap.Int("ads", c.rotation.Total()),
		zap.Int("limit", c.rotation.Limit()),
		zap.Duration("interval", c.interval()),
	)

	c.wg.Add(1)
	go c.run(ctx)

	return true
}

// Stop halts the timer and waits for the loop to exit. Safe to call more than once.
func (c *Carousel) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	c.wg.Wait()

	c.mu.Lock()
	c.cancel = nil
	c.mu.Unlock()
}

func (c *Carousel) run(ctx context.Context) {
	defer c.wg.Done()

	timer := time.NewTimer(c.Interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("carousel stopped")
			return
		case <-timer.C:
			if frame, changed := c.advance(false); changed {
				c.notify(frame)
			}
			timer.Reset(c.Interval())
		}
	}
}

func (c *Carousel) advance(manual bool) (Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.rotation.CanRotate() {
		return Frame{Window: c.rotation.Window(), Cursor: c.rotation.Cursor()}, false
	}

	window := c.rotation.Advance()
	return Frame{Window: window, Cursor: c.rotation.Cursor(), Manual: manual}, true
}

func (c *Carousel) notify(frame Frame) {
	if c.onChange == nil {
		return
	}

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.onChange(frame)
}

// interval must be called with c.mu held.
func (c *Carousel) interval() time.Duration {
	if c.fixedInterval > 0 {
		return c.fixedInterval
	}
	return c.rotation.Interval()
}
