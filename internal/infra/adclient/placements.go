package adclient

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"ad-placement-service/internal/domain"
)

// API paths.
const (
	PlacementsEndpoint = "/api/v1/placements"
	AdminAdsEndpoint   = "/api/v1/admin/ads"
	VisitorsEndpoint   = "/api/v1/visitors"
	HealthEndpoint     = "/livez"

	VisitorHeader = "X-Visitor-ID"
)

// Placement is a ranked pool with the window to display.
type Placement struct {
	Ranked    []domain.RankedAd
	Displayed []domain.RankedAd
	Interval  time.Duration
	CanRotate bool
	Cursor    int
	Limit     int
	Cached    bool // served from the client-side pool cache
}

// Rotation returns a sliding window over the placement, positioned at its cursor.
func (p *Placement) Rotation() *domain.Rotation {
	r := domain.NewRotation(p.Ranked, p.Limit, p.CanRotate)
	r.Seek(p.Cursor)
	return r
}

// Client talks to the placement API.
type Client struct {
	client *resty.Client
	cb     *gobreaker.CircuitBreaker[*resty.Response]
	cache  *poolCache
	logger *zap.Logger
	now    func() time.Time
}

// New creates a new API client.
func New(cfg ClientConfig, logger *zap.Logger) *Client {
	return &Client{
		client: NewRestyClient(cfg),
		cb:     NewCircuitBreaker[*resty.Response]("placements", cfg.CB, logger),
		cache:  newPoolCache(cfg.CacheTTL),
		logger: logger,
		now:    time.Now,
	}
}

// Placement fetches ranked ads for a slot.
//
// Candidate pools are cached in memory per query key. A cache hit re-ranks the
// pool locally for the query's viewer; the server is not contacted.
func (c *Client) Placement(ctx context.Context, query domain.PlacementQuery, visitorID string) (*Placement, error) {
	query.Normalize()
	key := query.CacheKey()

	if ads, ok := c.cache.get(key); ok {
		now := c.now()
		ranked := domain.Rank(domain.FilterServable(ads, now), query.Viewer(), now, nil)

		c.logger.Debug("placement served from client cache", zap.String("key", key))

		p := newPlacement(ranked, query.Limit, query.EnableRotation)
		p.Cached = true
		return p, nil
	}

	resp, err := c.cb.Execute(func() (*resty.Response, error) {
		var result PlacementResponse
		req := c.client.R().
			SetContext(ctx).
			SetQueryParams(placementParams(query)).
			SetResult(&result).
			SetError(&ErrorBody{})
		if visitorID != "" {
			req.SetHeader(VisitorHeader, visitorID)
		}

		r, err := req.Get(PlacementsEndpoint)
		if err != nil {
			return nil, err
		}
		if r.IsError() {
			return nil, fmt.Errorf("placement API returned status %d", r.StatusCode())
		}

		return r, nil
	})
	if err != nil {
		c.logger.Warn("placement fetch failed",
			zap.String("position", query.Position),
			zap.Error(err),
			zap.String("state", c.cb.State().String()),
		)

		return nil, fmt.Errorf("fetching placement: %w", err)
	}

	result := resp.Result().(*PlacementResponse)

	ranked := make([]domain.RankedAd, len(result.Ranked))
	for i := range result.Ranked {
		ranked[i] = result.Ranked[i].ToDomain()
	}
	c.cache.set(key, domain.Ads(ranked))

	return newPlacement(ranked, query.Limit, result.Rotation.Enabled), nil
}

// InvalidateCache drops every cached candidate pool.
func (c *Client) InvalidateCache() {
	c.cache.clear()
}

// CreateAd stores a new advertisement through the admin API.
func (c *Client) CreateAd(ctx context.Context, spec AdSpec) (*domain.Advertisement, error) {
	var created AdItem
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(spec).
		SetResult(&created).
		SetError(&ErrorBody{}).
		Post(AdminAdsEndpoint)
	if err != nil {
		return nil, fmt.Errorf("creating ad %q: %w", spec.Title, err)
	}
	if resp.IsError() {
		if body, ok := resp.Error().(*ErrorBody); ok && body.Error != "" {
			return nil, fmt.Errorf("creating ad %q: status %d: %s", spec.Title, resp.StatusCode(), body.Error)
		}
		return nil, fmt.Errorf("creating ad %q: status %d", spec.Title, resp.StatusCode())
	}

	return created.ToDomain(), nil
}

// RecordInterests pushes interests to the visitor's stored list and returns
// the merged list.
func (c *Client) RecordInterests(ctx context.Context, visitorID string, interests []string) ([]string, error) {
	var result InterestsBody
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(InterestsBody{Interests: interests}).
		SetResult(&result).
		SetError(&ErrorBody{}).
		Post(VisitorsEndpoint + "/" + url.PathEscape(visitorID) + "/interests")
	if err != nil {
		return nil, fmt.Errorf("recording interests: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("recording interests: status %d", resp.StatusCode())
	}

	return result.Interests, nil
}

// HealthCheck verifies the API is accessible.
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Get(HealthEndpoint)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("health check returned status %d", resp.StatusCode())
	}

	return nil
}

func newPlacement(ranked []domain.RankedAd, limit int, rotate bool) *Placement {
	rotation := domain.NewRotation(ranked, limit, rotate)

	return &Placement{
		Ranked:    ranked,
		Displayed: rotation.Window(),
		Interval:  rotation.Interval(),
		CanRotate: rotation.CanRotate(),
		Limit:     limit,
	}
}

func placementParams(q domain.PlacementQuery) map[string]string {
	params := map[string]string{
		"position": q.Position,
		"context":  string(q.Context),
		"device":   string(q.Device),
		"limit":    strconv.Itoa(q.Limit),
		"rotation": strconv.FormatBool(q.EnableRotation),
	}
	if q.Type != "" {
		params["type"] = string(q.Type)
	}
	if q.RotationGroup != "" {
		params["group"] = q.RotationGroup
	}
	if len(q.Interests) > 0 {
		params["interests"] = strings.Join(q.Interests, ",")
	}

	return params
}
