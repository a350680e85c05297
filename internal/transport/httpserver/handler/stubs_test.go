package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"ad-placement-service/internal/app/service"
	"ad-placement-service/internal/domain"
)

const (
	testAdID   = "6f1c2b9e-3a41-4c1f-9d55-0e8b2a7c4d10"
	missingID  = "0d6b1e52-8f3a-4b0e-a1c9-5c2f7e9d8b34"
	testUA     = "Mozilla/5.0 (X11; Linux x86_64) Firefox/120.0"
	jsonHeader = fiber.MIMEApplicationJSON
)

var errBoom = errors.New("boom")

type stubPlacements struct {
	result  *service.PlacementResult
	err     error
	query   domain.PlacementQuery
	cursor  int
	windows int
}

func (s *stubPlacements) Select(_ context.Context, query domain.PlacementQuery) (*service.PlacementResult, error) {
	s.query = query
	return s.result, s.err
}

func (s *stubPlacements) Window(_ context.Context, query domain.PlacementQuery, cursor int) (*service.PlacementResult, error) {
	s.query = query
	s.cursor = cursor
	s.windows++
	return s.result, s.err
}

type stubResolver struct {
	visitorID string
	recent    []string
}

func (s *stubResolver) Resolve(_ context.Context, visitorID string, recent []string) domain.RecentInterests {
	s.visitorID = visitorID
	s.recent = recent
	return domain.RecentInterests(recent)
}

type stubTracker struct {
	mu     sync.Mutex
	events []domain.TrackingEvent
	err    error
}

func (s *stubTracker) Track(event domain.TrackingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

type stubInterests struct {
	lists map[string]domain.RecentInterests
	err   error
}

func newStubInterests() *stubInterests {
	return &stubInterests{lists: map[string]domain.RecentInterests{}}
}

func (s *stubInterests) Record(_ context.Context, visitorID string, values ...string) (domain.RecentInterests, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lists[visitorID] = s.lists[visitorID].Add(values...)
	return s.lists[visitorID], nil
}

func (s *stubInterests) Get(_ context.Context, visitorID string) (domain.RecentInterests, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.lists[visitorID], nil
}

func (s *stubInterests) Clear(_ context.Context, visitorID string) error {
	if s.err != nil {
		return s.err
	}
	delete(s.lists, visitorID)
	return nil
}

type stubAds struct {
	ads        map[string]*domain.Advertisement
	created    *domain.Advertisement
	updated    *domain.Advertisement
	listParams domain.ListParams
	expired    int64
	clears     int
	err        error
}

func newStubAds(ads ...*domain.Advertisement) *stubAds {
	s := &stubAds{ads: map[string]*domain.Advertisement{}}
	for _, ad := range ads {
		s.ads[ad.ID] = ad
	}
	return s
}

func (s *stubAds) Create(_ context.Context, ad *domain.Advertisement) error {
	if s.err != nil {
		return s.err
	}
	ad.ID = testAdID
	s.created = ad
	s.ads[ad.ID] = ad
	return nil
}

func (s *stubAds) Get(_ context.Context, id string) (*domain.Advertisement, error) {
	if s.err != nil {
		return nil, s.err
	}
	ad, ok := s.ads[id]
	if !ok {
		return nil, domain.ErrAdNotFound
	}
	return ad, nil
}

func (s *stubAds) List(_ context.Context, params domain.ListParams) (*domain.ListResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.listParams = params

	var ads []*domain.Advertisement
	for _, ad := range s.ads {
		ads = append(ads, ad)
	}
	return domain.NewListResult(ads, int64(len(ads)), params), nil
}

func (s *stubAds) Update(_ context.Context, ad *domain.Advertisement) error {
	if s.err != nil {
		return s.err
	}
	s.updated = ad
	return nil
}

func (s *stubAds) SetActive(_ context.Context, id string, active bool) error {
	ad, ok := s.ads[id]
	if !ok {
		return domain.ErrAdNotFound
	}
	ad.IsActive = active
	return nil
}

func (s *stubAds) Delete(_ context.Context, id string) error {
	if _, ok := s.ads[id]; !ok {
		return domain.ErrAdNotFound
	}
	delete(s.ads, id)
	return nil
}

func (s *stubAds) ExpireEnded(context.Context) (int64, error) {
	return s.expired, s.err
}

func (s *stubAds) Stats(context.Context) (*domain.AdStats, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.AdStats{TotalAds: int64(len(s.ads)), ByType: map[string]int64{}}, nil
}

func (s *stubAds) ClearCache(context.Context) error {
	s.clears++
	return s.err
}

func testAd(id string) *domain.Advertisement {
	return &domain.Advertisement{
		ID:            id,
		Title:         "Summer sale",
		Position:      "home-top",
		Type:          domain.AdTypeBanner,
		TargetContext: []string{domain.TargetAll},
		TargetDevice:  []string{domain.TargetAll},
		IsActive:      true,
	}
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string, headers map[string]string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, jsonHeader)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
