package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"ad-placement-service/internal/domain"
)

var errBoom = errors.New("boom")

// fakeRepo is an in-memory domain.AdRepository.
type fakeRepo struct {
	mu     sync.Mutex
	ads    []*domain.Advertisement
	deltas map[string]domain.AnalyticsDelta

	findCalls atomic.Int32
	findErr   error
	release   chan struct{} // when set, FindEligible blocks until closed

	incErr    map[string]error
	expired   int64
	expireErr error
	updateErr error
}

func newFakeRepo(ads ...*domain.Advertisement) *fakeRepo {
	return &fakeRepo{
		ads:    ads,
		deltas: map[string]domain.AnalyticsDelta{},
		incErr: map[string]error{},
	}
}

func (r *fakeRepo) FindEligible(_ context.Context, filter domain.EligibilityFilter, _ time.Time) ([]*domain.Advertisement, error) {
	r.findCalls.Add(1)
	if r.release != nil {
		<-r.release
	}
	if r.findErr != nil {
		return nil, r.findErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Advertisement
	for _, ad := range r.ads {
		if ad.Position != filter.Position && ad.Position != domain.PositionGlobal {
			continue
		}
		if filter.Type != "" && ad.Type != filter.Type {
			continue
		}
		out = append(out, ad)
	}
	return out, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*domain.Advertisement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ad := range r.ads {
		if ad.ID == id {
			return ad, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) List(_ context.Context, params domain.ListParams) (*domain.ListResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return domain.NewListResult(r.ads, int64(len(r.ads)), params), nil
}

func (r *fakeRepo) Create(_ context.Context, ad *domain.Advertisement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ad.ID == "" {
		ad.ID = "generated"
	}
	r.ads = append(r.ads, ad)
	return nil
}

func (r *fakeRepo) Update(_ context.Context, ad *domain.Advertisement) error {
	if r.updateErr != nil {
		return r.updateErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.ads {
		if existing.ID == ad.ID {
			r.ads[i] = ad
			return nil
		}
	}
	return domain.ErrAdNotFound
}

func (r *fakeRepo) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ad := range r.ads {
		if ad.ID == id {
			ad.IsActive = active
			return nil
		}
	}
	return domain.ErrAdNotFound
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, ad := range r.ads {
		if ad.ID == id {
			r.ads = append(r.ads[:i], r.ads[i+1:]...)
			return nil
		}
	}
	return domain.ErrAdNotFound
}

func (r *fakeRepo) IncrementAnalytics(_ context.Context, id string, delta domain.AnalyticsDelta) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.incErr[id]; err != nil {
		return err
	}
	r.deltas[id] = r.deltas[id].Add(delta)
	return nil
}

func (r *fakeRepo) DeactivateExpired(_ context.Context, _ time.Time) (int64, error) {
	return r.expired, r.expireErr
}

func (r *fakeRepo) Stats(_ context.Context, _ int) (*domain.AdStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return &domain.AdStats{TotalAds: int64(len(r.ads))}, nil
}

func (r *fakeRepo) delta(id string) domain.AnalyticsDelta {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deltas[id]
}

// fakeCache is an in-memory domain.Cache with failure switches.
type fakeCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
	clears int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.data[key], nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
	return nil
}

func (c *fakeCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = map[string][]byte{}
	c.clears++
	return nil
}

// fakeInvalidator counts invalidations.
type fakeInvalidator struct {
	calls int
	err   error
}

func (f *fakeInvalidator) InvalidateCache(context.Context) error {
	f.calls++
	return f.err
}

// fakeInterestStore is an in-memory domain.InterestStore.
type fakeInterestStore struct {
	lists  map[string]domain.RecentInterests
	getErr error
}

func newFakeInterestStore() *fakeInterestStore {
	return &fakeInterestStore{lists: map[string]domain.RecentInterests{}}
}

func (s *fakeInterestStore) Get(_ context.Context, visitorID string) (domain.RecentInterests, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.lists[visitorID], nil
}

func (s *fakeInterestStore) Add(_ context.Context, visitorID string, values ...string) (domain.RecentInterests, error) {
	s.lists[visitorID] = s.lists[visitorID].Add(values...)
	return s.lists[visitorID], nil
}

func (s *fakeInterestStore) Clear(_ context.Context, visitorID string) error {
	delete(s.lists, visitorID)
	return nil
}

// servableAd builds an active ad that every device sees.
func servableAd(id, position string) *domain.Advertisement {
	return &domain.Advertisement{
		ID:            id,
		Title:         id,
		Position:      position,
		Type:          domain.AdTypeBanner,
		TargetContext: []string{domain.TargetAll},
		TargetDevice:  []string{domain.TargetAll},
		IsActive:      true,
	}
}
