package rotation

import (
	"sort"
	"sync"
	"time"

	"ad-placement-service/internal/domain"
)

// Tracker receives tracking calls. Implementations must not block.
type Tracker interface {
	Impression(adID string)
	Click(adID string)
	ViewDuration(adID string, d time.Duration)
}

// Visibility follows which ads are on screen.
//
// An ad entering view fires one impression; leaving view fires its visible
// duration. Clicks count only while the ad is visible.
type Visibility struct {
	mu      sync.Mutex
	tracker Tracker
	visible map[string]time.Time
	now     func() time.Time
}

// NewVisibility creates a new Visibility reporting to tracker.
func NewVisibility(tracker Tracker) *Visibility {
	return &Visibility{
		tracker: tracker,
		visible: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Enter marks the ad visible. Re-entering a visible ad is a no-op.
func (v *Visibility) Enter(adID string) {
	if adID == "" {
		return
	}

	v.mu.Lock()
	if _, ok := v.visible[adID]; ok {
		v.mu.Unlock()
		return
	}
	v.visible[adID] = v.now()
	v.mu.Unlock()

	v.tracker.Impression(adID)
}

// Exit marks the ad hidden and reports how long it was visible.
func (v *Visibility) Exit(adID string) {
	v.mu.Lock()
	since, ok := v.visible[adID]
	if !ok {
		v.mu.Unlock()
		return
	}
	delete(v.visible, adID)
	elapsed := v.now().Sub(since)
	v.mu.Unlock()

	v.tracker.ViewDuration(adID, elapsed)
}

// Click reports a click and returns true when the ad is visible.
func (v *Visibility) Click(adID string) bool {
	v.mu.Lock()
	_, ok := v.visible[adID]
	v.mu.Unlock()

	if !ok {
		return false
	}

	v.tracker.Click(adID)
	return true
}

// Show makes window the visible set: ads that left exit, new ads enter.
func (v *Visibility) Show(window []domain.RankedAd) {
	next := make(map[string]bool, len(window))
	for _, r := range window {
		if r.Ad != nil {
			next[r.Ad.ID] = true
		}
	}

	for _, id := range v.Visible() {
		if !next[id] {
			v.Exit(id)
		}
	}
	for _, r := range window {
		if r.Ad != nil {
			v.Enter(r.Ad.ID)
		}
	}
}

// ExitAll hides every visible ad.
func (v *Visibility) ExitAll() {
	for _, id := range v.Visible() {
		v.Exit(id)
	}
}

// Visible returns the IDs of visible ads, sorted.
func (v *Visibility) Visible() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	ids := make([]string, 0, len(v.visible))
	for id := range v.visible {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}
