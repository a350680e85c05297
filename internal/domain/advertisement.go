// Package domain contains the core business logic and entities.
// This package has no external dependencies (only stdlib).
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrAdNotFound is returned when an advertisement does not exist.
	ErrAdNotFound = errors.New("advertisement not found")

	// ErrInvalidAdvertisement is returned when an advertisement fails domain checks.
	ErrInvalidAdvertisement = errors.New("invalid advertisement")
)

// AdType represents the visual format of an advertisement.
type AdType string

const (
	AdTypeBanner   AdType = "banner"
	AdTypePopup    AdType = "popup"
	AdTypeSidebar  AdType = "sidebar"
	AdTypeFeatured AdType = "featured"
	AdTypeVideo    AdType = "video"
	AdTypeCarousel AdType = "carousel"
)

// IsValid reports whether t is a known ad type.
func (t AdType) IsValid() bool {
	switch t {
	case AdTypeBanner, AdTypePopup, AdTypeSidebar, AdTypeFeatured, AdTypeVideo, AdTypeCarousel:
		return true
	default:
		return false
	}
}

// RotationStrategy names how an ad wants to be rotated within its group.
// The rotation window itself is always sequential over the ranked list.
type RotationStrategy string

const (
	StrategySequential RotationStrategy = "sequential"
	StrategyRandom     RotationStrategy = "random"
	StrategyWeighted   RotationStrategy = "weighted"
	StrategyPriority   RotationStrategy = "priority"
)

// IsValid reports whether s is a known rotation strategy.
func (s RotationStrategy) IsValid() bool {
	switch s {
	case StrategySequential, StrategyRandom, StrategyWeighted, StrategyPriority:
		return true
	default:
		return false
	}
}

const (
	// PositionGlobal is the placement slot that matches every page context.
	PositionGlobal = "global"

	// TargetAll is the sentinel that matches every context or device.
	TargetAll = "all"

	// DefaultFrequency is the rotation frequency in seconds used when an ad has none.
	DefaultFrequency = 15

	MaxPriority         = 100
	MaxRotationPriority = 10
)

// RotationSettings controls how an ad participates in a rotation cycle.
type RotationSettings struct {
	Frequency        int              `json:"frequency"` // seconds
	RotationGroup    string           `json:"rotation_group,omitempty"`
	RotationPriority int              `json:"rotation_priority"` // 0-10
	Strategy         RotationStrategy `json:"strategy"`
}

// TargetAudience describes who the ad is meant for.
type TargetAudience struct {
	Interests []string `json:"interests,omitempty"`
}

// Analytics holds the performance counters of an ad.
type Analytics struct {
	Impressions       int64   `json:"impressions"`
	Clicks            int64   `json:"clicks"`
	TotalViewDuration int64   `json:"total_view_duration_ms"`
	CTR               float64 `json:"ctr"` // click-through percentage
}

// Advertisement is a storefront ad placed into a named slot.
type Advertisement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	LinkURL     string `json:"link_url,omitempty"`

	// Placement
	Position string `json:"position"`
	Type     AdType `json:"type"`
	Priority int    `json:"priority"` // 0-100

	// Targeting
	TargetContext  []string       `json:"target_context"`
	TargetDevice   []string       `json:"target_device"`
	Keywords       []string       `json:"keywords,omitempty"`
	TargetAudience TargetAudience `json:"target_audience"`

	RotationSettings RotationSettings `json:"rotation_settings"`
	Analytics        Analytics        `json:"analytics"`

	// Scheduling
	IsActive  bool       `json:"is_active"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAdvertisement creates an active ad with targeting defaults and timestamps.
func NewAdvertisement(title, position string, adType AdType) *Advertisement {
	now := time.Now().UTC()
	return &Advertisement{
		Title:         title,
		Position:      position,
		Type:          adType,
		TargetContext: []string{TargetAll},
		TargetDevice:  []string{TargetAll},
		RotationSettings: RotationSettings{
			Frequency: DefaultFrequency,
			Strategy:  StrategySequential,
		},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Check validates the invariants an ad must satisfy before it is stored.
func (a *Advertisement) Check() error {
	switch {
	case strings.TrimSpace(a.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidAdvertisement)
	case strings.TrimSpace(a.Position) == "":
		return fmt.Errorf("%w: position is required", ErrInvalidAdvertisement)
	case !a.Type.IsValid():
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAdvertisement, a.Type)
	case a.Priority < 0 || a.Priority > MaxPriority:
		return fmt.Errorf("%w: priority must be within 0-%d", ErrInvalidAdvertisement, MaxPriority)
	case a.RotationSettings.RotationPriority < 0 || a.RotationSettings.RotationPriority > MaxRotationPriority:
		return fmt.Errorf("%w: rotation priority must be within 0-%d", ErrInvalidAdvertisement, MaxRotationPriority)
	case a.RotationSettings.Frequency < 0:
		return fmt.Errorf("%w: frequency must not be negative", ErrInvalidAdvertisement)
	case a.RotationSettings.Strategy != "" && !a.RotationSettings.Strategy.IsValid():
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidAdvertisement, a.RotationSettings.Strategy)
	case a.StartDate != nil && a.EndDate != nil && a.EndDate.Before(*a.StartDate):
		return fmt.Errorf("%w: end date precedes start date", ErrInvalidAdvertisement)
	}
	return nil
}

// IsServable reports whether the ad is active and inside its date range at now.
// Missing bounds are open-ended.
func (a *Advertisement) IsServable(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	if a.StartDate != nil && now.Before(*a.StartDate) {
		return false
	}
	if a.EndDate != nil && now.After(*a.EndDate) {
		return false
	}
	return true
}

// IsExpired reports whether the ad's end date has passed.
func (a *Advertisement) IsExpired(now time.Time) bool {
	return a.EndDate != nil && now.After(*a.EndDate)
}

// Frequency returns the configured rotation frequency, falling back to the default.
func (a *Advertisement) Frequency() time.Duration {
	if a.RotationSettings.Frequency <= 0 {
		return DefaultFrequency * time.Second
	}
	return time.Duration(a.RotationSettings.Frequency) * time.Second
}

// AgeDays returns the fractional number of days since creation.
func (a *Advertisement) AgeDays(now time.Time) float64 {
	days := now.Sub(a.CreatedAt).Hours() / 24
	if days < 0 {
		return 0
	}
	return days
}

// RecordImpression counts one impression.
func (a *Advertisement) RecordImpression() {
	a.Analytics.Impressions++
	a.Analytics.CTR = clickThroughRate(a.Analytics.Clicks, a.Analytics.Impressions)
}

// RecordClick counts one click.
func (a *Advertisement) RecordClick() {
	a.Analytics.Clicks++
	a.Analytics.CTR = clickThroughRate(a.Analytics.Clicks, a.Analytics.Impressions)
}

// RecordViewDuration adds visible time to the running total.
func (a *Advertisement) RecordViewDuration(d time.Duration) {
	if d <= 0 {
		return
	}
	a.Analytics.TotalViewDuration += d.Milliseconds()
}

// clickThroughRate returns clicks per impression as a percentage.
func clickThroughRate(clicks, impressions int64) float64 {
	if impressions == 0 {
		return 0
	}
	return float64(clicks) / float64(impressions) * 100
}
