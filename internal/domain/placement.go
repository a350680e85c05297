package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidQuery is returned when a placement query cannot be served.
var ErrInvalidQuery = errors.New("invalid placement query")

// Placement limits.
const (
	DefaultPlacementLimit = 1
	MaxPlacementLimit     = 20
)

// PlacementQuery describes a request for ads to fill one placement slot.
type PlacementQuery struct {
	// Slot selection
	Position      string
	Type          AdType
	RotationGroup string
	Limit         int

	// Viewer
	Context   PageContext
	Device    DeviceClass
	Interests RecentInterests

	EnableRotation bool
	Trace          bool
}

// Normalize fills defaults and clamps the limit. This is bound correction, not validation.
func (q *PlacementQuery) Normalize() {
	q.Position = strings.TrimSpace(q.Position)
	if q.Limit < 1 {
		q.Limit = DefaultPlacementLimit
	}
	if q.Limit > MaxPlacementLimit {
		q.Limit = MaxPlacementLimit
	}
	if q.Context == "" {
		q.Context = PageOther
	}
	if !q.Device.IsValid() {
		q.Device = DeviceDesktop
	}
}

// Viewer returns the viewer context carried by the query.
func (q *PlacementQuery) Viewer() ViewerContext {
	return ViewerContext{
		Page:      q.Context,
		Device:    q.Device,
		Interests: q.Interests,
	}
}

// CacheKey identifies the candidate pool of a query.
// It covers position, type, limit, group and context; device and interests
// are applied after the pool is loaded.
func (q *PlacementQuery) CacheKey() string {
	return fmt.Sprintf("placement:%s:%s:%d:%s:%s",
		q.Position, q.Type, q.Limit, q.RotationGroup, q.Context)
}

// EligibilityFilter selects the candidate pool from storage.
type EligibilityFilter struct {
	Position      string
	Type          AdType
	RotationGroup string
}

// Filter returns the storage filter for the query.
func (q *PlacementQuery) Filter() EligibilityFilter {
	return EligibilityFilter{
		Position:      q.Position,
		Type:          q.Type,
		RotationGroup: q.RotationGroup,
	}
}
