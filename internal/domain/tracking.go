package domain

import (
	"fmt"
	"time"
)

// TrackingKind is the type of a tracking event.
type TrackingKind string

const (
	TrackImpression   TrackingKind = "impression"
	TrackClick        TrackingKind = "click"
	TrackViewDuration TrackingKind = "view_duration"
)

// TrackingEvent is a best-effort report of how a displayed ad was seen.
type TrackingEvent struct {
	AdID       string
	Kind       TrackingKind
	Duration   time.Duration // view_duration only
	Context    PageContext
	Device     DeviceClass
	OccurredAt time.Time
}

// AnalyticsDelta is the counter change a tracking event applies to an ad.
type AnalyticsDelta struct {
	Impressions    int64
	Clicks         int64
	ViewDurationMs int64
}

// Delta converts the event into counter increments.
func (e TrackingEvent) Delta() (AnalyticsDelta, error) {
	switch e.Kind {
	case TrackImpression:
		return AnalyticsDelta{Impressions: 1}, nil
	case TrackClick:
		return AnalyticsDelta{Clicks: 1}, nil
	case TrackViewDuration:
		if e.Duration < 0 {
			return AnalyticsDelta{}, fmt.Errorf("negative view duration %s", e.Duration)
		}
		return AnalyticsDelta{ViewDurationMs: e.Duration.Milliseconds()}, nil
	default:
		return AnalyticsDelta{}, fmt.Errorf("unknown tracking kind %q", e.Kind)
	}
}

// IsZero reports whether the delta changes nothing.
func (d AnalyticsDelta) IsZero() bool {
	return d.Impressions == 0 && d.Clicks == 0 && d.ViewDurationMs == 0
}

// Add accumulates another delta.
func (d AnalyticsDelta) Add(o AnalyticsDelta) AnalyticsDelta {
	return AnalyticsDelta{
		Impressions:    d.Impressions + o.Impressions,
		Clicks:         d.Clicks + o.Clicks,
		ViewDurationMs: d.ViewDurationMs + o.ViewDurationMs,
	}
}
