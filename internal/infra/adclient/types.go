package adclient

import (
	"time"

	"ad-placement-service/internal/domain"
)

// PlacementResponse is the body of GET /api/v1/placements.
type PlacementResponse struct {
	Ads      []RankedItem `json:"ads"`
	Ranked   []RankedItem `json:"ranked"`
	Rotation RotationInfo `json:"rotation"`
	Context  string       `json:"context"`
	Device   string       `json:"device"`
}

// RotationInfo describes the window returned with a placement.
type RotationInfo struct {
	Enabled    bool  `json:"enabled"`
	IntervalMs int64 `json:"interval_ms"`
	Cursor     int   `json:"cursor"`
	Positions  int   `json:"positions"`
	Limit      int   `json:"limit"`
}

// RankedItem is one scored ad.
type RankedItem struct {
	Ad         AdItem  `json:"ad"`
	Relevance  float64 `json:"relevance"`
	FinalScore float64 `json:"final_score"`
}

// AdItem is an advertisement as served by the API.
type AdItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	LinkURL     string `json:"link_url"`
	Position    string `json:"position"`
	Type        string `json:"type"`
	Priority    int    `json:"priority"`

	TargetContext []string `json:"target_context"`
	TargetDevice  []string `json:"target_device"`
	Keywords      []string `json:"keywords"`
	Interests     []string `json:"interests"`

	Frequency        int    `json:"frequency"`
	RotationGroup    string `json:"rotation_group"`
	RotationPriority int    `json:"rotation_priority"`
	Strategy         string `json:"strategy"`

	Impressions    int64   `json:"impressions"`
	Clicks         int64   `json:"clicks"`
	ViewDurationMs int64   `json:"view_duration_ms"`
	CTR            float64 `json:"ctr"`

	IsActive  bool       `json:"is_active"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ToDomain converts AdItem to domain.Advertisement.
func (a *AdItem) ToDomain() *domain.Advertisement {
	return &domain.Advertisement{
		ID:             a.ID,
		Title:          a.Title,
		Description:    a.Description,
		ImageURL:       a.ImageURL,
		LinkURL:        a.LinkURL,
		Position:       a.Position,
		Type:           domain.AdType(a.Type),
		Priority:       a.Priority,
		TargetContext:  a.TargetContext,
		TargetDevice:   a.TargetDevice,
		Keywords:       a.Keywords,
		TargetAudience: domain.TargetAudience{Interests: a.Interests},
		RotationSettings: domain.RotationSettings{
			Frequency:        a.Frequency,
			RotationGroup:    a.RotationGroup,
			RotationPriority: a.RotationPriority,
			Strategy:         domain.RotationStrategy(a.Strategy),
		},
		Analytics: domain.Analytics{
			Impressions:       a.Impressions,
			Clicks:            a.Clicks,
			TotalViewDuration: a.ViewDurationMs,
			CTR:               a.CTR,
		},
		IsActive:  a.IsActive,
		StartDate: a.StartDate,
		EndDate:   a.EndDate,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// ToDomain converts RankedItem to domain.RankedAd.
func (r *RankedItem) ToDomain() domain.RankedAd {
	return domain.RankedAd{
		Ad:         r.Ad.ToDomain(),
		Relevance:  r.Relevance,
		FinalScore: r.FinalScore,
	}
}

// AdSpec is the writable part of an advertisement, used by seed files and
// the admin create endpoint.
type AdSpec struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description"`
	ImageURL    string `json:"image_url,omitempty" yaml:"image_url"`
	LinkURL     string `json:"link_url,omitempty" yaml:"link_url"`
	Position    string `json:"position" yaml:"position"`
	Type        string `json:"type" yaml:"type"`
	Priority    int    `json:"priority,omitempty" yaml:"priority"`

	TargetContext []string `json:"target_context,omitempty" yaml:"target_context"`
	TargetDevice  []string `json:"target_device,omitempty" yaml:"target_device"`
	Keywords      []string `json:"keywords,omitempty" yaml:"keywords"`
	Interests     []string `json:"interests,omitempty" yaml:"interests"`

	Frequency        int    `json:"frequency,omitempty" yaml:"frequency"`
	RotationGroup    string `json:"rotation_group,omitempty" yaml:"rotation_group"`
	RotationPriority int    `json:"rotation_priority,omitempty" yaml:"rotation_priority"`
	Strategy         string `json:"strategy,omitempty" yaml:"strategy"`

	IsActive  *bool      `json:"is_active,omitempty" yaml:"is_active"`
	StartDate *time.Time `json:"start_date,omitempty" yaml:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty" yaml:"end_date"`
}

// InterestsBody is the visitor interests payload.
type InterestsBody struct {
	VisitorID string   `json:"visitor_id,omitempty"`
	Interests []string `json:"interests"`
}

// ErrorBody is the API error envelope.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
