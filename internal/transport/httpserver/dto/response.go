package dto

import (
	"time"

	"ad-placement-service/internal/app/service"
	"ad-placement-service/internal/domain"
)

// AdResponse represents a single advertisement in the response.
type AdResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	LinkURL     string `json:"link_url,omitempty"`
	Position    string `json:"position"`
	Type        string `json:"type"`
	Priority    int    `json:"priority"`

	// Targeting
	TargetContext []string `json:"target_context"`
	TargetDevice  []string `json:"target_device"`
	Keywords      []string `json:"keywords,omitempty"`
	Interests     []string `json:"interests,omitempty"`

	// Rotation
	Frequency        int    `json:"frequency"`
	RotationGroup    string `json:"rotation_group,omitempty"`
	RotationPriority int    `json:"rotation_priority"`
	Strategy         string `json:"strategy"`

	// Analytics
	Impressions    int64   `json:"impressions"`
	Clicks         int64   `json:"clicks"`
	ViewDurationMs int64   `json:"view_duration_ms"`
	CTR            float64 `json:"ctr"`

	// Scheduling
	IsActive  bool       `json:"is_active"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// FromDomainAd converts domain.Advertisement to AdResponse.
func FromDomainAd(ad *domain.Advertisement) AdResponse {
	return AdResponse{
		ID:               ad.ID,
		Title:            ad.Title,
		Description:      ad.Description,
		ImageURL:         ad.ImageURL,
		LinkURL:          ad.LinkURL,
		Position:         ad.Position,
		Type:             string(ad.Type),
		Priority:         ad.Priority,
		TargetContext:    ad.TargetContext,
		TargetDevice:     ad.TargetDevice,
		Keywords:         ad.Keywords,
		Interests:        ad.TargetAudience.Interests,
		Frequency:        ad.RotationSettings.Frequency,
		RotationGroup:    ad.RotationSettings.RotationGroup,
		RotationPriority: ad.RotationSettings.RotationPriority,
		Strategy:         string(ad.RotationSettings.Strategy),
		Impressions:      ad.Analytics.Impressions,
		Clicks:           ad.Analytics.Clicks,
		ViewDurationMs:   ad.Analytics.TotalViewDuration,
		CTR:              ad.Analytics.CTR,
		IsActive:         ad.IsActive,
		StartDate:        ad.StartDate,
		EndDate:          ad.EndDate,
		CreatedAt:        ad.CreatedAt,
		UpdatedAt:        ad.UpdatedAt,
	}
}

// RankedAdResponse is one scored ad.
type RankedAdResponse struct {
	Ad         AdResponse `json:"ad"`
	Relevance  float64    `json:"relevance"`
	FinalScore float64    `json:"final_score"`
}

// RotationMeta describes the returned window.
type RotationMeta struct {
	Enabled    bool  `json:"enabled"`
	IntervalMs int64 `json:"interval_ms"`
	Cursor     int   `json:"cursor"`
	Positions  int   `json:"positions"`
	Limit      int   `json:"limit"`
}

// PlacementResponse represents a filled placement slot.
type PlacementResponse struct {
	Ads      []RankedAdResponse     `json:"ads"`
	Ranked   []RankedAdResponse     `json:"ranked"`
	Rotation RotationMeta           `json:"rotation"`
	Context  string                 `json:"context"`
	Device   string                 `json:"device"`
	Trace    *domain.SelectionTrace `json:"trace,omitempty"`
}

// FromPlacementResult converts service.PlacementResult to PlacementResponse.
func FromPlacementResult(result *service.PlacementResult, query domain.PlacementQuery) PlacementResponse {
	limit := query.Limit
	if limit < 1 {
		limit = domain.DefaultPlacementLimit
	}

	return PlacementResponse{
		Ads:    fromRanked(result.Displayed),
		Ranked: fromRanked(result.Ranked),
		Rotation: RotationMeta{
			Enabled:    result.CanRotate,
			IntervalMs: result.RotationInterval.Milliseconds(),
			Cursor:     result.Cursor,
			Positions:  result.Positions,
			Limit:      limit,
		},
		Context: string(query.Context),
		Device:  string(query.Device),
		Trace:   result.Trace,
	}
}

func fromRanked(ranked []domain.RankedAd) []RankedAdResponse {
	out := make([]RankedAdResponse, len(ranked))
	for i, r := range ranked {
		out[i] = RankedAdResponse{
			Ad:         FromDomainAd(r.Ad),
			Relevance:  r.Relevance,
			FinalScore: r.FinalScore,
		}
	}
	return out
}

// ListAdsResponse represents a page of advertisements.
type ListAdsResponse struct {
	Ads        []AdResponse   `json:"ads"`
	Pagination PaginationMeta `json:"pagination"`
}

// PaginationMeta holds pagination metadata.
type PaginationMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// FromListResult converts domain.ListResult to ListAdsResponse.
func FromListResult(result *domain.ListResult) ListAdsResponse {
	ads := make([]AdResponse, len(result.Ads))
	for i, ad := range result.Ads {
		ads[i] = FromDomainAd(ad)
	}

	return ListAdsResponse{
		Ads: ads,
		Pagination: PaginationMeta{
			Total:      result.Total,
			Page:       result.Page,
			PageSize:   result.PageSize,
			TotalPages: result.TotalPages,
		},
	}
}

// InterestsResponse represents a visitor's recent interests.
type InterestsResponse struct {
	VisitorID string   `json:"visitor_id"`
	Interests []string `json:"interests"`
}

// AcceptedResponse acknowledges a fire-and-forget request.
type AcceptedResponse struct {
	Status string `json:"status"`
}

// ExpireResponse reports an on-demand expiry pass.
type ExpireResponse struct {
	Deactivated int64 `json:"deactivated"`
}

// StatsResponse represents dashboard stats.
type StatsResponse struct {
	TotalAds    int64            `json:"total_ads"`
	ActiveAds   int64            `json:"active_ads"`
	Impressions int64            `json:"impressions"`
	Clicks      int64            `json:"clicks"`
	CTR         float64          `json:"ctr"`
	ByType      map[string]int64 `json:"by_type"`
	TopByCTR    []AdResponse     `json:"top_by_ctr"`
}

// FromStats converts domain.AdStats to StatsResponse.
func FromStats(stats *domain.AdStats) StatsResponse {
	top := make([]AdResponse, len(stats.TopByCTR))
	for i, ad := range stats.TopByCTR {
		top[i] = FromDomainAd(ad)
	}

	return StatsResponse{
		TotalAds:    stats.TotalAds,
		ActiveAds:   stats.ActiveAds,
		Impressions: stats.Impressions,
		Clicks:      stats.Clicks,
		CTR:         stats.CTR,
		ByType:      stats.ByType,
		TopByCTR:    top,
	}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}
