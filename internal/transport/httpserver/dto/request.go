// Package dto provides Data Transfer Objects for HTTP requests and responses.
package dto

import (
	"strings"
	"time"

	"ad-placement-service/internal/domain"
)

// PlacementRequest represents the query parameters of a placement lookup.
type PlacementRequest struct {
	Position  string `query:"position" validate:"required,max=64"`
	Type      string `query:"type" validate:"omitempty,oneof=banner popup sidebar featured video carousel"`
	Group     string `query:"group" validate:"max=64"`
	Context   string `query:"context" validate:"omitempty,pagecontext"`
	Path      string `query:"path" validate:"max=512"`
	Device    string `query:"device" validate:"omitempty,oneof=desktop tablet mobile"`
	Limit     int    `query:"limit" validate:"omitempty,min=1,max=20"`
	Rotation  bool   `query:"rotation"`
	Interests string `query:"interests" validate:"max=512"`
	VisitorID string `query:"visitor_id" validate:"max=64"`
	Trace     bool   `query:"trace"`
	Cursor    int    `query:"cursor" validate:"min=0"`
}

// ToQuery converts PlacementRequest to domain.PlacementQuery.
// The page context comes from context, else from path; the device comes from
// device, else from the user agent. Interests are resolved by the caller.
func (r *PlacementRequest) ToQuery(userAgent string) domain.PlacementQuery {
	q := domain.PlacementQuery{
		Position:       r.Position,
		Type:           domain.AdType(r.Type),
		RotationGroup:  r.Group,
		Limit:          r.Limit,
		EnableRotation: r.Rotation,
		Trace:          r.Trace,
	}

	switch {
	case r.Context != "":
		q.Context = domain.ParsePageContext(r.Context)
	case r.Path != "":
		q.Context = domain.PageContextFromPath(r.Path)
	default:
		q.Context = domain.PageOther
	}

	if r.Device != "" {
		q.Device = domain.DeviceClass(r.Device)
	} else {
		q.Device = domain.DetectDevice(userAgent)
	}

	return q
}

// InterestList splits the comma-separated interests parameter.
func (r *PlacementRequest) InterestList() []string {
	if r.Interests == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(r.Interests, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// AdRequest represents the body of an advertisement create or update.
type AdRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	ImageURL    string `json:"image_url" validate:"omitempty,url,max=2048"`
	LinkURL     string `json:"link_url" validate:"omitempty,url,max=2048"`
	Position    string `json:"position" validate:"required,max=64"`
	Type        string `json:"type" validate:"required,oneof=banner popup sidebar featured video carousel"`
	Priority    int    `json:"priority" validate:"min=0,max=100"`

	TargetContext []string `json:"target_context" validate:"omitempty,max=12,dive,pagecontext"`
	TargetDevice  []string `json:"target_device" validate:"omitempty,max=4,dive,device"`
	Keywords      []string `json:"keywords" validate:"omitempty,max=50,dive,required,max=64"`
	Interests     []string `json:"interests" validate:"omitempty,max=50,dive,required,max=64"`

	Frequency        int    `json:"frequency" validate:"min=0,max=3600"`
	RotationGroup    string `json:"rotation_group" validate:"max=64"`
	RotationPriority int    `json:"rotation_priority" validate:"min=0,max=10"`
	Strategy         string `json:"strategy" validate:"omitempty,oneof=sequential random weighted priority"`

	IsActive  *bool      `json:"is_active"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// ToDomain converts AdRequest to a new domain.Advertisement. Ads are active
// unless is_active is false.
func (r *AdRequest) ToDomain() *domain.Advertisement {
	ad := &domain.Advertisement{IsActive: true}
	r.ApplyTo(ad)
	return ad
}

// ApplyTo overwrites the writable fields of ad. Analytics and timestamps are kept.
func (r *AdRequest) ApplyTo(ad *domain.Advertisement) {
	ad.Title = r.Title
	ad.Description = r.Description
	ad.ImageURL = r.ImageURL
	ad.LinkURL = r.LinkURL
	ad.Position = r.Position
	ad.Type = domain.AdType(r.Type)
	ad.Priority = r.Priority

	ad.TargetContext = r.TargetContext
	ad.TargetDevice = r.TargetDevice
	ad.Keywords = r.Keywords
	ad.TargetAudience = domain.TargetAudience{Interests: r.Interests}

	ad.RotationSettings = domain.RotationSettings{
		Frequency:        r.Frequency,
		RotationGroup:    r.RotationGroup,
		RotationPriority: r.RotationPriority,
		Strategy:         domain.RotationStrategy(r.Strategy),
	}

	if r.IsActive != nil {
		ad.IsActive = *r.IsActive
	}
	ad.StartDate = r.StartDate
	ad.EndDate = r.EndDate
}

// ListAdsRequest represents the query parameters of the admin listing.
type ListAdsRequest struct {
	Position  string `query:"position" validate:"max=64"`
	Type      string `query:"type" validate:"omitempty,oneof=banner popup sidebar featured video carousel"`
	Active    string `query:"active" validate:"omitempty,oneof=true false"`
	SortBy    string `query:"sort_by" validate:"omitempty,oneof=created_at priority ctr"`
	SortOrder string `query:"sort_order" validate:"omitempty,oneof=asc desc"`
	Page      int    `query:"page" validate:"omitempty,min=1"`
	PageSize  int    `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// ToListParams converts ListAdsRequest to domain.ListParams.
func (r *ListAdsRequest) ToListParams() domain.ListParams {
	params := domain.DefaultListParams()

	params.Position = r.Position
	params.Type = domain.AdType(r.Type)

	if r.Active != "" {
		active := r.Active == "true"
		params.Active = &active
	}
	if r.SortBy != "" {
		params.SortBy = domain.SortField(r.SortBy)
	}
	if r.SortOrder != "" {
		params.SortOrder = domain.SortOrder(r.SortOrder)
	}
	if r.Page > 0 {
		params.Page = r.Page
	}
	if r.PageSize > 0 {
		params.PageSize = r.PageSize
	}

	return params
}

// TrackRequest is the optional body of an impression or click.
type TrackRequest struct {
	Context string `json:"context" validate:"omitempty,pagecontext"`
}

// ViewDurationRequest is the body of a view-duration report.
type ViewDurationRequest struct {
	DurationMs int64  `json:"duration_ms" validate:"min=0,max=86400000"`
	Context    string `json:"context" validate:"omitempty,pagecontext"`
}

// Duration returns the reported visible time.
func (r *ViewDurationRequest) Duration() time.Duration {
	return time.Duration(r.DurationMs) * time.Millisecond
}

// InterestsRequest is the body of an interest update.
type InterestsRequest struct {
	Interests []string `json:"interests" validate:"required,min=1,max=10,dive,required,max=64"`
}
