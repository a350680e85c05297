package domain

// SortOrder represents the sort direction.
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// SortField represents the field to sort by.
type SortField string

const (
	SortFieldCreatedAt SortField = "created_at"
	SortFieldPriority  SortField = "priority"
	SortFieldCTR       SortField = "ctr"
)

// ListParams holds filter and paging parameters for admin listings.
type ListParams struct {
	// Filters
	Position string
	Type     AdType
	Active   *bool

	// Sorting
	SortBy    SortField // default: created_at
	SortOrder SortOrder // default: desc

	// Pagination
	Page     int // 1-indexed
	PageSize int
}

// DefaultListParams returns list params with sensible defaults.
func DefaultListParams() ListParams {
	return ListParams{
		SortBy:    SortFieldCreatedAt,
		SortOrder: SortOrderDesc,
		Page:      1,
		PageSize:  20,
	}
}

// Validate ensures list params are within acceptable bounds. This is bound correction, not validation.
func (p *ListParams) Validate() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	if p.SortBy == "" {
		p.SortBy = SortFieldCreatedAt
	}
	if p.SortOrder == "" {
		p.SortOrder = SortOrderDesc
	}
}

// Offset calculates the database offset for pagination.
func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit returns the page size.
func (p *ListParams) Limit() int {
	return p.PageSize
}

// ListResult holds a page of advertisements.
type ListResult struct {
	Ads        []*Advertisement `json:"ads"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// NewListResult creates a ListResult with calculated pagination.
func NewListResult(ads []*Advertisement, total int64, params ListParams) *ListResult {
	totalPages := int(total) / params.PageSize
	if int(total)%params.PageSize > 0 {
		totalPages++
	}

	return &ListResult{
		Ads:        ads,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}
}

// AdStats summarises ad performance for the dashboard.
type AdStats struct {
	TotalAds    int64            `json:"total_ads"`
	ActiveAds   int64            `json:"active_ads"`
	Impressions int64            `json:"impressions"`
	Clicks      int64            `json:"clicks"`
	CTR         float64          `json:"ctr"`
	ByType      map[string]int64 `json:"by_type"`
	TopByCTR    []*Advertisement `json:"top_by_ctr"`
}
