package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ad-placement-service/internal/domain"
)

// updatableColumns are the columns an admin update may overwrite.
// Analytics counters and created_at are owned by the database.
var updatableColumns = []string{
	"title", "description", "image_url", "link_url",
	"position", "type", "priority",
	"target_context", "target_device", "keywords", "audience_interests",
	"frequency", "rotation_group", "rotation_priority", "strategy",
	"is_active", "start_date", "end_date", "updated_at",
}

// Repository implements domain.AdRepository using PostgreSQL.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindEligible returns the candidate pool for a placement slot.
// Ads placed in the "global" position are eligible for every slot.
func (r *Repository) FindEligible(ctx context.Context, filter domain.EligibilityFilter, now time.Time) ([]*domain.Advertisement, error) {
	query := r.db.WithContext(ctx).
		Model(&AdvertisementModel{}).
		Where("is_active = ?", true).
		Where("(start_date IS NULL OR start_date <= ?)", now).
		Where("(end_date IS NULL OR end_date >= ?)", now).
		Where("position IN ?", []string{filter.Position, domain.PositionGlobal})

	if filter.Type != "" {
		query = query.Where("type = ?", string(filter.Type))
	}
	if filter.RotationGroup != "" {
		query = query.Where("rotation_group = ?", filter.RotationGroup)
	}

	var models []AdvertisementModel
	if err := query.Order("created_at ASC").Order("id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("finding eligible advertisements: %w", err)
	}

	return toDomainSlice(models), nil
}

// GetByID retrieves a single advertisement by its ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Advertisement, error) {
	var model AdvertisementModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Not found
		}

		return nil, fmt.Errorf("getting advertisement by id: %w", err)
	}

	return model.ToDomain(), nil
}

// List returns a filtered, paginated page of advertisements.
func (r *Repository) List(ctx context.Context, params domain.ListParams) (*domain.ListResult, error) {
	params.Validate()

	query := r.buildListQuery(params)

	// Get total count
	var total int64
	if err := query.WithContext(ctx).Model(&AdvertisementModel{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting advertisements: %w", err)
	}

	var models []AdvertisementModel
	finalQuery := r.applyOrdering(query.WithContext(ctx), params).
		Offset(params.Offset()).
		Limit(params.Limit())

	if err := finalQuery.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing advertisements: %w", err)
	}

	return domain.NewListResult(toDomainSlice(models), total, params), nil
}

// Create stores a new advertisement. An ID is generated when missing.
func (r *Repository) Create(ctx context.Context, ad *domain.Advertisement) error {
	if ad.ID == "" {
		ad.ID = uuid.NewString()
	}

	model := FromDomain(ad)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("creating advertisement: %w", err)
	}

	// Update the domain object with database-generated fields
	ad.CreatedAt = model.CreatedAt
	ad.UpdatedAt = model.UpdatedAt

	return nil
}

// Update overwrites the editable fields of an existing advertisement.
func (r *Repository) Update(ctx context.Context, ad *domain.Advertisement) error {
	model := FromDomain(ad)
	model.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&AdvertisementModel{ID: ad.ID}).
		Select(updatableColumns).
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("updating advertisement: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrAdNotFound
	}

	ad.UpdatedAt = model.UpdatedAt

	return nil
}

// SetActive switches an advertisement on or off.
func (r *Repository) SetActive(ctx context.Context, id string, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&AdvertisementModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":  active,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("setting advertisement active flag: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrAdNotFound
	}

	return nil
}

// Delete removes an advertisement by its ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&AdvertisementModel{})
	if result.Error != nil {
		return fmt.Errorf("deleting advertisement: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrAdNotFound
	}

	return nil
}

// IncrementAnalytics applies counter deltas in a single statement.
// Every right-hand side reads the pre-update row, so CTR is computed from
// the new totals without a read-modify-write race.
func (r *Repository) IncrementAnalytics(ctx context.Context, id string, delta domain.AnalyticsDelta) error {
	if delta.IsZero() {
		return nil
	}

	result := r.db.WithContext(ctx).Exec(`
		UPDATE advertisements SET
			impressions = impressions + ?,
			clicks = clicks + ?,
			view_duration_ms = view_duration_ms + ?,
			ctr = CASE
				WHEN impressions + ? > 0 THEN (clicks + ?)::double precision * 100 / (impressions + ?)
				ELSE 0
			END
		WHERE id = ?`,
		delta.Impressions, delta.Clicks, delta.ViewDurationMs,
		delta.Impressions, delta.Clicks, delta.Impressions,
		id,
	)
	if result.Error != nil {
		return fmt.Errorf("incrementing analytics: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrAdNotFound
	}

	return nil
}

// DeactivateExpired switches off active ads whose end date is before now.
func (r *Repository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&AdvertisementModel{}).
		Where("is_active = ? AND end_date IS NOT NULL AND end_date < ?", true, now).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": now.UTC(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("deactivating expired advertisements: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// Stats aggregates dashboard counters. top limits the CTR leaderboard.
func (r *Repository) Stats(ctx context.Context, top int) (*domain.AdStats, error) {
	db := r.db.WithContext(ctx)

	var totals struct {
		TotalAds    int64
		ActiveAds   int64
		Impressions int64
		Clicks      int64
	}
	err := db.Model(&AdvertisementModel{}).
		Select(`COUNT(*) AS total_ads,
			COUNT(*) FILTER (WHERE is_active) AS active_ads,
			COALESCE(SUM(impressions), 0) AS impressions,
			COALESCE(SUM(clicks), 0) AS clicks`).
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("aggregating advertisement totals: %w", err)
	}

	var byType []struct {
		Type  string
		Count int64
	}
	err = db.Model(&AdvertisementModel{}).
		Select("type, COUNT(*) AS count").
		Group("type").
		Scan(&byType).Error
	if err != nil {
		return nil, fmt.Errorf("aggregating advertisements by type: %w", err)
	}

	var topModels []AdvertisementModel
	if top > 0 {
		err = db.Where("impressions > 0").
			Order("ctr DESC").Order("impressions DESC").
			Limit(top).
			Find(&topModels).Error
		if err != nil {
			return nil, fmt.Errorf("loading top advertisements: %w", err)
		}
	}

	stats := &domain.AdStats{
		TotalAds:    totals.TotalAds,
		ActiveAds:   totals.ActiveAds,
		Impressions: totals.Impressions,
		Clicks:      totals.Clicks,
		ByType:      make(map[string]int64, len(byType)),
		TopByCTR:    toDomainSlice(topModels),
	}
	if totals.Impressions > 0 {
		stats.CTR = float64(totals.Clicks) / float64(totals.Impressions) * 100
	}
	for _, row := range byType {
		stats.ByType[row.Type] = row.Count
	}

	return stats, nil
}

// buildListQuery builds the WHERE clause for admin listings.
// All parameters are bound through GORM's parameterized queries.
func (r *Repository) buildListQuery(params domain.ListParams) *gorm.DB {
	query := r.db.Model(&AdvertisementModel{})

	if params.Position != "" {
		query = query.Where("position = ?", params.Position)
	}
	if params.Type != "" {
		query = query.Where("type = ?", string(params.Type))
	}
	if params.Active != nil {
		query = query.Where("is_active = ?", *params.Active)
	}

	return query
}

// applyOrdering adds the ORDER BY clause. The sort column comes from a fixed
// set, never from raw input; id breaks ties so pages are stable.
func (r *Repository) applyOrdering(query *gorm.DB, params domain.ListParams) *gorm.DB {
	direction := "DESC"
	if params.SortOrder == domain.SortOrderAsc {
		direction = "ASC"
	}

	column := "created_at"
	switch params.SortBy {
	case domain.SortFieldPriority:
		column = "priority"
	case domain.SortFieldCTR:
		column = "ctr"
	}

	return query.Order(column + " " + direction).Order("id " + direction)
}
