package postgres

import (
	"time"

	"ad-placement-service/internal/domain"

	"github.com/lib/pq"
)

// AdvertisementModel is the GORM model for the advertisements table.
type AdvertisementModel struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	Title       string `gorm:"type:varchar(200);not null"`
	Description string `gorm:"type:text"`
	ImageURL    string `gorm:"type:varchar(1000)"`
	LinkURL     string `gorm:"type:varchar(1000)"`

	// Placement
	Position string `gorm:"type:varchar(50);not null;index"`
	Type     string `gorm:"type:varchar(20);not null;index"`
	Priority int    `gorm:"default:0"`

	// Targeting
	TargetContext     pq.StringArray `gorm:"type:text[]"`
	TargetDevice      pq.StringArray `gorm:"type:text[]"`
	Keywords          pq.StringArray `gorm:"type:text[]"`
	AudienceInterests pq.StringArray `gorm:"type:text[]"`

	// Rotation
	Frequency        int    `gorm:"default:15"`
	RotationGroup    string `gorm:"type:varchar(50);index"`
	RotationPriority int    `gorm:"default:0"`
	Strategy         string `gorm:"type:varchar(20);default:sequential"`

	// Analytics
	Impressions    int64   `gorm:"default:0"`
	Clicks         int64   `gorm:"default:0"`
	ViewDurationMs int64   `gorm:"default:0"`
	CTR            float64 `gorm:"column:ctr;type:double precision;default:0"`

	// Scheduling
	IsActive  bool       `gorm:"not null;index"`
	StartDate *time.Time `gorm:"index"`
	EndDate   *time.Time `gorm:"index"`

	// Timestamps
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for AdvertisementModel.
func (AdvertisementModel) TableName() string {
	return "advertisements"
}

// ToDomain converts AdvertisementModel to domain.Advertisement.
func (m *AdvertisementModel) ToDomain() *domain.Advertisement {
	return &domain.Advertisement{
		ID:            m.ID,
		Title:         m.Title,
		Description:   m.Description,
		ImageURL:      m.ImageURL,
		LinkURL:       m.LinkURL,
		Position:      m.Position,
		Type:          domain.AdType(m.Type),
		Priority:      m.Priority,
		TargetContext: m.TargetContext,
		TargetDevice:  m.TargetDevice,
		Keywords:      m.Keywords,
		TargetAudience: domain.TargetAudience{
			Interests: m.AudienceInterests,
		},
		RotationSettings: domain.RotationSettings{
			Frequency:        m.Frequency,
			RotationGroup:    m.RotationGroup,
			RotationPriority: m.RotationPriority,
			Strategy:         domain.RotationStrategy(m.Strategy),
		},
		Analytics: domain.Analytics{
			Impressions:       m.Impressions,
			Clicks:            m.Clicks,
			TotalViewDuration: m.ViewDurationMs,
			CTR:               m.CTR,
		},
		IsActive:  m.IsActive,
		StartDate: m.StartDate,
		EndDate:   m.EndDate,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomain creates an AdvertisementModel from domain.Advertisement.
func FromDomain(a *domain.Advertisement) *AdvertisementModel {
	return &AdvertisementModel{
		ID:                a.ID,
		Title:             a.Title,
		Description:       a.Description,
		ImageURL:          a.ImageURL,
		LinkURL:           a.LinkURL,
		Position:          a.Position,
		Type:              string(a.Type),
		Priority:          a.Priority,
		TargetContext:     a.TargetContext,
		TargetDevice:      a.TargetDevice,
		Keywords:          a.Keywords,
		AudienceInterests: a.TargetAudience.Interests,
		Frequency:         a.RotationSettings.Frequency,
		RotationGroup:     a.RotationSettings.RotationGroup,
		RotationPriority:  a.RotationSettings.RotationPriority,
		Strategy:          string(a.RotationSettings.Strategy),
		Impressions:       a.Analytics.Impressions,
		Clicks:            a.Analytics.Clicks,
		ViewDurationMs:    a.Analytics.TotalViewDuration,
		CTR:               a.Analytics.CTR,
		IsActive:          a.IsActive,
		StartDate:         a.StartDate,
		EndDate:           a.EndDate,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

// toDomainSlice converts a slice of models to domain advertisements.
func toDomainSlice(models []AdvertisementModel) []*domain.Advertisement {
	ads := make([]*domain.Advertisement, len(models))
	for i := range models {
		ads[i] = models[i].ToDomain()
	}

	return ads
}
