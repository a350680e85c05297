package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createAdvertisementsTable creates the advertisements table.
func createAdvertisementsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "001_create_advertisements",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS advertisements (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					title VARCHAR(200) NOT NULL,
					description TEXT,
					image_url VARCHAR(1000),
					link_url VARCHAR(1000),

					-- Placement
					position VARCHAR(50) NOT NULL,
					type VARCHAR(20) NOT NULL,
					priority INTEGER DEFAULT 0 CHECK (priority BETWEEN 0 AND 100),

					-- Targeting
					target_context TEXT[] DEFAULT '{all}',
					target_device TEXT[] DEFAULT '{all}',
					keywords TEXT[],
					audience_interests TEXT[],

					-- Rotation
					frequency INTEGER DEFAULT 15,
					rotation_group VARCHAR(50),
					rotation_priority INTEGER DEFAULT 0 CHECK (rotation_priority BETWEEN 0 AND 10),
					strategy VARCHAR(20) DEFAULT 'sequential',

					-- Analytics
					impressions BIGINT DEFAULT 0,
					clicks BIGINT DEFAULT 0,
					view_duration_ms BIGINT DEFAULT 0,
					ctr DOUBLE PRECISION DEFAULT 0,

					-- Scheduling
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					start_date TIMESTAMP,
					end_date TIMESTAMP,

					-- Timestamps
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS advertisements;").Error
		},
	}
}
