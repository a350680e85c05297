package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// addPlacementIndexes adds the indexes used by candidate pool lookups,
// admin listings and the expiry job.
//
// The partial index on (position, type) only covers active rows, which is
// the only shape the placement query reads.
func addPlacementIndexes() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "002_add_placement_indexes",
		Migrate: func(tx *gorm.DB) error {
			indexes := []string{
				"CREATE INDEX IF NOT EXISTS idx_ads_active_position ON advertisements(position, type) WHERE is_active;",
				"CREATE INDEX IF NOT EXISTS idx_ads_rotation_group ON advertisements(rotation_group);",
				"CREATE INDEX IF NOT EXISTS idx_ads_end_date ON advertisements(end_date) WHERE is_active AND end_date IS NOT NULL;",
				"CREATE INDEX IF NOT EXISTS idx_ads_created_at ON advertisements(created_at DESC);",
				"CREATE INDEX IF NOT EXISTS idx_ads_ctr ON advertisements(ctr DESC);",
			}

			for _, idx := range indexes {
				if err := tx.Exec(idx).Error; err != nil {
					return err
				}
			}

			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			for _, idx := range []string{
				"idx_ads_active_position", "idx_ads_rotation_group", "idx_ads_end_date",
				"idx_ads_created_at", "idx_ads_ctr",
			} {
				if err := tx.Exec("DROP INDEX IF EXISTS " + idx).Error; err != nil {
					return err
				}
			}
			return nil
		},
	}
}
