// SPDX-License-Identifier: GPL-3.0-only

package migrations

import (
	"csint-server/models"
	"fmt"
	"strings"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func List() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "001_normalize_plan_tiers",
			Migrate: func(tx *gorm.DB) error {
				// Early keys were issued with mixed-case tier names.
				var keys []models.AccessKey
				if err := tx.Select("id", "plan_tier").Find(&keys).Error; err != nil {
					return fmt.Errorf("failed to fetch access keys: %w", err)
				}
				for _, key := range keys {
					lowered := models.PlanTier(strings.ToLower(string(key.PlanTier)))
					if lowered == key.PlanTier {
						continue
					}
					if err := tx.Model(&models.AccessKey{}).
						Where("id = ?", key.ID).
						Update("plan_tier", lowered).Error; err != nil {
						return fmt.Errorf("failed to normalize tier for key %d: %w", key.ID, err)
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error { return nil },
		},
		{
			ID: "002_backfill_usage_days",
			Migrate: func(tx *gorm.DB) error {
				// Usage rows that predate the (email, day) key carry an
				// empty day column; derive it from the row's creation time.
				var records []models.UsageRecord
				if err := tx.Where("day = ?", "").Find(&records).Error; err != nil {
					return fmt.Errorf("failed to fetch usage records: %w", err)
				}
				for _, record := range records {
					day := models.UTCDay(record.CreatedAt)
					if err := tx.Model(&models.UsageRecord{}).
						Where("id = ?", record.ID).
						Update("day", day).Error; err != nil {
						return fmt.Errorf("failed to backfill day for record %d: %w", record.ID, err)
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error { return nil },
		},
	}
}

// Run applies the versioned migrations on top of AutoMigrate.
func Run(conn *gorm.DB) error {
	m := gormigrate.New(conn, gormigrate.DefaultOptions, List())
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
