// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"gorm.io/gorm"
)

// UsageRecord is the per-identity, per-UTC-day counter row. A new calendar
// day produces a fresh row, so no reset job exists. Counts only increase;
// the limit columns are a display snapshot, the authoritative limits come
// from the key's plan tier at check time.
type UsageRecord struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"size:255;not null;uniqueIndex:idx_email_day"`
	Day          string `gorm:"size:10;not null;uniqueIndex:idx_email_day"`
	SearchCount  uint   `gorm:"not null;default:0"`
	APICallCount uint   `gorm:"not null;default:0"`
	SearchLimit  uint   `gorm:"not null;default:0"`
	APICallLimit uint   `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

// UTCDay formats t as the calendar-day key used by usage records.
func UTCDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func init() {
	AllModels = append(AllModels, &UsageRecord{})
}
