// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"gorm.io/gorm"
)

type SearchLog struct {
	ID         uint   `gorm:"primaryKey"`
	Email      string `gorm:"size:255;not null;index"`
	SearchType string `gorm:"size:32;not null"`
	Query      string `gorm:"size:512;not null"`
	CreatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func init() {
	AllModels = append(AllModels, &SearchLog{})
}
