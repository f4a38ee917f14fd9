// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"gorm.io/gorm"
)

type AdminSession struct {
	ID         uint   `gorm:"primaryKey"`
	Token      string `gorm:"size:128;not null;uniqueIndex"`
	Username   string `gorm:"size:255;not null;index"`
	LastUsedAt *time.Time
	ExpiresAt  *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func init() {
	AllModels = append(AllModels, &AdminSession{})
}
