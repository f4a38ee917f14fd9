// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"gorm.io/gorm"
)

type UserSession struct {
	ID          uint   `gorm:"primaryKey"`
	Token       string `gorm:"size:128;not null;uniqueIndex"`
	Email       string `gorm:"size:255;not null;index"`
	LastUsedAt  *time.Time
	ExpiresAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
	AccessKeyID uint
	AccessKey   AccessKey `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func init() {
	AllModels = append(AllModels, &UserSession{})
}
