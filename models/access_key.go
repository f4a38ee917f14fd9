// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var AllModels []any

// PlaceholderExpiry is the far-future expiration carried by a key until it
// is redeemed. Only after redemption is ExpiresAt authoritative.
var PlaceholderExpiry = time.Date(2099, time.January, 1, 0, 0, 0, 0, time.UTC)

type AccessKey struct {
	ID           uint     `gorm:"primaryKey"`
	KeyID        string   `gorm:"size:64;not null;uniqueIndex"`
	Secret       string   `gorm:"size:64;not null;uniqueIndex"`
	PlanTier     PlanTier `gorm:"size:32;not null;default:'basic'"`
	OwnerEmail   *string  `gorm:"size:255;default:null;index"`
	IsActive     bool     `gorm:"not null;default:true"`
	DurationDays uint     `gorm:"not null;default:30"`
	RedeemedAt   *time.Time
	ExpiresAt    time.Time `gorm:"not null"`
	LastUsedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (key *AccessKey) BeforeCreate(tx *gorm.DB) (err error) {
	if key.KeyID == "" {
		key.KeyID = uuid.NewString()
	}
	return
}

// RedemptionState is the tagged view of a key's binding: the persisted row
// uses nullable columns, callers should not.
type RedemptionState interface {
	redemptionState()
}

type Unredeemed struct{}

type Redeemed struct {
	OwnerEmail string
	RedeemedAt time.Time
	ExpiresAt  time.Time
}

func (Unredeemed) redemptionState() {}
func (Redeemed) redemptionState()   {}

// Redemption reports whether the key has been bound to an identity.
// OwnerEmail and RedeemedAt are set together or not at all.
func (key *AccessKey) Redemption() RedemptionState {
	if key.OwnerEmail == nil || key.RedeemedAt == nil {
		return Unredeemed{}
	}
	return Redeemed{
		OwnerEmail: *key.OwnerEmail,
		RedeemedAt: *key.RedeemedAt,
		ExpiresAt:  key.ExpiresAt,
	}
}

func init() {
	AllModels = append(AllModels, &AccessKey{})
}
