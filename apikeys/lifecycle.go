// SPDX-License-Identifier: GPL-3.0-only

package apikeys

import (
	"context"
	"csint-server/commons"
	"csint-server/crypto"
	"csint-server/models"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// MaxBatchSize bounds IssueBatch.
const MaxBatchSize = 100

// Lifecycle issues, redeems, validates and revokes access keys. It holds no
// key state of its own; every decision re-reads the current row.
type Lifecycle struct {
	DB *gorm.DB
}

func NewLifecycle(conn *gorm.DB) *Lifecycle {
	return &Lifecycle{DB: conn}
}

// Issue creates a new unredeemed key with a placeholder far-future expiry.
// The real expiration is computed at redemption from DurationDays.
func (l *Lifecycle) Issue(ctx context.Context, tier models.PlanTier, durationDays uint) (*models.AccessKey, error) {
	if !tier.Valid() {
		return nil, fmt.Errorf("%w: unsupported plan tier %q", ErrInvalidArgument, tier)
	}
	if durationDays == 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidArgument)
	}

	secret, err := crypto.GenerateAPIKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key secret: %w", err)
	}

	key := models.AccessKey{
		Secret:       secret,
		PlanTier:     tier,
		DurationDays: durationDays,
		IsActive:     true,
		ExpiresAt:    models.PlaceholderExpiry,
	}
	if err := l.DB.WithContext(ctx).Create(&key).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to create access key: %w", ErrPersistence, err)
	}
	return &key, nil
}

// IssueBatch creates count keys in a single insert. Count is bounded to
// MaxBatchSize.
func (l *Lifecycle) IssueBatch(ctx context.Context, tier models.PlanTier, durationDays uint, count int) ([]models.AccessKey, error) {
	if count <= 0 || count > MaxBatchSize {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", ErrInvalidArgument, MaxBatchSize)
	}
	if !tier.Valid() {
		return nil, fmt.Errorf("%w: unsupported plan tier %q", ErrInvalidArgument, tier)
	}
	if durationDays == 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidArgument)
	}

	keys := make([]models.AccessKey, 0, count)
	for i := 0; i < count; i++ {
		secret, err := crypto.GenerateAPIKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate key secret: %w", err)
		}
		keys = append(keys, models.AccessKey{
			Secret:       secret,
			PlanTier:     tier,
			DurationDays: durationDays,
			IsActive:     true,
			ExpiresAt:    models.PlaceholderExpiry,
		})
	}
	if err := l.DB.WithContext(ctx).Create(&keys).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to create access keys: %w", ErrPersistence, err)
	}
	return keys, nil
}

// RedeemOrValidate resolves a presented secret for the given identity. On
// first use it binds the key to the identity and computes the real expiry;
// afterwards it verifies the identity, the expiration and the active flag.
//
// The first-use transition is a conditional update on owner_email IS NULL,
// so under concurrent first use exactly one caller wins; the loser re-reads
// and is handled as an already-redeemed key.
func (l *Lifecycle) RedeemOrValidate(ctx context.Context, secret, email string) (*models.AccessKey, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: access key is required", ErrInvalidArgument)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidArgument)
	}

	key, err := l.findActive(ctx, secret)
	if err != nil {
		return nil, err
	}

	if _, unredeemed := key.Redemption().(models.Unredeemed); unredeemed {
		now := time.Now()
		expiresAt := now.AddDate(0, 0, int(key.DurationDays))
		res := l.DB.WithContext(ctx).Model(&models.AccessKey{}).
			Where("id = ? AND owner_email IS NULL", key.ID).
			Updates(map[string]any{
				"owner_email":  email,
				"redeemed_at":  now,
				"expires_at":   expiresAt,
				"last_used_at": now,
			})
		if res.Error != nil {
			return nil, fmt.Errorf("%w: failed to redeem access key: %w", ErrPersistence, res.Error)
		}
		if res.RowsAffected == 1 {
			key.OwnerEmail = &email
			key.RedeemedAt = &now
			key.ExpiresAt = expiresAt
			key.LastUsedAt = &now
			return key, nil
		}

		// Lost the redemption race; the winner's binding is now on the row.
		key, err = l.findActive(ctx, secret)
		if err != nil {
			return nil, err
		}
	}

	return l.validateRedeemed(ctx, key, email)
}

func (l *Lifecycle) findActive(ctx context.Context, secret string) (*models.AccessKey, error) {
	var key models.AccessKey
	err := l.DB.WithContext(ctx).
		Where("secret = ? AND is_active = ?", secret, true).
		First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidKey
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to look up access key: %w", ErrPersistence, err)
	}
	return &key, nil
}

func (l *Lifecycle) validateRedeemed(ctx context.Context, key *models.AccessKey, email string) (*models.AccessKey, error) {
	state, ok := key.Redemption().(models.Redeemed)
	if !ok {
		// Row changed underneath us in a way redemption cannot explain.
		return nil, ErrInvalidKey
	}
	if state.OwnerEmail != email {
		return nil, ErrIdentityMismatch
	}
	if time.Now().After(state.ExpiresAt) {
		return nil, ErrKeyExpired
	}

	now := time.Now()
	if err := l.DB.WithContext(ctx).Model(&models.AccessKey{}).
		Where("id = ?", key.ID).
		Update("last_used_at", now).Error; err != nil {
		// Not a security decision; the validation result stands.
		commons.Logger.Error("Failed to update access key last_used_at:", err)
	} else {
		key.LastUsedAt = &now
	}
	return key, nil
}

// ValidateBinding resolves a key by its row ID for a caller already
// authenticated through a session derived from it. The checks are the same
// as for a directly presented key: active, bound to the same identity,
// unexpired.
func (l *Lifecycle) ValidateBinding(ctx context.Context, id uint, email string) (*models.AccessKey, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidArgument)
	}
	var key models.AccessKey
	err := l.DB.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidKey
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to look up access key: %w", ErrPersistence, err)
	}
	return l.validateRedeemed(ctx, &key, email)
}

// Revoke permanently deactivates a key by its public ID. Revoking an
// already inactive key reports ErrAlreadyRevoked.
func (l *Lifecycle) Revoke(ctx context.Context, keyID string) error {
	if keyID == "" {
		return fmt.Errorf("%w: key ID is required", ErrInvalidArgument)
	}

	var key models.AccessKey
	err := l.DB.WithContext(ctx).Where("key_id = ?", keyID).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidKey
	}
	if err != nil {
		return fmt.Errorf("%w: failed to look up access key: %w", ErrPersistence, err)
	}

	res := l.DB.WithContext(ctx).Model(&models.AccessKey{}).
		Where("id = ? AND is_active = ?", key.ID, true).
		Update("is_active", false)
	if res.Error != nil {
		// A failed revocation write must be reported, never treated as done.
		return fmt.Errorf("%w: failed to revoke access key: %w", ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyRevoked
	}
	return nil
}

// Get fetches a key by its public ID for administrative display.
func (l *Lifecycle) Get(ctx context.Context, keyID string) (*models.AccessKey, error) {
	if keyID == "" {
		return nil, fmt.Errorf("%w: key ID is required", ErrInvalidArgument)
	}
	var key models.AccessKey
	err := l.DB.WithContext(ctx).Where("key_id = ?", keyID).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidKey
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to look up access key: %w", ErrPersistence, err)
	}
	return &key, nil
}

// List returns all issued keys, newest first.
func (l *Lifecycle) List(ctx context.Context) ([]models.AccessKey, error) {
	var keys []models.AccessKey
	if err := l.DB.WithContext(ctx).Order("created_at DESC").Find(&keys).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to list access keys: %w", ErrPersistence, err)
	}
	return keys, nil
}
