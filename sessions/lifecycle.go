// SPDX-License-Identifier: GPL-3.0-only

package sessions

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

const (
	// AdminWindowDays is the fixed admin session lifetime.
	AdminWindowDays = 7
	// UserWindowDays is the fixed user session lifetime, also the
	// extension applied on refresh.
	UserWindowDays = 30
)

var (
	// ErrNoSession is returned by Refresh when the presented token does
	// not resolve to a live session.
	ErrNoSession = errors.New("no valid session")

	ErrInvalidArgument = errors.New("invalid argument")
	ErrPersistence     = errors.New("persistence failure")
)

// Lifecycle manages bearer sessions. A session is live iff now is before
// its expiry; expiration is the only liveness signal.
type Lifecycle struct {
	DB *gorm.DB
}

func NewLifecycle(conn *gorm.DB) *Lifecycle {
	return &Lifecycle{DB: conn}
}

func (l *Lifecycle) CreateAdmin(ctx context.Context, username string) (*models.AdminSession, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidArgument)
	}
	token, err := crypto.GenerateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}
	expiresAt := time.Now().AddDate(0, 0, AdminWindowDays)
	session := models.AdminSession{
		Token:     token,
		Username:  username,
		ExpiresAt: &expiresAt,
	}
	if err := l.DB.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to create admin session: %w", ErrPersistence, err)
	}
	return &session, nil
}

func (l *Lifecycle) CreateUser(ctx context.Context, email string, accessKeyID uint) (*models.UserSession, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidArgument)
	}
	if accessKeyID == 0 {
		return nil, fmt.Errorf("%w: access key binding is required", ErrInvalidArgument)
	}
	token, err := crypto.GenerateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}
	expiresAt := time.Now().AddDate(0, 0, UserWindowDays)
	session := models.UserSession{
		Token:       token,
		Email:       email,
		AccessKeyID: accessKeyID,
		ExpiresAt:   &expiresAt,
	}
	if err := l.DB.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to create user session: %w", ErrPersistence, err)
	}
	return &session, nil
}

// ValidateAdmin resolves an admin bearer token. Absent and expired tokens
// both yield (nil, nil) so callers cannot distinguish the two.
func (l *Lifecycle) ValidateAdmin(ctx context.Context, token string) (*models.AdminSession, error) {
	if token == "" {
		return nil, nil
	}
	var session models.AdminSession
	err := l.DB.WithContext(ctx).Where("token = ?", token).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to look up admin session: %w", ErrPersistence, err)
	}
	if session.ExpiresAt == nil || !time.Now().Before(*session.ExpiresAt) {
		return nil, nil
	}
	l.touchAdmin(ctx, &session)
	return &session, nil
}

// ValidateUser resolves a user bearer token with the same absent/expired
// semantics as ValidateAdmin.
func (l *Lifecycle) ValidateUser(ctx context.Context, token string) (*models.UserSession, error) {
	if token == "" {
		return nil, nil
	}
	var session models.UserSession
	err := l.DB.WithContext(ctx).Where("token = ?", token).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to look up user session: %w", ErrPersistence, err)
	}
	if session.ExpiresAt == nil || !time.Now().Before(*session.ExpiresAt) {
		return nil, nil
	}
	l.touchUser(ctx, &session)
	return &session, nil
}

// RefreshUser rotates the session's token and extends its expiry by the
// fixed user window. The rotation is a conditional update on the old token,
// so the old bearer stops validating the moment the new one exists and a
// concurrent refresh of the same token can only succeed once.
func (l *Lifecycle) RefreshUser(ctx context.Context, token string) (*models.UserSession, error) {
	session, err := l.ValidateUser(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNoSession
	}

	newToken, err := crypto.GenerateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}
	expiresAt := time.Now().AddDate(0, 0, UserWindowDays)

	res := l.DB.WithContext(ctx).Model(&models.UserSession{}).
		Where("token = ?", token).
		Updates(map[string]any{
			"token":      newToken,
			"expires_at": expiresAt,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("%w: failed to refresh session: %w", ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNoSession
	}

	session.Token = newToken
	session.ExpiresAt = &expiresAt
	return session, nil
}

// RevokeUser invalidates a user session immediately. Used on logout;
// revoking an unknown token is a no-op.
func (l *Lifecycle) RevokeUser(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := l.DB.WithContext(ctx).Unscoped().
		Where("token = ?", token).
		Delete(&models.UserSession{}).Error
	if err != nil {
		return fmt.Errorf("%w: failed to revoke user session: %w", ErrPersistence, err)
	}
	return nil
}

func (l *Lifecycle) RevokeAdmin(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := l.DB.WithContext(ctx).Unscoped().
		Where("token = ?", token).
		Delete(&models.AdminSession{}).Error
	if err != nil {
		return fmt.Errorf("%w: failed to revoke admin session: %w", ErrPersistence, err)
	}
	return nil
}

func (l *Lifecycle) touchAdmin(ctx context.Context, session *models.AdminSession) {
	now := time.Now()
	if err := l.DB.WithContext(ctx).Model(&models.AdminSession{}).
		Where("id = ?", session.ID).
		Update("last_used_at", now).Error; err != nil {
		commons.Logger.Error("Failed to update admin session last_used_at:", err)
		return
	}
	session.LastUsedAt = &now
}

func (l *Lifecycle) touchUser(ctx context.Context, session *models.UserSession) {
	now := time.Now()
	if err := l.DB.WithContext(ctx).Model(&models.UserSession{}).
		Where("id = ?", session.ID).
		Update("last_used_at", now).Error; err != nil {
		commons.Logger.Error("Failed to update user session last_used_at:", err)
		return
	}
	session.LastUsedAt = &now
}
