// SPDX-License-Identifier: GPL-3.0-only

package usage

import (
	"context"
	"csint-server/models"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	LimitSearches = "searches"
	LimitAPICalls = "api_calls"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrPersistence     = errors.New("persistence failure")
)

// QuotaExceededError reports which daily ceiling was hit and its value, for
// user-facing messaging.
type QuotaExceededError struct {
	Kind  string
	Limit uint
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily %s limit of %d reached", e.Kind, e.Limit)
}

// Ledger tracks per-identity, per-UTC-day usage. Daily rollover is implicit:
// a new day keys a fresh row, so there is no reset job.
//
// Limits are re-derived from the plan tier on every check rather than frozen
// into the day's row, so a plan change takes effect on the next request. The
// row's limit columns are refreshed on each increment for display only.
type Ledger struct {
	DB *gorm.DB
}

func NewLedger(conn *gorm.DB) *Ledger {
	return &Ledger{DB: conn}
}

// GetOrCreateToday returns today's usage row for the identity, creating it
// with zero counts on first use of the day.
func (l *Ledger) GetOrCreateToday(ctx context.Context, email string, tier models.PlanTier) (*models.UsageRecord, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidArgument)
	}

	day := models.UTCDay(time.Now())
	limits := tier.Limits()
	record := models.UsageRecord{}
	err := l.DB.WithContext(ctx).
		Where(models.UsageRecord{Email: email, Day: day}).
		Attrs(models.UsageRecord{
			SearchLimit:  limits.SearchesPerDay,
			APICallLimit: limits.APICallsPerDay,
		}).
		FirstOrCreate(&record).Error
	if err != nil {
		// A concurrent first use of the day may have created the row
		// between our read and insert; the unique (email, day) index
		// rejects the duplicate and a re-read resolves it.
		var existing models.UsageRecord
		if err2 := l.DB.WithContext(ctx).
			Where("email = ? AND day = ?", email, day).
			First(&existing).Error; err2 == nil {
			return &existing, nil
		}
		return nil, fmt.Errorf("%w: failed to create usage record: %w", ErrPersistence, err)
	}
	return &record, nil
}

// CheckAndIncrement admits one search against the identity's daily quota.
// The check and the increment are a single conditional update, so two
// concurrent requests cannot both pass the check and push a counter past
// its limit. When a ceiling is hit nothing is incremented.
func (l *Ledger) CheckAndIncrement(ctx context.Context, email string, tier models.PlanTier) (*models.UsageRecord, error) {
	record, err := l.GetOrCreateToday(ctx, email, tier)
	if err != nil {
		return nil, err
	}
	limits := tier.Limits()

	res := l.DB.WithContext(ctx).Model(&models.UsageRecord{}).
		Where("id = ? AND search_count < ? AND api_call_count < ?",
			record.ID, limits.SearchesPerDay, limits.APICallsPerDay).
		Updates(map[string]any{
			"search_count":   gorm.Expr("search_count + 1"),
			"api_call_count": gorm.Expr("api_call_count + 1"),
			"search_limit":   limits.SearchesPerDay,
			"api_call_limit": limits.APICallsPerDay,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("%w: failed to increment usage: %w", ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		// Re-read to report which ceiling blocked the request.
		var current models.UsageRecord
		if err := l.DB.WithContext(ctx).First(&current, record.ID).Error; err != nil {
			return nil, fmt.Errorf("%w: failed to read usage record: %w", ErrPersistence, err)
		}
		if current.SearchCount >= limits.SearchesPerDay {
			return nil, &QuotaExceededError{Kind: LimitSearches, Limit: limits.SearchesPerDay}
		}
		return nil, &QuotaExceededError{Kind: LimitAPICalls, Limit: limits.APICallsPerDay}
	}

	record.SearchCount++
	record.APICallCount++
	record.SearchLimit = limits.SearchesPerDay
	record.APICallLimit = limits.APICallsPerDay
	return record, nil
}
