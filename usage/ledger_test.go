// SPDX-License-Identifier: GPL-3.0-only

package usage

import (
	"context"
	"csint-server/apikeys"
	"csint-server/models"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := conn.AutoMigrate(models.AllModels...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return conn
}

func TestGetOrCreateToday(t *testing.T) {
	l := NewLedger(newTestDB(t))
	ctx := context.Background()

	record, err := l.GetOrCreateToday(ctx, "a@x.com", models.BasicPlan)
	if err != nil {
		t.Fatalf("GetOrCreateToday failed: %v", err)
	}
	if record.SearchCount != 0 || record.APICallCount != 0 {
		t.Errorf("Fresh record should start at zero, got %+v", record)
	}
	if record.Day != models.UTCDay(time.Now()) {
		t.Errorf("Expected today's UTC day, got %s", record.Day)
	}
	if record.SearchLimit != 50 || record.APICallLimit != 200 {
		t.Errorf("Expected basic limit snapshot, got %+v", record)
	}

	again, err := l.GetOrCreateToday(ctx, "a@x.com", models.BasicPlan)
	if err != nil {
		t.Fatalf("Second GetOrCreateToday failed: %v", err)
	}
	if again.ID != record.ID {
		t.Error("Same identity and day should reuse the record")
	}

	if _, err := l.GetOrCreateToday(ctx, "", models.BasicPlan); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for empty email, got %v", err)
	}
}

func TestCheckAndIncrement(t *testing.T) {
	l := NewLedger(newTestDB(t))
	ctx := context.Background()

	record, err := l.CheckAndIncrement(ctx, "a@x.com", models.BasicPlan)
	if err != nil {
		t.Fatalf("CheckAndIncrement failed: %v", err)
	}
	if record.SearchCount != 1 || record.APICallCount != 1 {
		t.Errorf("Expected both counters at 1, got %+v", record)
	}

	record, err = l.CheckAndIncrement(ctx, "a@x.com", models.BasicPlan)
	if err != nil {
		t.Fatalf("Second CheckAndIncrement failed: %v", err)
	}
	if record.SearchCount != 2 {
		t.Errorf("Expected search count 2, got %d", record.SearchCount)
	}
}

func TestCheckAndIncrementAtLimit(t *testing.T) {
	conn := newTestDB(t)
	l := NewLedger(conn)
	ctx := context.Background()

	record, err := l.GetOrCreateToday(ctx, "a@x.com", models.BasicPlan)
	if err != nil {
		t.Fatalf("GetOrCreateToday failed: %v", err)
	}
	limits := models.BasicPlan.Limits()
	if err := conn.Model(&models.UsageRecord{}).
		Where("id = ?", record.ID).
		Update("search_count", limits.SearchesPerDay).Error; err != nil {
		t.Fatalf("Failed to fill quota: %v", err)
	}

	_, err = l.CheckAndIncrement(ctx, "a@x.com", models.BasicPlan)
	var quotaErr *QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("Expected QuotaExceededError, got %v", err)
	}
	if quotaErr.Kind != LimitSearches || quotaErr.Limit != limits.SearchesPerDay {
		t.Errorf("Unexpected quota error: %+v", quotaErr)
	}

	// The rejected request must not have incremented anything.
	var current models.UsageRecord
	if err := conn.First(&current, record.ID).Error; err != nil {
		t.Fatalf("Failed to read record: %v", err)
	}
	if current.APICallCount != 0 {
		t.Errorf("Rejected request should not increment api_call_count, got %d", current.APICallCount)
	}
}

func TestLimitsRederivedFromTier(t *testing.T) {
	l := NewLedger(newTestDB(t))
	ctx := context.Background()

	if _, err := l.CheckAndIncrement(ctx, "a@x.com", models.BasicPlan); err != nil {
		t.Fatalf("CheckAndIncrement failed: %v", err)
	}

	// A plan upgrade is reflected on the next check without a new row.
	record, err := l.CheckAndIncrement(ctx, "a@x.com", models.PremiumPlan)
	if err != nil {
		t.Fatalf("CheckAndIncrement after upgrade failed: %v", err)
	}
	if record.SearchLimit != models.PremiumPlan.Limits().SearchesPerDay {
		t.Errorf("Expected premium limit snapshot, got %d", record.SearchLimit)
	}
	if record.SearchCount != 2 {
		t.Errorf("Counts carry across the upgrade, got %d", record.SearchCount)
	}
}

func TestDailyRolloverIsolation(t *testing.T) {
	conn := newTestDB(t)
	l := NewLedger(conn)
	ctx := context.Background()

	// Yesterday's exhausted record.
	yesterday := models.UsageRecord{
		Email:        "a@x.com",
		Day:          models.UTCDay(time.Now().AddDate(0, 0, -1)),
		SearchCount:  50,
		APICallCount: 200,
		SearchLimit:  50,
		APICallLimit: 200,
	}
	if err := conn.Create(&yesterday).Error; err != nil {
		t.Fatalf("Failed to seed yesterday's record: %v", err)
	}

	record, err := l.CheckAndIncrement(ctx, "a@x.com", models.BasicPlan)
	if err != nil {
		t.Fatalf("CheckAndIncrement failed: %v", err)
	}
	if record.ID == yesterday.ID {
		t.Error("Today's usage should be a fresh record")
	}
	if record.SearchCount != 1 {
		t.Errorf("Today's count should start from zero, got %d", record.SearchCount)
	}
}

func TestConcurrentIncrementNeverOvershoots(t *testing.T) {
	conn := newTestDB(t)
	l := NewLedger(conn)
	ctx := context.Background()

	record, err := l.GetOrCreateToday(ctx, "a@x.com", models.BasicPlan)
	if err != nil {
		t.Fatalf("GetOrCreateToday failed: %v", err)
	}
	limits := models.BasicPlan.Limits()
	// Leave room for exactly 3 more searches.
	if err := conn.Model(&models.UsageRecord{}).
		Where("id = ?", record.ID).
		Update("search_count", limits.SearchesPerDay-3).Error; err != nil {
		t.Fatalf("Failed to preload quota: %v", err)
	}

	const attempts = 8
	results := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := l.CheckAndIncrement(ctx, "a@x.com", models.BasicPlan)
			results[i] = err
		}(i)
	}
	wg.Wait()

	admitted := 0
	for i, err := range results {
		var quotaErr *QuotaExceededError
		switch {
		case err == nil:
			admitted++
		case errors.As(err, &quotaErr):
		default:
			t.Errorf("Attempt %d returned unexpected error: %v", i, err)
		}
	}
	if admitted != 3 {
		t.Errorf("Expected exactly 3 admitted requests, got %d", admitted)
	}

	var current models.UsageRecord
	if err := conn.First(&current, record.ID).Error; err != nil {
		t.Fatalf("Failed to read record: %v", err)
	}
	if current.SearchCount != limits.SearchesPerDay {
		t.Errorf("Counter overshot the limit: %d > %d", current.SearchCount, limits.SearchesPerDay)
	}
}

func TestEnforcerAdmit(t *testing.T) {
	conn := newTestDB(t)
	keys := apikeys.NewLifecycle(conn)
	enforcer := NewEnforcer(keys, NewLedger(conn))
	ctx := context.Background()

	issued, err := keys.Issue(ctx, models.StandardPlan, 30)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	redeemed, err := keys.RedeemOrValidate(ctx, issued.Secret, "a@x.com")
	if err != nil {
		t.Fatalf("Redemption failed: %v", err)
	}

	session := &models.UserSession{Email: "a@x.com", AccessKeyID: redeemed.ID}
	key, record, err := enforcer.Admit(ctx, session)
	if err != nil {
		t.Fatalf("Admit failed: %v", err)
	}
	if key.PlanTier != models.StandardPlan {
		t.Errorf("Expected standard tier, got %s", key.PlanTier)
	}
	if record.SearchCount != 1 {
		t.Errorf("Expected one consumed search, got %d", record.SearchCount)
	}

	// A session whose key was revoked is rejected on the next admit.
	if err := keys.Revoke(ctx, redeemed.KeyID); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, _, err := enforcer.Admit(ctx, session); !errors.Is(err, apikeys.ErrInvalidKey) {
		t.Errorf("Expected ErrInvalidKey after revocation, got %v", err)
	}

	// A session presenting another identity's key binding is rejected.
	issued2, err := keys.Issue(ctx, models.BasicPlan, 30)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	redeemed2, err := keys.RedeemOrValidate(ctx, issued2.Secret, "b@x.com")
	if err != nil {
		t.Fatalf("Redemption failed: %v", err)
	}
	stolen := &models.UserSession{Email: "a@x.com", AccessKeyID: redeemed2.ID}
	if _, _, err := enforcer.Admit(ctx, stolen); !errors.Is(err, apikeys.ErrIdentityMismatch) {
		t.Errorf("Expected ErrIdentityMismatch, got %v", err)
	}
}
