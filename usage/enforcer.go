// SPDX-License-Identifier: GPL-3.0-only

package usage

import (
	"context"
	"csint-server/apikeys"
	"csint-server/models"
)

// Enforcer is the admission decision for one expensive provider call: the
// session's bound key must still be valid for the caller's identity, and the
// identity must have quota left today. Both checks re-read current state.
type Enforcer struct {
	Keys   *apikeys.Lifecycle
	Ledger *Ledger
}

func NewEnforcer(keys *apikeys.Lifecycle, ledger *Ledger) *Enforcer {
	return &Enforcer{Keys: keys, Ledger: ledger}
}

// Admit validates the key binding and consumes one unit of today's quota.
// On rejection it returns the typed error of whichever check failed:
// apikeys.ErrInvalidKey / ErrIdentityMismatch / ErrKeyExpired, or
// *QuotaExceededError.
func (e *Enforcer) Admit(ctx context.Context, session *models.UserSession) (*models.AccessKey, *models.UsageRecord, error) {
	key, err := e.Keys.ValidateBinding(ctx, session.AccessKeyID, session.Email)
	if err != nil {
		return nil, nil, err
	}
	record, err := e.Ledger.CheckAndIncrement(ctx, session.Email, key.PlanTier)
	if err != nil {
		return nil, nil, err
	}
	return key, record, nil
}
