// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"fmt"
	"strings"
)

type PlanTier string

const (
	BasicPlan      PlanTier = "basic"
	StandardPlan   PlanTier = "standard"
	PremiumPlan    PlanTier = "premium"
	EnterprisePlan PlanTier = "enterprise"
)

// PlanLimits is the daily ceiling pair for a tier. Limits are fixed
// constants of the plan, never user-editable.
type PlanLimits struct {
	SearchesPerDay uint
	APICallsPerDay uint
}

var planLimits = map[PlanTier]PlanLimits{
	BasicPlan:      {SearchesPerDay: 50, APICallsPerDay: 200},
	StandardPlan:   {SearchesPerDay: 100, APICallsPerDay: 500},
	PremiumPlan:    {SearchesPerDay: 200, APICallsPerDay: 1000},
	EnterprisePlan: {SearchesPerDay: 1000, APICallsPerDay: 5000},
}

// Limits returns the daily limits for the tier. Unknown tiers fall back to
// basic, matching how stored rows from before a tier rename are treated.
func (t PlanTier) Limits() PlanLimits {
	if limits, ok := planLimits[t]; ok {
		return limits
	}
	return planLimits[BasicPlan]
}

func (t PlanTier) Valid() bool {
	_, ok := planLimits[t]
	return ok
}

// ParsePlanTier normalizes and validates a caller-supplied tier name.
func ParsePlanTier(s string) (PlanTier, error) {
	tier := PlanTier(strings.ToLower(strings.TrimSpace(s)))
	if !tier.Valid() {
		return "", fmt.Errorf("unsupported plan tier: %q", s)
	}
	return tier, nil
}
