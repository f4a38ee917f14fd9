// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"testing"
	"time"
)

func TestParsePlanTier(t *testing.T) {
	cases := []struct {
		in      string
		want    PlanTier
		wantErr bool
	}{
		{"basic", BasicPlan, false},
		{"STANDARD", StandardPlan, false},
		{" premium ", PremiumPlan, false},
		{"enterprise", EnterprisePlan, false},
		{"gold", "", true},
		{"", "", true},
	}

	for _, tc := range cases {
		got, err := ParsePlanTier(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParsePlanTier(%q) expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePlanTier(%q) failed: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParsePlanTier(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPlanLimits(t *testing.T) {
	limits := BasicPlan.Limits()
	if limits.SearchesPerDay != 50 || limits.APICallsPerDay != 200 {
		t.Errorf("Unexpected basic limits: %+v", limits)
	}

	limits = EnterprisePlan.Limits()
	if limits.SearchesPerDay != 1000 || limits.APICallsPerDay != 5000 {
		t.Errorf("Unexpected enterprise limits: %+v", limits)
	}

	// Rows persisted with a tier that no longer exists act as basic.
	limits = PlanTier("legacy").Limits()
	if limits != BasicPlan.Limits() {
		t.Errorf("Unknown tier should fall back to basic, got %+v", limits)
	}
}

func TestAccessKeyRedemption(t *testing.T) {
	key := AccessKey{ExpiresAt: PlaceholderExpiry}
	if _, ok := key.Redemption().(Unredeemed); !ok {
		t.Error("Key without owner should be Unredeemed")
	}

	email := "a@x.com"
	redeemedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	key.OwnerEmail = &email
	key.RedeemedAt = &redeemedAt
	key.ExpiresAt = redeemedAt.AddDate(0, 0, 30)

	state, ok := key.Redemption().(Redeemed)
	if !ok {
		t.Fatal("Key with owner and redemption time should be Redeemed")
	}
	if state.OwnerEmail != email {
		t.Errorf("Expected owner %s, got %s", email, state.OwnerEmail)
	}
	if !state.ExpiresAt.Equal(redeemedAt.AddDate(0, 0, 30)) {
		t.Errorf("Unexpected expiry %v", state.ExpiresAt)
	}
}

func TestUTCDay(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	local := time.Date(2024, 1, 2, 2, 30, 0, 0, loc)
	if day := UTCDay(local); day != "2024-01-01" {
		t.Errorf("Expected UTC day 2024-01-01, got %s", day)
	}
}
