// SPDX-License-Identifier: GPL-3.0-only

package handlers

type GenericResponse struct {
	Message string `json:"message"`
}

type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AdminLoginResponse struct {
	SessionToken string `json:"session_token"`
	Message      string `json:"message"`
}

type GenerateKeyRequest struct {
	PlanTier     string `json:"plan_tier"`
	DurationDays uint   `json:"duration_days"`
}

type GenerateKeyResponse struct {
	Key          string `json:"key"`
	KeyID        string `json:"key_id"`
	PlanTier     string `json:"plan_tier"`
	DurationDays uint   `json:"duration_days"`
	Message      string `json:"message"`
}

type GenerateKeyBatchRequest struct {
	PlanTier     string `json:"plan_tier"`
	DurationDays uint   `json:"duration_days"`
	Count        int    `json:"count"`
}

type GenerateKeyBatchResponse struct {
	Keys    []string `json:"keys"`
	Count   int      `json:"count"`
	Message string   `json:"message"`
}

type KeyDetails struct {
	KeyID        string  `json:"key_id"`
	Key          string  `json:"key"`
	PlanTier     string  `json:"plan_tier"`
	OwnerEmail   *string `json:"owner_email,omitempty"`
	IsActive     bool    `json:"is_active"`
	DurationDays uint    `json:"duration_days"`
	RedeemedAt   *string `json:"redeemed_at,omitempty"`
	ExpiresAt    string  `json:"expires_at"`
	LastUsedAt   *string `json:"last_used_at,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

type ListKeysResponse struct {
	Keys    []KeyDetails `json:"keys"`
	Message string       `json:"message"`
}

type LoginRequest struct {
	Key   string `json:"key"`
	Email string `json:"email"`
}

type LoginResponse struct {
	SessionToken string `json:"session_token"`
	ExpiresAt    string `json:"expires_at"`
	PlanTier     string `json:"plan_tier"`
	Message      string `json:"message"`
}

type RefreshResponse struct {
	SessionToken string `json:"session_token"`
	ExpiresAt    string `json:"expires_at"`
	Message      string `json:"message"`
}

type CheckResponse struct {
	Email        string `json:"email"`
	PlanTier     string `json:"plan_tier"`
	KeyExpiresAt string `json:"key_expires_at"`
	Message      string `json:"message"`
}

type SearchRequest struct {
	Type  string `json:"type"`
	Query string `json:"query"`
}

type SearchResponse struct {
	Credits   string         `json:"credits"`
	ScanType  string         `json:"scan_type"`
	Query     string         `json:"query"`
	Timestamp string         `json:"timestamp"`
	CSINT     map[string]any `json:"csint"`
}

type DailyStatsResponse struct {
	PlanTier     string `json:"plan_tier"`
	SearchCount  uint   `json:"search_count"`
	APICallCount uint   `json:"api_call_count"`
	SearchLimit  uint   `json:"search_limit"`
	APICallLimit uint   `json:"api_call_limit"`
	Date         string `json:"date"`
}

type SearchLogDetails struct {
	SearchType string `json:"search_type"`
	Query      string `json:"query"`
	CreatedAt  string `json:"created_at"`
}

type UsageStatsResponse struct {
	TotalSearches int64              `json:"total_searches"`
	Recent        []SearchLogDetails `json:"recent"`
	Message       string             `json:"message"`
}
