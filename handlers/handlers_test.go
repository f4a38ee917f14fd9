// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignSessionJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "test_secret")

	expiresAt := time.Now().Add(30 * 24 * time.Hour)
	signed, err := signSessionJWT("user@example.com", "raw_opaque_token", 42, expiresAt)
	if err != nil {
		t.Fatalf("Failed to sign session token: %v", err)
	}

	parsed, err := jwt.Parse(signed, func(token *jwt.Token) (any, error) {
		return []byte("test_secret"), nil
	})
	if err != nil {
		t.Fatalf("Failed to parse signed token: %v", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		t.Fatal("Expected valid token with map claims")
	}
	if claims["jti"] != "raw_opaque_token" {
		t.Errorf("Expected jti claim to carry the raw token, got %v", claims["jti"])
	}
	if claims["sub"] != "user@example.com" {
		t.Errorf("Expected sub claim user@example.com, got %v", claims["sub"])
	}
	if int64(claims["exp"].(float64)) != expiresAt.Unix() {
		t.Errorf("Expected exp %d, got %v", expiresAt.Unix(), claims["exp"])
	}
}

func TestSignSessionJWTRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test_secret")

	signed, err := signSessionJWT("user@example.com", "raw_opaque_token", 1, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Failed to sign session token: %v", err)
	}

	_, err = jwt.Parse(signed, func(token *jwt.Token) (any, error) {
		return []byte("wrong_secret"), nil
	})
	if err == nil {
		t.Fatal("Expected verification to fail with the wrong secret")
	}
}

func TestVerifyAdminCredentials(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "operator")
	t.Setenv("ADMIN_PASSWORD", "hunter2")

	if !verifyAdminCredentials("operator", "hunter2") {
		t.Error("Expected matching credentials to verify")
	}
	if verifyAdminCredentials("operator", "wrong") {
		t.Error("Expected wrong password to fail")
	}
	if verifyAdminCredentials("someone", "hunter2") {
		t.Error("Expected wrong username to fail")
	}
}

func TestLoginRequestDecoding(t *testing.T) {
	payload := `{"key":"abc123","email":"User@Example.com"}`

	var req LoginRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		t.Fatalf("Failed to decode login request: %v", err)
	}
	if req.Key != "abc123" {
		t.Errorf("Expected key abc123, got %s", req.Key)
	}
	if req.Email != "User@Example.com" {
		t.Errorf("Expected raw email preserved, got %s", req.Email)
	}
}

func TestGenerateKeyBatchRequestDecoding(t *testing.T) {
	payload := `{"plan_tier":"premium","duration_days":90,"count":10}`

	var req GenerateKeyBatchRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		t.Fatalf("Failed to decode batch request: %v", err)
	}
	if req.PlanTier != "premium" || req.DurationDays != 90 || req.Count != 10 {
		t.Errorf("Unexpected decoded request: %+v", req)
	}
}
