// SPDX-License-Identifier: GPL-3.0-only

package crypto

import (
	"regexp"
	"testing"
)

func TestGenerateAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey failed: %v", err)
	}

	if len(key) != 32 {
		t.Errorf("Expected key length 32, got %d", len(key))
	}

	if !regexp.MustCompile(`^[0-9a-f]{32}$`).MatchString(key) {
		t.Errorf("Key should be lowercase hex, got %s", key)
	}

	key2, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("Second GenerateAPIKey failed: %v", err)
	}
	if key == key2 {
		t.Error("Two generated keys should not collide")
	}
}

func TestGenerateSessionToken(t *testing.T) {
	token, err := GenerateSessionToken()
	if err != nil {
		t.Fatalf("GenerateSessionToken failed: %v", err)
	}

	if len(token) != 128 {
		t.Errorf("Expected token length 128, got %d", len(token))
	}

	if !regexp.MustCompile(`^[0-9a-f]{128}$`).MatchString(token) {
		t.Errorf("Token should be lowercase hex, got %s", token)
	}

	token2, err := GenerateSessionToken()
	if err != nil {
		t.Fatalf("Second GenerateSessionToken failed: %v", err)
	}
	if token == token2 {
		t.Error("Two generated tokens should not collide")
	}
}

func TestGenerateRandomString(t *testing.T) {
	s, err := GenerateRandomString("key_", 16)
	if err != nil {
		t.Fatalf("GenerateRandomString failed: %v", err)
	}
	if len(s) != 4+32 {
		t.Errorf("Expected prefixed length 36, got %d", len(s))
	}
	if s[:4] != "key_" {
		t.Errorf("Expected key_ prefix, got %s", s)
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	c := NewCrypto()
	password := "correct-horse-battery"

	hash, err := c.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "" {
		t.Error("Hash should not be empty")
	}

	hash2, err := c.HashPassword(password)
	if err != nil {
		t.Fatalf("Second HashPassword failed: %v", err)
	}
	if hash == hash2 {
		t.Error("Two hashes of same password should be different (due to salt)")
	}

	if err := c.VerifyPassword(password, hash); err != nil {
		t.Errorf("VerifyPassword failed for correct password: %v", err)
	}
	if err := c.VerifyPassword("wrong", hash); err == nil {
		t.Error("VerifyPassword should fail for wrong password")
	}
	if err := c.VerifyPassword(password, "invalid-hash"); err == nil {
		t.Error("VerifyPassword should fail for invalid hash")
	}
}
