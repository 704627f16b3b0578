package auth

import (
	"strings"
	"testing"
	"time"
)

func newTestAuth(t *testing.T) *JWTAuth {
	t.Helper()
	a, err := NewJWTAuth("test-secret-key-for-tests-only", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("failed to create auth: %v", err)
	}
	return a
}

func TestGenerateAndVerifyTokens(t *testing.T) {
	a := newTestAuth(t)

	access, refresh, err := a.GenerateTokens("user-1", "ada@example.com")
	if err != nil {
		t.Fatalf("failed to generate tokens: %v", err)
	}
	if access == "" || refresh == "" || access == refresh {
		t.Fatalf("expected two distinct tokens")
	}

	user, err := a.VerifyAccessToken(access)
	if err != nil {
		t.Fatalf("failed to verify access token: %v", err)
	}
	if user.ID != "user-1" || user.Email != "ada@example.com" {
		t.Errorf("unexpected identity: %+v", user)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	a := newTestAuth(t)
	access, _, _ := a.GenerateTokens("user-1", "ada@example.com")

	if _, err := a.VerifyAccessToken(access + "x"); err == nil {
		t.Errorf("tampered token must be rejected")
	}
	if _, err := a.VerifyAccessToken("not-a-token"); err == nil {
		t.Errorf("garbage token must be rejected")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	a, err := NewJWTAuth("test-secret-key-for-tests-only", -time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("failed to create auth: %v", err)
	}

	access, _, _ := a.GenerateTokens("user-1", "ada@example.com")
	if _, err := a.VerifyAccessToken(access); err == nil {
		t.Errorf("expired token must be rejected")
	}
}

func TestExtractToken(t *testing.T) {
	if token, err := ExtractToken("Bearer abc123"); err != nil || token != "abc123" {
		t.Errorf("ExtractToken = %q, %v", token, err)
	}
	for _, header := range []string{"", "abc123", "Basic abc123", "Bearer"} {
		if _, err := ExtractToken(header); err == nil {
			t.Errorf("header %q must be rejected", header)
		}
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}
	if !strings.HasPrefix(hash, "argon2id$") {
		t.Errorf("unexpected hash format: %s", hash)
	}

	ok, err := VerifyPassword(hash, "correct horse battery staple")
	if err != nil || !ok {
		t.Errorf("correct password must verify: ok=%v err=%v", ok, err)
	}

	ok, err = VerifyPassword(hash, "wrong password")
	if err != nil {
		t.Fatalf("verify errored: %v", err)
	}
	if ok {
		t.Errorf("wrong password must not verify")
	}
}

func TestHashPasswordSalted(t *testing.T) {
	first, _ := HashPassword("same password")
	second, _ := HashPassword("same password")
	if first == second {
		t.Errorf("hashes must differ per salt")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("longenough"); err != nil {
		t.Errorf("valid password rejected: %v", err)
	}
	if err := ValidatePassword("short"); err == nil {
		t.Errorf("short password must be rejected")
	}
}
