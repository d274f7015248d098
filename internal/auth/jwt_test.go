package auth

import (
	"testing"
	"time"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := NewSessionToken("secret", time.Minute, "session-1", "MDA2025001")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	claims, err := ParseSessionToken("secret", token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if claims.SessionID != "session-1" || claims.StudentID != "MDA2025001" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestSessionTokenBadSecret(t *testing.T) {
	token, err := NewSessionToken("secret", time.Minute, "session-1", "MDA2025001")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseSessionToken("other-secret", token); err == nil {
		t.Fatalf("expected signature mismatch")
	}
}

func TestSessionTokenExpired(t *testing.T) {
	token, err := NewSessionToken("secret", -time.Minute, "session-1", "MDA2025001")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseSessionToken("secret", token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}
