package auth

import (
	"testing"
	"time"
)

func TestSignAndParseAPIKey(t *testing.T) {
	token, err := SignAPIKey("secret", "ops-dashboard", "operator", time.Hour)
	if err != nil {
		t.Fatalf("SignAPIKey: %v", err)
	}

	claims, err := ParseAPIKey("secret", token)
	if err != nil {
		t.Fatalf("ParseAPIKey: %v", err)
	}
	if claims.Subject != "ops-dashboard" {
		t.Errorf("subject = %q", claims.Subject)
	}
	if claims.Role != "operator" {
		t.Errorf("role = %q", claims.Role)
	}
}

func TestParseAPIKeyWrongSecret(t *testing.T) {
	token, _ := SignAPIKey("secret", "ops", "operator", time.Hour)
	if _, err := ParseAPIKey("other-secret", token); err == nil {
		t.Fatal("a key signed with another secret must be rejected")
	}
}

func TestParseAPIKeyExpired(t *testing.T) {
	token, _ := SignAPIKey("secret", "ops", "operator", -time.Minute)
	if _, err := ParseAPIKey("secret", token); err == nil {
		t.Fatal("an expired key must be rejected")
	}
}
