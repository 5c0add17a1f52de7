package auth

import (
	"testing"
	"time"
)

func TestTokenIssueAndVerify(t *testing.T) {
	mgr, err := NewTokenManager("test-secret", time.Hour, "")
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	token, err := mgr.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	subject, err := mgr.VerifySubject(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if subject != "user-1" {
		t.Fatalf("expected subject user-1, got %q", subject)
	}
}

func TestTokenVerifyRejectsWrongSecret(t *testing.T) {
	issuer, _ := NewTokenManager("secret-a", time.Hour, "")
	verifier, _ := NewTokenManager("secret-b", time.Hour, "")
	token, err := issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.VerifySubject(token); err == nil {
		t.Fatalf("expected verification with wrong secret to fail")
	}
}

func TestTokenVerifyRejectsExpired(t *testing.T) {
	mgr, err := NewTokenManager("test-secret", time.Nanosecond, "")
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	token, err := mgr.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := mgr.VerifySubject(token); err == nil {
		t.Fatalf("expected expired token to fail verification")
	}
}

func TestTokenVerifyRejectsGarbage(t *testing.T) {
	mgr, _ := NewTokenManager("test-secret", time.Hour, "")
	if _, err := mgr.VerifySubject("not.a.jwt"); err == nil {
		t.Fatalf("expected malformed token to fail verification")
	}
}

func TestTokenManagerRequiresSecret(t *testing.T) {
	if _, err := NewTokenManager("  ", time.Hour, ""); err == nil {
		t.Fatalf("expected constructor error for empty secret")
	}
}
