package jwt

import (
	"context"
	"errors"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

var secret = []byte("test-secret")

func TestVerifier_IssueAndVerify(t *testing.T) {
	v, err := NewVerifier(Config{Secret: secret, Issuer: "medtrack"})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	tok, err := v.Issue("user-1", "ana@example.com", time.Hour, time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := v.Verify(context.Background(), tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "ana@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestVerifier_Rejects(t *testing.T) {
	v, _ := NewVerifier(Config{Secret: secret, Issuer: "medtrack"})
	other, _ := NewVerifier(Config{Secret: []byte("other"), Issuer: "medtrack"})
	wrongIssuer, _ := NewVerifier(Config{Secret: secret, Issuer: "someone-else"})

	expired, _ := v.Issue("user-1", "", time.Hour, time.Now().Add(-2*time.Hour))
	foreign, _ := other.Issue("user-1", "", time.Hour, time.Now())
	badIssuer, _ := wrongIssuer.Issue("user-1", "", time.Hour, time.Now())

	noSubject, _ := gojwt.NewWithClaims(gojwt.SigningMethodHS256, Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    "medtrack",
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(secret)

	noExpiry, _ := gojwt.NewWithClaims(gojwt.SigningMethodHS256, Claims{
		RegisteredClaims: gojwt.RegisteredClaims{Subject: "user-1", Issuer: "medtrack"},
	}).SignedString(secret)

	cases := map[string]string{
		"empty":      "",
		"garbage":    "not.a.token",
		"expired":    expired,
		"signature":  foreign,
		"issuer":     badIssuer,
		"no subject": noSubject,
		"no expiry":  noExpiry,
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tok)
			if !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	if _, err := NewVerifier(Config{}); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}
