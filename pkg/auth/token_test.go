package auth

import (
	"encoding/base64"
	"testing"
	"time"

	pkgerrors "github.com/studioveld/storefront-backend/pkg/errors"
)

func TestIssueAndParseRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	token, err := IssueToken(42, "Ada@Example.com", now)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	claims, err := ParseToken(token, 24*time.Hour, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.ID != 42 {
		t.Fatalf("unexpected id %d", claims.ID)
	}
	if claims.Email != "ada@example.com" {
		t.Fatalf("email should be normalized, got %q", claims.Email)
	}
	if !claims.IssuedAt().Equal(now) {
		t.Fatalf("unexpected issued-at %v", claims.IssuedAt())
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	now := time.Now()
	token, err := IssueToken(7, "old@example.com", now.Add(-25*time.Hour))
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	_, err = ParseToken(token, 24*time.Hour, now)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeTokenExpired {
		t.Fatalf("expected TOKEN_EXPIRED, got %v", err)
	}
}

func TestParseTokenRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"not base64":     "!!!",
		"not json":       base64.StdEncoding.EncodeToString([]byte("hello")),
		"missing fields": base64.StdEncoding.EncodeToString([]byte(`{"id":0}`)),
		"zero timestamp": base64.StdEncoding.EncodeToString([]byte(`{"id":1,"email":"a@b.c","timestamp":0}`)),
	}

	for name, token := range cases {
		if _, err := ParseToken(token, 24*time.Hour, time.Now()); err == nil {
			t.Fatalf("%s: expected error", name)
		} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("%s: expected UNAUTHORIZED, got %v", name, err)
		}
	}
}
