package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgerrors "github.com/studioveld/storefront-backend/pkg/errors"
)

func TestExchange_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["username"] != "shopper@example.com" {
			t.Fatalf("unexpected username: %s", body["username"])
		}
		json.NewEncoder(w).Encode(map[string]string{
			"token":             "abc.def.ghi",
			"user_email":        "shopper@example.com",
			"user_display_name": "Shopper",
		})
	}))
	defer server.Close()

	exchanger := NewJWTExchanger(server.URL, time.Second)
	resp, err := exchanger.Exchange(context.Background(), "shopper@example.com", "pw")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if resp.Token != "abc.def.ghi" {
		t.Fatalf("unexpected token: %s", resp.Token)
	}
	if resp.UserDisplayName != "Shopper" {
		t.Fatalf("unexpected display name: %s", resp.UserDisplayName)
	}
}

func TestExchange_BadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"code": "[jwt_auth] incorrect_password"})
	}))
	defer server.Close()

	exchanger := NewJWTExchanger(server.URL, time.Second)
	_, err := exchanger.Exchange(context.Background(), "shopper@example.com", "wrong")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExchange_MissingEndpoint(t *testing.T) {
	exchanger := NewJWTExchanger("", time.Second)
	if _, err := exchanger.Exchange(context.Background(), "a@example.com", "pw"); err == nil {
		t.Fatal("expected error for missing endpoint")
	}
}

func TestUpstreamClaims_InvalidTokenReturnsNil(t *testing.T) {
	if claims := upstreamClaims("not-a-jwt"); claims != nil {
		t.Fatalf("expected nil claims, got %v", claims)
	}
}
