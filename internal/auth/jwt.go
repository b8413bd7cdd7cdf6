package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	pkgerrors "github.com/studioveld/storefront-backend/pkg/errors"
)

// JWTExchanger trades email/password for a token at the backend's JWT
// endpoint. The returned token is never verified here; the backend signed it
// for its own consumption and this app only proxies the credential check.
type JWTExchanger struct {
	endpoint   string
	httpClient *http.Client
}

// NewJWTExchanger builds an exchanger with a bounded request timeout.
func NewJWTExchanger(endpoint string, timeout time.Duration) *JWTExchanger {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &JWTExchanger{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type jwtTokenResponse struct {
	Token           string `json:"token"`
	UserEmail       string `json:"user_email"`
	UserNicename    string `json:"user_nicename"`
	UserDisplayName string `json:"user_display_name"`
}

// Exchange posts the credentials and returns the upstream response. A non-200
// from the endpoint means the password was wrong.
func (e *JWTExchanger) Exchange(ctx context.Context, email, password string) (*jwtTokenResponse, error) {
	if e.endpoint == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "jwt endpoint is not configured")
	}

	payload, err := json.Marshal(map[string]string{
		"username": email,
		"password": password,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode credentials")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reach jwt endpoint")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read jwt response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	var out jwtTokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode jwt response")
	}
	if out.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "jwt endpoint returned no token")
	}
	return &out, nil
}

// upstreamClaims extracts the claims from the backend's JWT without
// verification, for diagnostics only.
func upstreamClaims(token string) jwt.MapClaims {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	return claims
}
