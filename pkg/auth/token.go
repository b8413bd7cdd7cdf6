package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	pkgerrors "github.com/studioveld/storefront-backend/pkg/errors"
)

// TokenClaims is the payload of the storefront's opaque bearer token: a
// base64-encoded JSON blob with no signature. It only re-identifies the
// customer to this app's own routes; the commerce backend never sees it.
type TokenClaims struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds, set at issue time
}

// IssuedAt returns the token's creation time.
func (c TokenClaims) IssuedAt() time.Time {
	return time.UnixMilli(c.Timestamp)
}

// IssueToken encodes the claims for the given customer.
func IssueToken(customerID int, email string, now time.Time) (string, error) {
	claims := TokenClaims{
		ID:        customerID,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Timestamp: now.UnixMilli(),
	}
	raw, err := json.Marshal(claims)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode token")
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// ParseToken decodes and structurally validates a bearer token, enforcing the
// maximum age. Expired tokens return a distinguishable code so the frontend
// can force a re-login.
func ParseToken(token string, maxAge time.Duration, now time.Time) (*TokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "malformed token")
	}

	var claims TokenClaims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "malformed token")
	}
	if claims.ID <= 0 || claims.Email == "" || claims.Timestamp <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "incomplete token")
	}

	if maxAge > 0 && now.Sub(claims.IssuedAt()) > maxAge {
		return nil, pkgerrors.New(pkgerrors.CodeTokenExpired, "token expired")
	}

	return &claims, nil
}
