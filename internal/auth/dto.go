package auth

import "github.com/studioveld/storefront-backend/pkg/types"

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

// RegisterResponse echoes the created account and its approval state.
type RegisterResponse struct {
	Customer      *types.Customer `json:"customer"`
	AccountStatus string          `json:"account_status"`
}

// LoginRequest is the payload for credential exchange.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the bearer token handed to the storefront client.
type LoginResponse struct {
	Token       string          `json:"token"`
	Customer    *types.Customer `json:"customer"`
	DisplayName string          `json:"display_name,omitempty"`
}

// ApproveRequest identifies the pending account to approve.
type ApproveRequest struct {
	Email string `json:"email" validate:"required,email"`
}
