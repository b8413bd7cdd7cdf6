package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/studioveld/storefront-backend/pkg/auth"
	"github.com/studioveld/storefront-backend/pkg/commerce"
	pkgerrors "github.com/studioveld/storefront-backend/pkg/errors"
	"github.com/studioveld/storefront-backend/pkg/logger"
	"github.com/studioveld/storefront-backend/pkg/types"
)

const invalidCredentialsMessage = "invalid credentials"

type customerStore interface {
	FindCustomerByEmail(ctx context.Context, email string) (*types.Customer, error)
	GetCustomer(ctx context.Context, id int) (*types.Customer, error)
	CreateCustomer(ctx context.Context, payload commerce.CustomerCreate) (*types.Customer, error)
	UpdateCustomerMeta(ctx context.Context, id int, meta []types.MetaData) (*types.Customer, error)
	ListOrders(ctx context.Context, customerID, page, perPage int) ([]types.Order, error)
}

type credentialExchanger interface {
	Exchange(ctx context.Context, email, password string) (*jwtTokenResponse, error)
}

type registrationNotifier interface {
	NotifyRegistration(ctx context.Context, customerEmail string) error
}

// Service defines the behavior needed by the auth controller.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Me(ctx context.Context, customerID int) (*types.Customer, error)
	Orders(ctx context.Context, customerID, page, perPage int) ([]types.Order, error)
	Approve(ctx context.Context, req ApproveRequest) (*types.Customer, error)
}

type service struct {
	customers customerStore
	exchanger credentialExchanger
	notifier  registrationNotifier
	logger    *logger.Logger
	now       func() time.Time
}

// ServiceParams bundles the dependencies required to build the auth service.
type ServiceParams struct {
	Customers customerStore
	Exchanger credentialExchanger
	Notifier  registrationNotifier
	Logger    *logger.Logger
}

// NewService constructs the auth proxy service.
func NewService(params ServiceParams) (Service, error) {
	if params.Customers == nil {
		return nil, fmt.Errorf("customer store is required")
	}
	if params.Exchanger == nil {
		return nil, fmt.Errorf("credential exchanger is required")
	}
	return &service{
		customers: params.Customers,
		exchanger: params.Exchanger,
		notifier:  params.Notifier,
		logger:    params.Logger,
		now:       time.Now,
	}, nil
}

// Register creates the backend customer in the pending state and fires a
// best-effort admin notification.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	email := normalizeEmail(req.Email)

	existing, err := s.customers.FindCustomerByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
	}

	customer, err := s.customers.CreateCustomer(ctx, commerce.CustomerCreate{
		Email:     email,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Username:  email,
		Password:  req.Password,
		MetaData: []types.MetaData{
			{Key: types.AccountStatusKey, Value: types.AccountStatusPending},
		},
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyRegistration(ctx, email); err != nil && s.logger != nil {
			s.logger.Warn(s.logger.WithField(ctx, "customer_email", email), "auth.register.notify_failed")
		}
	}

	return &RegisterResponse{
		Customer:      customer,
		AccountStatus: types.AccountStatusPending,
	}, nil
}

// Login checks the approval gate before any credential exchange. A pending
// account is rejected no matter what password was supplied.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := normalizeEmail(req.Email)

	customer, err := s.customers.FindCustomerByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if customer.AccountStatus() == types.AccountStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeAccountPending, "account is awaiting approval")
	}

	upstream, err := s.exchanger.Exchange(ctx, email, req.Password)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		if claims := upstreamClaims(upstream.Token); claims != nil {
			if iss, ok := claims["iss"].(string); ok {
				s.logger.Info(s.logger.WithField(ctx, "jwt_issuer", iss), "auth.login.upstream_token")
			}
		}
	}

	token, err := auth.IssueToken(customer.ID, email, s.now())
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		Token:       token,
		Customer:    customer,
		DisplayName: upstream.UserDisplayName,
	}, nil
}

func (s *service) Me(ctx context.Context, customerID int) (*types.Customer, error) {
	if customerID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing customer identity")
	}
	return s.customers.GetCustomer(ctx, customerID)
}

func (s *service) Orders(ctx context.Context, customerID, page, perPage int) ([]types.Order, error) {
	if customerID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing customer identity")
	}
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 50 {
		perPage = 10
	}
	return s.customers.ListOrders(ctx, customerID, page, perPage)
}

// Approve flips a pending account to approved. Approving an already approved
// account is a no-op; there is no reverse transition.
func (s *service) Approve(ctx context.Context, req ApproveRequest) (*types.Customer, error) {
	email := normalizeEmail(req.Email)

	customer, err := s.customers.FindCustomerByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no account with this email")
	}
	if customer.AccountStatus() == types.AccountStatusApproved {
		return customer, nil
	}

	updated, err := s.customers.UpdateCustomerMeta(ctx, customer.ID, []types.MetaData{
		{Key: types.AccountStatusKey, Value: types.AccountStatusApproved},
	})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info(s.logger.WithField(ctx, "customer_id", customer.ID), "auth.account.approved")
	}
	return updated, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
