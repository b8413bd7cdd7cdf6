package auth

import (
	"context"
	"testing"

	"github.com/studioveld/storefront-backend/pkg/commerce"
	pkgerrors "github.com/studioveld/storefront-backend/pkg/errors"
	"github.com/studioveld/storefront-backend/pkg/types"
)

type fakeCustomerStore struct {
	byEmail map[string]*types.Customer
	byID    map[int]*types.Customer
	orders  []types.Order

	created     []commerce.CustomerCreate
	metaUpdates map[int][]types.MetaData
	err         error
}

func newFakeCustomerStore() *fakeCustomerStore {
	return &fakeCustomerStore{
		byEmail:     map[string]*types.Customer{},
		byID:        map[int]*types.Customer{},
		metaUpdates: map[int][]types.MetaData{},
	}
}

func (f *fakeCustomerStore) FindCustomerByEmail(ctx context.Context, email string) (*types.Customer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byEmail[email], nil
}

func (f *fakeCustomerStore) GetCustomer(ctx context.Context, id int) (*types.Customer, error) {
	if f.err != nil {
		return nil, f.err
	}
	if c, ok := f.byID[id]; ok {
		return c, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
}

func (f *fakeCustomerStore) CreateCustomer(ctx context.Context, payload commerce.CustomerCreate) (*types.Customer, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, payload)
	customer := &types.Customer{
		ID:        100 + len(f.created),
		Email:     payload.Email,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		MetaData:  payload.MetaData,
	}
	f.byEmail[payload.Email] = customer
	f.byID[customer.ID] = customer
	return customer, nil
}

func (f *fakeCustomerStore) UpdateCustomerMeta(ctx context.Context, id int, meta []types.MetaData) (*types.Customer, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.metaUpdates[id] = meta
	customer := f.byID[id]
	customer.MetaData = meta
	return customer, nil
}

func (f *fakeCustomerStore) ListOrders(ctx context.Context, customerID, page, perPage int) ([]types.Order, error) {
	return f.orders, f.err
}

type fakeExchanger struct {
	resp  *jwtTokenResponse
	err   error
	calls int
}

func (f *fakeExchanger) Exchange(ctx context.Context, email, password string) (*jwtTokenResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	return &jwtTokenResponse{Token: "upstream-token", UserDisplayName: "Shopper"}, nil
}

type fakeNotifier struct {
	notified []string
	err      error
}

func (f *fakeNotifier) NotifyRegistration(ctx context.Context, email string) error {
	f.notified = append(f.notified, email)
	return f.err
}

func newTestService(t *testing.T, store *fakeCustomerStore, exchanger *fakeExchanger, notifier *fakeNotifier) Service {
	t.Helper()
	params := ServiceParams{Customers: store, Exchanger: exchanger}
	if notifier != nil {
		params.Notifier = notifier
	}
	svc, err := NewService(params)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestRegister_CreatesPendingCustomer(t *testing.T) {
	store := newFakeCustomerStore()
	notifier := &fakeNotifier{}
	svc := newTestService(t, store, &fakeExchanger{}, notifier)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "New@Example.com",
		Password:  "supersecret",
		FirstName: "New",
		LastName:  "Shopper",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if resp.AccountStatus != types.AccountStatusPending {
		t.Fatalf("unexpected status: %s", resp.AccountStatus)
	}
	if len(store.created) != 1 {
		t.Fatalf("expected 1 create, got %d", len(store.created))
	}
	if store.created[0].Email != "new@example.com" {
		t.Fatalf("email not normalized: %s", store.created[0].Email)
	}
	if store.created[0].MetaData[0].Key != types.AccountStatusKey || store.created[0].MetaData[0].Value != types.AccountStatusPending {
		t.Fatalf("missing pending metadata: %+v", store.created[0].MetaData)
	}
	if len(notifier.notified) != 1 || notifier.notified[0] != "new@example.com" {
		t.Fatalf("admin not notified: %+v", notifier.notified)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := newFakeCustomerStore()
	store.byEmail["taken@example.com"] = &types.Customer{ID: 1, Email: "taken@example.com"}
	svc := newTestService(t, store, &fakeExchanger{}, nil)

	_, err := svc.Register(context.Background(), RegisterRequest{Email: "taken@example.com", Password: "x", FirstName: "a", LastName: "b"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegister_NotifierFailureDoesNotBlock(t *testing.T) {
	store := newFakeCustomerStore()
	notifier := &fakeNotifier{err: pkgerrors.New(pkgerrors.CodeDependency, "sendgrid down")}
	svc := newTestService(t, store, &fakeExchanger{}, notifier)

	if _, err := svc.Register(context.Background(), RegisterRequest{Email: "a@example.com", Password: "supersecret", FirstName: "a", LastName: "b"}); err != nil {
		t.Fatalf("register should survive notifier failure: %v", err)
	}
}

func TestLogin_PendingAccountRejectedBeforeCredentialCheck(t *testing.T) {
	store := newFakeCustomerStore()
	store.byEmail["pending@example.com"] = &types.Customer{
		ID:    7,
		Email: "pending@example.com",
		MetaData: []types.MetaData{
			{Key: types.AccountStatusKey, Value: types.AccountStatusPending},
		},
	}
	exchanger := &fakeExchanger{}
	svc := newTestService(t, store, exchanger, nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "pending@example.com", Password: "correct-password"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeAccountPending {
		t.Fatalf("unexpected error: %v", err)
	}
	if exchanger.calls != 0 {
		t.Fatal("credentials must not reach the jwt endpoint for a pending account")
	}
}

func TestLogin_ApprovedAccountGetsToken(t *testing.T) {
	store := newFakeCustomerStore()
	store.byEmail["ok@example.com"] = &types.Customer{
		ID:    9,
		Email: "ok@example.com",
		MetaData: []types.MetaData{
			{Key: types.AccountStatusKey, Value: types.AccountStatusApproved},
		},
	}
	svc := newTestService(t, store, &fakeExchanger{}, nil)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "ok@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a token")
	}
	if resp.Customer.ID != 9 {
		t.Fatalf("unexpected customer: %d", resp.Customer.ID)
	}
	if resp.DisplayName != "Shopper" {
		t.Fatalf("unexpected display name: %s", resp.DisplayName)
	}
}

func TestLogin_AbsentStatusPermitsLogin(t *testing.T) {
	store := newFakeCustomerStore()
	store.byEmail["legacy@example.com"] = &types.Customer{ID: 3, Email: "legacy@example.com"}
	svc := newTestService(t, store, &fakeExchanger{}, nil)

	if _, err := svc.Login(context.Background(), LoginRequest{Email: "legacy@example.com", Password: "pw"}); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := newTestService(t, newFakeCustomerStore(), &fakeExchanger{}, nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "pw"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLogin_BadPassword(t *testing.T) {
	store := newFakeCustomerStore()
	store.byEmail["ok@example.com"] = &types.Customer{ID: 9, Email: "ok@example.com"}
	exchanger := &fakeExchanger{err: pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)}
	svc := newTestService(t, store, exchanger, nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "ok@example.com", Password: "wrong"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApprove_FlipsPendingToApproved(t *testing.T) {
	store := newFakeCustomerStore()
	store.byEmail["pending@example.com"] = &types.Customer{
		ID:    7,
		Email: "pending@example.com",
		MetaData: []types.MetaData{
			{Key: types.AccountStatusKey, Value: types.AccountStatusPending},
		},
	}
	store.byID[7] = store.byEmail["pending@example.com"]
	svc := newTestService(t, store, &fakeExchanger{}, nil)

	updated, err := svc.Approve(context.Background(), ApproveRequest{Email: "pending@example.com"})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if updated.AccountStatus() != types.AccountStatusApproved {
		t.Fatalf("unexpected status: %s", updated.AccountStatus())
	}
	if len(store.metaUpdates[7]) != 1 {
		t.Fatalf("expected one meta update, got %+v", store.metaUpdates)
	}
}

func TestApprove_AlreadyApprovedIsNoop(t *testing.T) {
	store := newFakeCustomerStore()
	store.byEmail["done@example.com"] = &types.Customer{
		ID:    8,
		Email: "done@example.com",
		MetaData: []types.MetaData{
			{Key: types.AccountStatusKey, Value: types.AccountStatusApproved},
		},
	}
	svc := newTestService(t, store, &fakeExchanger{}, nil)

	if _, err := svc.Approve(context.Background(), ApproveRequest{Email: "done@example.com"}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if len(store.metaUpdates) != 0 {
		t.Fatal("approved account should not be written again")
	}
}

func TestApprove_UnknownEmail(t *testing.T) {
	svc := newTestService(t, newFakeCustomerStore(), &fakeExchanger{}, nil)

	_, err := svc.Approve(context.Background(), ApproveRequest{Email: "ghost@example.com"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOrders_RequiresIdentity(t *testing.T) {
	svc := newTestService(t, newFakeCustomerStore(), &fakeExchanger{}, nil)

	if _, err := svc.Orders(context.Background(), 0, 1, 10); err == nil {
		t.Fatal("expected error for missing identity")
	}
}
