package stripewebhook

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/studioveld/storefront-backend/internal/checkout"
	"github.com/studioveld/storefront-backend/internal/ledger"
	"github.com/studioveld/storefront-backend/pkg/db/models"
	pkgerrors "github.com/studioveld/storefront-backend/pkg/errors"
	"github.com/studioveld/storefront-backend/pkg/types"
)

type fakeOrderCreator struct {
	created []types.OrderCreate
	err     error
}

func (f *fakeOrderCreator) CreateOrder(ctx context.Context, payload types.OrderCreate) (*types.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, payload)
	return &types.Order{ID: 900 + len(f.created), Status: "processing"}, nil
}

type fakeLedger struct {
	records []ledger.RecordInput
}

func (f *fakeLedger) Record(ctx context.Context, input ledger.RecordInput) (*models.WebhookEvent, error) {
	f.records = append(f.records, input)
	return &models.WebhookEvent{EventID: input.EventID, Status: input.Status}, nil
}

type fakeIdemStore struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newFakeIdemStore() *fakeIdemStore {
	return &fakeIdemStore{keys: map[string]bool{}}
}

func (f *fakeIdemStore) Get(ctx context.Context, key string) (string, error) {
	return "", nil
}

func (f *fakeIdemStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeIdemStore) IdempotencyKey(scope, id string) string {
	return "sf:idem:" + scope + ":" + id
}

func (f *fakeIdemStore) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.keys, key)
	}
	return nil
}

func testMetadata(t *testing.T) map[string]string {
	t.Helper()
	meta, err := checkout.OrderMetadata{
		Items: []types.CartItem{
			{ProductID: 1, Quantity: 2, Snapshot: types.ProductSnapshot{Name: "Chair", Price: decimal.RequireFromString("12.50")}},
			{ProductID: 2, Quantity: 1, Snapshot: types.ProductSnapshot{Name: "Lamp", Price: decimal.RequireFromString("9.99")}},
		},
		Billing:      types.Address{FirstName: "Ada", LastName: "Smith", Address1: "Main St 1", City: "Amsterdam", Postcode: "1011AB", Country: "NL", Email: "ada@example.com"},
		CustomerID:   42,
		Subtotal:     "34.99",
		Tax:          "7.35",
		ShippingCost: "4.95",
		Total:        "47.29",
		Currency:     "eur",
	}.Encode()
	if err != nil {
		t.Fatalf("encode metadata: %v", err)
	}
	return meta
}

func intentEvent(t *testing.T, eventID string, metadata map[string]string) *stripe.Event {
	t.Helper()
	intent := stripe.PaymentIntent{
		ID:       "pi_123",
		Amount:   4729,
		Currency: "eur",
		Metadata: metadata,
	}
	raw, err := json.Marshal(intent)
	if err != nil {
		t.Fatalf("marshal intent: %v", err)
	}
	return &stripe.Event{
		ID:   eventID,
		Type: stripe.EventTypePaymentIntentSucceeded,
		Data: &stripe.EventData{Raw: raw},
	}
}

func newTestService(t *testing.T, orders *fakeOrderCreator, store *fakeIdemStore, led *fakeLedger) *Service {
	t.Helper()
	params := ServiceParams{Orders: orders}
	if store != nil {
		guard, err := NewIdempotencyGuard(store, time.Hour, "stripe")
		if err != nil {
			t.Fatalf("new guard: %v", err)
		}
		params.Guard = guard
	}
	if led != nil {
		params.Ledger = led
	}
	svc, err := NewService(params)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestHandleEvent_CreatesOrderFromMetadata(t *testing.T) {
	orders := &fakeOrderCreator{}
	led := &fakeLedger{}
	svc := newTestService(t, orders, newFakeIdemStore(), led)

	result := svc.HandleEvent(context.Background(), intentEvent(t, "evt_1", testMetadata(t)))
	if result.Err != nil {
		t.Fatalf("handle: %v", result.Err)
	}
	if result.OrderID == 0 {
		t.Fatal("expected an order id")
	}
	if len(orders.created) != 1 {
		t.Fatalf("expected exactly one order, got %d", len(orders.created))
	}

	payload := orders.created[0]
	if !payload.SetPaid {
		t.Fatal("order must be created as paid")
	}
	if payload.TransactionID != "pi_123" {
		t.Fatalf("unexpected transaction id: %s", payload.TransactionID)
	}
	if payload.CustomerID != 42 {
		t.Fatalf("unexpected customer id: %d", payload.CustomerID)
	}
	if len(payload.LineItems) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(payload.LineItems))
	}
	if payload.LineItems[0].Total != "25.00" {
		t.Fatalf("unexpected line total: %s", payload.LineItems[0].Total)
	}
	if len(payload.ShippingLines) != 1 || payload.ShippingLines[0].Total != "4.95" {
		t.Fatalf("unexpected shipping lines: %+v", payload.ShippingLines)
	}

	if len(led.records) != 1 || led.records[0].Status != models.WebhookStatusProcessed {
		t.Fatalf("unexpected ledger records: %+v", led.records)
	}
}

func TestHandleEvent_DuplicateDeliveryCreatesNoSecondOrder(t *testing.T) {
	orders := &fakeOrderCreator{}
	store := newFakeIdemStore()
	svc := newTestService(t, orders, store, nil)

	first := svc.HandleEvent(context.Background(), intentEvent(t, "evt_dup", testMetadata(t)))
	if first.Err != nil {
		t.Fatalf("first delivery: %v", first.Err)
	}
	second := svc.HandleEvent(context.Background(), intentEvent(t, "evt_dup", testMetadata(t)))
	if !second.Duplicate {
		t.Fatal("second delivery should be flagged as duplicate")
	}
	if len(orders.created) != 1 {
		t.Fatalf("expected exactly one order, got %d", len(orders.created))
	}
}

func TestHandleEvent_OrderFailureReleasesGuardAndReportsError(t *testing.T) {
	orders := &fakeOrderCreator{err: pkgerrors.New(pkgerrors.CodeDependency, "backend down")}
	store := newFakeIdemStore()
	led := &fakeLedger{}
	svc := newTestService(t, orders, store, led)

	result := svc.HandleEvent(context.Background(), intentEvent(t, "evt_fail", testMetadata(t)))
	if result.Err == nil {
		t.Fatal("expected an error")
	}
	if len(store.keys) != 0 {
		t.Fatal("guard claim should be released after a failure")
	}
	if len(led.records) != 1 || led.records[0].Status != models.WebhookStatusFailed {
		t.Fatalf("unexpected ledger records: %+v", led.records)
	}

	// retry succeeds once the backend recovers
	orders.err = nil
	retry := svc.HandleEvent(context.Background(), intentEvent(t, "evt_fail", testMetadata(t)))
	if retry.Err != nil || retry.Duplicate {
		t.Fatalf("retry should process: %+v", retry)
	}
}

func TestHandleEvent_MissingMetadataStillRecorded(t *testing.T) {
	orders := &fakeOrderCreator{}
	led := &fakeLedger{}
	svc := newTestService(t, orders, nil, led)

	result := svc.HandleEvent(context.Background(), intentEvent(t, "evt_bare", nil))
	if result.Err == nil {
		t.Fatal("expected a metadata error")
	}
	if len(orders.created) != 0 {
		t.Fatal("no order should be created without metadata")
	}
	if len(led.records) != 1 || led.records[0].Status != models.WebhookStatusFailed {
		t.Fatalf("unexpected ledger records: %+v", led.records)
	}
}

func TestHandleEvent_UnknownEventTypeSkipped(t *testing.T) {
	orders := &fakeOrderCreator{}
	svc := newTestService(t, orders, nil, nil)

	event := &stripe.Event{
		ID:   "evt_other",
		Type: stripe.EventTypeChargeRefunded,
		Data: &stripe.EventData{Raw: []byte(`{}`)},
	}
	result := svc.HandleEvent(context.Background(), event)
	if !result.Skipped || result.Err != nil {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(orders.created) != 0 {
		t.Fatal("skipped event must not create an order")
	}
}

func TestHandleEvent_CheckoutSessionCompleted(t *testing.T) {
	orders := &fakeOrderCreator{}
	svc := newTestService(t, orders, nil, nil)

	session := stripe.CheckoutSession{
		ID:            "cs_1",
		AmountTotal:   4729,
		Currency:      "eur",
		Metadata:      testMetadata(t),
		PaymentIntent: &stripe.PaymentIntent{ID: "pi_session"},
	}
	raw, err := json.Marshal(session)
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}
	event := &stripe.Event{
		ID:   "evt_cs",
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: raw},
	}

	result := svc.HandleEvent(context.Background(), event)
	if result.Err != nil {
		t.Fatalf("handle: %v", result.Err)
	}
	if len(orders.created) != 1 {
		t.Fatalf("expected one order, got %d", len(orders.created))
	}
	if orders.created[0].TransactionID != "pi_session" {
		t.Fatalf("unexpected transaction id: %s", orders.created[0].TransactionID)
	}
}

func TestHandleEvent_AmountMismatchStillCreatesOrder(t *testing.T) {
	orders := &fakeOrderCreator{}
	led := &fakeLedger{}
	svc := newTestService(t, orders, newFakeIdemStore(), led)

	// charged 99.99 against a 47.29 quote: the settled charge wins
	intent := stripe.PaymentIntent{
		ID:       "pi_mismatch",
		Amount:   9999,
		Currency: "eur",
		Metadata: testMetadata(t),
	}
	raw, err := json.Marshal(intent)
	if err != nil {
		t.Fatalf("marshal intent: %v", err)
	}
	event := &stripe.Event{
		ID:   "evt_mismatch",
		Type: stripe.EventTypePaymentIntentSucceeded,
		Data: &stripe.EventData{Raw: raw},
	}

	result := svc.HandleEvent(context.Background(), event)
	if result.Err != nil {
		t.Fatalf("handle: %v", result.Err)
	}
	if len(orders.created) != 1 {
		t.Fatalf("expected exactly one order, got %d", len(orders.created))
	}
	if len(led.records) != 1 {
		t.Fatalf("expected one ledger record, got %d", len(led.records))
	}
	if led.records[0].Status != models.WebhookStatusProcessed {
		t.Fatalf("unexpected status: %s", led.records[0].Status)
	}
	if led.records[0].AmountCents != 9999 {
		t.Fatalf("ledger must keep the charged amount, got %d", led.records[0].AmountCents)
	}
}

func TestTotalCents(t *testing.T) {
	cents, err := TotalCents(&checkout.OrderMetadata{Total: "47.29"})
	if err != nil {
		t.Fatalf("total cents: %v", err)
	}
	if cents != 4729 {
		t.Fatalf("unexpected cents: %d", cents)
	}
}
