package webhook

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-digital-market.git/internal/market"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

var testNow = time.Unix(1_700_000_000, 0)

// ---- fakes ----

type memOrder struct {
	order market.Order
	tx    market.TxStatus
}

// memStore meniru kontrak konvergensi market.Repo di memori.
type memStore struct {
	mu     sync.Mutex
	orders map[string]*memOrder
}

func newMemStore(orders ...market.Order) *memStore {
	s := &memStore{orders: map[string]*memOrder{}}
	for _, o := range orders {
		s.orders[o.ID] = &memOrder{order: o, tx: market.TxPending}
	}
	return s
}

func (s *memStore) get(id string) *memOrder { return s.orders[id] }

func (s *memStore) find(ref, hint string) (*memOrder, error) {
	if ref != "" {
		for _, mo := range s.orders {
			if mo.order.PaymentRef == ref {
				return mo, nil
			}
		}
	}
	if mo, ok := s.orders[hint]; ok {
		return mo, nil
	}
	return nil, market.ErrOrderNotFound
}

func (s *memStore) MarkPaidByOrderID(_ context.Context, orderID, ref string) (market.SettleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mo, ok := s.orders[orderID]
	if !ok {
		return market.SettleResult{}, market.ErrOrderNotFound
	}
	res := market.SettleResult{Order: &mo.order}
	switch {
	case mo.order.Status == market.StatusDisputed:
		res.Skipped = true
	case market.IsPaidOrLater(mo.order.Status):
		res.Duplicate = true
	case mo.order.Status != market.StatusPending:
		res.Skipped = true
	default:
		now := testNow
		mo.order.Status = market.StatusPaid
		mo.order.PaidAt = &now
		mo.order.PaymentRef = ref
		res.Applied, res.BecamePaid = true, true
	}
	return res, nil
}

func (s *memStore) CompletePaymentByRef(_ context.Context, ref, hint string) (market.SettleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mo, err := s.find(ref, hint)
	if err != nil {
		return market.SettleResult{}, err
	}
	res := market.SettleResult{Order: &mo.order}
	switch {
	case mo.tx == market.TxCompleted:
		res.Duplicate = true
	case mo.order.Status == market.StatusDisputed,
		mo.order.Status == market.StatusCancelled,
		mo.order.Status == market.StatusRefunded:
		res.Skipped = true
	default:
		if !market.IsPaidOrLater(mo.order.Status) {
			now := testNow
			mo.order.Status = market.StatusPaid
			mo.order.PaidAt = &now
			res.BecamePaid = true
		}
		mo.order.PaymentRef = ref
		mo.tx = market.TxCompleted
		res.Applied = true
	}
	return res, nil
}

func (s *memStore) RefundByRef(_ context.Context, ref, hint string) (market.SettleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mo, err := s.find(ref, hint)
	if err != nil {
		return market.SettleResult{}, err
	}
	res := market.SettleResult{Order: &mo.order}
	if mo.order.Status == market.StatusRefunded {
		res.Duplicate = true
		return res, nil
	}
	mo.order.Status = market.StatusRefunded
	mo.tx = market.TxRefunded
	res.Applied = true
	return res, nil
}

func (s *memStore) FailPaymentByRef(_ context.Context, ref, hint string) (market.SettleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mo, err := s.find(ref, hint)
	if err != nil {
		return market.SettleResult{}, err
	}
	res := market.SettleResult{Order: &mo.order}
	switch {
	case mo.order.Status == market.StatusCancelled:
		res.Duplicate = true
	case mo.order.Status != market.StatusPending && mo.order.Status != market.StatusPaid:
		res.Skipped = true
	default:
		mo.order.Status = market.StatusCancelled
		mo.tx = market.TxFailed
		res.Applied = true
	}
	return res, nil
}

type memLedger struct {
	mu   sync.Mutex
	seen map[string]string
}

func newMemLedger() *memLedger { return &memLedger{seen: map[string]string{}} }

func (l *memLedger) Seen(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[id]
	return ok, nil
}

func (l *memLedger) Record(_ context.Context, id, typ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen[id] = typ
	return nil
}

type recordingNotifier struct {
	paid, refunded, cancelled []string
}

func (n *recordingNotifier) OrderPaid(o *market.Order)     { n.paid = append(n.paid, o.ID) }
func (n *recordingNotifier) OrderRefunded(o *market.Order) { n.refunded = append(n.refunded, o.ID) }
func (n *recordingNotifier) OrderCancelled(o *market.Order, _ string) {
	n.cancelled = append(n.cancelled, o.ID)
}

// ---- helpers ----

func newTestService(store *memStore) (*Service, *memLedger, *recordingNotifier) {
	ledger := newMemLedger()
	notify := &recordingNotifier{}
	svc := &Service{
		Orders: store,
		Events: ledger,
		Notify: notify,
		Secret: testSecret,
		Log:    zerolog.Nop(),
		now:    func() time.Time { return testNow },
	}
	return svc, ledger, notify
}

func signedBody(t *testing.T, eventID, eventType, object string) ([]byte, string) {
	t.Helper()
	body := []byte(fmt.Sprintf(`{"id":%q,"type":%q,"data":{"object":%s}}`, eventID, eventType, object))
	return body, SignPayload(testSecret, testNow.Unix(), body)
}

func pendingOrder(id string) market.Order {
	return market.Order{
		ID: id, BuyerID: "b1", ProductID: "p1", VariantID: "v1", SellerID: "s1",
		AmountCents: 2500, Status: market.StatusPending,
	}
}

// ---- tests ----

func TestHandleRejectsWhenNotConfigured(t *testing.T) {
	svc, _, _ := newTestService(newMemStore())
	svc.Secret = ""
	_, err := svc.Handle(context.Background(), []byte("{}"), "t=1,v1=x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestHandleRejectsBadSignature(t *testing.T) {
	svc, ledger, _ := newTestService(newMemStore(pendingOrder("o1")))
	body, _ := signedBody(t, "evt_1", TypeCheckoutCompleted, `{"id":"cs_1","payment_intent":"pi_1","metadata":{"order_id":"o1"}}`)

	_, err := svc.Handle(context.Background(), body, "")
	assert.ErrorIs(t, err, ErrSignatureInvalid)

	_, err = svc.Handle(context.Background(), body, SignPayload("wrong", testNow.Unix(), body))
	assert.ErrorIs(t, err, ErrSignatureInvalid)

	assert.Empty(t, ledger.seen)
}

func TestHandleIgnoresUnknownTypes(t *testing.T) {
	svc, ledger, _ := newTestService(newMemStore())
	body, sig := signedBody(t, "evt_1", "customer.created", `{}`)

	r, err := svc.Handle(context.Background(), body, sig)
	require.NoError(t, err)
	assert.True(t, r.Received)
	assert.True(t, r.Ignored)
	assert.Empty(t, ledger.seen) // tipe asing tidak masuk ledger
}

// Scenario A: checkout.session.completed -> PAID, replay -> duplicate, no change.
func TestHandleCheckoutCompleted(t *testing.T) {
	store := newMemStore(pendingOrder("o1"))
	svc, ledger, notify := newTestService(store)
	body, sig := signedBody(t, "evt_1", TypeCheckoutCompleted,
		`{"id":"cs_1","payment_intent":"pi_1","amount_total":2500,"metadata":{"order_id":"o1"}}`)

	r, err := svc.Handle(context.Background(), body, sig)
	require.NoError(t, err)
	assert.True(t, r.Received)
	assert.False(t, r.Duplicate)

	o := store.get("o1").order
	assert.Equal(t, market.StatusPaid, o.Status)
	assert.NotNil(t, o.PaidAt)
	assert.Equal(t, "pi_1", o.PaymentRef)
	assert.Equal(t, []string{"o1"}, notify.paid)
	assert.Contains(t, ledger.seen, "evt_1")

	// replay event identik
	r, err = svc.Handle(context.Background(), body, sig)
	require.NoError(t, err)
	assert.True(t, r.Duplicate)
	assert.Equal(t, []string{"o1"}, notify.paid) // tidak ada notifikasi kedua
}

func TestHandleCheckoutMissingMetadata(t *testing.T) {
	svc, ledger, _ := newTestService(newMemStore(pendingOrder("o1")))
	body, sig := signedBody(t, "evt_1", TypeCheckoutCompleted, `{"id":"cs_1","payment_intent":"pi_1","metadata":{}}`)

	_, err := svc.Handle(context.Background(), body, sig)
	assert.ErrorIs(t, err, ErrMissingMetadata)
	assert.Empty(t, ledger.seen)
}

// Scenario B: payment_intent.succeeded dengan transaction sudah COMPLETED.
func TestHandlePaymentSucceededDuplicateByLedgerState(t *testing.T) {
	store := newMemStore(pendingOrder("o1"))
	svc, _, notify := newTestService(store)

	body1, sig1 := signedBody(t, "evt_1", TypePaymentSucceeded, `{"id":"pi_1","amount":2500,"metadata":{"order_id":"o1"}}`)
	r, err := svc.Handle(context.Background(), body1, sig1)
	require.NoError(t, err)
	assert.False(t, r.Duplicate)
	assert.Equal(t, market.StatusPaid, store.get("o1").order.Status)
	assert.Equal(t, market.TxCompleted, store.get("o1").tx)
	assert.Equal(t, []string{"o1"}, notify.paid)

	// event id BARU, tapi state ledger sudah COMPLETED -> duplicate ack
	body2, sig2 := signedBody(t, "evt_2", TypePaymentSucceeded, `{"id":"pi_1","amount":2500,"metadata":{"order_id":"o1"}}`)
	r, err = svc.Handle(context.Background(), body2, sig2)
	require.NoError(t, err)
	assert.True(t, r.Duplicate)
	assert.Equal(t, []string{"o1"}, notify.paid)
}

// Kedua event type meng-assert PAID; yang datang kedua jadi no-op.
func TestHandleCrossTypeIdempotency(t *testing.T) {
	store := newMemStore(pendingOrder("o1"))
	svc, _, notify := newTestService(store)

	b1, s1 := signedBody(t, "evt_1", TypeCheckoutCompleted, `{"id":"cs_1","payment_intent":"pi_1","metadata":{"order_id":"o1"}}`)
	_, err := svc.Handle(context.Background(), b1, s1)
	require.NoError(t, err)

	b2, s2 := signedBody(t, "evt_2", TypePaymentSucceeded, `{"id":"pi_1","amount":2500,"metadata":{"order_id":"o1"}}`)
	_, err = svc.Handle(context.Background(), b2, s2)
	require.NoError(t, err)

	assert.Equal(t, market.StatusPaid, store.get("o1").order.Status)
	assert.Equal(t, market.TxCompleted, store.get("o1").tx)
	assert.Equal(t, []string{"o1"}, notify.paid) // sekali saja
}

// Scenario C: order DISPUTED -> event di-ack tapi tidak ada transisi.
func TestHandleSkipsDisputedOrder(t *testing.T) {
	o := pendingOrder("o1")
	o.Status = market.StatusDisputed
	store := newMemStore(o)
	svc, ledger, notify := newTestService(store)

	body, sig := signedBody(t, "evt_1", TypePaymentSucceeded, `{"id":"pi_1","amount":2500,"metadata":{"order_id":"o1"}}`)
	r, err := svc.Handle(context.Background(), body, sig)
	require.NoError(t, err)
	assert.True(t, r.Received)
	assert.Equal(t, market.StatusDisputed, store.get("o1").order.Status)
	assert.Equal(t, market.TxPending, store.get("o1").tx)
	assert.Empty(t, notify.paid)
	assert.Contains(t, ledger.seen, "evt_1") // tetap dicatat, provider jangan retry
}

func TestHandleRefund(t *testing.T) {
	o := pendingOrder("o1")
	o.Status = market.StatusPaid
	o.PaymentRef = "pi_1"
	store := newMemStore(o)
	store.get("o1").tx = market.TxCompleted
	svc, _, notify := newTestService(store)

	body, sig := signedBody(t, "evt_1", TypeChargeRefunded, `{"id":"ch_1","payment_intent":"pi_1","amount_refunded":2500}`)
	r, err := svc.Handle(context.Background(), body, sig)
	require.NoError(t, err)
	assert.False(t, r.Duplicate)
	assert.Equal(t, market.StatusRefunded, store.get("o1").order.Status)
	assert.Equal(t, market.TxRefunded, store.get("o1").tx)
	assert.Equal(t, []string{"o1"}, notify.refunded)

	// refund ulang (event id baru) -> duplicate
	body2, sig2 := signedBody(t, "evt_2", TypeChargeRefunded, `{"id":"ch_1","payment_intent":"pi_1","amount_refunded":2500}`)
	r, err = svc.Handle(context.Background(), body2, sig2)
	require.NoError(t, err)
	assert.True(t, r.Duplicate)
	assert.Equal(t, []string{"o1"}, notify.refunded)
}

func TestHandlePaymentFailed(t *testing.T) {
	store := newMemStore(pendingOrder("o1"))
	svc, _, notify := newTestService(store)

	body, sig := signedBody(t, "evt_1", TypePaymentFailed, `{"id":"pi_1","metadata":{"order_id":"o1"}}`)
	_, err := svc.Handle(context.Background(), body, sig)
	require.NoError(t, err)
	assert.Equal(t, market.StatusCancelled, store.get("o1").order.Status)
	assert.Equal(t, market.TxFailed, store.get("o1").tx)
	assert.Equal(t, []string{"o1"}, notify.cancelled)
}

func TestHandleOrderNotFoundDoesNotRecord(t *testing.T) {
	svc, ledger, _ := newTestService(newMemStore())
	body, sig := signedBody(t, "evt_1", TypePaymentSucceeded, `{"id":"pi_missing","metadata":{}}`)

	_, err := svc.Handle(context.Background(), body, sig)
	assert.ErrorIs(t, err, market.ErrOrderNotFound)
	// handler gagal -> jangan record, biar retry provider bisa masuk lagi
	assert.Empty(t, ledger.seen)
}
