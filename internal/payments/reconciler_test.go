package payments

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtly/courtly/internal/booking"
	"github.com/courtly/courtly/internal/models"
	"github.com/courtly/courtly/internal/testutil"
)

type stubGateway struct{}

func (stubGateway) CreateSession(_ context.Context, reservationID, _ int64) (string, error) {
	return fmt.Sprintf("pay_test_%d", reservationID), nil
}

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestReconciler(t *testing.T) (*Reconciler, *booking.Manager, *stepClock, *models.Court) {
	t.Helper()

	database := testutil.NewTestDB(t)
	court := testutil.SeedCourt(t, database)
	clock := &stepClock{now: time.Now().UTC()}

	manager, err := booking.NewManager(database,
		booking.WithGateway(stubGateway{}),
		booking.WithClock(clock.Now),
	)
	require.NoError(t, err)

	reconciler, err := NewReconciler(manager)
	require.NoError(t, err)
	return reconciler, manager, clock, court
}

func createHold(t *testing.T, manager *booking.Manager, court *models.Court) *models.Reservation {
	t.Helper()

	result, err := manager.Create(context.Background(), booking.CreateRequest{
		CourtID: court.ID,
		Date:    testutil.FutureDate(3),
		Start:   "10:00",
		End:     "11:00",
		UserID:  41,
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Reservation.PaymentRef)
	return result.Reservation
}

func TestReconcilerSucceededConfirms(t *testing.T) {
	reconciler, manager, _, court := newTestReconciler(t)
	ctx := context.Background()
	hold := createHold(t, manager, court)

	err := reconciler.Apply(ctx, Event{
		ID:         "evt_1",
		Type:       EventSucceeded,
		PaymentRef: hold.PaymentRef,
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	got, err := manager.Get(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
}

func TestReconcilerDuplicateSucceededIsIdempotent(t *testing.T) {
	reconciler, manager, _, court := newTestReconciler(t)
	ctx := context.Background()
	hold := createHold(t, manager, court)

	event := Event{ID: "evt_1", Type: EventSucceeded, PaymentRef: hold.PaymentRef}
	require.NoError(t, reconciler.Apply(ctx, event))
	require.NoError(t, reconciler.Apply(ctx, event))

	got, err := manager.Get(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
}

func TestReconcilerSucceededAfterExpiry(t *testing.T) {
	reconciler, manager, clock, court := newTestReconciler(t)
	ctx := context.Background()
	hold := createHold(t, manager, court)

	clock.Advance(20 * time.Minute)

	err := reconciler.Apply(ctx, Event{ID: "evt_1", Type: EventSucceeded, PaymentRef: hold.PaymentRef})
	assert.ErrorIs(t, err, booking.ErrReservationExpired)

	got, err := manager.Get(ctx, hold.ID)
	require.NoError(t, err)
	assert.NotEqual(t, models.StatusConfirmed, got.Status)
}

func TestReconcilerFailedReleases(t *testing.T) {
	reconciler, manager, _, court := newTestReconciler(t)
	ctx := context.Background()
	hold := createHold(t, manager, court)

	err := reconciler.Apply(ctx, Event{ID: "evt_1", Type: EventFailed, PaymentRef: hold.PaymentRef})
	require.NoError(t, err)

	got, err := manager.Get(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReleased, got.Status)
	assert.Equal(t, "payment_failed", got.ReleaseCause)
}

func TestReconcilerFailedAfterSucceededIsDropped(t *testing.T) {
	reconciler, manager, _, court := newTestReconciler(t)
	ctx := context.Background()
	hold := createHold(t, manager, court)

	require.NoError(t, reconciler.Apply(ctx, Event{ID: "evt_1", Type: EventSucceeded, PaymentRef: hold.PaymentRef}))
	require.NoError(t, reconciler.Apply(ctx, Event{ID: "evt_2", Type: EventFailed, PaymentRef: hold.PaymentRef}))

	got, err := manager.Get(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
}

func TestReconcilerUnknownReferenceDropped(t *testing.T) {
	reconciler, _, _, _ := newTestReconciler(t)

	err := reconciler.Apply(context.Background(), Event{
		ID:         "evt_1",
		Type:       EventSucceeded,
		PaymentRef: "pay_never_issued",
	})
	assert.NoError(t, err)
}

func TestReconcilerUnknownTypeIgnored(t *testing.T) {
	reconciler, manager, _, court := newTestReconciler(t)
	ctx := context.Background()
	hold := createHold(t, manager, court)

	err := reconciler.Apply(ctx, Event{ID: "evt_1", Type: "payment.disputed", PaymentRef: hold.PaymentRef})
	require.NoError(t, err)

	got, err := manager.Get(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestReconcilerMissingReferenceDropped(t *testing.T) {
	reconciler, _, _, _ := newTestReconciler(t)

	err := reconciler.Apply(context.Background(), Event{ID: "evt_1", Type: EventSucceeded})
	assert.NoError(t, err)
}
