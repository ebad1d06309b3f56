package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bodima/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeReservationAPI struct {
	createID     string
	createErr    error
	confirmErr   error
	createCalls  int
	confirmCalls int
}

func (f *fakeReservationAPI) CreateReservation(ctx context.Context, userID, habitationID string, checkIn, checkOut time.Time) (string, error) {
	f.createCalls++
	return f.createID, f.createErr
}

func (f *fakeReservationAPI) ConfirmReservation(ctx context.Context, reservationID string) error {
	f.confirmCalls++
	return f.confirmErr
}

type fakePaymentAPI struct {
	paymentID  string
	err        error
	calls      int
	lastAmount float64
	lastPayee  string
}

func (f *fakePaymentAPI) CreatePayment(ctx context.Context, payeeID, reservationID string, amount float64, currency, description string) (string, error) {
	f.calls++
	f.lastAmount = amount
	f.lastPayee = payeeID
	return f.paymentID, f.err
}

type fakeGate struct {
	allow      bool
	lastReason string
}

func (f *fakeGate) Authenticate(ctx context.Context, reason string) bool {
	f.lastReason = reason
	return f.allow
}

type fakeResolver struct {
	userID string
	err    error
}

func (f *fakeResolver) Resolve(ctx context.Context, sessionID string) (string, error) {
	return f.userID, f.err
}

type fakeQueue struct {
	expiries []models.DraftExpiryPayload
	alerts   []models.ConfirmIncident
}

func (f *fakeQueue) ScheduleDraftExpiry(sessionID string, startedAt, fireAt time.Time) error {
	f.expiries = append(f.expiries, models.DraftExpiryPayload{SessionID: sessionID, StartedAt: startedAt})
	return nil
}

func (f *fakeQueue) EnqueueConfirmAlert(incident models.ConfirmIncident) error {
	f.alerts = append(f.alerts, incident)
	return nil
}

type flowFixture struct {
	svc          *DefaultFlowService
	reservations *fakeReservationAPI
	payments     *fakePaymentAPI
	gate         *fakeGate
	resolver     *fakeResolver
	queue        *fakeQueue
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()
	f := &flowFixture{
		reservations: &fakeReservationAPI{createID: "res-100"},
		payments:     &fakePaymentAPI{paymentID: "pay-200"},
		gate:         &fakeGate{allow: true},
		resolver:     &fakeResolver{userID: "user-1"},
		queue:        &fakeQueue{},
	}
	f.svc = NewFlowService(
		f.reservations, f.payments, f.gate, f.resolver, f.queue,
		FlowPolicy{Currency: "LKR", MinStayDays: 1, DefaultStayDays: 30, DraftTTL: 30 * time.Minute},
		zap.NewNop(),
	)
	f.svc.Now = func() time.Time { return testNow }
	return f
}

const sessID = "sess-1"

func (f *flowFixture) startValidDraft(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.Start(ctx, sessID,
		models.HabitationRef{ID: "hab-1", OwnerID: "owner-1", Title: "Lakeview Annex"},
		models.LocationSnapshot{City: "Kandy", Country: "Sri Lanka"},
		models.FeatureSnapshot{NightlyPrice: 4500, CleaningFee: 1000, ServiceFee: 500},
	)
	require.NoError(t, err)
	_, err = f.svc.SetDates(ctx, sessID, day(1), day(3))
	require.NoError(t, err)
	_, err = f.svc.SetPaymentMethod(ctx, sessID, *visa())
	require.NoError(t, err)
}

func TestStartAppliesDefaultWindow(t *testing.T) {
	f := newFlowFixture(t)
	draft, err := f.svc.Start(context.Background(), sessID, models.HabitationRef{ID: "hab-1"}, models.LocationSnapshot{}, models.FeatureSnapshot{})
	require.NoError(t, err)

	assert.Equal(t, testNow, draft.CheckIn)
	assert.Equal(t, testNow.AddDate(0, 0, 30), draft.CheckOut)
	assert.Nil(t, draft.PaymentMethod)

	// Expiry sweep scheduled for this attempt.
	require.Len(t, f.queue.expiries, 1)
	assert.Equal(t, sessID, f.queue.expiries[0].SessionID)
}

func TestStartReplacesPriorDraft(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	f.startValidDraft(t)
	draft, err := f.svc.Start(ctx, sessID, models.HabitationRef{ID: "hab-2"}, models.LocationSnapshot{}, models.FeatureSnapshot{})
	require.NoError(t, err)
	assert.Equal(t, "hab-2", draft.Habitation.ID)
	assert.Nil(t, draft.PaymentMethod)
}

func TestFinalizeHappyPath(t *testing.T) {
	f := newFlowFixture(t)
	f.startValidDraft(t)
	ctx := context.Background()

	receipt, err := f.svc.Finalize(ctx, sessID)
	require.NoError(t, err)

	// 2 nights at 4500 plus 1000 cleaning and 500 service.
	assert.Equal(t, 10500.0, receipt.Amount)
	assert.Equal(t, "LKR", receipt.Currency)
	assert.Equal(t, "res-100", receipt.ReservationID)
	assert.Equal(t, "pay-200", receipt.PaymentID)
	assert.Equal(t, models.ReservationStatusConfirmed, receipt.Status)

	assert.Equal(t, 1, f.reservations.createCalls)
	assert.Equal(t, 1, f.payments.calls)
	assert.Equal(t, 1, f.reservations.confirmCalls)
	assert.Equal(t, "owner-1", f.payments.lastPayee)

	// The biometric prompt carries the exact charge amount.
	assert.Contains(t, f.gate.lastReason, "LKR 10500.00")

	// Draft cleared: a fresh Start is required before another Finalize.
	_, err = f.svc.Finalize(ctx, sessID)
	fe, ok := AsFlowError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNoDraft, fe.Code)
}

func TestFinalizeRejectsInvalidDraft(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()
	_, err := f.svc.Start(ctx, sessID, models.HabitationRef{ID: "hab-1"}, models.LocationSnapshot{}, models.FeatureSnapshot{})
	require.NoError(t, err)
	_, err = f.svc.SetDates(ctx, sessID, day(3), day(1))
	require.NoError(t, err)

	_, err = f.svc.Finalize(ctx, sessID)
	fe, ok := AsFlowError(err)
	require.True(t, ok)
	assert.Equal(t, CodeDateOrderInvalid, fe.Code)
	assert.Zero(t, f.reservations.createCalls)
}

func TestFinalizeUserUnresolved(t *testing.T) {
	f := newFlowFixture(t)
	f.startValidDraft(t)
	f.resolver.userID = ""
	f.resolver.err = errors.New("session not found")

	_, err := f.svc.Finalize(context.Background(), sessID)
	fe, ok := AsFlowError(err)
	require.True(t, ok)
	assert.Equal(t, CodeUserUnresolved, fe.Code)
	assert.Zero(t, f.reservations.createCalls)
}

func TestFinalizeReservationCreateFailurePassesMessageThrough(t *testing.T) {
	f := newFlowFixture(t)
	f.startValidDraft(t)
	f.reservations.createErr = errors.New("rooms unavailable for those dates")

	_, err := f.svc.Finalize(context.Background(), sessID)
	fe, ok := AsFlowError(err)
	require.True(t, ok)
	assert.Equal(t, CodeRemoteFailure, fe.Code)
	assert.Equal(t, "rooms unavailable for those dates", fe.Message)
	assert.Zero(t, f.payments.calls)
}

func TestFinalizeEmptyReservationIDIsGenericFailure(t *testing.T) {
	f := newFlowFixture(t)
	f.startValidDraft(t)
	f.reservations.createID = ""

	_, err := f.svc.Finalize(context.Background(), sessID)
	fe, ok := AsFlowError(err)
	require.True(t, ok)
	assert.Equal(t, CodeRemoteFailure, fe.Code)
	assert.Zero(t, f.payments.calls)
}

func TestFinalizeBiometricDenial(t *testing.T) {
	f := newFlowFixture(t)
	f.startValidDraft(t)
	f.gate.allow = false
	ctx := context.Background()

	_, err := f.svc.Finalize(ctx, sessID)
	fe, ok := AsFlowError(err)
	require.True(t, ok)
	assert.Equal(t, CodeAuthenticationFailed, fe.Code)

	// The reservation was created and stays pending remotely: no charge, no
	// confirmation, and no compensating cancellation is attempted.
	assert.Equal(t, 1, f.reservations.createCalls)
	assert.Zero(t, f.payments.calls)
	assert.Zero(t, f.reservations.confirmCalls)

	// Draft is retained so the user can retry the flow.
	_, err = f.svc.Draft(ctx, sessID)
	assert.NoError(t, err)
}

func TestFinalizePaymentFailureLeavesReservationPending(t *testing.T) {
	f := newFlowFixture(t)
	f.startValidDraft(t)
	f.payments.err = errors.New("card declined")

	_, err := f.svc.Finalize(context.Background(), sessID)
	fe, ok := AsFlowError(err)
	require.True(t, ok)
	assert.Equal(t, CodeRemoteFailure, fe.Code)
	assert.Equal(t, "card declined", fe.Message)
	assert.Zero(t, f.reservations.confirmCalls)
	assert.Empty(t, f.queue.alerts)
}

func TestFinalizeConfirmationFailureIsDistinct(t *testing.T) {
	f := newFlowFixture(t)
	f.startValidDraft(t)
	f.reservations.confirmErr = errors.New("backend timeout")
	ctx := context.Background()

	_, err := f.svc.Finalize(ctx, sessID)
	fe, ok := AsFlowError(err)
	require.True(t, ok)
	assert.Equal(t, CodeConfirmationFailed, fe.Code)
	assert.Contains(t, fe.Message, "payment completed but confirmation failed")

	// Payment went through, so support gets an incident.
	require.Len(t, f.queue.alerts, 1)
	alert := f.queue.alerts[0]
	assert.Equal(t, "res-100", alert.ReservationID)
	assert.Equal(t, "pay-200", alert.PaymentID)
	assert.Equal(t, 10500.0, alert.Amount)

	// Draft is retained: only confirmation success clears it.
	_, err = f.svc.Draft(ctx, sessID)
	assert.NoError(t, err)
}

func TestValidateVerdictIsStableAcrossCalls(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()
	_, err := f.svc.Start(ctx, sessID, models.HabitationRef{ID: "hab-1"}, models.LocationSnapshot{}, models.FeatureSnapshot{})
	require.NoError(t, err)
	_, err = f.svc.SetDates(ctx, sessID, day(1), day(1))
	require.NoError(t, err)

	first := f.svc.Validate(ctx, sessID)
	second := f.svc.Validate(ctx, sessID)
	require.Error(t, first)
	assert.Equal(t, first.Error(), second.Error())
}

func TestExpireOnlyClearsItsOwnAttempt(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()
	f.startValidDraft(t)
	firstStart := f.queue.expiries[0].StartedAt

	// A new attempt replaces the draft; the old sweep must not clear it.
	f.svc.Now = func() time.Time { return testNow.Add(5 * time.Minute) }
	_, err := f.svc.Start(ctx, sessID, models.HabitationRef{ID: "hab-2"}, models.LocationSnapshot{}, models.FeatureSnapshot{})
	require.NoError(t, err)

	assert.False(t, f.svc.Expire(ctx, sessID, firstStart))
	_, err = f.svc.Draft(ctx, sessID)
	assert.NoError(t, err)

	secondStart := f.queue.expiries[1].StartedAt
	assert.True(t, f.svc.Expire(ctx, sessID, secondStart))
	_, err = f.svc.Draft(ctx, sessID)
	assert.Error(t, err)
}

func TestCancelDiscardsDraft(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()
	f.startValidDraft(t)

	require.NoError(t, f.svc.Cancel(ctx, sessID))
	_, err := f.svc.Draft(ctx, sessID)
	fe, ok := AsFlowError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNoDraft, fe.Code)

	// Cancelling twice reports the missing draft.
	assert.Error(t, f.svc.Cancel(ctx, sessID))
}

func TestDraftReturnsIndependentCopy(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()
	f.startValidDraft(t)

	draft, err := f.svc.Draft(ctx, sessID)
	require.NoError(t, err)
	draft.CheckIn = day(20)
	draft.PaymentMethod = nil

	stored, err := f.svc.Draft(ctx, sessID)
	require.NoError(t, err)
	assert.Equal(t, day(1), stored.CheckIn)
	require.NotNil(t, stored.PaymentMethod)
}

// Exercises the same session from several goroutines at once, the way the UI
// validates while the user is still editing. Run with -race.
func TestConcurrentEditsAndReadsOnOneSession(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()
	f.startValidDraft(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, err := f.svc.SetDates(ctx, sessID, day(1), day(3))
				assert.NoError(t, err)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, err := f.svc.SetPaymentMethod(ctx, sessID, *visa())
				assert.NoError(t, err)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.NoError(t, f.svc.Validate(ctx, sessID))
				_, err := f.svc.Draft(ctx, sessID)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	draft, err := f.svc.Draft(ctx, sessID)
	require.NoError(t, err)
	assert.Equal(t, day(1), draft.CheckIn)
	assert.Equal(t, day(3), draft.CheckOut)
	require.NotNil(t, draft.PaymentMethod)
}
