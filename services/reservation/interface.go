package reservation

import (
	"context"
	"time"

	"bodima/models"

	"go.uber.org/zap"
)

// FlowService drives a single booking from draft to a confirmed, paid
// reservation. One draft per session; Start replaces any in-flight draft
// and a fresh Start is required to retry after Finalize completes or fails.
type FlowService interface {
	Start(ctx context.Context, sessionID string, habitation models.HabitationRef, location models.LocationSnapshot, features models.FeatureSnapshot) (*models.PendingReservation, error)
	SetDates(ctx context.Context, sessionID string, checkIn, checkOut time.Time) (*models.PendingReservation, error)
	SetPaymentMethod(ctx context.Context, sessionID string, method models.PaymentMethod) (*models.PendingReservation, error)
	Draft(ctx context.Context, sessionID string) (*models.PendingReservation, error)
	Validate(ctx context.Context, sessionID string) error
	Finalize(ctx context.Context, sessionID string) (*models.ReservationReceipt, error)
	Cancel(ctx context.Context, sessionID string) error
	// Expire clears the draft only if it still belongs to the booking
	// attempt started at startedAt. Returns whether a draft was cleared.
	Expire(ctx context.Context, sessionID string, startedAt time.Time) bool
}

// ReservationAPI is the remote collaborator owning reservation records.
type ReservationAPI interface {
	CreateReservation(ctx context.Context, userID, habitationID string, checkIn, checkOut time.Time) (string, error)
	ConfirmReservation(ctx context.Context, reservationID string) error
}

// PaymentAPI charges a booking and pays out the habitation owner.
type PaymentAPI interface {
	CreatePayment(ctx context.Context, payeeID, reservationID string, amount float64, currency, description string) (string, error)
}

// BiometricGate reports whether the device owner approved the charge.
type BiometricGate interface {
	Authenticate(ctx context.Context, reason string) bool
}

// SessionResolver returns the acting user's id for a session.
type SessionResolver interface {
	Resolve(ctx context.Context, sessionID string) (string, error)
}

// TaskQueue hands background work to the async worker.
type TaskQueue interface {
	ScheduleDraftExpiry(sessionID string, startedAt, fireAt time.Time) error
	EnqueueConfirmAlert(incident models.ConfirmIncident) error
}

// FlowPolicy carries the booking policy knobs, injected from config rather
// than read from process-wide state.
type FlowPolicy struct {
	Currency        string
	MinStayDays     int
	DefaultStayDays int
	DraftTTL        time.Duration
}

// DefaultFlowService implements FlowService.
type DefaultFlowService struct {
	Reservations ReservationAPI
	Payments     PaymentAPI
	Gate         BiometricGate
	Sessions     SessionResolver
	Tasks        TaskQueue
	Policy       FlowPolicy
	Logger       *zap.Logger
	Now          func() time.Time

	drafts draftStore
}

// NewFlowService builds a flow service with an empty draft store. Now
// defaults to time.Now when nil.
func NewFlowService(reservations ReservationAPI, payments PaymentAPI, gate BiometricGate, sessions SessionResolver, tasks TaskQueue, policy FlowPolicy, logger *zap.Logger) *DefaultFlowService {
	return &DefaultFlowService{
		Reservations: reservations,
		Payments:     payments,
		Gate:         gate,
		Sessions:     sessions,
		Tasks:        tasks,
		Policy:       policy,
		Logger:       logger,
		Now:          time.Now,
		drafts:       newDraftStore(),
	}
}

func (s *DefaultFlowService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
