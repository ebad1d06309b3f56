package reservation

import (
	"context"
	"fmt"
	"time"

	"bodima/biometric"
	"bodima/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Start initializes a draft for the session with the policy default window
// and no payment method, replacing any prior in-flight draft.
func (s *DefaultFlowService) Start(ctx context.Context, sessionID string, habitation models.HabitationRef, location models.LocationSnapshot, features models.FeatureSnapshot) (*models.PendingReservation, error) {
	if sessionID == "" {
		return nil, NewFlowError(CodeNoDraft, "booking not initialized")
	}

	now := s.now()
	draft := &models.PendingReservation{
		SessionID:  sessionID,
		Habitation: habitation,
		Location:   location,
		Features:   features,
		CheckIn:    now,
		CheckOut:   now.AddDate(0, 0, s.Policy.DefaultStayDays),
		CreatedAt:  now,
	}
	out := cloneDraft(draft)
	s.drafts.put(sessionID, draft)

	if s.Tasks != nil && s.Policy.DraftTTL > 0 {
		if err := s.Tasks.ScheduleDraftExpiry(sessionID, now, now.Add(s.Policy.DraftTTL)); err != nil {
			s.Logger.Warn("failed to schedule draft expiry", zap.Error(err))
		}
	}

	s.Logger.Info("booking draft started",
		zap.String("sessionID", sessionID),
		zap.String("habitationID", habitation.ID))
	return out, nil
}

// SetDates updates the draft's stay window. No validation happens here;
// the dates are checked when the user validates or finalizes.
func (s *DefaultFlowService) SetDates(ctx context.Context, sessionID string, checkIn, checkOut time.Time) (*models.PendingReservation, error) {
	draft, ok := s.drafts.update(sessionID, func(d *models.PendingReservation) {
		d.CheckIn = checkIn
		d.CheckOut = checkOut
	})
	if !ok {
		return nil, NewFlowError(CodeNoDraft, "booking not initialized")
	}
	return draft, nil
}

// SetPaymentMethod updates the draft's selected payment method.
func (s *DefaultFlowService) SetPaymentMethod(ctx context.Context, sessionID string, method models.PaymentMethod) (*models.PendingReservation, error) {
	draft, ok := s.drafts.update(sessionID, func(d *models.PendingReservation) {
		d.PaymentMethod = &method
	})
	if !ok {
		return nil, NewFlowError(CodeNoDraft, "booking not initialized")
	}
	return draft, nil
}

// Draft returns a copy of the session's in-flight draft.
func (s *DefaultFlowService) Draft(ctx context.Context, sessionID string) (*models.PendingReservation, error) {
	draft, ok := s.drafts.snapshot(sessionID)
	if !ok {
		return nil, NewFlowError(CodeNoDraft, "booking not initialized")
	}
	return draft, nil
}

// Validate re-checks the draft against the current clock. Nil means the
// draft can be finalized as it stands.
func (s *DefaultFlowService) Validate(ctx context.Context, sessionID string) error {
	draft, ok := s.drafts.snapshot(sessionID)
	if !ok {
		return NewFlowError(CodeNoDraft, "booking not initialized")
	}
	return ValidateDraft(draft, s.now(), s.Policy.MinStayDays)
}

// Cancel discards the session's draft.
func (s *DefaultFlowService) Cancel(ctx context.Context, sessionID string) error {
	if !s.drafts.remove(sessionID) {
		return NewFlowError(CodeNoDraft, "booking not initialized")
	}
	s.Logger.Info("booking draft cancelled", zap.String("sessionID", sessionID))
	return nil
}

// Expire clears an abandoned draft. Called by the background worker; a draft
// replaced by a later Start is left alone.
func (s *DefaultFlowService) Expire(ctx context.Context, sessionID string, startedAt time.Time) bool {
	cleared := s.drafts.removeIfStartedAt(sessionID, startedAt)
	if cleared {
		s.Logger.Info("booking draft expired", zap.String("sessionID", sessionID))
	}
	return cleared
}

// Finalize runs the booking saga: validate, resolve the user, create the
// reservation, authenticate the payer, charge, confirm. Every step yields a
// single terminal outcome; there are no retries inside the flow and no
// compensating cancellation — a reservation created before a later failure
// stays pending on the remote side until the backend expires it.
func (s *DefaultFlowService) Finalize(ctx context.Context, sessionID string) (*models.ReservationReceipt, error) {
	draft, ok := s.drafts.snapshot(sessionID)
	if !ok {
		return nil, NewFlowError(CodeNoDraft, "booking not initialized")
	}

	// Validating
	if err := ValidateDraft(draft, s.now(), s.Policy.MinStayDays); err != nil {
		return nil, err
	}

	// ResolvingUser
	userID, err := s.Sessions.Resolve(ctx, sessionID)
	if err != nil || userID == "" {
		s.Logger.Warn("finalize aborted: user unresolved", zap.String("sessionID", sessionID), zap.Error(err))
		return nil, NewFlowError(CodeUserUnresolved, "unable to resolve the current user")
	}

	// CreatingReservation
	reservationID, err := s.Reservations.CreateReservation(ctx, userID, draft.Habitation.ID, draft.CheckIn, draft.CheckOut)
	if err != nil {
		s.Logger.Warn("finalize aborted: reservation creation failed", zap.Error(err))
		return nil, NewFlowError(CodeRemoteFailure, remoteMessage(err, "reservation could not be created"))
	}
	if reservationID == "" {
		return nil, NewFlowError(CodeRemoteFailure, "reservation could not be created")
	}

	amount := QuoteTotal(draft)
	currency := s.Policy.Currency

	// Authenticating
	reason := fmt.Sprintf("Approve a payment of %s %.2f for %s", currency, amount, draft.Habitation.Title)
	if !s.Gate.Authenticate(biometric.WithExpectedUser(ctx, userID), reason) {
		s.Logger.Warn("finalize aborted: biometric authentication failed",
			zap.String("sessionID", sessionID),
			zap.String("reservationID", reservationID))
		return nil, NewFlowError(CodeAuthenticationFailed, "biometric authentication failed")
	}

	// Charging
	description := fmt.Sprintf("Reservation %s: %s (%s to %s)",
		reservationID, draft.Habitation.Title,
		draft.CheckIn.Format("2006-01-02"), draft.CheckOut.Format("2006-01-02"))
	paymentID, err := s.Payments.CreatePayment(ctx, draft.Habitation.OwnerID, reservationID, amount, currency, description)
	if err != nil {
		s.Logger.Warn("finalize aborted: payment failed",
			zap.String("reservationID", reservationID),
			zap.Error(err))
		return nil, NewFlowError(CodeRemoteFailure, remoteMessage(err, "payment could not be completed"))
	}

	// Confirming
	if err := s.Reservations.ConfirmReservation(ctx, reservationID); err != nil {
		s.Logger.Error("payment completed but confirmation failed",
			zap.String("reservationID", reservationID),
			zap.String("paymentID", paymentID),
			zap.Error(err))
		s.alertConfirmFailure(userID, reservationID, paymentID, amount, currency, err)
		return nil, NewFlowError(CodeConfirmationFailed,
			fmt.Sprintf("payment completed but confirmation failed: %s", remoteMessage(err, "reservation could not be confirmed")))
	}

	// Completed
	receipt := &models.ReservationReceipt{
		ReservationID: reservationID,
		PaymentID:     paymentID,
		HabitationID:  draft.Habitation.ID,
		CheckIn:       draft.CheckIn,
		CheckOut:      draft.CheckOut,
		Amount:        amount,
		Currency:      currency,
		Status:        models.ReservationStatusConfirmed,
		ConfirmedAt:   s.now(),
	}
	s.drafts.remove(sessionID)

	s.Logger.Info("booking completed",
		zap.String("sessionID", sessionID),
		zap.String("reservationID", reservationID),
		zap.String("paymentID", paymentID),
		zap.Float64("amount", amount))
	return receipt, nil
}

func (s *DefaultFlowService) alertConfirmFailure(userID, reservationID, paymentID string, amount float64, currency string, cause error) {
	if s.Tasks == nil {
		return
	}
	incident := models.ConfirmIncident{
		IncidentID:    uuid.New().String(),
		UserID:        userID,
		ReservationID: reservationID,
		PaymentID:     paymentID,
		Amount:        amount,
		Currency:      currency,
		Reason:        remoteMessage(cause, "reservation could not be confirmed"),
		RecordedAt:    s.now(),
	}
	if err := s.Tasks.EnqueueConfirmAlert(incident); err != nil {
		s.Logger.Error("failed to enqueue confirmation alert", zap.Error(err))
	}
}

// remoteMessage passes a collaborator's reported error through when present
// and falls back to a generic message otherwise.
func remoteMessage(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
