package reservation

import (
	"fmt"
	"time"

	"bodima/models"
)

// ValidateDraft checks a draft snapshot against "now". It is pure: identical
// inputs always produce the identical verdict, so it can back both the
// interactive warnings while the user edits and the authoritative re-check
// inside Finalize.
//
// Check order is fixed: date order, past date, minimum stay, payment method.
// The first failing check wins; nothing is aggregated.
func ValidateDraft(draft *models.PendingReservation, now time.Time, minStayDays int) error {
	checkIn := truncateToDay(draft.CheckIn)
	checkOut := truncateToDay(draft.CheckOut)
	today := truncateToDay(now)

	if !checkOut.After(checkIn) {
		return NewFlowError(CodeDateOrderInvalid, "check-out must be after check-in")
	}
	if checkIn.Before(today) {
		return NewFlowError(CodeDateInPast, "check-in cannot be in the past")
	}
	if minStayDays < 1 {
		minStayDays = 1
	}
	if int(checkOut.Sub(checkIn).Hours()/24) < minStayDays {
		return NewFlowError(CodeStayTooShort, fmt.Sprintf("stay must be at least %d day(s)", minStayDays))
	}
	if draft.PaymentMethod == nil {
		return NewFlowError(CodePaymentMethodMissing, "select a payment method to continue")
	}
	return nil
}

// truncateToDay drops the time-of-day component; the flow works at day
// granularity.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
