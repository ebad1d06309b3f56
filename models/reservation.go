package models

import "time"

// Reservation statuses as reported by the reservation API. The backend is
// the source of truth; the client holds only the id and last seen status.
const (
	ReservationStatusPending   = "pending"
	ReservationStatusConfirmed = "confirmed"
)

// PendingReservation is the in-memory draft of one booking attempt. It is
// owned exclusively by the flow orchestrator: created on Start, mutated as
// the user edits dates and payment method, cleared on success or Cancel.
type PendingReservation struct {
	SessionID     string           `json:"sessionId"`
	Habitation    HabitationRef    `json:"habitation"`
	Location      LocationSnapshot `json:"location"`
	Features      FeatureSnapshot  `json:"features"`
	CheckIn       time.Time        `json:"checkIn"`
	CheckOut      time.Time        `json:"checkOut"`
	PaymentMethod *PaymentMethod   `json:"paymentMethod,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// Nights returns the stay length in whole days.
func (d *PendingReservation) Nights() int {
	return int(d.CheckOut.Sub(d.CheckIn).Hours() / 24)
}

// ReservationReceipt is the terminal outcome of a successful finalize.
type ReservationReceipt struct {
	ReservationID string    `json:"reservationId"`
	PaymentID     string    `json:"paymentId"`
	HabitationID  string    `json:"habitationId"`
	CheckIn       time.Time `json:"checkIn"`
	CheckOut      time.Time `json:"checkOut"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	ConfirmedAt   time.Time `json:"confirmedAt"`
}

// ConfirmIncident records a booking whose payment succeeded but whose
// confirmation call failed. Money has moved without the booking being
// locked in, so these go to support rather than back through the flow.
type ConfirmIncident struct {
	IncidentID    string    `json:"incidentId"`
	UserID        string    `json:"userId"`
	ReservationID string    `json:"reservationId"`
	PaymentID     string    `json:"paymentId"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Reason        string    `json:"reason"`
	RecordedAt    time.Time `json:"recordedAt"`
}
