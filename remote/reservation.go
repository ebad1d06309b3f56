package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// ReservationClient calls the marketplace reservation API. The backend is
// the source of truth for reservations; this client only creates records
// and flips them to confirmed.
type ReservationClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func NewReservationClient(baseURL string, logger *zap.Logger) *ReservationClient {
	return &ReservationClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

type createReservationRequest struct {
	UserID       string `json:"userId"`
	HabitationID string `json:"habitationId"`
	CheckIn      string `json:"checkIn"`
	CheckOut     string `json:"checkOut"`
}

type reservationResponse struct {
	Success       bool   `json:"success"`
	ReservationID string `json:"reservationId,omitempty"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
}

// CreateReservation creates a pending reservation and returns its id.
func (c *ReservationClient) CreateReservation(ctx context.Context, userID, habitationID string, checkIn, checkOut time.Time) (string, error) {
	payload := createReservationRequest{
		UserID:       userID,
		HabitationID: habitationID,
		CheckIn:      checkIn.Format(dateLayout),
		CheckOut:     checkOut.Format(dateLayout),
	}

	var resp reservationResponse
	if err := c.postJSON(ctx, "/api/reservations", payload, &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.ReservationID == "" {
		return "", apiError(resp.ErrorMessage, "reservation could not be created")
	}

	c.logger.Info("reservation created", zap.String("reservationID", resp.ReservationID))
	return resp.ReservationID, nil
}

// ConfirmReservation transitions a pending reservation to confirmed.
func (c *ReservationClient) ConfirmReservation(ctx context.Context, reservationID string) error {
	var resp reservationResponse
	path := fmt.Sprintf("/api/reservations/%s/confirm", reservationID)
	if err := c.postJSON(ctx, path, struct{}{}, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return apiError(resp.ErrorMessage, "reservation could not be confirmed")
	}

	c.logger.Info("reservation confirmed", zap.String("reservationID", reservationID))
	return nil
}

func (c *ReservationClient) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("reservation API unreachable: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("reservation API returned status %d", res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode reservation API response: %w", err)
	}
	return nil
}

func apiError(message, fallback string) error {
	if message == "" {
		message = fallback
	}
	return fmt.Errorf("%s", message)
}
