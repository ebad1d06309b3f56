package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func reservationServer(t *testing.T, handler http.HandlerFunc) *ReservationClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewReservationClient(srv.URL, zap.NewNop())
}

func TestCreateReservationSuccess(t *testing.T) {
	var gotBody createReservationRequest
	client := reservationServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reservations", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(reservationResponse{Success: true, ReservationID: "res-7"})
	})

	checkIn := time.Date(2026, time.September, 2, 0, 0, 0, 0, time.UTC)
	id, err := client.CreateReservation(context.Background(), "user-1", "hab-1", checkIn, checkIn.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, "res-7", id)
	assert.Equal(t, "user-1", gotBody.UserID)
	assert.Equal(t, "2026-09-02", gotBody.CheckIn)
	assert.Equal(t, "2026-09-05", gotBody.CheckOut)
}

func TestCreateReservationPassesBackendMessageThrough(t *testing.T) {
	client := reservationServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(reservationResponse{Success: false, ErrorMessage: "habitation is no longer listed"})
	})

	_, err := client.CreateReservation(context.Background(), "user-1", "hab-1", time.Now(), time.Now().AddDate(0, 0, 1))
	require.Error(t, err)
	assert.Equal(t, "habitation is no longer listed", err.Error())
}

func TestCreateReservationGenericFailureWithoutMessage(t *testing.T) {
	client := reservationServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(reservationResponse{Success: false})
	})

	_, err := client.CreateReservation(context.Background(), "user-1", "hab-1", time.Now(), time.Now().AddDate(0, 0, 1))
	require.Error(t, err)
	assert.Equal(t, "reservation could not be created", err.Error())
}

func TestCreateReservationMissingIDFails(t *testing.T) {
	client := reservationServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(reservationResponse{Success: true})
	})

	_, err := client.CreateReservation(context.Background(), "user-1", "hab-1", time.Now(), time.Now().AddDate(0, 0, 1))
	assert.Error(t, err)
}

func TestCreateReservationServerError(t *testing.T) {
	client := reservationServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.CreateReservation(context.Background(), "user-1", "hab-1", time.Now(), time.Now().AddDate(0, 0, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestConfirmReservation(t *testing.T) {
	client := reservationServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reservations/res-7/confirm", r.URL.Path)
		json.NewEncoder(w).Encode(reservationResponse{Success: true})
	})

	assert.NoError(t, client.ConfirmReservation(context.Background(), "res-7"))
}

func TestConfirmReservationFailure(t *testing.T) {
	client := reservationServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(reservationResponse{Success: false, ErrorMessage: "reservation already expired"})
	})

	err := client.ConfirmReservation(context.Background(), "res-7")
	require.Error(t, err)
	assert.Equal(t, "reservation already expired", err.Error())
}
