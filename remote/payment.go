package remote

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

// StripeGateway charges bookings through Stripe. Payments run as destination
// charges: the guest's stored instrument is debited and the habitation
// owner's connected account receives the funds.
type StripeGateway struct {
	logger *zap.Logger
}

func NewStripeGateway(logger *zap.Logger) *StripeGateway {
	return &StripeGateway{logger: logger}
}

// CreatePayment charges amount against the given reservation and returns the
// payment id. The reservation id travels in metadata so support can tie a
// charge back to its booking.
func (g *StripeGateway) CreatePayment(ctx context.Context, payeeID, reservationID string, amount float64, currency, description string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{
			Context:        ctx,
			IdempotencyKey: stripe.String(uuid.New().String()),
		},
		Amount:      stripe.Int64(toMinorUnits(amount)),
		Currency:    stripe.String(strings.ToLower(currency)),
		Description: stripe.String(description),
		Confirm:     stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
		TransferData: &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(payeeID),
		},
	}
	params.AddMetadata("reservationId", reservationID)

	pi, err := paymentintent.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
			return "", errors.New(stripeErr.Msg)
		}
		return "", err
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		g.logger.Warn("payment not completed",
			zap.String("paymentID", pi.ID),
			zap.String("status", string(pi.Status)))
		return "", errors.New("payment was not completed")
	}

	g.logger.Info("payment succeeded",
		zap.String("paymentID", pi.ID),
		zap.String("reservationID", reservationID))
	return pi.ID, nil
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
