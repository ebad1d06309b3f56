package biometric

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
	"go.uber.org/zap"
)

// Gate answers a single question: did the device owner just approve this
// action? Implementations must never return an error; denial, a missing
// assertion, and lack of capability all read as false.
type Gate interface {
	Authenticate(ctx context.Context, reason string) bool
}

type assertionKey struct{}
type expectedUserKey struct{}

// WithAssertion attaches the device-signed assertion token to the context.
func WithAssertion(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, assertionKey{}, token)
}

// WithExpectedUser attaches the user the assertion must have been minted for.
func WithExpectedUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, expectedUserKey{}, userID)
}

func assertionFromContext(ctx context.Context) string {
	token, _ := ctx.Value(assertionKey{}).(string)
	return token
}

func expectedUserFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(expectedUserKey{}).(string)
	return userID
}

// AssertionGate verifies a short-lived assertion the device mints after a
// successful local biometric (or passcode fallback) ceremony. The assertion
// is an HS256 JWT carrying the user as subject and a purpose claim.
type AssertionGate struct {
	secret []byte
	maxAge time.Duration
	logger *zap.Logger
}

const purposePayment = "payment"

// clockSkew is the tolerance for devices whose clocks run slightly ahead.
const clockSkew = 30 * time.Second

func NewAssertionGate(secret string, maxAge time.Duration, logger *zap.Logger) *AssertionGate {
	return &AssertionGate{secret: []byte(secret), maxAge: maxAge, logger: logger}
}

// Authenticate verifies the assertion carried in ctx. True only on a valid,
// fresh assertion for the expected user and the payment purpose.
func (g *AssertionGate) Authenticate(ctx context.Context, reason string) bool {
	tokenString := assertionFromContext(ctx)
	if tokenString == "" {
		g.logger.Debug("biometric assertion missing", zap.String("reason", reason))
		return false
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return g.secret, nil
	})
	if err != nil || !token.Valid {
		g.logger.Debug("biometric assertion rejected", zap.Error(err))
		return false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}
	if purpose, _ := claims["purpose"].(string); purpose != purposePayment {
		g.logger.Debug("biometric assertion has wrong purpose")
		return false
	}

	sub, _ := claims["sub"].(string)
	if expected := expectedUserFromContext(ctx); expected == "" || sub != expected {
		g.logger.Debug("biometric assertion subject mismatch")
		return false
	}

	iat, ok := claims["iat"].(float64)
	if !ok {
		return false
	}
	issuedAt := time.Unix(int64(iat), 0)
	age := time.Since(issuedAt)
	if age < -clockSkew {
		g.logger.Debug("biometric assertion issued in the future")
		return false
	}
	if age > g.maxAge {
		g.logger.Debug("biometric assertion too old")
		return false
	}

	return true
}
