package reservation

import (
	"errors"
	"fmt"
)

// Failure codes for the booking flow. Validation codes are recoverable by a
// user edit; authenticationFailed by retrying the biometric prompt;
// remoteFailure by retrying the whole flow. confirmationFailed is its own
// class: payment has completed but the booking is not locked in.
const (
	CodeDateOrderInvalid     = "dateOrderInvalid"
	CodeDateInPast           = "dateInPast"
	CodeStayTooShort         = "stayTooShort"
	CodePaymentMethodMissing = "paymentMethodMissing"
	CodeNoDraft              = "noDraft"
	CodeUserUnresolved       = "userUnresolved"
	CodeAuthenticationFailed = "authenticationFailed"
	CodeRemoteFailure        = "remoteFailure"
	CodeConfirmationFailed   = "confirmationFailed"
)

type FlowError struct {
	Code    string
	Message string
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewFlowError(code, msg string) error {
	return &FlowError{
		Code:    code,
		Message: msg,
	}
}

// AsFlowError unwraps err into a FlowError when possible.
func AsFlowError(err error) (*FlowError, bool) {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
