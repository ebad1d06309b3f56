package models

// PaymentMethodType is the closed set of supported method types.
type PaymentMethodType string

const (
	PaymentMethodVisa       PaymentMethodType = "visa"
	PaymentMethodMastercard PaymentMethodType = "mastercard"
	PaymentMethodAmex       PaymentMethodType = "amex"
)

// PaymentMethod is display-only: no real card data is handled here. The
// masked identifier and holder name are what the user picked from their
// wallet; the actual charge runs against the gateway's stored instrument.
type PaymentMethod struct {
	Type         PaymentMethodType `json:"type"`
	MaskedNumber string            `json:"maskedNumber"`
	HolderName   string            `json:"holderName"`
}
