package errors

import (
	"errors"
	"strings"
)

const (
	fallbackCheckoutMessage = "Order could not be placed"
	fallbackPaymentMessage  = "Payment failed"
)

// fieldLabels maps wire field names to the labels shown next to the form
var fieldLabels = map[string]string{
	"customer_name":   "full name",
	"customer_phone":  "phone number",
	"street":          "street",
	"house_number":    "house number",
	"postal_code":     "postal code",
	"city":            "city",
	"cardholder_name": "cardholder name",
	"card_number":     "card number",
	"expiry_month":    "expiry month",
	"expiry_year":     "expiry year",
	"cvv":             "CVV",
	"email":           "email",
	"password":        "password",
	"account_holder":  "account holder",
	"iban":            "IBAN",
	"provider":        "payment method",
}

// UserMessage converts any error produced by the order flow into the
// message rendered inline on the page.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		unauth   *ErrUnauthenticated
		unavail  *ErrUnavailable
		invalid  *ErrValidation
		empty    *ErrEmptyCart
		checkout *ErrCheckoutRejected
		payment  *ErrPaymentRejected
		busy     *ErrBusy
		state    *ErrInvalidStateTransition
	)

	switch {
	case errors.As(err, &unauth):
		return "Your session has expired. Please sign in again."
	case errors.As(err, &invalid):
		labels := make([]string, len(invalid.Fields))
		for i, f := range invalid.Fields {
			labels[i] = FieldLabel(f)
		}
		return "Please fill in " + strings.Join(labels, ", ")
	case errors.As(err, &empty):
		return "Your cart is empty"
	case errors.As(err, &checkout):
		if checkout.Message == "" {
			return fallbackCheckoutMessage
		}
		return checkout.Message
	case errors.As(err, &payment):
		if payment.Message == "" {
			return fallbackPaymentMessage
		}
		return payment.Message
	case errors.As(err, &busy):
		return "Your previous request is still being processed"
	case errors.As(err, &state):
		return "This step is no longer available. Please start again."
	case errors.As(err, &unavail):
		return "The service is currently unavailable. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

// FieldLabel returns the human label for a form field
func FieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return strings.ReplaceAll(field, "_", " ")
}
