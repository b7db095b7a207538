package domain

// OrderType decides whether an address and the delivery surcharge apply
type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypePickup   OrderType = "pickup"
)

// IsValid checks if the order type is valid
func (t OrderType) IsValid() bool {
	switch t {
	case OrderTypeDelivery, OrderTypePickup:
		return true
	default:
		return false
	}
}

// Provider is the payment channel chosen by the customer
type Provider string

const (
	ProviderCard         Provider = "card"
	ProviderWallet       Provider = "wallet"
	ProviderBankTransfer Provider = "bank_transfer"
)

// IsValid checks if the provider is valid
func (p Provider) IsValid() bool {
	switch p {
	case ProviderCard, ProviderWallet, ProviderBankTransfer:
		return true
	default:
		return false
	}
}

// RequiredFields lists the payload keys the provider cannot do without
func (p Provider) RequiredFields() []string {
	switch p {
	case ProviderCard:
		return []string{"cardholder_name", "card_number", "expiry_month", "expiry_year", "cvv"}
	case ProviderWallet:
		return []string{"email", "password"}
	case ProviderBankTransfer:
		return []string{"account_holder", "iban"}
	default:
		return nil
	}
}

// OptionalFields lists payload keys forwarded when present
func (p Provider) OptionalFields() []string {
	if p == ProviderBankTransfer {
		return []string{"bank_name"}
	}
	return nil
}

// FlowState is the position of one checkout attempt in the order lifecycle
type FlowState string

const (
	FlowStateIdle              FlowState = "IDLE"
	FlowStateSubmitting        FlowState = "SUBMITTING"
	FlowStateAwaitingPayment   FlowState = "AWAITING_PAYMENT"
	FlowStatePaymentProcessing FlowState = "PAYMENT_PROCESSING"
	FlowStateConfirmed         FlowState = "CONFIRMED"
	FlowStateFailed            FlowState = "FAILED"
)

// IsValid checks if the flow state is valid
func (s FlowState) IsValid() bool {
	switch s {
	case FlowStateIdle,
		FlowStateSubmitting,
		FlowStateAwaitingPayment,
		FlowStatePaymentProcessing,
		FlowStateConfirmed,
		FlowStateFailed:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a state transition is valid.
// Failed is not terminal: the customer resubmits the step that failed.
func (s FlowState) CanTransitionTo(next FlowState) bool {
	switch s {
	case FlowStateIdle:
		return next == FlowStateSubmitting
	case FlowStateSubmitting:
		return next == FlowStateAwaitingPayment ||
			next == FlowStateFailed
	case FlowStateAwaitingPayment:
		return next == FlowStatePaymentProcessing
	case FlowStatePaymentProcessing:
		return next == FlowStateConfirmed ||
			next == FlowStateFailed
	case FlowStateFailed:
		return next == FlowStateSubmitting ||
			next == FlowStatePaymentProcessing
	case FlowStateConfirmed:
		return false
	default:
		return false
	}
}
