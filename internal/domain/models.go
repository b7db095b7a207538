package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry owned by the shopping service
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	OwnerID     string
}

// CartLine is one product/quantity pair of the user's cart.
// Quantity is always >= 1; a zero line is removed, never stored.
type CartLine struct {
	ProductID string
	Quantity  int
}

// DisplayLineItem is a cart line joined with catalog data
type DisplayLineItem struct {
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// LineTotal is recomputed from the current price on every call
func (i DisplayLineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// DeliveryAddress is only meaningful for delivery orders
type DeliveryAddress struct {
	CustomerName  string
	CustomerPhone string
	Street        string
	HouseNumber   string
	PostalCode    string
	City          string
	Floor         string
	Instructions  string
}

// OrderSubmission is the immutable snapshot sent to the checkout service
type OrderSubmission struct {
	AttemptID   uuid.UUID
	UserID      string
	Items       []DisplayLineItem
	TotalAmount decimal.Decimal
	Currency    string
	OrderType   OrderType
	Delivery    *DeliveryAddress
}

// OrderConfirmation is the checkout service's answer to an OrderSubmission
type OrderConfirmation struct {
	OrderID     string
	Status      string
	OrderType   OrderType
	TotalAmount decimal.Decimal
	Currency    string
	CreatedAt   time.Time
}

// PaymentSubmission can only exist for an order the checkout service accepted
type PaymentSubmission struct {
	OrderID  string
	UserID   string
	Provider Provider
	Amount   decimal.Decimal
	Currency string
	Details  map[string]string
}

// PaymentReceipt is the payment service's answer to a PaymentSubmission
type PaymentReceipt struct {
	PaymentID string
	Status    string
	Provider  Provider
	Amount    decimal.Decimal
	Currency  string
}

// FlowEvent is an audit record of one order flow transition
type FlowEvent struct {
	ID        uuid.UUID
	UserID    string
	OrderID   string
	EventType string
	EventData map[string]interface{} // JSONB
	CreatedAt time.Time
}
