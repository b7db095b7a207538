package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/analytica/storefront/internal/config"
	"github.com/analytica/storefront/internal/domain"
	"github.com/analytica/storefront/pkg/errors"
)

type OrderBuilder struct {
	currency  string
	surcharge decimal.Decimal
}

// NewOrderBuilder creates a builder for the configured currency and surcharge
func NewOrderBuilder(cfg config.OrderConfig) *OrderBuilder {
	return &OrderBuilder{
		currency:  cfg.Currency,
		surcharge: cfg.DeliverySurcharge,
	}
}

// Currency is the single currency every amount is expressed in
func (b *OrderBuilder) Currency() string {
	return b.currency
}

// Subtotal is the sum of all line totals
func (b *OrderBuilder) Subtotal(lines []domain.DisplayLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

// Surcharge is what the order type adds on top of the subtotal
func (b *OrderBuilder) Surcharge(orderType domain.OrderType) decimal.Decimal {
	if orderType == domain.OrderTypeDelivery {
		return b.surcharge
	}
	return decimal.Zero
}

// ComputeTotal is the subtotal plus the delivery surcharge for deliveries
func (b *OrderBuilder) ComputeTotal(lines []domain.DisplayLineItem, orderType domain.OrderType) decimal.Decimal {
	return b.Subtotal(lines).Add(b.Surcharge(orderType))
}

// Validate reports every empty required delivery field in form order.
// Pickup orders never look at the address.
func (b *OrderBuilder) Validate(orderType domain.OrderType, addr *domain.DeliveryAddress) error {
	if !orderType.IsValid() {
		return &errors.ErrValidation{Fields: []string{"order_type"}}
	}
	if orderType == domain.OrderTypePickup {
		return nil
	}

	if addr == nil {
		addr = &domain.DeliveryAddress{}
	}

	required := []struct {
		field string
		value string
	}{
		{"customer_name", addr.CustomerName},
		{"customer_phone", addr.CustomerPhone},
		{"street", addr.Street},
		{"house_number", addr.HouseNumber},
		{"postal_code", addr.PostalCode},
		{"city", addr.City},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return &errors.ErrValidation{Fields: missing}
	}
	return nil
}

// Build validates the input and returns an immutable order snapshot
// carrying attemptID, or a fresh one when attemptID is nil. The lines and
// the address are copied so later changes to the caller's values cannot
// alter a submitted order.
func (b *OrderBuilder) Build(attemptID uuid.UUID, userID string, lines []domain.DisplayLineItem, orderType domain.OrderType, addr *domain.DeliveryAddress) (*domain.OrderSubmission, error) {
	if len(lines) == 0 {
		return nil, &errors.ErrEmptyCart{}
	}
	if err := b.Validate(orderType, addr); err != nil {
		return nil, err
	}

	items := make([]domain.DisplayLineItem, len(lines))
	copy(items, lines)

	if attemptID == uuid.Nil {
		attemptID = uuid.New()
	}

	order := &domain.OrderSubmission{
		AttemptID:   attemptID,
		UserID:      userID,
		Items:       items,
		TotalAmount: b.ComputeTotal(items, orderType),
		Currency:    b.currency,
		OrderType:   orderType,
	}
	if orderType == domain.OrderTypeDelivery {
		delivery := *addr
		order.Delivery = &delivery
	}

	return order, nil
}

// BuildPayment validates the provider payload and returns the payment for
// an accepted order. Unknown payload keys are not forwarded.
func (b *OrderBuilder) BuildPayment(orderID, userID string, amount decimal.Decimal, currency string, provider domain.Provider, details map[string]string) (*domain.PaymentSubmission, error) {
	if !provider.IsValid() {
		return nil, &errors.ErrValidation{Fields: []string{"provider"}}
	}

	var missing []string
	payload := make(map[string]string)
	for _, field := range provider.RequiredFields() {
		value := strings.TrimSpace(details[field])
		if value == "" {
			missing = append(missing, field)
			continue
		}
		payload[field] = value
	}
	if len(missing) > 0 {
		return nil, &errors.ErrValidation{Fields: missing}
	}
	for _, field := range provider.OptionalFields() {
		if value := strings.TrimSpace(details[field]); value != "" {
			payload[field] = value
		}
	}

	return &domain.PaymentSubmission{
		OrderID:  orderID,
		UserID:   userID,
		Provider: provider,
		Amount:   amount,
		Currency: currency,
		Details:  payload,
	}, nil
}
