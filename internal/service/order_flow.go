package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/analytica/storefront/internal/domain"
	"github.com/analytica/storefront/internal/repository"
	"github.com/analytica/storefront/internal/session"
	"github.com/analytica/storefront/pkg/errors"
)

// Flow event types recorded in the audit log
const (
	EventCheckoutSubmitted = "checkout_submitted"
	EventCheckoutFailed    = "checkout_failed"
	EventPaymentSubmitted  = "payment_submitted"
	EventPaymentFailed     = "payment_failed"
	EventPaymentConfirmed  = "payment_confirmed"
)

// CheckoutBackend converts an order snapshot into a persisted order
type CheckoutBackend interface {
	SubmitOrder(ctx context.Context, sess session.Session, order *domain.OrderSubmission) (*domain.OrderConfirmation, error)
}

// PaymentBackend pays for an accepted order
type PaymentBackend interface {
	SubmitPayment(ctx context.Context, sess session.Session, payment *domain.PaymentSubmission) (*domain.PaymentReceipt, error)
}

// Flow is the working state of one checkout/payment attempt. Whatever the
// user entered stays on the flow after a failure so the form can be
// rendered again without re-entry.
//
// AttemptID identifies the checkout submission to the checkout service.
// It survives resubmits of the same form and unanswered calls, and is
// replaced once the service has rejected the attempt.
type Flow struct {
	State     domain.FlowState
	AttemptID uuid.UUID
	Order    *domain.OrderSubmission
	OrderID  string
	Amount   decimal.Decimal
	Currency string

	Provider       domain.Provider
	PaymentDetails map[string]string
	PaymentID      string

	Err error
}

// NewFlow starts a flow before checkout
func NewFlow() *Flow {
	return &Flow{State: domain.FlowStateIdle, AttemptID: uuid.New()}
}

// ContinueFlow starts a flow for a checkout form rendered earlier, reusing
// its attempt id so a repeated submit reaches the service as the same attempt
func ContinueFlow(attemptID uuid.UUID) *Flow {
	flow := NewFlow()
	if attemptID != uuid.Nil {
		flow.AttemptID = attemptID
	}
	return flow
}

// ResumePayment rebuilds a flow from the transfer state carried to the
// payment step: the order exists and is waiting to be paid.
func ResumePayment(orderID string, amount decimal.Decimal, currency string) *Flow {
	return &Flow{
		State:    domain.FlowStateAwaitingPayment,
		OrderID:  orderID,
		Amount:   amount,
		Currency: currency,
	}
}

func (f *Flow) transition(to domain.FlowState) error {
	if !f.State.CanTransitionTo(to) {
		return &errors.ErrInvalidStateTransition{From: f.State, To: to}
	}
	f.State = to
	return nil
}

type OrderFlowService struct {
	builder  *OrderBuilder
	checkout CheckoutBackend
	payment  PaymentBackend
	events   repository.FlowEventRepository
	guard    *InFlight
	logger   *zap.Logger
	now      func() time.Time
}

// NewOrderFlowService creates the checkout/payment orchestrator
func NewOrderFlowService(
	builder *OrderBuilder,
	checkout CheckoutBackend,
	payment PaymentBackend,
	events repository.FlowEventRepository,
	guard *InFlight,
	logger *zap.Logger,
) *OrderFlowService {
	return &OrderFlowService{
		builder:  builder,
		checkout: checkout,
		payment:  payment,
		events:   events,
		guard:    guard,
		logger:   logger,
		now:      time.Now,
	}
}

// Builder exposes the order builder for pages that preview totals
func (s *OrderFlowService) Builder() *OrderBuilder {
	return s.builder
}

// SubmitCheckout builds the order and submits it to the checkout service.
// Input errors leave the flow untouched and make no call. On success the
// flow waits for payment with the order id, amount and currency set.
func (s *OrderFlowService) SubmitCheckout(
	ctx context.Context,
	sess session.Session,
	flow *Flow,
	lines []domain.DisplayLineItem,
	orderType domain.OrderType,
	addr *domain.DeliveryAddress,
) error {
	if flow.OrderID != "" || !flow.State.CanTransitionTo(domain.FlowStateSubmitting) {
		return &errors.ErrInvalidStateTransition{From: flow.State, To: domain.FlowStateSubmitting}
	}
	if !sess.Valid(s.now()) {
		return &errors.ErrUnauthenticated{}
	}

	if flow.AttemptID == uuid.Nil {
		flow.AttemptID = uuid.New()
	}
	order, err := s.builder.Build(flow.AttemptID, sess.UserID, lines, orderType, addr)
	if err != nil {
		return err
	}

	release, err := s.guard.Acquire(CheckoutKey(sess.UserID))
	if err != nil {
		return err
	}
	defer release()

	if err := flow.transition(domain.FlowStateSubmitting); err != nil {
		return err
	}
	flow.Order = order
	flow.Err = nil

	s.logger.Info("Submitting order",
		zap.String("user_id", sess.UserID),
		zap.String("attempt_id", order.AttemptID.String()),
		zap.String("order_type", string(order.OrderType)),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)),
	)

	confirmation, err := s.checkout.SubmitOrder(ctx, sess, order)
	if err != nil {
		flow.Err = err
		_ = flow.transition(domain.FlowStateFailed)
		if errors.IsCheckoutRejected(err) {
			flow.AttemptID = uuid.New()
		}
		s.logger.Warn("Checkout failed", zap.String("user_id", sess.UserID), zap.Error(err))
		s.record(ctx, sess.UserID, "", EventCheckoutFailed, map[string]interface{}{
			"attempt_id": order.AttemptID.String(),
			"error":      err.Error(),
		})
		return err
	}

	flow.OrderID = confirmation.OrderID
	flow.Amount = order.TotalAmount
	flow.Currency = order.Currency
	if err := flow.transition(domain.FlowStateAwaitingPayment); err != nil {
		return err
	}

	if !confirmation.TotalAmount.IsZero() && !confirmation.TotalAmount.Equal(order.TotalAmount) {
		s.logger.Warn("Checkout echoed a different total",
			zap.String("order_id", confirmation.OrderID),
			zap.String("submitted", order.TotalAmount.StringFixed(2)),
			zap.String("echoed", confirmation.TotalAmount.StringFixed(2)),
		)
	}

	s.record(ctx, sess.UserID, confirmation.OrderID, EventCheckoutSubmitted, map[string]interface{}{
		"attempt_id":   order.AttemptID.String(),
		"order_type":   string(order.OrderType),
		"total_amount": order.TotalAmount.StringFixed(2),
		"currency":     order.Currency,
	})

	return nil
}

// SubmitPayment pays for the flow's order. The provider and details are
// kept on the flow whether or not the payment goes through, and a failed
// payment keeps the order id so it can be retried.
func (s *OrderFlowService) SubmitPayment(
	ctx context.Context,
	sess session.Session,
	flow *Flow,
	provider domain.Provider,
	details map[string]string,
) error {
	flow.Provider = provider
	flow.PaymentDetails = copyDetails(details)

	if flow.OrderID == "" || !flow.State.CanTransitionTo(domain.FlowStatePaymentProcessing) {
		return &errors.ErrInvalidStateTransition{From: flow.State, To: domain.FlowStatePaymentProcessing}
	}
	if !sess.Valid(s.now()) {
		return &errors.ErrUnauthenticated{}
	}

	payment, err := s.builder.BuildPayment(flow.OrderID, sess.UserID, flow.Amount, flow.Currency, provider, details)
	if err != nil {
		return err
	}

	release, err := s.guard.Acquire(PaymentKey(sess.UserID, flow.OrderID))
	if err != nil {
		return err
	}
	defer release()

	if err := flow.transition(domain.FlowStatePaymentProcessing); err != nil {
		return err
	}
	flow.Err = nil

	s.logger.Info("Submitting payment",
		zap.String("user_id", sess.UserID),
		zap.String("order_id", flow.OrderID),
		zap.String("provider", string(provider)),
		zap.String("amount", flow.Amount.StringFixed(2)),
	)

	receipt, err := s.payment.SubmitPayment(ctx, sess, payment)
	if err != nil {
		flow.Err = err
		_ = flow.transition(domain.FlowStateFailed)
		s.logger.Warn("Payment failed", zap.String("order_id", flow.OrderID), zap.Error(err))
		s.record(ctx, sess.UserID, flow.OrderID, EventPaymentFailed, map[string]interface{}{
			"provider": string(provider),
			"error":    err.Error(),
		})
		return err
	}

	flow.PaymentID = receipt.PaymentID
	if err := flow.transition(domain.FlowStateConfirmed); err != nil {
		return err
	}

	// flow.Amount came from the client with the transfer state
	if !receipt.Amount.IsZero() && !receipt.Amount.Equal(payment.Amount) {
		s.logger.Warn("Payment echoed a different amount",
			zap.String("order_id", flow.OrderID),
			zap.String("payment_id", receipt.PaymentID),
			zap.String("submitted", payment.Amount.StringFixed(2)),
			zap.String("echoed", receipt.Amount.StringFixed(2)),
		)
	}

	s.record(ctx, sess.UserID, flow.OrderID, EventPaymentSubmitted, map[string]interface{}{
		"provider": string(provider),
		"amount":   flow.Amount.StringFixed(2),
		"currency": flow.Currency,
	})
	s.record(ctx, sess.UserID, flow.OrderID, EventPaymentConfirmed, map[string]interface{}{
		"payment_id": receipt.PaymentID,
		"status":     receipt.Status,
	})

	return nil
}

// Run performs checkout and payment back to back. The payment call is only
// made once the checkout succeeded.
func (s *OrderFlowService) Run(
	ctx context.Context,
	sess session.Session,
	lines []domain.DisplayLineItem,
	orderType domain.OrderType,
	addr *domain.DeliveryAddress,
	provider domain.Provider,
	details map[string]string,
) (*Flow, error) {
	flow := NewFlow()
	if err := s.SubmitCheckout(ctx, sess, flow, lines, orderType, addr); err != nil {
		return flow, err
	}
	if err := s.SubmitPayment(ctx, sess, flow, provider, details); err != nil {
		return flow, err
	}
	return flow, nil
}

// History returns the transitions userID recorded for an order. An order
// with no events visible to the user is *errors.ErrNotFound.
func (s *OrderFlowService) History(ctx context.Context, userID, orderID string) ([]*domain.FlowEvent, error) {
	var events []*domain.FlowEvent
	if s.events != nil {
		all, err := s.events.ListByOrderID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		for _, event := range all {
			if event.UserID == userID {
				events = append(events, event)
			}
		}
	}
	if len(events) == 0 {
		return nil, &errors.ErrNotFound{Resource: "order", ID: orderID}
	}
	return events, nil
}

// record never fails the flow; the audit log is best effort
func (s *OrderFlowService) record(ctx context.Context, userID, orderID, eventType string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	event := &domain.FlowEvent{
		UserID:    userID,
		OrderID:   orderID,
		EventType: eventType,
		EventData: data,
	}
	if err := s.events.Create(ctx, event); err != nil {
		s.logger.Error("Failed to record flow event",
			zap.String("event_type", eventType),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}
}

func copyDetails(details map[string]string) map[string]string {
	out := make(map[string]string, len(details))
	for k, v := range details {
		out[k] = v
	}
	return out
}
