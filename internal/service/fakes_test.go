package service

import (
	"context"
	"sync"

	"github.com/analytica/storefront/internal/domain"
	"github.com/analytica/storefront/internal/session"
	"github.com/analytica/storefront/pkg/errors"
)

var testSession = session.Session{Token: "token", UserID: "u-1"}

// fakeCart keeps one cart per user in memory, in insertion order
type fakeCart struct {
	mu      sync.Mutex
	lines   map[string][]domain.CartLine
	err     error
	deletes []string
	calls   int
}

func newFakeCart(lines ...domain.CartLine) *fakeCart {
	return &fakeCart{lines: map[string][]domain.CartLine{testSession.UserID: lines}}
}

func (f *fakeCart) GetCart(_ context.Context, sess session.Session) ([]domain.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.CartLine, len(f.lines[sess.UserID]))
	copy(out, f.lines[sess.UserID])
	return out, nil
}

func (f *fakeCart) AddToCart(_ context.Context, sess session.Session, productID string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	for i, line := range f.lines[sess.UserID] {
		if line.ProductID == productID {
			f.lines[sess.UserID][i].Quantity += qty
			return nil
		}
	}
	f.lines[sess.UserID] = append(f.lines[sess.UserID], domain.CartLine{ProductID: productID, Quantity: qty})
	return nil
}

func (f *fakeCart) PutQuantity(_ context.Context, sess session.Session, productID string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	for i, line := range f.lines[sess.UserID] {
		if line.ProductID == productID {
			f.lines[sess.UserID][i].Quantity = qty
			return nil
		}
	}
	f.lines[sess.UserID] = append(f.lines[sess.UserID], domain.CartLine{ProductID: productID, Quantity: qty})
	return nil
}

func (f *fakeCart) DeleteLine(_ context.Context, sess session.Session, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.deletes = append(f.deletes, productID)
	lines := f.lines[sess.UserID]
	for i, line := range lines {
		if line.ProductID == productID {
			f.lines[sess.UserID] = append(lines[:i], lines[i+1:]...)
			return nil
		}
	}
	return &errors.ErrRemote{Service: "shopping", StatusCode: 404, Message: "item not found"}
}

type fakeCatalog struct {
	mu       sync.Mutex
	products []domain.Product
	err      error
	calls    int
}

func (f *fakeCatalog) ListProducts(_ context.Context) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

type fakeCheckout struct {
	calls  int
	orders []*domain.OrderSubmission
	result *domain.OrderConfirmation
	err    error
	block  chan struct{}
}

func (f *fakeCheckout) SubmitOrder(_ context.Context, _ session.Session, order *domain.OrderSubmission) (*domain.OrderConfirmation, error) {
	f.calls++
	f.orders = append(f.orders, order)
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakePayment struct {
	calls    int
	payments []*domain.PaymentSubmission
	result   *domain.PaymentReceipt
	err      error
}

func (f *fakePayment) SubmitPayment(_ context.Context, _ session.Session, payment *domain.PaymentSubmission) (*domain.PaymentReceipt, error) {
	f.calls++
	f.payments = append(f.payments, payment)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []*domain.FlowEvent
}

func (f *fakeEvents) Create(_ context.Context, event *domain.FlowEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEvents) ListByOrderID(_ context.Context, orderID string) ([]*domain.FlowEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.FlowEvent
	for _, e := range f.events {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.EventType
	}
	return out
}
