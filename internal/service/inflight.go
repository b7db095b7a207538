package service

import (
	"sync"

	"github.com/analytica/storefront/pkg/errors"
)

// InFlight rejects a second request for a resource while the first one is
// still outstanding. It is the server-side counterpart of disabling the
// button that triggered the request.
type InFlight struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewInFlight() *InFlight {
	return &InFlight{active: make(map[string]struct{})}
}

// Acquire claims key; the returned func releases it
func (g *InFlight) Acquire(key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.active[key]; busy {
		return nil, &errors.ErrBusy{Resource: key}
	}
	g.active[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, key)
			g.mu.Unlock()
		})
	}, nil
}

// LineKey identifies one cart line of one user
func LineKey(userID, productID string) string {
	return userID + ":line:" + productID
}

// CheckoutKey identifies the checkout submit of one user
func CheckoutKey(userID string) string {
	return userID + ":checkout"
}

// PaymentKey identifies the payment submit of one order
func PaymentKey(userID, orderID string) string {
	return userID + ":payment:" + orderID
}
