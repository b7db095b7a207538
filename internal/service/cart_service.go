package service

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/analytica/storefront/internal/domain"
	"github.com/analytica/storefront/internal/session"
	"github.com/analytica/storefront/pkg/errors"
)

// CartBackend is the cart half of the shopping service
type CartBackend interface {
	GetCart(ctx context.Context, sess session.Session) ([]domain.CartLine, error)
	AddToCart(ctx context.Context, sess session.Session, productID string, qty int) error
	PutQuantity(ctx context.Context, sess session.Session, productID string, qty int) error
	DeleteLine(ctx context.Context, sess session.Session, productID string) error
}

// CatalogBackend is the read-only catalog half of the shopping service
type CatalogBackend interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

type CartService struct {
	cart    CartBackend
	catalog CatalogBackend
	counter *CartCounter
	sfg     singleflight.Group // coalesces concurrent catalog loads
	logger  *zap.Logger
	now     func() time.Time
}

// NewCartService creates the cart store accessor
func NewCartService(cart CartBackend, catalog CatalogBackend, counter *CartCounter, logger *zap.Logger) *CartService {
	return &CartService{
		cart:    cart,
		catalog: catalog,
		counter: counter,
		logger:  logger,
		now:     time.Now,
	}
}

// FetchCart returns the user's cart lines. An invalid or expired session
// fails with *errors.ErrUnauthenticated before any call is made.
func (s *CartService) FetchCart(ctx context.Context, sess session.Session) ([]domain.CartLine, error) {
	if !sess.Valid(s.now()) {
		return nil, &errors.ErrUnauthenticated{}
	}

	raw, err := s.cart.GetCart(ctx, sess)
	if err != nil {
		return nil, normalizeRemote(err, "shopping")
	}

	lines := make([]domain.CartLine, 0, len(raw))
	for _, line := range raw {
		if line.Quantity < 1 {
			continue
		}
		lines = append(lines, line)
	}

	s.counter.Publish(sess.UserID, countItems(lines))
	return lines, nil
}

// ResolveLineItems joins cart lines with the catalog. Lines whose product
// is not in the catalog are dropped so one stale reference does not block
// the whole cart view.
func (s *CartService) ResolveLineItems(ctx context.Context, lines []domain.CartLine) ([]domain.DisplayLineItem, error) {
	items := make([]domain.DisplayLineItem, 0, len(lines))
	if len(lines) == 0 {
		return items, nil
	}

	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			s.logger.Debug("Dropping cart line for unknown product", zap.String("product_id", line.ProductID))
			continue
		}
		items = append(items, domain.DisplayLineItem{
			ProductID:   line.ProductID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    line.Quantity,
		})
	}

	return items, nil
}

// LoadCart fetches and resolves the cart in one step
func (s *CartService) LoadCart(ctx context.Context, sess session.Session) ([]domain.DisplayLineItem, error) {
	lines, err := s.FetchCart(ctx, sess)
	if err != nil {
		return nil, err
	}
	return s.ResolveLineItems(ctx, lines)
}

// Products returns the catalog. Concurrent callers share one request,
// which is not tied to any caller's context and is bounded by the backend
// client timeout. A caller whose context ends stops waiting without
// failing the others.
func (s *CartService) Products(ctx context.Context) ([]domain.Product, error) {
	ch := s.sfg.DoChan("catalog", func() (interface{}, error) {
		return s.catalog.ListProducts(context.Background())
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, normalizeRemote(res.Err, "shopping")
		}
		return res.Val.([]domain.Product), nil
	}
}

// AddItem adds qty units of a product to the cart
func (s *CartService) AddItem(ctx context.Context, sess session.Session, productID string, qty int) error {
	if !sess.Valid(s.now()) {
		return &errors.ErrUnauthenticated{}
	}
	if qty < 1 {
		return &errors.ErrValidation{Fields: []string{"quantity"}}
	}
	if err := s.cart.AddToCart(ctx, sess, productID, qty); err != nil {
		return normalizeRemote(err, "shopping")
	}
	s.refreshCount(ctx, sess)
	return nil
}

// SetQuantity upserts a line; a quantity of zero or less removes it
func (s *CartService) SetQuantity(ctx context.Context, sess session.Session, productID string, qty int) error {
	if qty <= 0 {
		return s.RemoveLine(ctx, sess, productID)
	}
	if !sess.Valid(s.now()) {
		return &errors.ErrUnauthenticated{}
	}
	if err := s.cart.PutQuantity(ctx, sess, productID, qty); err != nil {
		return normalizeRemote(err, "shopping")
	}
	s.refreshCount(ctx, sess)
	return nil
}

// RemoveLine removes a line. Removing an absent line succeeds.
func (s *CartService) RemoveLine(ctx context.Context, sess session.Session, productID string) error {
	if !sess.Valid(s.now()) {
		return &errors.ErrUnauthenticated{}
	}
	err := s.cart.DeleteLine(ctx, sess, productID)
	var remote *errors.ErrRemote
	if stderrors.As(err, &remote) && remote.StatusCode == http.StatusNotFound {
		err = nil
	}
	if err != nil {
		return normalizeRemote(err, "shopping")
	}
	s.refreshCount(ctx, sess)
	return nil
}

// refreshCount re-reads the cart so subscribers of the counter see the
// new item count. A failed refresh leaves the previous count in place.
func (s *CartService) refreshCount(ctx context.Context, sess session.Session) {
	if _, err := s.FetchCart(ctx, sess); err != nil {
		s.logger.Warn("Failed to refresh cart count", zap.String("user_id", sess.UserID), zap.Error(err))
	}
}

func countItems(lines []domain.CartLine) int {
	total := 0
	for _, line := range lines {
		total += line.Quantity
	}
	return total
}

// normalizeRemote folds unexpected statuses of the cart endpoints into
// unavailability; the cart view has no business rejections to surface.
func normalizeRemote(err error, service string) error {
	var remote *errors.ErrRemote
	if stderrors.As(err, &remote) {
		return &errors.ErrUnavailable{Service: service, Err: remote}
	}
	return err
}
