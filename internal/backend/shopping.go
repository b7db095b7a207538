package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/analytica/storefront/internal/domain"
	"github.com/analytica/storefront/internal/session"
)

// ShoppingClient talks to the shopping service (catalog and cart)
type ShoppingClient struct {
	client *Client
}

func NewShoppingClient(client *Client) *ShoppingClient {
	return &ShoppingClient{client: client}
}

// ListProducts returns the full catalog
func (s *ShoppingClient) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []productDTO
	if _, err := s.client.Execute(ctx, Request{Method: http.MethodGet, Path: "/products"}, &products); err != nil {
		return nil, err
	}

	result := make([]domain.Product, 0, len(products))
	for _, p := range products {
		result = append(result, domain.Product{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       decimal.NewFromFloat(p.Price),
			OwnerID:     p.UserID,
		})
	}
	return result, nil
}

// GetCart returns the raw cart lines of the session's user
func (s *ShoppingClient) GetCart(ctx context.Context, sess session.Session) ([]domain.CartLine, error) {
	var cart cartDTO
	_, err := s.client.Execute(ctx, Request{
		Method:  http.MethodGet,
		Path:    "/cart",
		Session: &sess,
	}, &cart)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.CartLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, domain.CartLine{ProductID: item.ProductID, Quantity: item.Qty})
	}
	return lines, nil
}

// AddToCart adds qty units of a product on top of what is already in the cart
func (s *ShoppingClient) AddToCart(ctx context.Context, sess session.Session, productID string, qty int) error {
	_, err := s.client.Execute(ctx, Request{
		Method:  http.MethodPost,
		Path:    "/cart",
		Session: &sess,
		Body:    cartQuantityRequest{ProductID: productID, Qty: qty},
	}, nil)
	return err
}

// PutQuantity sets the absolute quantity of a cart line
func (s *ShoppingClient) PutQuantity(ctx context.Context, sess session.Session, productID string, qty int) error {
	_, err := s.client.Execute(ctx, Request{
		Method:  http.MethodPut,
		Path:    "/cart",
		Session: &sess,
		Body:    cartQuantityRequest{ProductID: productID, Qty: qty},
	}, nil)
	return err
}

// DeleteLine removes a product from the cart
func (s *ShoppingClient) DeleteLine(ctx context.Context, sess session.Session, productID string) error {
	_, err := s.client.Execute(ctx, Request{
		Method:  http.MethodDelete,
		Path:    "/cart/" + url.PathEscape(productID),
		Session: &sess,
	}, nil)
	return err
}
