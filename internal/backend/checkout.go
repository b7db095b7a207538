package backend

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/analytica/storefront/internal/domain"
	"github.com/analytica/storefront/internal/session"
	"github.com/analytica/storefront/pkg/errors"
)

// CheckoutClient submits orders to the checkout service
type CheckoutClient struct {
	client *Client
}

func NewCheckoutClient(client *Client) *CheckoutClient {
	return &CheckoutClient{client: client}
}

// SubmitOrder sends the snapshot and returns the server-assigned order.
// The attempt id travels as Idempotency-Key; a resubmit of the same
// checkout form carries the same id.
func (c *CheckoutClient) SubmitOrder(ctx context.Context, sess session.Session, order *domain.OrderSubmission) (*domain.OrderConfirmation, error) {
	req := checkoutRequest{
		UserID:      order.UserID,
		Items:       make([]checkoutItemDTO, 0, len(order.Items)),
		TotalAmount: order.TotalAmount.Round(2).InexactFloat64(),
		Currency:    order.Currency,
		OrderType:   string(order.OrderType),
	}
	for _, item := range order.Items {
		req.Items = append(req.Items, checkoutItemDTO{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.InexactFloat64(),
			TotalPrice:  item.LineTotal().Round(2).InexactFloat64(),
		})
	}
	if order.OrderType == domain.OrderTypeDelivery && order.Delivery != nil {
		d := order.Delivery
		req.DeliveryInfo = &deliveryInfoDTO{
			CustomerName:  d.CustomerName,
			CustomerPhone: d.CustomerPhone,
			Street:        d.Street,
			HouseNumber:   d.HouseNumber,
			PostalCode:    d.PostalCode,
			City:          d.City,
			Floor:         d.Floor,
			Instructions:  d.Instructions,
		}
	}

	header := http.Header{}
	header.Set("Idempotency-Key", order.AttemptID.String())

	var resp checkoutResponse
	_, err := c.client.Execute(ctx, Request{
		Method:  http.MethodPost,
		Path:    "/checkout",
		Session: &sess,
		Header:  header,
		Body:    req,
	}, &resp)
	if err != nil {
		return nil, rejection(err, "checkout", func(msg string) error {
			return &errors.ErrCheckoutRejected{Message: msg}
		})
	}

	if resp.OrderID == "" {
		return nil, &errors.ErrUnavailable{Service: "checkout", Err: fmt.Errorf("response has no order_id")}
	}

	confirmation := &domain.OrderConfirmation{
		OrderID:     resp.OrderID,
		Status:      resp.Status,
		OrderType:   domain.OrderType(resp.OrderType),
		TotalAmount: decimal.NewFromFloat(resp.TotalAmount),
		Currency:    resp.Currency,
	}
	if createdAt, err := time.Parse(time.RFC3339Nano, resp.CreatedAt); err == nil {
		confirmation.CreatedAt = createdAt
	}

	return confirmation, nil
}

// rejection maps a non-2xx response into the step's business rejection.
// A server error without a message tells the user nothing the service
// could act on, so it is reported as unavailability instead.
func rejection(err error, service string, reject func(string) error) error {
	var remote *errors.ErrRemote
	if !stderrors.As(err, &remote) {
		return err
	}
	if remote.Message == "" && remote.StatusCode >= http.StatusInternalServerError {
		return &errors.ErrUnavailable{Service: service, Err: remote}
	}
	return reject(remote.Message)
}
