package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/analytica/storefront/internal/domain"
	"github.com/analytica/storefront/internal/session"
	"github.com/analytica/storefront/pkg/errors"
)

// PaymentClient submits payments to the payment service
type PaymentClient struct {
	client *Client
}

func NewPaymentClient(client *Client) *PaymentClient {
	return &PaymentClient{client: client}
}

// SubmitPayment sends the payment for an accepted order
func (p *PaymentClient) SubmitPayment(ctx context.Context, sess session.Session, payment *domain.PaymentSubmission) (*domain.PaymentReceipt, error) {
	req := paymentRequest{
		OrderID:        payment.OrderID,
		UserID:         payment.UserID,
		Provider:       string(payment.Provider),
		Amount:         payment.Amount.Round(2).InexactFloat64(),
		Currency:       payment.Currency,
		PaymentDetails: payment.Details,
	}

	var resp paymentResponse
	_, err := p.client.Execute(ctx, Request{
		Method:  http.MethodPost,
		Path:    "/payments",
		Session: &sess,
		Body:    req,
	}, &resp)
	if err != nil {
		return nil, rejection(err, "payment", func(msg string) error {
			return &errors.ErrPaymentRejected{Message: msg}
		})
	}

	if resp.ID == "" {
		return nil, &errors.ErrUnavailable{Service: "payment", Err: fmt.Errorf("response has no payment id")}
	}

	return &domain.PaymentReceipt{
		PaymentID: resp.ID,
		Status:    resp.Status,
		Provider:  domain.Provider(resp.Provider),
		Amount:    decimal.NewFromFloat(resp.Amount),
		Currency:  resp.Currency,
	}, nil
}
