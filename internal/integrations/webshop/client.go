// Package webshop fronts the payment provider. A paid reservation gets
// a checkout order here and waits for the payment before confirmation;
// cancelling a reservation expires its outstanding order.
package webshop

import (
	"context"

	"booking-core/internal/pkg/config"
	"booking-core/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

type Client struct {
	successURL string
	cancelURL  string
}

func NewClient(cfg config.WebshopConfig) *Client {
	stripe.Key = cfg.StripeAPIKey
	return &Client{
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
	}
}

func (c *Client) CreateOrder(ctx context.Context, reservationID uuid.UUID, amountCents int64, description string) (string, string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(reservationID.String()),
		SuccessURL:        stripe.String(c.successURL),
		CancelURL:         stripe.String(c.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyEUR)),
					UnitAmount: stripe.Int64(amountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		return "", "", errs.Wrap(err, "failed to create checkout session")
	}
	return s.ID, s.URL, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx

	if _, err := session.Expire(orderID, params); err != nil {
		return errs.Wrap(err, "failed to expire checkout session")
	}
	return nil
}
