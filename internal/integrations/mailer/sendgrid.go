// Package mailer notifies the operations inbox about reservations and
// applications that need a human decision.
package mailer

import (
	"context"
	"fmt"

	"booking-core/internal/pkg/config"
	"booking-core/internal/pkg/errs"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Client struct {
	client *sendgrid.Client
	from   *mail.Email
	to     *mail.Email
}

func NewClient(cfg config.MailConfig) *Client {
	return &Client{
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:   mail.NewEmail(cfg.FromName, cfg.FromAddress),
		to:     mail.NewEmail(cfg.OpsName, cfg.OpsAddress),
	}
}

func (c *Client) Send(ctx context.Context, subject, body string) error {
	message := mail.NewSingleEmail(c.from, subject, c.to, body, "")

	resp, err := c.client.SendWithContext(ctx, message)
	if err != nil {
		return errs.Wrap(err, "failed to send mail")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errs.New(fmt.Sprintf("mail provider returned status %d", resp.StatusCode))
	}
	return nil
}
