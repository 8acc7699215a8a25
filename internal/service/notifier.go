package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/sashvara/storefront_api/internal/config"
	"github.com/sashvara/storefront_api/internal/models"
)

// OrderNotifier tells a customer their payment went through.
type OrderNotifier interface {
	OrderPaid(ctx context.Context, o *models.Order) error
}

// MailNotifier sends order mails through SendGrid. Without an API key it only logs.
type MailNotifier struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

// NewMailNotifier creates a MailNotifier.
func NewMailNotifier(cfg *config.SendGridConfig) *MailNotifier {
	n := &MailNotifier{fromName: cfg.FromName, fromEmail: cfg.FromEmail}
	if cfg.APIKey != "" {
		n.client = sendgrid.NewSendClient(cfg.APIKey)
	}
	return n
}

// OrderPaid sends the payment confirmation for o.
func (n *MailNotifier) OrderPaid(ctx context.Context, o *models.Order) error {
	if o.Email == "" {
		return nil
	}
	if n.client == nil {
		log.Debug().Str("order_id", o.ID.Hex()).Msg("mail disabled, skipping payment confirmation")
		return nil
	}

	subject := fmt.Sprintf("Order %s confirmed", o.ID.Hex())
	text, html := paymentMailBody(o)
	msg := mail.NewSingleEmail(
		mail.NewEmail(n.fromName, n.fromEmail),
		subject,
		mail.NewEmail(o.FullName(), o.Email),
		text, html,
	)

	resp, err := n.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("send payment mail: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("send payment mail: status %d: %s", resp.StatusCode, resp.Body)
	}
	log.Info().Str("order_id", o.ID.Hex()).Int("status", resp.StatusCode).Msg("payment confirmation sent")
	return nil
}

func paymentMailBody(o *models.Order) (text, html string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nWe received your payment of %s for order %s.\n\n",
		o.FirstName, formatAmount(o.Currency, o.AmountPaid), o.ID.Hex())
	for _, item := range o.CartItems {
		fmt.Fprintf(&b, "- %s", item.Name)
		if item.Size != "" {
			fmt.Fprintf(&b, " (%s)", item.Size)
		}
		fmt.Fprintf(&b, " x%d\n", item.Qty)
	}
	fmt.Fprintf(&b, "\nOrder total: %s\n", formatAmount(o.Currency, o.Total))
	text = b.String()
	html = "<pre>" + text + "</pre>"
	return text, html
}
