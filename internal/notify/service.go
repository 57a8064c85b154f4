package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/printveda/printveda-backend/pkg/db/models"
	"github.com/printveda/printveda-backend/pkg/logger"
	"github.com/printveda/printveda-backend/pkg/mailer"
)

const sendTimeout = 20 * time.Second

// Service dispatches transactional mail off the request path. Every send is
// best-effort: failures are logged and swallowed, never returned to the
// caller. A nil sender degrades to a logged no-op.
type Service struct {
	sender mailer.Sender
	logg   *logger.Logger
	// wait is set in tests to make dispatch synchronous.
	wait bool
}

func NewService(sender mailer.Sender, logg *logger.Logger) (*Service, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{sender: sender, logg: logg}, nil
}

// OrderConfirmation emails the customer that the order was placed. Returns
// immediately; the send runs on its own bounded context so it survives the
// request ending.
func (s *Service) OrderConfirmation(ctx context.Context, order models.Order) {
	if s.sender == nil {
		s.logg.Info(ctx, "mail sender not configured, skipping confirmation")
		return
	}
	msg := composeOrderConfirmation(order)
	ctx = s.logg.WithTransactionID(context.WithoutCancel(ctx), order.TransactionID)
	send := func() {
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		defer cancel()
		if err := s.sender.Send(sendCtx, msg); err != nil {
			s.logg.Error(ctx, "sending order confirmation", err)
			return
		}
		s.logg.Info(ctx, "order confirmation sent")
	}
	if s.wait {
		send()
		return
	}
	go send()
}

func composeOrderConfirmation(order models.Order) mailer.Message {
	body := fmt.Sprintf(
		"Hi %s,\n\nThanks for your order!\n\nOrder reference: %s\nItems: %s\nAmount: ₹%s\nPayment method: %s\nDelivery address: %s\n\nWe will notify you when your order ships.\n\n— PrintVeda",
		order.CustomerName,
		order.TransactionID,
		order.ItemsDescription,
		order.Amount.StringFixed(2),
		order.PaymentMethod,
		order.Address,
	)
	return mailer.Message{
		To:       order.CustomerEmail,
		Subject:  fmt.Sprintf("Your PrintVeda order %s is confirmed", order.TransactionID),
		TextBody: body,
	}
}
