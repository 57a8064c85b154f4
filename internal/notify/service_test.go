package notify

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printveda/printveda-backend/pkg/db/models"
	"github.com/printveda/printveda-backend/pkg/enums"
	"github.com/printveda/printveda-backend/pkg/logger"
	"github.com/printveda/printveda-backend/pkg/mailer"
)

type recordingSender struct {
	sent []mailer.Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func confirmationOrder() models.Order {
	return models.Order{
		TransactionID:    "PV20260821120000aabbccddeeff",
		CustomerName:     "Asha",
		CustomerEmail:    "asha@example.com",
		ItemsDescription: "Vase x1",
		Amount:           decimal.NewFromFloat(499.5),
		PaymentMethod:    enums.PaymentMethodCOD,
		Address:          "12 MG Road, Pune",
	}
}

func TestOrderConfirmationSends(t *testing.T) {
	sender := &recordingSender{}
	svc, err := NewService(sender, testLogger())
	require.NoError(t, err)
	svc.wait = true

	svc.OrderConfirmation(context.Background(), confirmationOrder())

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "asha@example.com", msg.To)
	assert.Contains(t, msg.Subject, "PV20260821120000aabbccddeeff")
	assert.Contains(t, msg.TextBody, "₹499.50")
	assert.Contains(t, msg.TextBody, "Vase x1")
}

func TestOrderConfirmationSwallowsSendFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("sendgrid 503")}
	svc, err := NewService(sender, testLogger())
	require.NoError(t, err)
	svc.wait = true

	// must not panic or propagate
	svc.OrderConfirmation(context.Background(), confirmationOrder())
	assert.Empty(t, sender.sent)
}

func TestOrderConfirmationNilSenderIsNoOp(t *testing.T) {
	svc, err := NewService(nil, testLogger())
	require.NoError(t, err)
	svc.wait = true

	svc.OrderConfirmation(context.Background(), confirmationOrder())
}
