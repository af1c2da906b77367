package stripe

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/usetix/tix/internal/domain"
)

// PaymentClient opens payment intents with Stripe. Amounts arrive as
// decimals and leave in minor units (cents).
type PaymentClient struct {
	api *client.API
}

func NewPaymentClient(secretKey string) *PaymentClient {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &PaymentClient{api: api}
}

// EnsureCustomer reuses the stored customer id, or registers the user
// with Stripe on first payment.
func (c *PaymentClient) EnsureCustomer(ctx context.Context, customerID, email, name string) (string, error) {
	if customerID != "" {
		return customerID, nil
	}
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	customer, err := c.api.Customers.New(params)
	if err != nil {
		return "", errors.Mark(err, domain.ErrPaymentProcessing)
	}
	return customer.ID, nil
}

func (c *PaymentClient) CreateIntent(ctx context.Context, customerID string, amount decimal.Decimal, currency string, metadata map[string]string) (string, string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount.Mul(decimal.NewFromInt(100)).IntPart()),
		Currency: stripe.String(currency),
	}
	if customerID != "" {
		params.Customer = stripe.String(customerID)
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	intent, err := c.api.PaymentIntents.New(params)
	if err != nil {
		// Keep the processor's message visible to the caller.
		return "", "", errors.Mark(err, domain.ErrPaymentProcessing)
	}
	return intent.ID, intent.ClientSecret, nil
}
