// Package billing provisions accepted migration discounts in Stripe so the
// downstream subscription change picks them up automatically. It is the
// only place the engine's output touches the payment provider, and it runs
// after a recommendation is accepted, never during analysis.
package billing

import (
	"context"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"

	"github.com/planvisor/pkg/models"
)

// Provisioner creates Stripe coupons from migration discounts.
type Provisioner struct {
	api *client.API
}

// NewProvisioner creates a provisioner with its own Stripe client.
func NewProvisioner(apiKey string) *Provisioner {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &Provisioner{api: api}
}

// ProvisionDiscount creates (or reuses, Stripe coupon IDs being idempotent
// per code) the coupon representing a migration discount and returns the
// Stripe coupon ID.
func (p *Provisioner) ProvisionDiscount(ctx context.Context, discount models.MigrationDiscount) (string, error) {
	params := &stripe.CouponParams{
		ID:   stripe.String(discount.Code),
		Name: stripe.String(discount.Description),
	}
	params.Context = ctx

	switch discount.Type {
	case models.DiscountPercentage:
		params.PercentOff = stripe.Float64(discount.Value)
	case models.DiscountFixedAmount:
		params.AmountOff = stripe.Int64(int64(math.Round(discount.Value * 100)))
		params.Currency = stripe.String(string(stripe.CurrencyUSD))
	default:
		return "", fmt.Errorf("discount type %q has no stripe coupon equivalent", discount.Type)
	}

	if discount.Permanent() {
		params.Duration = stripe.String(string(stripe.CouponDurationForever))
	} else {
		params.Duration = stripe.String(string(stripe.CouponDurationRepeating))
		params.DurationInMonths = stripe.Int64(int64(discount.DurationMonths))
	}

	if discount.OrganizationID != "" {
		params.AddMetadata("organization_id", discount.OrganizationID)
	}
	for _, tier := range discount.EligiblePlans {
		params.AddMetadata("eligible_tier_"+string(tier), "true")
	}

	coupon, err := p.api.Coupons.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe coupon %s: %w", discount.Code, err)
	}
	return coupon.ID, nil
}
