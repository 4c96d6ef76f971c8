// Package billing integrates Stripe subscriptions: checkout, the customer
// portal and the webhook that keeps local subscription rows in sync.
package billing

import (
	"time"

	"github.com/botdeck/botdeck-backend/apps/models"
	"github.com/getevo/evo/v2/lib/log"
	"github.com/getevo/evo/v2/lib/settings"
	"github.com/stripe/stripe-go/v79"
)

// InitStripe configures the Stripe SDK key. Without a key billing endpoints
// return a configuration error but the rest of the platform is unaffected.
func InitStripe() {
	key := settings.Get("STRIPE.SECRET_KEY").String()
	if key == "" {
		log.Warning("STRIPE.SECRET_KEY not set, billing is disabled")
		return
	}
	stripe.Key = key
}

// Enabled reports whether Stripe is configured
func Enabled() bool {
	return stripe.Key != ""
}

// PlanForPrice maps a Stripe price id to a plan name
func PlanForPrice(priceID string) string {
	switch priceID {
	case settings.Get("STRIPE.PRICE_STARTER").String():
		return models.PlanStarter
	case settings.Get("STRIPE.PRICE_PRO").String():
		return models.PlanPro
	default:
		return models.PlanFree
	}
}

// PriceForPlan maps a plan name to its Stripe price id
func PriceForPlan(plan string) string {
	switch plan {
	case models.PlanStarter:
		return settings.Get("STRIPE.PRICE_STARTER").String()
	case models.PlanPro:
		return settings.Get("STRIPE.PRICE_PRO").String()
	default:
		return ""
	}
}

// ApplySubscription syncs a Stripe subscription object into the local
// subscription row for an account.
func ApplySubscription(userID string, sub *stripe.Subscription) error {
	priceID := ""
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		priceID = sub.Items.Data[0].Price.ID
	}

	row := &models.Subscription{
		UserID:               userID,
		Plan:                 PlanForPrice(priceID),
		Status:               string(sub.Status),
		StripeSubscriptionID: sub.ID,
		StripePriceID:        priceID,
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		row.StripeCustomerID = sub.Customer.ID
	}
	if sub.CurrentPeriodEnd > 0 {
		end := time.Unix(sub.CurrentPeriodEnd, 0)
		row.CurrentPeriodEnd = &end
	}

	// Canceled subscriptions drop back to the free plan
	if sub.Status == stripe.SubscriptionStatusCanceled {
		row.Plan = models.PlanFree
	}

	return models.UpsertSubscription(row)
}
