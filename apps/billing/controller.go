package billing

import (
	"encoding/json"

	"github.com/botdeck/botdeck-backend/apps/auth"
	"github.com/botdeck/botdeck-backend/apps/models"
	"github.com/botdeck/botdeck-backend/lib/response"
	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/log"
	"github.com/getevo/evo/v2/lib/settings"
	"github.com/stripe/stripe-go/v79"
	portalsession "github.com/stripe/stripe-go/v79/billingportal/session"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

type Controller struct {
}

// CheckoutRequest selects the plan to subscribe to
type CheckoutRequest struct {
	Plan string `json:"plan" validate:"required,oneof=starter pro"`
}

// GetSubscription returns the caller's subscription with plan limits
func (c Controller) GetSubscription(req *evo.Request) any {
	account, ok := requireAccount(req)
	if !ok {
		return response.Error(response.ErrUnauthorized)
	}

	subscription, err := models.GetSubscription(account.AccountID)
	if err != nil {
		return response.Error(response.ErrDatabaseError)
	}

	return response.OK(map[string]any{
		"subscription": subscription,
		"limits":       subscription.Limits(),
		"active":       subscription.IsActive(),
	})
}

// CreateCheckout starts a Stripe Checkout session for a plan upgrade
func (c Controller) CreateCheckout(req *evo.Request) any {
	account, ok := requireAccount(req)
	if !ok {
		return response.Error(response.ErrUnauthorized)
	}
	if !Enabled() {
		return response.Error(response.NewError(response.ErrorCodeInternalError, "Billing is not configured", 503))
	}

	var params CheckoutRequest
	if err := req.BodyParser(&params); err != nil {
		return response.Error(response.ErrInvalidInput)
	}

	priceID := PriceForPlan(params.Plan)
	if priceID == "" {
		return response.BadRequest("Unknown plan: " + params.Plan)
	}

	baseURL := settings.Get("HTTP.BASE_URL").String()
	checkoutParams := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(account.AccountID),
		CustomerEmail:     stripe.String(account.Email),
		SuccessURL:        stripe.String(baseURL + "/billing?checkout=success"),
		CancelURL:         stripe.String(baseURL + "/billing?checkout=cancel"),
	}

	sess, err := session.New(checkoutParams)
	if err != nil {
		log.Error("stripe checkout session failed: %v", err)
		return response.Error(response.ErrUpstream("Stripe", err))
	}

	return response.OK(map[string]string{
		"checkout_url": sess.URL,
		"session_id":   sess.ID,
	})
}

// CreatePortal opens the Stripe customer portal for subscription management
func (c Controller) CreatePortal(req *evo.Request) any {
	account, ok := requireAccount(req)
	if !ok {
		return response.Error(response.ErrUnauthorized)
	}
	if !Enabled() {
		return response.Error(response.NewError(response.ErrorCodeInternalError, "Billing is not configured", 503))
	}

	subscription, err := models.GetSubscription(account.AccountID)
	if err != nil || subscription.StripeCustomerID == "" {
		return response.BadRequest("No billing profile yet")
	}

	baseURL := settings.Get("HTTP.BASE_URL").String()
	sess, err := portalsession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(subscription.StripeCustomerID),
		ReturnURL: stripe.String(baseURL + "/billing"),
	})
	if err != nil {
		log.Error("stripe portal session failed: %v", err)
		return response.Error(response.ErrUpstream("Stripe", err))
	}

	return response.OK(map[string]string{"portal_url": sess.URL})
}

// Webhook handles Stripe events. The signature is verified against
// STRIPE.WEBHOOK_SECRET before any payload is trusted.
func (c Controller) Webhook(req *evo.Request) any {
	secret := settings.Get("STRIPE.WEBHOOK_SECRET").String()
	if secret == "" {
		return response.Error(response.NewError(response.ErrorCodeInternalError, "Billing webhook is not configured", 503))
	}

	event, err := webhook.ConstructEvent([]byte(req.Body()), req.Header("Stripe-Signature"), secret)
	if err != nil {
		log.Warning("stripe webhook signature verification failed: %v", err)
		return response.BadRequest("Invalid signature")
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return response.BadRequest("Malformed event payload")
		}
		c.handleCheckoutCompleted(&sess)

	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return response.BadRequest("Malformed event payload")
		}
		c.handleSubscriptionEvent(&sub)

	default:
		log.Debug("ignoring stripe event %s", event.Type)
	}

	return response.Message("ok")
}

// handleCheckoutCompleted binds the new Stripe customer to the account that
// started the checkout
func (c Controller) handleCheckoutCompleted(sess *stripe.CheckoutSession) {
	userID := sess.ClientReferenceID
	if userID == "" {
		log.Warning("checkout.session.completed without client reference id")
		return
	}

	subscription, err := models.GetSubscription(userID)
	if err != nil {
		log.Error("failed to load subscription for %s: %v", userID, err)
		return
	}
	if sess.Customer != nil {
		subscription.StripeCustomerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		subscription.StripeSubscriptionID = sess.Subscription.ID
	}
	if err := models.UpsertSubscription(subscription); err != nil {
		log.Error("failed to save subscription for %s: %v", userID, err)
	}
}

// handleSubscriptionEvent syncs subscription lifecycle changes
func (c Controller) handleSubscriptionEvent(sub *stripe.Subscription) {
	existing, err := models.GetSubscriptionByStripeID(sub.ID)
	if err != nil {
		// First event for this subscription: locate the row via customer id
		if sub.Customer == nil {
			log.Warning("subscription event %s has no customer", sub.ID)
			return
		}
		byCustomer, dbErr := models.GetSubscriptionByStripeCustomer(sub.Customer.ID)
		if dbErr != nil {
			log.Warning("no account for stripe customer %s", sub.Customer.ID)
			return
		}
		existing = byCustomer
	}

	if err := ApplySubscription(existing.UserID, sub); err != nil {
		log.Error("failed to apply subscription %s: %v", sub.ID, err)
	}
}

func requireAccount(req *evo.Request) (*auth.Account, bool) {
	account, ok := req.User().(*auth.Account)
	if !ok || account.Anonymous() {
		return nil, false
	}
	return account, true
}
