package models

import (
	"time"

	"github.com/getevo/evo/v2/lib/db"
	"github.com/getevo/restify"
)

// Subscription plans
const (
	PlanFree    = "free"
	PlanStarter = "starter"
	PlanPro     = "pro"
)

// Subscription statuses mirror the Stripe subscription lifecycle
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

// Subscription links an account to its Stripe billing state
type Subscription struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	UserID               string     `gorm:"size:64;not null;uniqueIndex" json:"userId"`
	Plan                 string     `gorm:"size:50;not null;default:'free'" json:"plan"`
	Status               string     `gorm:"size:50;not null;default:'active'" json:"status"`
	StripeCustomerID     string     `gorm:"size:255;index" json:"-"`
	StripeSubscriptionID string     `gorm:"size:255;index" json:"-"`
	StripePriceID        string     `gorm:"size:255" json:"-"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool       `gorm:"default:false" json:"cancel_at_period_end"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	restify.API `json:"-"`
}

// TableName returns the table name for the Subscription model
func (Subscription) TableName() string {
	return "subscriptions"
}

// PlanLimits describes what a plan allows
type PlanLimits struct {
	Plan             string `json:"plan"`
	MaxAgents        int    `json:"max_agents"`
	MaxMessagesMonth int    `json:"max_messages_month"`
	CustomBranding   bool   `json:"custom_branding"`
}

// Limits returns the limits for the subscription's plan. Unknown plans fall
// back to free limits.
func (s *Subscription) Limits() PlanLimits {
	switch s.Plan {
	case PlanStarter:
		return PlanLimits{Plan: PlanStarter, MaxAgents: 5, MaxMessagesMonth: 10000, CustomBranding: false}
	case PlanPro:
		return PlanLimits{Plan: PlanPro, MaxAgents: 50, MaxMessagesMonth: 100000, CustomBranding: true}
	default:
		return PlanLimits{Plan: PlanFree, MaxAgents: 1, MaxMessagesMonth: 500, CustomBranding: false}
	}
}

// IsActive reports whether the subscription currently grants access to its
// plan. Past-due subscriptions keep access until Stripe cancels them.
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive || s.Status == SubscriptionStatusTrialing || s.Status == SubscriptionStatusPastDue
}

// GetSubscription retrieves an account's subscription, creating a free-plan
// row if none exists yet
func GetSubscription(userID string) (*Subscription, error) {
	var subscription Subscription
	err := db.Where("user_id = ?", userID).First(&subscription).Error
	if err != nil {
		subscription = Subscription{
			UserID: userID,
			Plan:   PlanFree,
			Status: SubscriptionStatusActive,
		}
		if err := db.Create(&subscription).Error; err != nil {
			return nil, err
		}
	}
	return &subscription, nil
}

// GetSubscriptionByStripeID retrieves a subscription by its Stripe
// subscription id
func GetSubscriptionByStripeID(stripeSubscriptionID string) (*Subscription, error) {
	var subscription Subscription
	err := db.Where("stripe_subscription_id = ?", stripeSubscriptionID).First(&subscription).Error
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

// GetSubscriptionByStripeCustomer retrieves a subscription by its Stripe
// customer id
func GetSubscriptionByStripeCustomer(stripeCustomerID string) (*Subscription, error) {
	var subscription Subscription
	err := db.Where("stripe_customer_id = ?", stripeCustomerID).First(&subscription).Error
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

// UpsertSubscription creates or updates the subscription row for an account
func UpsertSubscription(subscription *Subscription) error {
	var existing Subscription
	err := db.Where("user_id = ?", subscription.UserID).First(&existing).Error
	if err != nil {
		return db.Create(subscription).Error
	}
	subscription.ID = existing.ID
	subscription.CreatedAt = existing.CreatedAt
	return db.Save(subscription).Error
}
