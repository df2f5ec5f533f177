// Package subscription holds the plan table and the pure plan-change
// arithmetic: proration quotes, upgrade-path validation, and the history
// commit applied after a payment is verified.
package subscription

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/mr-sankar/Sindhuur-backend-latest/models"
)

var ErrInvalidUpgradePath = errors.New("subscription: invalid upgrade path")

type Plan struct {
	Name         string
	Price        int
	DurationDays int
}

var (
	Free        = Plan{Name: "free", Price: 0}
	Premium     = Plan{Name: "premium", Price: 2999, DurationDays: 90}
	PremiumPlus = Plan{Name: "premium_plus", Price: 4999, DurationDays: 180}
)

// PlanByName resolves a plan from client input. The legacy "premium plus"
// spelling is accepted and normalized to premium_plus.
func PlanByName(name string) (Plan, bool) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_") {
	case Free.Name:
		return Free, true
	case Premium.Name:
		return Premium, true
	case PremiumPlus.Name:
		return PremiumPlus, true
	}
	return Plan{}, false
}

// UpgradeAllowed reports whether current→next is a legal upgrade edge.
// Downgrades are not modeled and premium_plus has no further upgrade.
func UpgradeAllowed(current, next Plan) bool {
	switch current.Name {
	case Free.Name:
		return next.Name == Premium.Name || next.Name == PremiumPlus.Name
	case Premium.Name:
		return next.Name == PremiumPlus.Name
	}
	return false
}

type ProrationQuote struct {
	Prorated      int `json:"proratedAmount"`
	Refund        int `json:"refundAmount"`
	FullPrice     int `json:"newPlanPrice"`
	RemainingDays int `json:"remainingDays"`
}

// Proration credits the unused share of the current plan against the new
// plan's full price. A free current plan earns no credit. Monetary results
// are rounded to the nearest currency unit; the prorated amount is computed
// from the unrounded refund.
func Proration(current, next Plan, remainingDays int) ProrationQuote {
	if current.Name == Free.Name || current.DurationDays == 0 {
		return ProrationQuote{
			Prorated:      next.Price,
			FullPrice:     next.Price,
			RemainingDays: remainingDays,
		}
	}

	dailyRate := float64(current.Price) / float64(current.DurationDays)
	refund := dailyRate * float64(remainingDays)
	prorated := math.Max(0, float64(next.Price)-refund)

	return ProrationQuote{
		Prorated:      int(math.Round(prorated)),
		Refund:        int(math.Round(refund)),
		FullPrice:     next.Price,
		RemainingDays: remainingDays,
	}
}

// RemainingDays is the ceiling of the time left until expiry, in days.
// Only meaningful while the expiry is strictly in the future.
func RemainingDays(expiry, now time.Time) int {
	if !expiry.After(now) {
		return 0
	}
	return int(math.Ceil(expiry.Sub(now).Hours() / 24))
}

// HasActive reports whether the subscription's paid window is still open.
func HasActive(sub models.Subscription, now time.Time) bool {
	return sub.Details.ExpiryDate.After(now)
}

// Apply commits a paid order onto the subscription value and returns the
// result. For upgrades the single active history entry is relabeled
// "upgraded" before the new active entry is appended, so the invariant of at
// most one active entry holds on every commit. The caller persists the
// returned value only after winning the order's created→paid transition,
// which serializes commits per user.
func Apply(sub models.Subscription, payment models.Payment, now time.Time) models.Subscription {
	plan, ok := PlanByName(payment.Plan)
	if !ok {
		return sub
	}
	expiry := now.Add(time.Duration(plan.DurationDays) * 24 * time.Hour)

	history := make([]models.SubscriptionHistory, len(sub.History))
	copy(history, sub.History)

	if payment.IsUpgrade {
		for i := range history {
			if history[i].Status == models.SubStatusActive {
				history[i].Status = models.SubStatusUpgraded
				history[i].UpgradedAt = now
				break
			}
		}
	}

	history = append(history, models.SubscriptionHistory{
		Plan:           plan.Name,
		StartDate:      now,
		ExpiryDate:     expiry,
		PaymentID:      payment.ID,
		Status:         models.SubStatusActive,
		IsUpgrade:      payment.IsUpgrade,
		OriginalPlan:   payment.OriginalPlan,
		ProratedAmount: payment.ProratedAmount,
	})

	return models.Subscription{
		Current: plan.Name,
		Details: models.SubscriptionDetails{
			StartDate:  now,
			ExpiryDate: expiry,
			PaymentID:  payment.ID,
			AutoRenew:  false,
		},
		History: history,
	}
}
