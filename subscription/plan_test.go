package subscription

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mr-sankar/Sindhuur-backend-latest/models"
)

func TestPlanByName(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"premium", "premium", true},
		{"premium_plus", "premium_plus", true},
		{"premium plus", "premium_plus", true},
		{"Premium Plus", "premium_plus", true},
		{"free", "free", true},
		{"gold", "", false},
	}
	for _, tc := range cases {
		p, ok := PlanByName(tc.in)
		if ok != tc.ok || p.Name != tc.want {
			t.Errorf("PlanByName(%q) = (%q, %v), want (%q, %v)", tc.in, p.Name, ok, tc.want, tc.ok)
		}
	}
}

func TestProrationPremiumToPremiumPlus(t *testing.T) {
	// 2999 over 90 days leaves a daily rate of ~33.32; 30 remaining days
	// credit ~999.67 against the 4999 full price.
	q := Proration(Premium, PremiumPlus, 30)
	if q.Prorated != 3999 {
		t.Errorf("prorated = %d, want 3999", q.Prorated)
	}
	if q.Refund != 1000 {
		t.Errorf("refund = %d, want 1000", q.Refund)
	}
	if q.FullPrice != 4999 {
		t.Errorf("full price = %d, want 4999", q.FullPrice)
	}
	if q.RemainingDays != 30 {
		t.Errorf("remaining days = %d, want 30", q.RemainingDays)
	}
}

func TestProrationFromFreeIsFullPrice(t *testing.T) {
	q := Proration(Free, Premium, 45)
	if q.Prorated != Premium.Price || q.Refund != 0 {
		t.Errorf("quote = %+v, want full price with no refund", q)
	}
}

func TestProrationNeverNegative(t *testing.T) {
	// A refund larger than the new plan price clamps to zero.
	q := Proration(PremiumPlus, Premium, 180)
	if q.Prorated != 0 {
		t.Errorf("prorated = %d, want 0", q.Prorated)
	}
}

func TestUpgradeAllowed(t *testing.T) {
	cases := []struct {
		from, to Plan
		want     bool
	}{
		{Free, Premium, true},
		{Free, PremiumPlus, true},
		{Premium, PremiumPlus, true},
		{Premium, Free, false},
		{PremiumPlus, Premium, false},
		{PremiumPlus, PremiumPlus, false},
		{Premium, Premium, false},
	}
	for _, tc := range cases {
		if got := UpgradeAllowed(tc.from, tc.to); got != tc.want {
			t.Errorf("UpgradeAllowed(%s, %s) = %v, want %v", tc.from.Name, tc.to.Name, got, tc.want)
		}
	}
}

func TestRemainingDays(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		expiry time.Time
		want   int
	}{
		{now.Add(24 * time.Hour), 1},
		{now.Add(25 * time.Hour), 2}, // partial day rounds up
		{now.Add(30 * 24 * time.Hour), 30},
		{now, 0},
		{now.Add(-time.Hour), 0},
	}
	for _, tc := range cases {
		if got := RemainingDays(tc.expiry, now); got != tc.want {
			t.Errorf("RemainingDays(%v) = %d, want %d", tc.expiry, got, tc.want)
		}
	}
}

func TestApplyNewSubscription(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	payment := models.Payment{
		ID:     primitive.NewObjectID(),
		Plan:   "premium",
		Price:  2999,
		Status: models.PaymentPaid,
	}

	sub := Apply(models.Subscription{Current: "free"}, payment, now)

	if sub.Current != "premium" {
		t.Errorf("current = %q, want premium", sub.Current)
	}
	wantExpiry := now.Add(90 * 24 * time.Hour)
	if !sub.Details.ExpiryDate.Equal(wantExpiry) {
		t.Errorf("expiry = %v, want %v", sub.Details.ExpiryDate, wantExpiry)
	}
	if len(sub.History) != 1 {
		t.Fatalf("history length = %d, want 1", len(sub.History))
	}
	entry := sub.History[0]
	if entry.Status != models.SubStatusActive || entry.Plan != "premium" {
		t.Errorf("history entry = %+v", entry)
	}
	if !entry.ExpiryDate.Equal(sub.Details.ExpiryDate) {
		t.Error("details expiry inconsistent with active history entry")
	}
}

func TestApplyUpgradeRelabelsActiveEntry(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	prior := models.Subscription{
		Current: "premium",
		Details: models.SubscriptionDetails{
			StartDate:  now.Add(-60 * 24 * time.Hour),
			ExpiryDate: now.Add(30 * 24 * time.Hour),
		},
		History: []models.SubscriptionHistory{
			{Plan: "premium", Status: models.SubStatusExpired},
			{Plan: "premium", Status: models.SubStatusActive},
		},
	}
	payment := models.Payment{
		ID:             primitive.NewObjectID(),
		Plan:           "premium_plus",
		IsUpgrade:      true,
		OriginalPlan:   "premium",
		ProratedAmount: 3999,
	}

	sub := Apply(prior, payment, now)

	if len(sub.History) != 3 {
		t.Fatalf("history length = %d, want 3", len(sub.History))
	}
	if sub.History[1].Status != models.SubStatusUpgraded {
		t.Errorf("previous active entry status = %q, want upgraded", sub.History[1].Status)
	}
	if sub.History[1].UpgradedAt.IsZero() {
		t.Error("upgrade timestamp not set")
	}

	active := 0
	for _, h := range sub.History {
		if h.Status == models.SubStatusActive {
			active++
		}
	}
	if active != 1 {
		t.Errorf("active entries = %d, want exactly 1", active)
	}

	last := sub.History[2]
	if last.Plan != "premium_plus" || !last.IsUpgrade || last.OriginalPlan != "premium" || last.ProratedAmount != 3999 {
		t.Errorf("appended entry = %+v", last)
	}

	// The input value is untouched.
	if prior.History[1].Status != models.SubStatusActive {
		t.Error("Apply mutated its input history")
	}
}

func TestApplyTwiceWouldDuplicateActive(t *testing.T) {
	// Documents why the payment-status gate must elect a single committer:
	// replaying the same paid order appends a second active entry.
	now := time.Now()
	payment := models.Payment{ID: primitive.NewObjectID(), Plan: "premium"}

	once := Apply(models.Subscription{Current: "free"}, payment, now)
	twice := Apply(once, payment, now)

	active := 0
	for _, h := range twice.History {
		if h.Status == models.SubStatusActive {
			active++
		}
	}
	if active != 2 {
		t.Fatalf("active entries after replay = %d, expected the duplicate this guard exists for", active)
	}
}
