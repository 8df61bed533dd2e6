package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	entityDomain "github.com/allisson/vaultemu/internal/entity/domain"
	"github.com/allisson/vaultemu/internal/lifetime"
)

// TestLifetimePolicy_Validate tests lifetime action validation against the validity.
func TestLifetimePolicy_Validate(t *testing.T) {
	id := entityDomain.NewEntityID("https://vault.localhost", "cert")
	now := time.Now().UTC()

	tests := []struct {
		name        string
		actions     map[lifetime.Action]lifetime.Trigger
		expectedErr error
	}{
		{
			name:    "Success_Percentage",
			actions: map[lifetime.Action]lifetime.Trigger{lifetime.ActionRenew: {Kind: lifetime.LifetimePercentage, Value: 80}},
		},
		{
			name: "Success_RenewAndNotify",
			actions: map[lifetime.Action]lifetime.Trigger{
				lifetime.ActionRenew:  {Kind: lifetime.DaysBeforeExpiry, Value: 30},
				lifetime.ActionNotify: {Kind: lifetime.DaysBeforeExpiry, Value: 60},
			},
		},
		{
			name:        "Error_NoActions",
			actions:     map[lifetime.Action]lifetime.Trigger{},
			expectedErr: lifetime.ErrNoActions,
		},
		{
			name:        "Error_BeyondValidity",
			actions:     map[lifetime.Action]lifetime.Trigger{lifetime.ActionRenew: {Kind: lifetime.DaysBeforeExpiry, Value: 12*27 + 1}},
			expectedErr: lifetime.ErrInvalidTrigger,
		},
		{
			name:        "Error_AfterCreate",
			actions:     map[lifetime.Action]lifetime.Trigger{lifetime.ActionRenew: {Kind: lifetime.DaysAfterCreate, Value: 10}},
			expectedErr: lifetime.ErrInvalidTrigger,
		},
		{
			name:        "Error_UnknownAction",
			actions:     map[lifetime.Action]lifetime.Trigger{"Explode": {Kind: lifetime.LifetimePercentage, Value: 10}},
			expectedErr: lifetime.ErrInvalidTrigger,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewLifetimePolicy(id, tt.actions, now).Validate(12)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

// TestLifetimePolicy_MissedRenewals tests renewal timestamps with a varying window length.
func TestLifetimePolicy_MissedRenewals(t *testing.T) {
	id := entityDomain.NewEntityID("https://vault.localhost", "cert")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	start := now.AddDate(0, 0, -1020)
	next := func(t time.Time) time.Time { return t.AddDate(1, 0, 0).AddDate(0, 0, -30) }

	t.Run("Success_DaysBeforeExpiry", func(t *testing.T) {
		policy := NewLifetimePolicy(id,
			map[lifetime.Action]lifetime.Trigger{lifetime.ActionRenew: {Kind: lifetime.DaysBeforeExpiry, Value: 30}}, start)

		missed := policy.MissedRenewals(start, 12, now)

		first := next(start)
		assert.Equal(t, []time.Time{first, next(first), next(next(first))}, missed)
	})

	t.Run("Success_MonthEndWindowClamped", func(t *testing.T) {
		monthEnd := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
		policy := NewLifetimePolicy(id,
			map[lifetime.Action]lifetime.Trigger{lifetime.ActionRenew: {Kind: lifetime.DaysBeforeExpiry, Value: 7}}, monthEnd)

		missed := policy.MissedRenewals(monthEnd, 1, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC))

		// Jan 31 + 1 month ends on Feb 28, so the first window is 28 days long
		assert.Equal(t, []time.Time{
			time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		}, missed)
	})

	t.Run("Success_Default", func(t *testing.T) {
		policy := NewDefaultLifetimePolicy(id, now)

		assert.True(t, policy.AutoRenew())
		assert.Empty(t, policy.MissedRenewals(now, 12, now))
		assert.Nil(t, policy.MissedNotifications(now, 12, now))
	})
}
