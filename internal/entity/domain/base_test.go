package domain

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/vaultemu/internal/errors"
)

func newTestBase(t *testing.T, level RecoveryLevel, days *int) *Base {
	t.Helper()
	id := NewEntityID("https://default.localhost:8443", "entity").NewVersion()
	return NewBase(id, level, days, time.Now())
}

// TestNewBase tests the defaults of a freshly created base record.
func TestNewBase(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	id := NewEntityID("https://vault.localhost", "name").WithVersion("v1")

	base := NewBase(id, Recoverable, IntPtr(90), now)

	assert.Equal(t, id, base.ID())
	assert.Same(t, base, base.BaseEntity())
	assert.True(t, base.Enabled())
	assert.Empty(t, base.Tags())
	assert.Equal(t, now, base.Created())
	assert.Equal(t, now, base.Updated())
	assert.Nil(t, base.NotBefore())
	assert.Nil(t, base.Expiry())
	assert.Nil(t, base.Deletion())
	assert.False(t, base.Managed())
	assert.Equal(t, Recoverable, base.RecoveryLevel())
	assert.Equal(t, 90, *base.RecoverableDays())
}

// TestBase_SetClock tests that updates are stamped with the injected clock.
func TestBase_SetClock(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	updated := created.Add(time.Hour)
	base := NewBase(NewEntityID("https://vault.localhost", "name").NewVersion(), Recoverable, IntPtr(90), created)
	base.SetClock(func() time.Time { return updated })

	base.SetEnabled(false)
	assert.Equal(t, updated, base.Updated())
	assert.Equal(t, created, base.Created())

	require.NoError(t, base.SetExpiry(nil, TimePtr(updated)))
	assert.Equal(t, updated, base.Updated())
}

// TestBase_Tags tests the tag mutators.
func TestBase_Tags(t *testing.T) {
	t.Run("Success_SetAddClear", func(t *testing.T) {
		base := newTestBase(t, Recoverable, IntPtr(90))

		base.SetTags(map[string]string{"a": "1"})
		base.AddTags(map[string]string{"a": "2", "b": "3"})
		assert.Equal(t, map[string]string{"a": "2", "b": "3"}, base.Tags())

		base.ClearTags()
		assert.Empty(t, base.Tags())
	})

	t.Run("Success_ReturnsCopy", func(t *testing.T) {
		base := newTestBase(t, Recoverable, IntPtr(90))
		base.SetTags(map[string]string{"a": "1"})

		tags := base.Tags()
		tags["a"] = "changed"

		assert.Equal(t, "1", base.Tags()["a"])
	})

	t.Run("Success_UpdatesTimestamp", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		base := NewBase(NewEntityID("v", "n").NewVersion(), Recoverable, IntPtr(90), past)

		base.AddTags(map[string]string{"a": "1"})

		assert.True(t, base.Updated().After(past))
		assert.Equal(t, past.UTC(), base.Created())
	})
}

// TestBase_SetExpiry tests validity window validation.
func TestBase_SetExpiry(t *testing.T) {
	now := time.Now().UTC()

	t.Run("Success", func(t *testing.T) {
		base := newTestBase(t, Recoverable, IntPtr(90))
		expiry := now.Add(time.Hour)

		err := base.SetExpiry(TimePtr(now), TimePtr(expiry))

		require.NoError(t, err)
		assert.Equal(t, now, *base.NotBefore())
		assert.Equal(t, expiry, *base.Expiry())
	})

	t.Run("Success_OpenBounds", func(t *testing.T) {
		base := newTestBase(t, Recoverable, IntPtr(90))

		require.NoError(t, base.SetExpiry(nil, TimePtr(now)))
		require.NoError(t, base.SetExpiry(TimePtr(now), nil))
		assert.Nil(t, base.Expiry())
	})

	t.Run("Error_NotBeforeAfterExpiry", func(t *testing.T) {
		base := newTestBase(t, Recoverable, IntPtr(90))

		err := base.SetExpiry(TimePtr(now.Add(time.Second)), TimePtr(now))

		assert.ErrorIs(t, err, ErrNotBeforeAfterExpiry)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
		assert.Nil(t, base.NotBefore())
	})
}

// TestBase_Deletion tests the deletion metadata lifecycle.
func TestBase_Deletion(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 20, 30, 999, time.UTC)

	t.Run("Success_MarkDeletedAndRecovered", func(t *testing.T) {
		base := newTestBase(t, RecoverableAndPurgeable, IntPtr(90))

		base.MarkDeleted(now)

		deletion := base.Deletion()
		require.NotNil(t, deletion)
		assert.Equal(t, now.Truncate(time.Second), deletion.DeletedDate)
		assert.Equal(t, now.Truncate(time.Second).AddDate(0, 0, 90), deletion.ScheduledPurgeDate)

		base.MarkRecovered()
		assert.Nil(t, base.Deletion())
	})

	t.Run("Success_IsPurgeExpired", func(t *testing.T) {
		base := newTestBase(t, CustomizedRecoverable, IntPtr(7))
		assert.False(t, base.IsPurgeExpired(now))

		base.MarkDeleted(now)

		assert.False(t, base.IsPurgeExpired(now.AddDate(0, 0, 6)))
		assert.False(t, base.IsPurgeExpired(now.Truncate(time.Second).AddDate(0, 0, 7)))
		assert.True(t, base.IsPurgeExpired(now.AddDate(0, 0, 7)))
	})

	t.Run("Success_CanPurge", func(t *testing.T) {
		purgeable := newTestBase(t, RecoverableAndPurgeable, IntPtr(90))
		protected := newTestBase(t, Recoverable, IntPtr(90))

		assert.False(t, purgeable.CanPurge())

		purgeable.MarkDeleted(now)
		protected.MarkDeleted(now)

		assert.True(t, purgeable.CanPurge())
		assert.False(t, protected.CanPurge())
	})
}

// TestBase_TimeShift tests that every present timestamp moves back by the offset.
func TestBase_TimeShift(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		base := newTestBase(t, RecoverableAndPurgeable, IntPtr(90))
		notBefore := time.Now().UTC()
		expiry := notBefore.AddDate(1, 0, 0)
		require.NoError(t, base.SetExpiry(TimePtr(notBefore), TimePtr(expiry)))
		base.MarkDeleted(time.Now())

		created := base.Created()
		updated := base.Updated()
		deletion := base.Deletion()

		require.NoError(t, base.TimeShift(3600))

		offset := time.Hour
		assert.Equal(t, created.Add(-offset), base.Created())
		assert.Equal(t, updated.Add(-offset), base.Updated())
		assert.Equal(t, notBefore.Add(-offset), *base.NotBefore())
		assert.Equal(t, expiry.Add(-offset), *base.Expiry())
		assert.Equal(t, deletion.DeletedDate.Add(-offset), base.Deletion().DeletedDate)
		assert.Equal(t, deletion.ScheduledPurgeDate.Add(-offset), base.Deletion().ScheduledPurgeDate)
	})

	t.Run("Success_AbsentFieldsStayAbsent", func(t *testing.T) {
		base := newTestBase(t, Recoverable, IntPtr(90))

		require.NoError(t, base.TimeShift(10))

		assert.Nil(t, base.NotBefore())
		assert.Nil(t, base.Expiry())
		assert.Nil(t, base.Deletion())
	})

	t.Run("Error_NonPositive", func(t *testing.T) {
		base := newTestBase(t, Recoverable, IntPtr(90))
		created := base.Created()

		for _, offset := range []int{0, -1} {
			err := base.TimeShift(offset)
			assert.ErrorIs(t, err, ErrInvalidTimeShift)
		}
		assert.Equal(t, created, base.Created())
	})

	t.Run("Success_ConcurrentShiftsAccumulate", func(t *testing.T) {
		base := newTestBase(t, Recoverable, IntPtr(90))
		created := base.Created()

		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = base.TimeShift(1)
				_ = base.Created()
			}()
		}
		wg.Wait()

		assert.Equal(t, created.Add(-50*time.Second), base.Created())
	})
}
