package lifetime

import (
	"time"
)

// OffsetFunc returns the number of days after start at which the next trigger fires.
type OffsetFunc func(start time.Time) int64

// ConstantOffset returns an OffsetFunc ignoring its start point.
func ConstantOffset(days int64) OffsetFunc {
	return func(time.Time) int64 { return days }
}

// CollectMissedTriggerDays walks forward from startPoint, one offset at a
// time, and returns every trigger timestamp strictly before now. The offset is
// recomputed from each trigger timestamp, so every cycle uses its own window.
// A non-positive offset ends the walk.
func CollectMissedTriggerDays(offset OffsetFunc, startPoint, now time.Time) []time.Time {
	var result []time.Time
	latest := startPoint
	for {
		days := offset(latest)
		if days <= 0 {
			return result
		}
		next := latest.AddDate(0, 0, int(days))
		if !next.Before(now) {
			return result
		}
		latest = next
		result = append(result, latest)
	}
}

// FindTriggerTimeOffset returns the anchor of the trigger walk. An entity
// created long before the policy is anchored one offset before the policy
// creation, so triggers that predate the policy are not replayed.
func FindTriggerTimeOffset(policyCreated, entityCreation time.Time, offset OffsetFunc) time.Time {
	relative := policyCreated.AddDate(0, 0, -int(offset(policyCreated)))
	if entityCreation.Before(relative) {
		return relative
	}
	return entityCreation
}

// AddMonths adds months to t, clamping the day to the last day of the target
// month: Jan 31 plus one month is Feb 28 (or 29), not Mar 3.
func AddMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}
