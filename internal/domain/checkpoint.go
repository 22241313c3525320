package domain

import (
	"fmt"
	"time"
)

type Checkpoint struct {
	AccountID   AccountID
	LastSuccess time.Time
}

// UnixMilli is the persisted representation of LastSuccess in every backend.
func (c Checkpoint) UnixMilli() int64 {
	if c.LastSuccess.IsZero() {
		return 0
	}

	return c.LastSuccess.UnixMilli()
}

func CheckpointFromUnixMilli(id AccountID, ms int64) Checkpoint {
	if ms <= 0 {
		return Checkpoint{AccountID: id}
	}

	return Checkpoint{AccountID: id, LastSuccess: time.UnixMilli(ms).UTC()}
}

func (c Checkpoint) NextEligibleAt(cooldown time.Duration) time.Time {
	if c.LastSuccess.IsZero() {
		return time.Time{}
	}

	return c.LastSuccess.Add(cooldown)
}

// Gated reports whether the cooldown since LastSuccess has not elapsed yet.
func (c Checkpoint) Gated(now time.Time, cooldown time.Duration) bool {
	if c.LastSuccess.IsZero() || cooldown <= 0 {
		return false
	}

	return now.Sub(c.LastSuccess) < cooldown
}

// Remaining formats the time left until the gate opens as "Xh Ym".
func (c Checkpoint) Remaining(now time.Time, cooldown time.Duration) string {
	left := c.NextEligibleAt(cooldown).Sub(now)
	if left < 0 {
		left = 0
	}

	hours := int(left / time.Hour)
	minutes := int((left % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
