package domain

import "time"

const (
	// DefaultRelistDays is the listing validity applied when a relist
	// carries no explicit duration.
	DefaultRelistDays = 7
	// MinExpiryDays and MaxExpiryDays bound relist durations.
	MinExpiryDays = 1
	MaxExpiryDays = 90

	// retentionSlack is how long a record outlives its expiry before the
	// sweep may garbage-collect it.
	retentionSlack = 24 * time.Hour
)

// ExpiryAt computes the listing expiry instant in UTC.
func ExpiryAt(base time.Time, expirySeconds int64) time.Time {
	return base.UTC().Add(time.Duration(expirySeconds) * time.Second)
}

// SubmissionDeadlineAt computes the instant after which a claimed job can no
// longer be submitted.
func SubmissionDeadlineAt(claimedAt time.Time, timeToCompleteSeconds int64) time.Time {
	return claimedAt.UTC().Add(time.Duration(timeToCompleteSeconds) * time.Second)
}

// RetainUntil computes the retention horizon as unix seconds. It is a
// garbage-collection marker, not part of the state machine.
func RetainUntil(expiry time.Time) int64 {
	return expiry.UTC().Add(retentionSlack).Unix()
}

// ClampExpiryDays normalizes a relist duration: zero means the default,
// anything else is clamped into [MinExpiryDays, MaxExpiryDays].
func ClampExpiryDays(days int) int {
	if days == 0 {
		return DefaultRelistDays
	}
	if days < MinExpiryDays {
		return MinExpiryDays
	}
	if days > MaxExpiryDays {
		return MaxExpiryDays
	}
	return days
}

// RelistExpiry computes the fresh expiry written by a relist.
func RelistExpiry(now time.Time, days int) time.Time {
	return now.UTC().Add(time.Duration(ClampExpiryDays(days)) * 24 * time.Hour)
}
