package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpiryAt(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, base.Add(604800*time.Second), ExpiryAt(base, 604800))
}

func TestSubmissionDeadlineAt(t *testing.T) {
	claimedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, claimedAt.Add(time.Hour), SubmissionDeadlineAt(claimedAt, 3600))
}

func TestRetainUntil(t *testing.T) {
	expiry := time.Date(2026, 3, 17, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, expiry.Add(24*time.Hour).Unix(), RetainUntil(expiry))
}

func TestClampExpiryDays(t *testing.T) {
	tests := []struct {
		name string
		days int
		want int
	}{
		{name: "zero means default", days: 0, want: DefaultRelistDays},
		{name: "below minimum clamps up", days: -5, want: MinExpiryDays},
		{name: "minimum passes through", days: 1, want: 1},
		{name: "in range passes through", days: 30, want: 30},
		{name: "maximum passes through", days: 90, want: 90},
		{name: "above maximum clamps down", days: 365, want: MaxExpiryDays},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampExpiryDays(tt.days))
		})
	}
}

func TestRelistExpiry(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(7*24*time.Hour), RelistExpiry(now, 0))
	assert.Equal(t, now.Add(3*24*time.Hour), RelistExpiry(now, 3))
	assert.Equal(t, now.Add(90*24*time.Hour), RelistExpiry(now, 400))
}
