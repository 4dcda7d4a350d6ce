package rabbitmq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		name       string
		base       time.Duration
		multiplier float64
		attempt    int
		want       time.Duration
	}{
		{name: "first retry waits the base delay", base: 100 * time.Millisecond, multiplier: 2, attempt: 0, want: 100 * time.Millisecond},
		{name: "doubling multiplier", base: 100 * time.Millisecond, multiplier: 2, attempt: 2, want: 400 * time.Millisecond},
		{name: "configured non-integer multiplier", base: 100 * time.Millisecond, multiplier: 1.5, attempt: 2, want: 225 * time.Millisecond},
		{name: "aggressive multiplier", base: 50 * time.Millisecond, multiplier: 3, attempt: 3, want: 1350 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, backoffDelay(tt.base, tt.multiplier, tt.attempt))
		})
	}
}
