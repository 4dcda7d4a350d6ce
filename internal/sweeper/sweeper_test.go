package sweeper

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigboard/gigboard/internal/jobs"
	"github.com/gigboard/gigboard/internal/jobs/domain"
	"github.com/gigboard/gigboard/internal/jobs/memstore"
)

type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestRunOnce(t *testing.T) {
	ctx := context.Background()
	clock := &fixedClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	store := memstore.New()

	coordinator := jobs.NewCoordinator(&jobs.Config{
		Store:  store,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    clock.Now,
	})

	stale, err := coordinator.CreateJob(ctx, &domain.CreateInput{
		OwnerID:               "owner-1",
		Name:                  "Walk the dog",
		Description:           "Two laps around the park",
		CategoryID:            "pets",
		PayAmount:             decimal.NewFromInt(15),
		TimeToCompleteSeconds: 1800,
		ExpirySeconds:         3600,
	})
	require.NoError(t, err)

	claimed, err := coordinator.CreateJob(ctx, &domain.CreateInput{
		OwnerID:               "owner-2",
		Name:                  "Clean the gutters",
		Description:           "Single-storey house, ladder on site",
		CategoryID:            "cleaning",
		PayAmount:             decimal.NewFromInt(80),
		TimeToCompleteSeconds: 1800,
		ExpirySeconds:         86400,
	})
	require.NoError(t, err)

	_, err = coordinator.ClaimJob(ctx, claimed.JobID, domain.Actor{ID: "worker-1"})
	require.NoError(t, err)

	// Past the first listing's expiry and the claim's deadline.
	clock.Advance(2 * time.Hour)

	sweeper := New(&Config{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Coordinator: coordinator,
		Interval:    time.Minute,
	})
	sweeper.RunOnce(ctx)

	expired, err := store.Get(ctx, stale.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, expired.Status)

	reopened, err := store.Get(ctx, claimed.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, reopened.Status)
	assert.Nil(t, reopened.ClaimerID)
	assert.Nil(t, reopened.SubmissionDeadline)
}

func TestStartAndStop(t *testing.T) {
	clock := &fixedClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	store := memstore.New()

	coordinator := jobs.NewCoordinator(&jobs.Config{
		Store:  store,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    clock.Now,
	})

	sweeper := New(&Config{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Coordinator: coordinator,
		Interval:    10 * time.Millisecond,
	})

	done := make(chan error, 1)
	go func() {
		done <- sweeper.Start(context.Background())
	}()

	time.Sleep(30 * time.Millisecond)
	sweeper.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
