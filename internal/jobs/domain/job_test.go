package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreateInput() *CreateInput {
	return &CreateInput{
		OwnerID:               "owner-1",
		Name:                  "Assemble a bookshelf",
		Description:           "Flat-pack bookshelf, tools provided",
		CategoryID:            "furniture",
		PayAmount:             decimal.RequireFromString("45.50"),
		TimeToCompleteSeconds: 7200,
		ExpirySeconds:         604800,
	}
}

func TestCreateInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *CreateInput)
		wantErr string
	}{
		{
			name:   "valid input",
			mutate: func(in *CreateInput) {},
		},
		{
			name:    "missing owner",
			mutate:  func(in *CreateInput) { in.OwnerID = "  " },
			wantErr: "owner_id",
		},
		{
			name:    "missing name",
			mutate:  func(in *CreateInput) { in.Name = "" },
			wantErr: "name",
		},
		{
			name:    "missing description",
			mutate:  func(in *CreateInput) { in.Description = "" },
			wantErr: "description",
		},
		{
			name:    "missing category",
			mutate:  func(in *CreateInput) { in.CategoryID = "" },
			wantErr: "category_id",
		},
		{
			name:    "zero pay",
			mutate:  func(in *CreateInput) { in.PayAmount = decimal.Zero },
			wantErr: "pay_amount",
		},
		{
			name:    "negative pay",
			mutate:  func(in *CreateInput) { in.PayAmount = decimal.NewFromInt(-10) },
			wantErr: "pay_amount",
		},
		{
			name:    "zero time to complete",
			mutate:  func(in *CreateInput) { in.TimeToCompleteSeconds = 0 },
			wantErr: "time_to_complete_seconds",
		},
		{
			name:    "zero expiry",
			mutate:  func(in *CreateInput) { in.ExpirySeconds = 0 },
			wantErr: "expiry_seconds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validCreateInput()
			tt.mutate(in)

			err := in.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewJob(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	in := validCreateInput()

	job := NewJob(in, now)

	_, err := uuid.Parse(job.JobID)
	require.NoError(t, err)

	assert.Equal(t, StatusOpen, job.Status)
	assert.Equal(t, in.OwnerID, job.OwnerID)
	assert.True(t, job.PayAmount.Equal(in.PayAmount))
	assert.Equal(t, now.Add(604800*time.Second), job.ExpiryDate)
	assert.Equal(t, job.ExpiryDate.Add(24*time.Hour).Unix(), job.RetainUntil)
	assert.Equal(t, now, job.CreatedAt)
	assert.Equal(t, now, job.UpdatedAt)
	assert.Nil(t, job.IdempotencyKey)
	assert.Nil(t, job.ClaimerID)

	in.IdempotencyKey = "create-once"
	withKey := NewJob(in, now)
	require.NotNil(t, withKey.IdempotencyKey)
	assert.Equal(t, "create-once", *withKey.IdempotencyKey)
}

func TestTerminal(t *testing.T) {
	terminal := map[string]bool{
		StatusOpen:      false,
		StatusClaimed:   false,
		StatusSubmitted: false,
		StatusApproved:  true,
		StatusRejected:  true,
		StatusCancelled: true,
		StatusExpired:   true,
	}

	for _, status := range Statuses {
		assert.Equal(t, terminal[status], Terminal(status), status)
	}
}
