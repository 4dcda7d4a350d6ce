package handler

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigboard/gigboard/internal/jobs"
)

func TestJobCursorRoundTrip(t *testing.T) {
	original := &jobs.Cursor{
		CreatedAt: time.Date(2026, 3, 10, 12, 0, 0, 123456789, time.UTC),
		JobID:     "5f3a2c1e-9b8d-4c7a-a6e5-d4c3b2a19087",
	}

	decoded, err := DecodeJobCursor(EncodeJobCursor(original))
	require.NoError(t, err)
	require.NotNil(t, decoded)

	assert.True(t, decoded.CreatedAt.Equal(original.CreatedAt))
	assert.Equal(t, original.JobID, decoded.JobID)
}

func TestDecodeJobCursor(t *testing.T) {
	t.Run("empty cursor means first page", func(t *testing.T) {
		cursor, err := DecodeJobCursor("")
		require.NoError(t, err)
		assert.Nil(t, cursor)
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, err := DecodeJobCursor("not-base64!!!")
		assert.Error(t, err)
	})

	t.Run("missing separator", func(t *testing.T) {
		_, err := DecodeJobCursor(base64.StdEncoding.EncodeToString([]byte("1234567890")))
		assert.Error(t, err)
	})

	t.Run("non-numeric timestamp", func(t *testing.T) {
		_, err := DecodeJobCursor(base64.StdEncoding.EncodeToString([]byte("abc|job-1")))
		assert.Error(t, err)
	})
}
