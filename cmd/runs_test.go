package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinderslides/kinderslides/internal/config"
	"github.com/kinderslides/kinderslides/internal/model"
	"github.com/kinderslides/kinderslides/internal/monitoring"
	"github.com/kinderslides/kinderslides/internal/store"
)

func TestFormatResolutions(t *testing.T) {
	var buf bytes.Buffer
	formatResolutions(&buf, []model.Resolution{
		{
			ID:          "0123456789abcdef",
			Item:        "A - Apple",
			Status:      model.ResultValidated,
			Profile:     "education-illustration",
			VisionCalls: 2,
			DurationMS:  1234,
			CreatedAt:   time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			ID:     "short",
			Item:   "custom item: an extremely long item name that overflows",
			Status: model.ResultUnavailable,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "A - Apple")
	assert.Contains(t, out, "validated")
	assert.Contains(t, out, "2026-03-01 09:30")
	assert.Contains(t, out, "1.23s")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "unavailable")
}

func TestFormatSnapshot(t *testing.T) {
	var buf bytes.Buffer
	formatSnapshot(&buf, &monitoring.MetricsSnapshot{
		Total:           4,
		Validated:       2,
		Fallback:        1,
		Unavailable:     1,
		UnavailableRate: 0.25,
		DegradedRate:    0.25,
		LookbackHours:   24,
	})

	out := buf.String()
	assert.Contains(t, out, "24h")
	assert.Contains(t, out, "Validated:")
	assert.Contains(t, out, "25.0%")
}

func TestFormatSnapshot_Empty(t *testing.T) {
	var buf bytes.Buffer
	formatSnapshot(&buf, &monitoring.MetricsSnapshot{LookbackHours: 1})
	assert.NotContains(t, buf.String(), "rate")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abcdefgh", truncateID("abcdefghijk"))
	assert.Equal(t, "abc", truncateID("abc"))
}

func TestOpenHistory_Disabled(t *testing.T) {
	setTestConfig(t, func(c *config.Config) { c.Store.Driver = "none" })

	_, err := openHistory(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history is disabled")
}

func TestOpenHistory_SQLite(t *testing.T) {
	setTestConfig(t, nil)

	st, err := openHistory(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	require.NoError(t, st.RecordResolution(context.Background(), model.Resolution{
		Item:   "Apple",
		Status: model.ResultValidated,
	}))
	rows, err := st.ListResolutions(context.Background(), store.Filter{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
