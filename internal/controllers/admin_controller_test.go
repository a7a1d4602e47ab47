package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"loadtrack/internal/models"
)

func TestFlattenHistory(t *testing.T) {
	assert.Empty(t, flattenHistory(nil))

	history := models.EmailHistory{
		{Recipients: []string{"a@example.com", "b@example.com"}, Timestamp: "2026-03-14T09:30:00Z", Status: "sent"},
		{Recipients: []string{"c@example.com"}, Timestamp: "2026-03-15T10:00:00Z", Status: "sent"},
	}
	got := flattenHistory(history)
	assert.Equal(t,
		"2026-03-14T09:30:00Z sent to a@example.com;b@example.com | 2026-03-15T10:00:00Z sent to c@example.com",
		got)
}

func TestFormatCSVTime(t *testing.T) {
	assert.Empty(t, formatCSVTime(nil))

	loc := time.FixedZone("EST", -5*3600)
	ts := time.Date(2026, 3, 14, 4, 30, 0, 0, loc)
	assert.Equal(t, "2026-03-14T09:30:00Z", formatCSVTime(&ts))
}
