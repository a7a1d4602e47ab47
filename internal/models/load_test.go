package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusLifecycle(t *testing.T) {
	cases := []struct {
		from    LoadStatus
		to      LoadStatus
		allowed bool
	}{
		{StatusPendingPickup, StatusInTransit, true},
		{StatusInTransit, StatusPickupCompleted, true},
		{StatusPickupCompleted, StatusDelivered, true},

		{StatusPendingPickup, StatusPickupCompleted, false},
		{StatusPendingPickup, StatusDelivered, false},
		{StatusInTransit, StatusDelivered, false},
		{StatusInTransit, StatusPendingPickup, false},
		{StatusDelivered, StatusPendingPickup, false},
		{StatusDelivered, StatusDelivered, false},
		{StatusPickupCompleted, StatusPickupCompleted, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanAdvanceTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestStatusNextTerminal(t *testing.T) {
	next, ok := StatusPickupCompleted.Next()
	require.True(t, ok)
	assert.Equal(t, StatusDelivered, next)

	_, ok = StatusDelivered.Next()
	assert.False(t, ok, "delivered must be terminal")
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusInTransit.Valid())
	assert.False(t, LoadStatus("cancelled").Valid())
}

func TestEquipmentIsReefer(t *testing.T) {
	assert.True(t, EquipmentType("reefer").IsReefer())
	assert.True(t, EquipmentType("Reefer").IsReefer())
	assert.True(t, EquipmentType("REEFER").IsReefer())
	assert.False(t, EquipmentDryVan.IsReefer())
}

func TestEmailHistoryValue(t *testing.T) {
	var nilHistory EmailHistory
	v, err := nilHistory.Value()
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(v.([]byte)))

	h := EmailHistory{{Recipients: []string{"a@example.com"}, Timestamp: "2026-01-02T15:04:05Z", Status: "sent"}}
	v, err = h.Value()
	require.NoError(t, err)
	assert.Contains(t, string(v.([]byte)), "a@example.com")
}

func TestEmailHistoryScan(t *testing.T) {
	raw := `[{"email":["a@example.com","b@example.com"],"timestamp":"2026-01-02T15:04:05Z","status":"sent","message_id":"<x@loadtrack>"}]`

	var fromBytes EmailHistory
	require.NoError(t, fromBytes.Scan([]byte(raw)))
	require.Len(t, fromBytes, 1)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, fromBytes[0].Recipients)
	assert.Equal(t, "<x@loadtrack>", fromBytes[0].MessageID)

	var fromString EmailHistory
	require.NoError(t, fromString.Scan(raw))
	assert.Equal(t, fromBytes, fromString)

	var fromNil EmailHistory
	require.NoError(t, fromNil.Scan(nil))
	assert.Empty(t, fromNil)

	var fromEmpty EmailHistory
	require.NoError(t, fromEmpty.Scan([]byte{}))
	assert.Empty(t, fromEmpty)

	var bad EmailHistory
	assert.Error(t, bad.Scan(42))
}
