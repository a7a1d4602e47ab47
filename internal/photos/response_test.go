package photos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadtrack/internal/models"
)

func urlFor(key string) string { return "/media/" + key }

func TestBuildFileResponseDryVan(t *testing.T) {
	load := &models.Load{
		EquipmentType:     models.EquipmentDryVan,
		PickupNotes:       "dock 4",
		SealNumber:        "S-9",
		ReeferTempShipper: "-2", // stale value from before an equipment change
		PulpReason:        "soft fruit",
	}

	resp := BuildFileResponse(load, nil, urlFor)

	assert.Equal(t, "dock 4", resp["pickup_notes"])
	assert.Equal(t, "S-9", resp["seal_number"])
	assert.Equal(t, "dry_van", resp["equipment_type"])

	// base categories are always present, even when empty
	for _, key := range []string{"trailer", "pulp", "load_secure", "sealed_trailer", "bol"} {
		_, ok := resp[key]
		assert.True(t, ok, "missing category key %s", key)
	}

	// reefer-only keys must be omitted entirely for non-reefer equipment
	for _, key := range []string{"reefer", "reefer_temp_shipper", "reefer_temp_bol", "reefer_temp_unit", "pulp_reason"} {
		_, ok := resp[key]
		assert.False(t, ok, "unexpected reefer key %s", key)
	}
}

func TestBuildFileResponseReefer(t *testing.T) {
	load := &models.Load{
		EquipmentType:     models.EquipmentReefer,
		ReeferTempShipper: "-2",
		ReeferTempBOL:     "-1",
		PulpReason:        "soft fruit",
	}

	resp := BuildFileResponse(load, nil, urlFor)

	assert.Equal(t, "-2", resp["reefer_temp_shipper"])
	assert.Equal(t, "-1", resp["reefer_temp_bol"])
	assert.Equal(t, "C", resp["reefer_temp_unit"], "unit defaults to Celsius")
	assert.Equal(t, "soft fruit", resp["pulp_reason"])
	_, ok := resp["reefer"]
	assert.True(t, ok)
}

func TestBuildFileResponseGroupsPhotos(t *testing.T) {
	load := &models.Load{EquipmentType: models.EquipmentDryVan}
	stored := []models.LoadPhoto{
		{Category: models.PhotoTrailer, StoredKey: "driver_uploads/trailer/a.jpg"},
		{Category: models.PhotoTrailer, StoredKey: "driver_uploads/trailer/b.jpg"},
		{Category: models.PhotoBOL, StoredKey: "driver_uploads/bol/c.jpg"},
		// pod is step-4 data and never appears in the step-3 map
		{Category: models.PhotoPOD, StoredKey: "driver_uploads/pod/d.jpg"},
		// reefer photos are hidden on a dry van
		{Category: models.PhotoReefer, StoredKey: "driver_uploads/reefer/e.jpg"},
	}

	resp := BuildFileResponse(load, stored, urlFor)

	trailer, ok := resp["trailer"].([]PhotoRef)
	require.True(t, ok)
	require.Len(t, trailer, 2)
	assert.Equal(t, "/media/driver_uploads/trailer/a.jpg", trailer[0].URL)

	bol := resp["bol"].([]PhotoRef)
	assert.Len(t, bol, 1)

	_, ok = resp["pod"]
	assert.False(t, ok)
	_, ok = resp["reefer"]
	assert.False(t, ok)
}
