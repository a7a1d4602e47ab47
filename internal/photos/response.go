package photos

import (
	"loadtrack/internal/models"
)

// fileMapCategories are the keys always present in a step-3 response. The
// reefer key is added only for reefer loads; pod only when asked for.
var fileMapCategories = []models.PhotoCategory{
	models.PhotoTrailer,
	models.PhotoPulp,
	models.PhotoLoadSecure,
	models.PhotoSealedTrailer,
	models.PhotoBOL,
}

// BuildFileResponse assembles the upload-state body shared by the step-3 and
// step-4 endpoints. Reefer-only fields are omitted entirely for non-reefer
// loads, even if values were stored while the load was still marked reefer.
func BuildFileResponse(load *models.Load, photos []models.LoadPhoto, urlFor func(string) string) map[string]interface{} {
	fileMap := map[models.PhotoCategory][]PhotoRef{}
	for _, c := range fileMapCategories {
		fileMap[c] = []PhotoRef{}
	}
	if load.IsReefer() {
		fileMap[models.PhotoReefer] = []PhotoRef{}
	}

	for _, p := range photos {
		if _, ok := fileMap[p.Category]; !ok {
			continue
		}
		fileMap[p.Category] = append(fileMap[p.Category], PhotoRef{ID: p.ID, URL: urlFor(p.StoredKey)})
	}

	resp := map[string]interface{}{
		"load_id":        load.ID,
		"pickup_notes":   load.PickupNotes,
		"seal_number":    load.SealNumber,
		"equipment_type": string(load.EquipmentType),
	}
	for c, refs := range fileMap {
		resp[string(c)] = refs
	}

	if load.IsReefer() {
		unit := load.ReeferTempUnit
		if unit == "" {
			unit = "C"
		}
		resp["reefer_temp_shipper"] = load.ReeferTempShipper
		resp["reefer_temp_bol"] = load.ReeferTempBOL
		resp["reefer_temp_unit"] = unit
		resp["pulp_reason"] = load.PulpReason
	}

	return resp
}

// FileResponse is the ledger-backed wrapper around BuildFileResponse.
func (l *Ledger) FileResponse(load *models.Load) (map[string]interface{}, error) {
	photos, err := l.List(load.ID, "")
	if err != nil {
		return nil, err
	}
	return BuildFileResponse(load, photos, l.store.URLFor), nil
}
