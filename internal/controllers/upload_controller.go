package controllers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"

	"loadtrack/internal/apperrors"
	"loadtrack/internal/models"
	"loadtrack/internal/photos"
)

// formFileFields maps multipart form keys to photo categories for step 3.
var formFileFields = map[string]models.PhotoCategory{
	"trailer_picture":        models.PhotoTrailer,
	"pulp_picture":           models.PhotoPulp,
	"reefer_picture":         models.PhotoReefer,
	"load_secure_picture":    models.PhotoLoadSecure,
	"sealed_trailer_picture": models.PhotoSealedTrailer,
	"bol_picture":            models.PhotoBOL,
}

func readUploads(files []*multipart.FileHeader) ([]photos.Upload, error) {
	out := make([]photos.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, photos.Upload{Name: fh.Filename, Data: data})
	}
	return out, nil
}

// parseIDList parses the comma-separated "{field}_existing_ids" value the app
// sends; non-numeric entries are ignored.
func parseIDList(raw string) []uint {
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}

func appendNotes(existing, addition string) string {
	addition = strings.TrimSpace(addition)
	if addition == "" {
		return existing
	}
	if existing != "" {
		existing += "\n"
	}
	return existing + addition
}

// SaveUpload is the step-3 endpoint: pickup notes, seal number, reefer
// temperatures, and the first batch of evidence photos. The first successful
// call moves a pending load into in_transit.
func SaveUpload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
		return
	}

	loadID, err := strconv.ParseUint(c.PostForm("load_id"), 10, 32)
	if err != nil || loadID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "load_id is required"})
		return
	}
	load, err := Reg.GetLoad(uint(loadID))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	updates := map[string]interface{}{}
	if notes := c.PostForm("pickup_notes"); strings.TrimSpace(notes) != "" {
		updates["pickup_notes"] = appendNotes(load.PickupNotes, notes)
	}
	if seal, ok := c.GetPostForm("seal_number"); ok {
		updates["seal_number"] = seal
	}
	if reason := c.PostForm("pulp_reason"); strings.TrimSpace(reason) != "" {
		updates["pulp_reason"] = strings.TrimSpace(reason)
	}
	if load.IsReefer() {
		updates["reefer_temp_shipper"] = c.PostForm("reefer_temp_shipper")
		updates["reefer_temp_bol"] = c.PostForm("reefer_temp_bol")
		unit := c.PostForm("reefer_temp_unit")
		if unit == "" {
			unit = "C"
		}
		updates["reefer_temp_unit"] = unit
	}
	if load.Status == models.StatusPendingPickup {
		updates["status"] = models.StatusInTransit
	}

	if err := Reg.UpdateFields(load, updates); err != nil {
		apperrors.Respond(c, err)
		return
	}

	ctx := c.Request.Context()
	for field, category := range formFileFields {
		uploads, err := readUploads(form.File[field])
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded file: " + err.Error()})
			return
		}
		for _, up := range uploads {
			if _, err := Ledger.Attach(ctx, load, category, up.Name, up.Data); err != nil {
				logrus.WithError(err).WithField("load_id", load.ID).Error("photo attach failed")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store uploaded file"})
				return
			}
		}
	}

	data, err := Ledger.FileResponse(load)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Step 3 data saved successfully", "data": data})
}

// UpdateUpload edits the step-3 upload set: per category the app sends the
// photo ids it keeps plus any new files.
func UpdateUpload(c *gin.Context) {
	loadID, err := strconv.ParseUint(c.Param("loadId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid load ID format"})
		return
	}
	load, err := Reg.GetLoad(uint(loadID))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
		return
	}

	updates := map[string]interface{}{}
	textFields := []string{"pickup_notes", "seal_number", "pulp_reason"}
	if load.IsReefer() {
		textFields = append(textFields, "reefer_temp_shipper", "reefer_temp_bol", "reefer_temp_unit")
	}
	for _, field := range textFields {
		if value, ok := c.GetPostForm(field); ok {
			updates[field] = value
		}
	}
	if err := Reg.UpdateFields(load, updates); err != nil {
		apperrors.Respond(c, err)
		return
	}

	ctx := c.Request.Context()
	for field, category := range formFileFields {
		keepIDs := parseIDList(c.PostForm(field + "_existing_ids"))
		uploads, err := readUploads(form.File[field])
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded file: " + err.Error()})
			return
		}
		if err := Ledger.ReplaceSet(ctx, load, category, keepIDs, uploads); err != nil {
			logrus.WithError(err).WithField("load_id", load.ID).Error("photo set update failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update uploaded files"})
			return
		}
	}

	data, err := Ledger.FileResponse(load)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Step 3 data updated successfully", "data": data})
}

// GetUploads returns the current step-3 upload state.
func GetUploads(c *gin.Context) {
	loadID, err := strconv.ParseUint(c.Param("loadId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid load ID format"})
		return
	}
	load, err := Reg.GetLoad(uint(loadID))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	data, err := Ledger.FileResponse(load)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, data)
}

// SaveDeliveryInfo is the step-4 endpoint: delivery number, delivery notes,
// and the proof-of-delivery photo set.
func SaveDeliveryInfo(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
		return
	}

	loadID, err := strconv.ParseUint(c.PostForm("load_id"), 10, 32)
	if err != nil || loadID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "load_id is required"})
		return
	}
	load, err := Reg.GetLoad(uint(loadID))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	updates := map[string]interface{}{}
	deliveryNumber, ok := c.GetPostForm("delivery_number")
	if !ok {
		deliveryNumber, ok = c.GetPostForm("deliveryNumber")
	}
	if ok {
		updates["delivery_number"] = deliveryNumber
	}
	if notes := strings.TrimSpace(c.PostForm("notes")); notes != "" {
		updates["delivery_notes"] = appendNotes(load.DeliveryNotes, "Delivery notes: "+notes)
	}
	if err := Reg.UpdateFields(load, updates); err != nil {
		apperrors.Respond(c, err)
		return
	}

	keepIDs := parseIDList(c.PostForm("pod_existing_ids"))
	uploads, err := readUploads(form.File["pod_files"])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded file: " + err.Error()})
		return
	}
	if err := Ledger.ReplaceSet(c.Request.Context(), load, models.PhotoPOD, keepIDs, uploads); err != nil {
		logrus.WithError(err).WithField("load_id", load.ID).Error("pod set update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update POD files"})
		return
	}

	data, err := deliveryResponse(load)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Step 4 data saved successfully", "data": data})
}

// GetDeliveryInfo returns the step-4 state including the POD set.
func GetDeliveryInfo(c *gin.Context) {
	loadID, err := strconv.ParseUint(c.Param("loadId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid load ID format"})
		return
	}
	load, err := Reg.GetLoad(uint(loadID))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	data, err := deliveryResponse(load)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	data["delivery_notes"] = load.DeliveryNotes
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func deliveryResponse(load *models.Load) (map[string]interface{}, error) {
	data, err := Ledger.FileResponse(load)
	if err != nil {
		return nil, err
	}
	pods, err := Ledger.List(load.ID, models.PhotoPOD)
	if err != nil {
		return nil, err
	}
	data["pod"] = Ledger.Refs(pods)
	data["delivery_number"] = load.DeliveryNumber
	data["status"] = load.Status
	return data, nil
}
