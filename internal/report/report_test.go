package report

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadtrack/internal/models"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
}

func baseLoad() *models.Load {
	pickup := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	return &models.Load{
		TruckNumber:   "T-12",
		TrailerNumber: "TR-88",
		CustomerName:  "Acme Produce",
		OrderNumber:   "O-551",
		PickupNumber:  "P-300",
		LoadNumber:    "L-100",
		SealNumber:    "S-9",
		PickupNotes:   "dock 4",
		EquipmentType: models.EquipmentDryVan,

		PickupDatetime: &pickup,
	}
}

func TestRowsBase(t *testing.T) {
	rows := Rows(baseLoad(), "Jo Driver", "401 Kennedy Rd, Toronto")
	require.Len(t, rows, 13)
	assert.Equal(t, Row{"Driver", "Jo Driver"}, rows[0])
	assert.Equal(t, "Current Location", rows[12].Label)
	assert.Equal(t, "401 Kennedy Rd, Toronto", rows[12].Value)
}

func TestRowsPulpAndReefer(t *testing.T) {
	load := baseLoad()
	load.PulpReason = "soft fruit"
	load.EquipmentType = models.EquipmentReefer
	load.ReeferTempShipper = "-2"
	load.ReeferTempBOL = "-1"
	load.ReeferTempUnit = "C"

	rows := Rows(load, "Jo Driver", "somewhere")
	require.Len(t, rows, 17)
	assert.Equal(t, Row{"Pulp Reason", "soft fruit"}, rows[13])
	assert.Equal(t, Row{"Reefer Temp (Set by Shipper)", "-2"}, rows[14])
	assert.Equal(t, Row{"Temperature Unit", "C"}, rows[16])
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRenderProducesPDF(t *testing.T) {
	r := &Renderer{Now: fixedNow}
	photos := []PhotoInput{
		{Category: models.PhotoTrailer, Name: "trailer.png", Data: tinyPNG(t)},
	}
	out, err := r.Render(baseLoad(), "Jo Driver", "somewhere", photos, false)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "output must be a PDF document")
}

func TestRenderSurvivesBadPhoto(t *testing.T) {
	r := &Renderer{Now: fixedNow}
	photos := []PhotoInput{
		{Category: models.PhotoTrailer, Name: "broken.jpg", Data: []byte("not an image")},
		{Category: models.PhotoBOL, Name: "empty.png", Data: nil},
		{Category: models.PhotoPulp, Name: "noext", Data: tinyPNG(t)},
	}
	out, err := r.Render(baseLoad(), "Jo Driver", "somewhere", photos, false)
	require.NoError(t, err, "a bad photo must not abort the report")
	assert.NotEmpty(t, out)
}

func TestImageType(t *testing.T) {
	assert.Equal(t, "JPG", imageType("a.jpg"))
	assert.Equal(t, "JPG", imageType("a.JPEG"))
	assert.Equal(t, "PNG", imageType("a.png"))
	assert.Equal(t, "GIF", imageType("a.gif"))
	assert.Equal(t, "", imageType("a.heic"))
	assert.Equal(t, "", imageType("noext"))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "L-100_all_photos.pdf", FileName("L-100"))
	assert.Equal(t, "L_100_9_all_photos.pdf", FileName("L 100/9"))
	assert.Equal(t, "load_all_photos.pdf", FileName(""))
}
