// Package report renders the pickup/delivery PDF attached to customer
// emails: a field table for the load followed by one page per photo.
package report

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	logrus "github.com/sirupsen/logrus"

	"loadtrack/internal/models"
)

// PhotoInput is one photo to embed, already read from storage.
type PhotoInput struct {
	Category models.PhotoCategory
	Name     string
	Data     []byte
}

// Renderer produces report documents. Now is injectable so output is
// deterministic under test; everything else is a pure function of its inputs.
type Renderer struct {
	Now func() time.Time
}

func NewRenderer() *Renderer {
	return &Renderer{Now: time.Now}
}

// reportLocation is the timezone load timestamps are displayed in.
var reportLocation = func() *time.Location {
	loc, err := time.LoadLocation("America/Toronto")
	if err != nil {
		return time.UTC
	}
	return loc
}()

func formatStamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(reportLocation).Format("2006-01-02 15:04 MST")
}

// Row is one label/value line in the report table and email body.
type Row struct {
	Label string
	Value string
}

// Rows lists the report fields for a load. Reefer temperatures appear only
// for reefer equipment; pulp reason only when recorded.
func Rows(load *models.Load, driverName, locationAddress string) []Row {
	rows := []Row{
		{"Driver", driverName},
		{"Truck Number", load.TruckNumber},
		{"Trailer Number", load.TrailerNumber},
		{"Customer", load.CustomerName},
		{"Order Number", load.OrderNumber},
		{"Pick Number", load.PickupNumber},
		{"Seal Number", load.SealNumber},
		{"Delivery Number", load.DeliveryNumber},
		{"Pickup Notes", load.PickupNotes},
		{"Delivery Notes", load.DeliveryNotes},
		{"Pickup Date/Time", formatStamp(load.PickupDatetime)},
		{"Delivery Date/Time", formatStamp(load.DeliveryDatetime)},
		{"Current Location", locationAddress},
	}
	if load.PulpReason != "" {
		rows = append(rows, Row{"Pulp Reason", load.PulpReason})
	}
	if load.IsReefer() {
		rows = append(rows,
			Row{"Reefer Temp (Set by Shipper)", load.ReeferTempShipper},
			Row{"Reefer Temp on BOL", load.ReeferTempBOL},
			Row{"Temperature Unit", load.ReeferTempUnit},
		)
	}
	return rows
}

// Render builds the PDF. A photo that cannot be decoded or embedded becomes a
// placeholder line; one bad image never aborts the document.
func (r *Renderer) Render(load *models.Load, driverName, locationAddress string, photos []PhotoInput, includeDeliveryProofs bool) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Load %s", load.LoadNumber), false)

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("Load Report: %s", load.LoadNumber), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 6, "Generated "+r.Now().In(reportLocation).Format(time.RFC1123), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	for _, row := range Rows(load, driverName, locationAddress) {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(60, 7, row.Label, "1", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 7, row.Value, "1", "L", false)
	}

	for i, photo := range photos {
		if photo.Category == models.PhotoPOD && !includeDeliveryProofs {
			continue
		}
		r.addPhotoPage(pdf, load, i, photo)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report for load %d: %w", load.ID, err)
	}
	return buf.Bytes(), nil
}

const (
	pageWidth  = 210.0
	pageHeight = 297.0
	margin     = 15.0
	headerRoom = 12.0
)

func (r *Renderer) addPhotoPage(pdf *gofpdf.Fpdf, load *models.Load, idx int, photo PhotoInput) {
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("%s - %s", load.LoadNumber, photo.Category), "", 1, "L", false, 0, "")

	cfg, _, err := image.DecodeConfig(bytes.NewReader(photo.Data))
	imgType := imageType(photo.Name)
	if err != nil || imgType == "" || cfg.Width == 0 || cfg.Height == 0 {
		logrus.WithFields(logrus.Fields{
			"load_id": load.ID,
			"photo":   photo.Name,
		}).WithError(err).Warn("skipping unreadable photo in report")
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 8, fmt.Sprintf("[photo %s could not be rendered]", photo.Name), "", 1, "L", false, 0, "")
		return
	}

	usableW := pageWidth - 2*margin
	usableH := pageHeight - 2*margin - headerRoom
	scale := usableW / float64(cfg.Width)
	if h := float64(cfg.Height) * scale; h > usableH {
		scale = usableH / float64(cfg.Height)
	}
	w := float64(cfg.Width) * scale
	h := float64(cfg.Height) * scale
	x := margin + (usableW-w)/2
	y := margin + headerRoom + (usableH-h)/2

	opts := gofpdf.ImageOptions{ImageType: imgType, ReadDpi: false}
	name := fmt.Sprintf("photo-%d-%s", idx, photo.Name)
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(photo.Data))
	pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
}

func imageType(filename string) string {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(filename), ".")) {
	case "jpg", "jpeg":
		return "JPG"
	case "png":
		return "PNG"
	case "gif":
		return "GIF"
	default:
		return ""
	}
}

// FileName is the attachment name for a load's report.
func FileName(loadNumber string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, loadNumber)
	if safe == "" {
		safe = "load"
	}
	return safe + "_all_photos.pdf"
}
