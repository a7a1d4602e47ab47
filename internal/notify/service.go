package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	logrus "github.com/sirupsen/logrus"

	"loadtrack/internal/apperrors"
	"loadtrack/internal/models"
	"loadtrack/internal/registry"
	"loadtrack/internal/report"
)

// LoadStore is the slice of the load registry the send flow needs.
type LoadStore interface {
	GetLoad(loadID uint) (*models.Load, error)
	RecordPickupCompletion(load *models.Load) error
	RecordDeliveryCompletion(load *models.Load) error
	AppendEmailHistory(loadID uint, channel registry.EmailChannel, entry models.EmailRecord) error
}

// Service runs the report send flow: render, send, and only after a
// confirmed send advance the load status and append the audit entry. A
// failed send leaves both untouched, so retries cannot corrupt state.
type Service struct {
	Loads     LoadStore
	Directory Directory
	Photos    PhotoSource
	Renderer  *report.Renderer
	Mailer    Mailer
	Now       func() time.Time
}

// SendResult reports what a successful dispatch did.
type SendResult struct {
	Recipients []string          `json:"recipients"`
	LoadData   map[string]string `json:"load_data"`
	MessageID  string            `json:"message_id"`
}

func channelLabel(channel registry.EmailChannel) string {
	if channel == registry.ChannelDelivery {
		return "Delivery"
	}
	return "Pickup"
}

// SendReport dispatches the pickup or delivery report for a load.
func (s *Service) SendReport(ctx context.Context, loadID uint, channel registry.EmailChannel, correlationID string) (*SendResult, error) {
	load, err := s.Loads.GetLoad(loadID)
	if err != nil {
		return nil, err
	}

	// Check the transition up front so a load in the wrong state is rejected
	// before anything is rendered or sent.
	switch channel {
	case registry.ChannelPickup:
		if !load.Status.CanAdvanceTo(models.StatusPickupCompleted) {
			return nil, fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, load.Status, models.StatusPickupCompleted)
		}
	case registry.ChannelDelivery:
		if !load.Status.CanAdvanceTo(models.StatusDelivered) {
			return nil, fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, load.Status, models.StatusDelivered)
		}
	default:
		return nil, apperrors.Validationf("unknown email channel %q", channel)
	}

	driver, err := s.Directory.DriverByID(load.DriverID)
	if err != nil {
		return nil, err
	}

	recipients, err := s.Directory.RecipientsFor(load, driver)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, apperrors.NotFoundf("no recipient emails found")
	}

	address := s.Directory.LastAddress(driver.ID)
	photoInputs, err := s.Photos.Photos(ctx, load.ID)
	if err != nil {
		return nil, err
	}

	// Stamp the milestone time on the snapshot so it appears in the report,
	// but persist it only after the send is confirmed.
	now := s.Now().UTC()
	snapshot := *load
	includePOD := channel == registry.ChannelDelivery
	if includePOD {
		snapshot.DeliveryDatetime = &now
	} else {
		snapshot.PickupDatetime = &now
	}

	pdfBytes, err := s.Renderer.Render(&snapshot, driver.Name, address, photoInputs, includePOD)
	if err != nil {
		return nil, err
	}

	rows := report.Rows(&snapshot, driver.Name, address)
	label := channelLabel(channel)

	msg := Email{
		To:             recipients,
		Subject:        fmt.Sprintf("%s Report: %s", label, load.PickupNumber),
		HTMLBody:       HTMLBody(label, load.LoadNumber, rows),
		AttachmentName: report.FileName(load.LoadNumber),
		Attachment:     pdfBytes,
	}
	if channel == registry.ChannelPickup {
		msg.MessageID = NewMessageID()
	} else {
		msg.InReplyTo = ThreadRoot(load.PickupEmailHistory)
	}

	if err := s.Mailer.Send(ctx, msg); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"load_id": load.ID,
			"channel": channel,
		}).Error("report email send failed")
		return nil, err
	}

	// Send confirmed: advance the workflow and append to the audit history.
	if channel == registry.ChannelPickup {
		err = s.Loads.RecordPickupCompletion(load)
	} else {
		err = s.Loads.RecordDeliveryCompletion(load)
	}
	if err != nil {
		return nil, err
	}

	entry := models.EmailRecord{
		Recipients:    recipients,
		Timestamp:     now.Format(time.RFC3339),
		Status:        "sent",
		MessageID:     msg.MessageID,
		CorrelationID: correlationID,
	}
	if err := s.Loads.AppendEmailHistory(load.ID, channel, entry); err != nil {
		return nil, err
	}

	return &SendResult{
		Recipients: recipients,
		LoadData:   rowsToMap(rows),
		MessageID:  msg.MessageID,
	}, nil
}

// NewMessageID mints an RFC 5322 Message-ID for the pickup mail.
func NewMessageID() string {
	return fmt.Sprintf("<%s@loadtrack>", uuid.NewString())
}

// ThreadRoot finds the Message-ID of the first successful pickup send, so
// delivery mails thread under it. Empty when no pickup mail went out.
func ThreadRoot(history models.EmailHistory) string {
	if len(history) == 0 {
		return ""
	}
	return history[0].MessageID
}

// HTMLBody renders the email body table matching the attached PDF.
func HTMLBody(label, loadNumber string, rows []report.Row) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, `<h2 style="color:#2E86C1;">%s Report: %s</h2>`, label, html.EscapeString(loadNumber))
	b.WriteString(`<table style="border-collapse: collapse; width: 100%; border: 1px solid #333;">`)
	b.WriteString(`<thead><tr><th style="border: 1px solid #333; padding: 8px; text-align: left; background-color: #f2f2f2;">Field</th>` +
		`<th style="border: 1px solid #333; padding: 8px; text-align: left; background-color: #f2f2f2;">Details</th></tr></thead><tbody>`)
	for _, row := range rows {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td></tr>",
			html.EscapeString(row.Label), html.EscapeString(row.Value))
	}
	b.WriteString("</tbody></table></body></html>")
	return b.String()
}

func rowsToMap(rows []report.Row) map[string]string {
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		key := strings.ToLower(strings.ReplaceAll(row.Label, " ", "_"))
		out[key] = row.Value
	}
	return out
}
