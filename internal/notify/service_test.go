package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadtrack/internal/apperrors"
	"loadtrack/internal/models"
	"loadtrack/internal/registry"
	"loadtrack/internal/report"
)

// --- mocks ---

type mockStore struct {
	load *models.Load

	pickupRecorded   bool
	deliveryRecorded bool
	history          []models.EmailRecord
	channels         []registry.EmailChannel
}

func (m *mockStore) GetLoad(uint) (*models.Load, error) { return m.load, nil }

func (m *mockStore) RecordPickupCompletion(*models.Load) error {
	m.pickupRecorded = true
	return nil
}

func (m *mockStore) RecordDeliveryCompletion(*models.Load) error {
	m.deliveryRecorded = true
	return nil
}

func (m *mockStore) AppendEmailHistory(_ uint, channel registry.EmailChannel, entry models.EmailRecord) error {
	m.channels = append(m.channels, channel)
	m.history = append(m.history, entry)
	return nil
}

type mockDirectory struct {
	driver     *models.DriverProfile
	recipients []string
	address    string
}

func (m *mockDirectory) DriverByID(uint) (*models.DriverProfile, error) { return m.driver, nil }
func (m *mockDirectory) RecipientsFor(*models.Load, *models.DriverProfile) ([]string, error) {
	return m.recipients, nil
}
func (m *mockDirectory) LastAddress(uint) string { return m.address }

type mockPhotoSource struct{}

func (mockPhotoSource) Photos(context.Context, uint) ([]report.PhotoInput, error) { return nil, nil }

type mockMailer struct {
	err  error
	sent []Email
}

func (m *mockMailer) Send(_ context.Context, msg Email) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// --- fixtures ---

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
}

func newService(store *mockStore, mailer *mockMailer) *Service {
	return &Service{
		Loads: store,
		Directory: &mockDirectory{
			driver:     &models.DriverProfile{Name: "Jo Driver", Company: "Acme Freight"},
			recipients: []string{"customer@example.com", "dispatch@example.com"},
			address:    "401 Kennedy Rd, Toronto",
		},
		Photos:   mockPhotoSource{},
		Renderer: &report.Renderer{Now: fixedNow},
		Mailer:   mailer,
		Now:      fixedNow,
	}
}

func testLoad(status models.LoadStatus) *models.Load {
	return &models.Load{
		DriverID:      7,
		LoadNumber:    "L-100",
		PickupNumber:  "P-300",
		CustomerName:  "Acme Produce",
		EquipmentType: models.EquipmentDryVan,
		Status:        status,
	}
}

// --- tests ---

func TestSendPickupReportSuccess(t *testing.T) {
	store := &mockStore{load: testLoad(models.StatusInTransit)}
	mailer := &mockMailer{}
	svc := newService(store, mailer)

	result, err := svc.SendReport(context.Background(), 1, registry.ChannelPickup, "corr-1")
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "Pickup Report: P-300", msg.Subject)
	assert.Equal(t, []string{"customer@example.com", "dispatch@example.com"}, msg.To)
	assert.Equal(t, "L-100_all_photos.pdf", msg.AttachmentName)
	assert.NotEmpty(t, msg.Attachment)
	assert.NotEmpty(t, msg.MessageID)
	assert.Empty(t, msg.InReplyTo, "pickup mail starts the thread")

	assert.True(t, store.pickupRecorded)
	require.Len(t, store.history, 1)
	assert.Equal(t, registry.ChannelPickup, store.channels[0])
	assert.Equal(t, "sent", store.history[0].Status)
	assert.Equal(t, msg.MessageID, store.history[0].MessageID)
	assert.Equal(t, "corr-1", store.history[0].CorrelationID)
	assert.Equal(t, msg.MessageID, result.MessageID)
	assert.Equal(t, "Jo Driver", result.LoadData["driver"])
}

func TestSendReportFailureLeavesStateUntouched(t *testing.T) {
	store := &mockStore{load: testLoad(models.StatusInTransit)}
	mailer := &mockMailer{err: errors.New("smtp down")}
	svc := newService(store, mailer)

	_, err := svc.SendReport(context.Background(), 1, registry.ChannelPickup, "corr-2")
	require.Error(t, err)

	assert.False(t, store.pickupRecorded, "a failed send must not advance the load")
	assert.Empty(t, store.history, "a failed send must not appear in the audit history")
}

func TestSendReportRejectsWrongStatus(t *testing.T) {
	cases := []struct {
		status  models.LoadStatus
		channel registry.EmailChannel
	}{
		{models.StatusPendingPickup, registry.ChannelPickup},
		{models.StatusPickupCompleted, registry.ChannelPickup},
		{models.StatusDelivered, registry.ChannelPickup},
		{models.StatusPendingPickup, registry.ChannelDelivery},
		{models.StatusInTransit, registry.ChannelDelivery},
		{models.StatusDelivered, registry.ChannelDelivery},
	}
	for _, tc := range cases {
		store := &mockStore{load: testLoad(tc.status)}
		mailer := &mockMailer{}
		svc := newService(store, mailer)

		_, err := svc.SendReport(context.Background(), 1, tc.channel, "")
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "%s/%s", tc.status, tc.channel)
		assert.Empty(t, mailer.sent, "nothing may be sent for %s/%s", tc.status, tc.channel)
	}
}

func TestSendDeliveryReportThreadsUnderPickup(t *testing.T) {
	load := testLoad(models.StatusPickupCompleted)
	load.PickupEmailHistory = models.EmailHistory{
		{MessageID: "<root@loadtrack>", Status: "sent"},
		{MessageID: "<second@loadtrack>", Status: "sent"},
	}
	store := &mockStore{load: load}
	mailer := &mockMailer{}
	svc := newService(store, mailer)

	_, err := svc.SendReport(context.Background(), 1, registry.ChannelDelivery, "")
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Delivery Report: P-300", mailer.sent[0].Subject)
	assert.Equal(t, "<root@loadtrack>", mailer.sent[0].InReplyTo,
		"delivery mail threads under the first pickup send")
	assert.True(t, store.deliveryRecorded)
	assert.Equal(t, []registry.EmailChannel{registry.ChannelDelivery}, store.channels)
}

func TestSendReportNoRecipients(t *testing.T) {
	store := &mockStore{load: testLoad(models.StatusInTransit)}
	svc := newService(store, &mockMailer{})
	svc.Directory = &mockDirectory{driver: &models.DriverProfile{}, recipients: nil}

	_, err := svc.SendReport(context.Background(), 1, registry.ChannelPickup, "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSendReportUnknownChannel(t *testing.T) {
	store := &mockStore{load: testLoad(models.StatusInTransit)}
	svc := newService(store, &mockMailer{})

	_, err := svc.SendReport(context.Background(), 1, registry.EmailChannel("fax"), "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestNewMessageID(t *testing.T) {
	id := NewMessageID()
	assert.True(t, strings.HasPrefix(id, "<"))
	assert.True(t, strings.HasSuffix(id, "@loadtrack>"))
	assert.NotEqual(t, id, NewMessageID())
}

func TestThreadRoot(t *testing.T) {
	assert.Empty(t, ThreadRoot(nil))
	assert.Empty(t, ThreadRoot(models.EmailHistory{}))
	assert.Equal(t, "<a@loadtrack>", ThreadRoot(models.EmailHistory{
		{MessageID: "<a@loadtrack>"},
		{MessageID: "<b@loadtrack>"},
	}))
}

func TestHTMLBodyEscapes(t *testing.T) {
	body := HTMLBody("Pickup", `L<script>`, []report.Row{{Label: "Driver", Value: "Jo & Co"}})
	assert.Contains(t, body, "L&lt;script&gt;")
	assert.Contains(t, body, "Jo &amp; Co")
	assert.NotContains(t, body, "<script>")
}
