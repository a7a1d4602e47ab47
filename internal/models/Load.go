package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// LoadStatus is the workflow state of a load. The lifecycle is a fixed path:
// pending_pickup -> in_transit -> pickup_completed -> delivered.
type LoadStatus string

const (
	StatusPendingPickup   LoadStatus = "pending_pickup"
	StatusInTransit       LoadStatus = "in_transit"
	StatusPickupCompleted LoadStatus = "pickup_completed"
	StatusDelivered       LoadStatus = "delivered"
)

// allowedStatusTransitions maps each status to its single legal successor.
// StatusDelivered is terminal and has no entry.
var allowedStatusTransitions = map[LoadStatus]LoadStatus{
	StatusPendingPickup:   StatusInTransit,
	StatusInTransit:       StatusPickupCompleted,
	StatusPickupCompleted: StatusDelivered,
}

func (s LoadStatus) Valid() bool {
	switch s {
	case StatusPendingPickup, StatusInTransit, StatusPickupCompleted, StatusDelivered:
		return true
	}
	return false
}

// Next returns the only status s may advance to, or false when s is terminal.
func (s LoadStatus) Next() (LoadStatus, bool) {
	next, ok := allowedStatusTransitions[s]
	return next, ok
}

// CanAdvanceTo reports whether target is the single legal successor of s.
func (s LoadStatus) CanAdvanceTo(target LoadStatus) bool {
	next, ok := allowedStatusTransitions[s]
	return ok && next == target
}

// EquipmentType is the trailer/equipment category of a load.
type EquipmentType string

const (
	EquipmentDryVan        EquipmentType = "dry_van"
	EquipmentReefer        EquipmentType = "reefer"
	EquipmentFlatbed       EquipmentType = "flatbed"
	EquipmentStepdeck      EquipmentType = "stepdeck"
	EquipmentHeatedVan     EquipmentType = "heated_van"
	EquipmentStraightTruck EquipmentType = "straight_truck"
)

// EquipmentTypes lists every known equipment type with its display label,
// in the order the mobile app shows them.
var EquipmentTypes = []struct {
	ID   EquipmentType
	Name string
}{
	{EquipmentDryVan, "Dry Van"},
	{EquipmentReefer, "Reefer"},
	{EquipmentFlatbed, "Flatbed"},
	{EquipmentStepdeck, "Stepdeck"},
	{EquipmentHeatedVan, "Heated Van"},
	{EquipmentStraightTruck, "Straight Truck"},
}

func (e EquipmentType) Valid() bool {
	for _, t := range EquipmentTypes {
		if t.ID == e {
			return true
		}
	}
	return false
}

// IsReefer matches case-insensitively so values saved by older app builds
// ("Reefer") still count.
func (e EquipmentType) IsReefer() bool {
	return strings.EqualFold(string(e), string(EquipmentReefer))
}

// EmailRecord is one append-only audit entry for a sent report email.
type EmailRecord struct {
	Recipients    []string `json:"email"`
	Timestamp     string   `json:"timestamp"`
	Status        string   `json:"status"`
	MessageID     string   `json:"message_id,omitempty"`
	CorrelationID string   `json:"correlation_id,omitempty"`
}

// EmailHistory is stored as a JSONB list. Entries are only ever appended;
// nothing in the codebase updates or removes them.
type EmailHistory []EmailRecord

func (h EmailHistory) Value() (driver.Value, error) {
	if h == nil {
		h = EmailHistory{}
	}
	return json.Marshal(h)
}

func (h *EmailHistory) Scan(value interface{}) error {
	if value == nil {
		*h = EmailHistory{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported type for EmailHistory")
	}
	if len(raw) == 0 {
		*h = EmailHistory{}
		return nil
	}
	return json.Unmarshal(raw, h)
}

// Load is one shipment leg tracked from pickup to delivery.
type Load struct {
	gorm.Model
	DriverID uint          `json:"driver_id" gorm:"index"`
	Driver   DriverProfile `json:"-" gorm:"foreignKey:DriverID;constraint:OnDelete:CASCADE"`

	TruckNumber   string `json:"truck_number"`
	TrailerNumber string `json:"trailer_number"`
	CustomerName  string `json:"customer_name" gorm:"index"`
	LoadNumber    string `json:"load_number"`
	OrderNumber   string `json:"order_number"`
	PickupNumber  string `json:"pickup_number"`
	ReeferPreCool string `json:"reefer_pre_cool"`
	SealNumber    string `json:"seal_number"`

	PickupNotes    string `json:"pickup_notes"`
	DeliveryNotes  string `json:"delivery_notes"`
	DeliveryNumber string `json:"delivery_number"`
	PulpReason     string `json:"pulp_reason"`

	// Reefer-only fields. Meaningful only when EquipmentType is reefer;
	// external representations must omit them otherwise.
	ReeferTempShipper string `json:"reefer_temp_shipper"`
	ReeferTempBOL     string `json:"reefer_temp_bol"`
	ReeferTempUnit    string `json:"reefer_temp_unit" gorm:"default:C"`

	EquipmentType EquipmentType `json:"equipment_type" gorm:"default:dry_van"`
	Status        LoadStatus    `json:"status" gorm:"default:pending_pickup"`

	PickupDatetime   *time.Time `json:"pickup_datetime"`
	DeliveryDatetime *time.Time `json:"delivery_datetime"`

	PickupEmailHistory   EmailHistory `json:"pickup_email_history" gorm:"type:jsonb;default:'[]'"`
	DeliveryEmailHistory EmailHistory `json:"delivery_email_history" gorm:"type:jsonb;default:'[]'"`

	LastNotificationSent *time.Time `json:"last_notification_sent"`

	// Version guards concurrent updates (optimistic lock).
	Version uint `json:"-" gorm:"not null;default:1"`

	Photos []LoadPhoto `json:"photos,omitempty" gorm:"foreignKey:LoadID;constraint:OnDelete:CASCADE"`
}

func (l *Load) IsReefer() bool {
	return l.EquipmentType.IsReefer()
}
