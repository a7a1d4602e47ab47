// Package registry owns the Load entity: creation, field merges, the status
// state machine, and the append-only email audit histories.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"loadtrack/internal/apperrors"
	"loadtrack/internal/models"
)

// EmailChannel selects which audit history an entry is appended to.
type EmailChannel string

const (
	ChannelPickup   EmailChannel = "pickup"
	ChannelDelivery EmailChannel = "delivery"
)

type Registry struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// TruckInfoInput is the step-1 payload. Nil pointers leave the stored field
// unchanged; pointers to empty strings blank it.
type TruckInfoInput struct {
	DriverID         uint
	LoadID           uint
	ForceNewLoad     bool
	ValidateRequired bool

	TruckNumber   *string
	TrailerNumber *string
	CustomerID    *uint
	CustomerName  *string
	LoadNumber    *string
	PickupNumber  *string
	OrderNumber   *string
	ReeferPreCool *string
	EquipmentType *string

	Status       *string
	UpdateStatus bool
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// ValidateStep1 checks the required step-1 fields under strict validation.
// Exported separately so the admin import path reuses it.
func ValidateStep1(in TruckInfoInput, customerResolved bool) error {
	required := []*string{in.TruckNumber, in.TrailerNumber, in.LoadNumber, in.PickupNumber}
	for _, f := range required {
		if f == nil || strings.TrimSpace(*f) == "" {
			return apperrors.Validationf("all required fields must be filled")
		}
	}
	if !customerResolved && (in.CustomerName == nil || strings.TrimSpace(*in.CustomerName) == "") {
		return apperrors.Validationf("all required fields must be filled")
	}
	if in.EquipmentType != nil && models.EquipmentType(*in.EquipmentType).IsReefer() {
		if in.ReeferPreCool == nil || strings.TrimSpace(*in.ReeferPreCool) == "" {
			return apperrors.Validationf("reefer pre-cool is required for reefer equipment")
		}
	}
	return nil
}

// SaveTruckInfo creates a new load or merges step-1 fields into an existing
// one. The returned bool is true when a new load was created.
func (r *Registry) SaveTruckInfo(in TruckInfoInput) (*models.Load, bool, error) {
	var drv models.DriverProfile
	if err := r.db.First(&drv, in.DriverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, apperrors.NotFoundf("driver profile")
		}
		return nil, false, err
	}

	if in.EquipmentType != nil && *in.EquipmentType != "" && !models.EquipmentType(*in.EquipmentType).Valid() {
		return nil, false, apperrors.Validationf("unknown equipment type %q", *in.EquipmentType)
	}

	// Resolve the customer within the driver's company.
	var customer *models.Customer
	if in.CustomerID != nil || (in.CustomerName != nil && *in.CustomerName != "") {
		q := r.db.Joins("Company").Where("LOWER(\"Company\".name) = LOWER(?)", drv.Company)
		var c models.Customer
		var err error
		if in.CustomerID != nil {
			err = q.Where("customers.id = ?", *in.CustomerID).First(&c).Error
		} else {
			err = q.Where("LOWER(customers.name) = LOWER(?)", *in.CustomerName).First(&c).Error
		}
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, false, apperrors.Authorizationf("customer does not belong to your company")
			}
			return nil, false, err
		}
		customer = &c
	}

	if in.ValidateRequired {
		if err := ValidateStep1(in, customer != nil); err != nil {
			return nil, false, err
		}
	}

	var load models.Load
	haveExisting := false
	if in.LoadID != 0 && !in.ForceNewLoad {
		err := r.db.Where("id = ? AND driver_id = ?", in.LoadID, drv.ID).First(&load).Error
		if err == nil {
			haveExisting = true
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}
	}

	customerName := strOrEmpty(in.CustomerName)
	if customer != nil {
		customerName = customer.Name
	}

	if !haveExisting {
		load = models.Load{
			DriverID:      drv.ID,
			TruckNumber:   strOrEmpty(in.TruckNumber),
			TrailerNumber: strOrEmpty(in.TrailerNumber),
			CustomerName:  customerName,
			LoadNumber:    strOrEmpty(in.LoadNumber),
			PickupNumber:  strOrEmpty(in.PickupNumber),
			OrderNumber:   strOrEmpty(in.OrderNumber),
			ReeferPreCool: strOrEmpty(in.ReeferPreCool),
			EquipmentType: models.EquipmentType(strOrEmpty(in.EquipmentType)),
			Status:        models.StatusPendingPickup,
			Version:       1,
		}
		if load.EquipmentType == "" {
			load.EquipmentType = models.EquipmentDryVan
		}
		if err := r.db.Create(&load).Error; err != nil {
			return nil, false, err
		}
		return &load, true, nil
	}

	updates := map[string]interface{}{}
	setIf := func(col string, p *string) {
		if p != nil {
			updates[col] = *p
		}
	}
	setIf("truck_number", in.TruckNumber)
	setIf("trailer_number", in.TrailerNumber)
	setIf("load_number", in.LoadNumber)
	setIf("pickup_number", in.PickupNumber)
	setIf("order_number", in.OrderNumber)
	setIf("reefer_pre_cool", in.ReeferPreCool)
	// An empty equipment type never blanks the stored value; the enum is
	// closed and the column carries a default.
	if in.EquipmentType != nil && *in.EquipmentType != "" {
		updates["equipment_type"] = *in.EquipmentType
	}
	if customer != nil || in.CustomerName != nil {
		updates["customer_name"] = customerName
	}

	if in.UpdateStatus && in.Status != nil && *in.Status != "" {
		target := models.LoadStatus(*in.Status)
		if !target.Valid() {
			return nil, false, apperrors.Validationf("unknown status %q", target)
		}
		if !load.Status.CanAdvanceTo(target) {
			return nil, false, fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, load.Status, target)
		}
		updates["status"] = target
	}

	if err := r.applyVersioned(&load, updates); err != nil {
		return nil, false, err
	}
	return &load, false, nil
}

// GetLoad fetches a single load by id.
func (r *Registry) GetLoad(loadID uint) (*models.Load, error) {
	var load models.Load
	if err := r.db.First(&load, loadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("load")
		}
		return nil, err
	}
	return &load, nil
}

// UpdateFields merges arbitrary column updates into a load under the
// optimistic version check.
func (r *Registry) UpdateFields(load *models.Load, updates map[string]interface{}) error {
	return r.applyVersioned(load, updates)
}

// AdvanceStatus moves a load one step along the lifecycle. Any target that is
// not the single legal successor is rejected.
func (r *Registry) AdvanceStatus(load *models.Load, target models.LoadStatus) error {
	if !target.Valid() {
		return apperrors.Validationf("unknown status %q", target)
	}
	if !load.Status.CanAdvanceTo(target) {
		return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, load.Status, target)
	}
	return r.applyVersioned(load, map[string]interface{}{"status": target})
}

// RecordPickupCompletion stamps the pickup time and advances the load to
// pickup_completed. The load must currently be in_transit.
func (r *Registry) RecordPickupCompletion(load *models.Load) error {
	if !load.Status.CanAdvanceTo(models.StatusPickupCompleted) {
		return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, load.Status, models.StatusPickupCompleted)
	}
	now := time.Now().UTC()
	return r.applyVersioned(load, map[string]interface{}{
		"status":          models.StatusPickupCompleted,
		"pickup_datetime": now,
	})
}

// RecordDeliveryCompletion stamps the delivery time and advances the load to
// delivered. The load must currently be pickup_completed.
func (r *Registry) RecordDeliveryCompletion(load *models.Load) error {
	if !load.Status.CanAdvanceTo(models.StatusDelivered) {
		return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, load.Status, models.StatusDelivered)
	}
	now := time.Now().UTC()
	return r.applyVersioned(load, map[string]interface{}{
		"status":            models.StatusDelivered,
		"delivery_datetime": now,
	})
}

// AppendEmailHistory appends one audit entry to the pickup or delivery
// history. Existing entries are never rewritten; the whole list is re-stored
// with the entry appended, guarded by the version check.
func (r *Registry) AppendEmailHistory(loadID uint, channel EmailChannel, entry models.EmailRecord) error {
	load, err := r.GetLoad(loadID)
	if err != nil {
		return err
	}
	switch channel {
	case ChannelPickup:
		history := append(models.EmailHistory{}, load.PickupEmailHistory...)
		history = append(history, entry)
		return r.applyVersioned(load, map[string]interface{}{"pickup_email_history": history})
	case ChannelDelivery:
		history := append(models.EmailHistory{}, load.DeliveryEmailHistory...)
		history = append(history, entry)
		return r.applyVersioned(load, map[string]interface{}{"delivery_email_history": history})
	default:
		return apperrors.Validationf("unknown email channel %q", channel)
	}
}

// MarkNotified stamps last_notification_sent for the reminder worker.
func (r *Registry) MarkNotified(loadID uint, at time.Time) error {
	return r.db.Model(&models.Load{}).Where("id = ?", loadID).
		Update("last_notification_sent", at).Error
}

// LastActiveLoad returns the newest load still pending pickup or in transit.
func (r *Registry) LastActiveLoad(driverID uint) (*models.Load, error) {
	var load models.Load
	err := r.db.Where("driver_id = ? AND status IN ?", driverID,
		[]models.LoadStatus{models.StatusPendingPickup, models.StatusInTransit}).
		Order("id DESC").First(&load).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("no active load")
		}
		return nil, err
	}
	return &load, nil
}

// LatestLoads returns the driver's most recent loads for the homepage list.
func (r *Registry) LatestLoads(driverID uint, limit int) ([]models.Load, error) {
	var loads []models.Load
	err := r.db.Where("driver_id = ?", driverID).
		Order("created_at DESC").Limit(limit).Find(&loads).Error
	return loads, err
}

// InTransitLoads returns loads eligible for the hourly reminder, preloading
// their drivers for the push token.
func (r *Registry) InTransitLoads() ([]models.Load, error) {
	var loads []models.Load
	err := r.db.Preload("Driver").
		Where("status = ?", models.StatusInTransit).Find(&loads).Error
	return loads, err
}

// applyVersioned writes updates guarded by the optimistic version column and
// refreshes the in-memory load. A lost race surfaces as ErrConflict; in
// practice a single driver works a load at a time.
func (r *Registry) applyVersioned(load *models.Load, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	updates["version"] = load.Version + 1
	res := r.db.Model(&models.Load{}).
		Where("id = ? AND version = ?", load.ID, load.Version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrConflict
	}
	return r.db.First(load, load.ID).Error
}
