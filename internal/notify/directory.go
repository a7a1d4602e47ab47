package notify

import (
	"context"
	"errors"

	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"loadtrack/internal/apperrors"
	"loadtrack/internal/models"
	"loadtrack/internal/photos"
	"loadtrack/internal/report"
)

// Directory resolves recipients and context the report send flow needs.
type Directory interface {
	DriverByID(id uint) (*models.DriverProfile, error)
	RecipientsFor(load *models.Load, driver *models.DriverProfile) ([]string, error)
	LastAddress(driverID uint) string
}

// DBDirectory answers directory lookups from the relational store.
type DBDirectory struct {
	db *gorm.DB
}

func NewDBDirectory(db *gorm.DB) *DBDirectory {
	return &DBDirectory{db: db}
}

func (d *DBDirectory) DriverByID(id uint) (*models.DriverProfile, error) {
	var drv models.DriverProfile
	if err := d.db.First(&drv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("driver profile")
		}
		return nil, err
	}
	return &drv, nil
}

// RecipientsFor collects the customer email (same-company match on the load's
// customer name) and the company email.
func (d *DBDirectory) RecipientsFor(load *models.Load, driver *models.DriverProfile) ([]string, error) {
	var recipients []string

	var customer models.Customer
	err := d.db.Joins("Company").
		Where("LOWER(customers.name) = LOWER(?)", load.CustomerName).
		Where("LOWER(\"Company\".name) = LOWER(?)", driver.Company).
		First(&customer).Error
	if err == nil && customer.Email != "" {
		recipients = append(recipients, customer.Email)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var company models.Company
	err = d.db.Where("LOWER(name) = LOWER(?)", driver.Company).First(&company).Error
	if err == nil && company.Email != "" {
		recipients = append(recipients, company.Email)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return recipients, nil
}

// LastAddress returns the driver's most recent reverse-geocoded address.
func (d *DBDirectory) LastAddress(driverID uint) string {
	var loc models.DriverLocation
	err := d.db.Where("driver_id = ?", driverID).Order("id DESC").First(&loc).Error
	if err != nil || loc.Address == "" {
		return "Unknown location"
	}
	return loc.Address
}

// PhotoSource provides the photos embedded in a report.
type PhotoSource interface {
	Photos(ctx context.Context, loadID uint) ([]report.PhotoInput, error)
}

// LedgerPhotoSource reads photo bytes through the photo ledger. A photo whose
// bytes cannot be read is passed through empty; the renderer substitutes a
// placeholder for it.
type LedgerPhotoSource struct {
	Ledger *photos.Ledger
}

func (s *LedgerPhotoSource) Photos(ctx context.Context, loadID uint) ([]report.PhotoInput, error) {
	stored, err := s.Ledger.List(loadID, "")
	if err != nil {
		return nil, err
	}
	inputs := make([]report.PhotoInput, 0, len(stored))
	for i := range stored {
		data, err := s.Ledger.Read(ctx, &stored[i])
		if err != nil {
			logrus.WithError(err).WithField("key", stored[i].StoredKey).Warn("could not read photo for report")
			data = nil
		}
		inputs = append(inputs, report.PhotoInput{
			Category: stored[i].Category,
			Name:     stored[i].OriginalName,
			Data:     data,
		})
	}
	return inputs, nil
}
