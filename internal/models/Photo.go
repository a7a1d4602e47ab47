package models

import (
	"time"

	"gorm.io/gorm"
)

// PhotoCategory is the kind of evidence a photo documents.
type PhotoCategory string

const (
	PhotoTrailer       PhotoCategory = "trailer"
	PhotoReefer        PhotoCategory = "reefer"
	PhotoPulp          PhotoCategory = "pulp"
	PhotoLoadSecure    PhotoCategory = "load_secure"
	PhotoSealedTrailer PhotoCategory = "sealed_trailer"
	PhotoPOD           PhotoCategory = "pod"
	PhotoBOL           PhotoCategory = "bol"
)

// PhotoCategories in upload-form order. POD is excluded from pickup reports.
var PhotoCategories = []PhotoCategory{
	PhotoTrailer,
	PhotoReefer,
	PhotoPulp,
	PhotoLoadSecure,
	PhotoSealedTrailer,
	PhotoPOD,
	PhotoBOL,
}

func (p PhotoCategory) Valid() bool {
	for _, c := range PhotoCategories {
		if c == p {
			return true
		}
	}
	return false
}

// LoadPhoto is one uploaded image or document bound to a load.
type LoadPhoto struct {
	gorm.Model
	LoadID   uint          `json:"load_id" gorm:"index:idx_load_photo_cat"`
	Load     Load          `json:"-" gorm:"foreignKey:LoadID;constraint:OnDelete:CASCADE"`
	Category PhotoCategory `json:"category" gorm:"index:idx_load_photo_cat"`

	// OriginalName is the filename the client sent; duplicate uploads are
	// suppressed by matching it within (load, category).
	OriginalName string `json:"original_name"`

	// StoredKey is the derived object key in the storage backend,
	// driver_uploads/{category}/{loadNumber}_{category}_{seq}.{ext}.
	StoredKey string `json:"stored_key"`

	// Sequence is allocated from PhotoCounter and never reused, even after
	// the photo it was assigned to is deleted.
	Sequence   int       `json:"sequence"`
	UploadedAt time.Time `json:"uploaded_at" gorm:"autoCreateTime"`
}

// PhotoCounter tracks the highest sequence number ever allocated for a
// (load, category) pair. Deleting photos does not decrement it.
type PhotoCounter struct {
	LoadID   uint          `gorm:"primaryKey;autoIncrement:false"`
	Category PhotoCategory `gorm:"primaryKey"`
	LastSeq  int           `gorm:"not null;default:0"`
}
