// Package photos is the ledger of uploaded evidence files: association to a
// load and category, duplicate-filename suppression, and derived object keys.
package photos

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"loadtrack/internal/models"
	"loadtrack/internal/storage"
)

// Upload is one incoming file from a multipart form.
type Upload struct {
	Name string
	Data []byte
}

// PhotoRef is the {id, url} shape handlers return per stored photo.
type PhotoRef struct {
	ID  uint   `json:"id"`
	URL string `json:"url"`
}

type Ledger struct {
	db    *gorm.DB
	store storage.Backend
}

func NewLedger(db *gorm.DB, store storage.Backend) *Ledger {
	return &Ledger{db: db, store: store}
}

// DeriveFileName builds {loadNumber}_{category}_{seq}.{ext}. A missing
// extension falls back to jpg, matching what the mobile app sends.
func DeriveFileName(loadNumber string, category models.PhotoCategory, seq int, originalName string) string {
	ext := strings.TrimPrefix(path.Ext(originalName), ".")
	if ext == "" {
		ext = "jpg"
	}
	if loadNumber == "" {
		loadNumber = "UNKNOWN"
	}
	return fmt.Sprintf("%s_%s_%d.%s", loadNumber, category, seq, ext)
}

// ObjectKey places a derived filename under the per-category upload prefix.
func ObjectKey(category models.PhotoCategory, filename string) string {
	return path.Join("driver_uploads", string(category), filename)
}

// Attach stores one file for (load, category). Re-sending a filename that
// already exists in the pair is a silent no-op and returns the existing row.
func (l *Ledger) Attach(ctx context.Context, load *models.Load, category models.PhotoCategory, originalName string, data []byte) (*models.LoadPhoto, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("unknown photo category %q", category)
	}

	var existing models.LoadPhoto
	err := l.db.Where("load_id = ? AND category = ? AND original_name = ?",
		load.ID, category, originalName).First(&existing).Error
	if err == nil {
		logrus.WithFields(logrus.Fields{
			"load_id":  load.ID,
			"category": category,
			"filename": originalName,
		}).Debug("duplicate upload suppressed")
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	seq, err := l.nextSequence(load.ID, category)
	if err != nil {
		return nil, err
	}

	key := ObjectKey(category, DeriveFileName(load.LoadNumber, category, seq, originalName))
	if err := l.store.Write(ctx, key, data); err != nil {
		return nil, err
	}

	photo := models.LoadPhoto{
		LoadID:       load.ID,
		Category:     category,
		OriginalName: originalName,
		StoredKey:    key,
		Sequence:     seq,
	}
	if err := l.db.Create(&photo).Error; err != nil {
		return nil, err
	}
	return &photo, nil
}

// ReplaceSet realizes "edit the upload set": photos in (load, category) whose
// id is not in keepIDs are deleted, along with their stored blobs, then each
// new file is attached through the usual duplicate suppression.
func (l *Ledger) ReplaceSet(ctx context.Context, load *models.Load, category models.PhotoCategory, keepIDs []uint, files []Upload) error {
	q := l.db.Where("load_id = ? AND category = ?", load.ID, category)
	if len(keepIDs) > 0 {
		q = q.Where("id NOT IN ?", keepIDs)
	}
	var stale []models.LoadPhoto
	if err := q.Find(&stale).Error; err != nil {
		return err
	}
	for i := range stale {
		// Best-effort: an orphaned blob is better than a failed edit.
		if err := l.store.Delete(ctx, stale[i].StoredKey); err != nil {
			logrus.WithError(err).WithField("key", stale[i].StoredKey).Warn("could not delete superseded photo blob")
		}
		if err := l.db.Delete(&stale[i]).Error; err != nil {
			return err
		}
	}
	for _, f := range files {
		if _, err := l.Attach(ctx, load, category, f.Name, f.Data); err != nil {
			return err
		}
	}
	return nil
}

// List returns photos for a load ordered by category then sequence. An empty
// category returns everything; each call is a fresh read of current state.
func (l *Ledger) List(loadID uint, category models.PhotoCategory) ([]models.LoadPhoto, error) {
	q := l.db.Where("load_id = ?", loadID)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var out []models.LoadPhoto
	err := q.Order("category, sequence").Find(&out).Error
	return out, err
}

// Refs converts photos to the {id, url} response shape.
func (l *Ledger) Refs(photos []models.LoadPhoto) []PhotoRef {
	refs := make([]PhotoRef, 0, len(photos))
	for _, p := range photos {
		refs = append(refs, PhotoRef{ID: p.ID, URL: l.store.URLFor(p.StoredKey)})
	}
	return refs
}

// Read fetches the stored bytes of a photo.
func (l *Ledger) Read(ctx context.Context, photo *models.LoadPhoto) ([]byte, error) {
	return l.store.Read(ctx, photo.StoredKey)
}

// nextSequence allocates the next per-(load, category) sequence number. The
// counter row only ever grows, so numbers freed by deletions are not reused.
func (l *Ledger) nextSequence(loadID uint, category models.PhotoCategory) (int, error) {
	var seq int
	err := l.db.Raw(`
		INSERT INTO photo_counters (load_id, category, last_seq)
		VALUES (?, ?, 1)
		ON CONFLICT (load_id, category)
		DO UPDATE SET last_seq = photo_counters.last_seq + 1
		RETURNING last_seq`, loadID, category).Scan(&seq).Error
	return seq, err
}
