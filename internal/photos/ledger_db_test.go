package photos

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"loadtrack/internal/apperrors"
	"loadtrack/internal/models"
	"loadtrack/internal/storage"
)

func newTestLedger(t *testing.T) (*Ledger, *storage.LocalBackend) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.LoadPhoto{}, &models.PhotoCounter{}))

	store := storage.NewLocalBackend(t.TempDir(), "/media/")
	return NewLedger(db, store), store
}

func ledgerLoad() *models.Load {
	load := &models.Load{LoadNumber: "L-100"}
	load.ID = 1
	return load
}

func TestAttachDuplicateFilenameIsNoOp(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()
	load := ledgerLoad()

	first, err := ledger.Attach(ctx, load, models.PhotoTrailer, "a.jpg", []byte("one"))
	require.NoError(t, err)

	second, err := ledger.Attach(ctx, load, models.PhotoTrailer, "a.jpg", []byte("two"))
	require.NoError(t, err, "re-sending the same filename must not error")
	assert.Equal(t, first.ID, second.ID, "duplicate attach returns the existing row")

	stored, err := ledger.List(load.ID, models.PhotoTrailer)
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	// the stored bytes are the first upload's; the duplicate never reached storage
	data, err := ledger.Read(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)
}

func TestAttachSameFilenameDifferentCategory(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()
	load := ledgerLoad()

	_, err := ledger.Attach(ctx, load, models.PhotoTrailer, "a.jpg", []byte("one"))
	require.NoError(t, err)
	_, err = ledger.Attach(ctx, load, models.PhotoBOL, "a.jpg", []byte("two"))
	require.NoError(t, err)

	stored, err := ledger.List(load.ID, "")
	require.NoError(t, err)
	assert.Len(t, stored, 2, "dedup is scoped to (load, category)")
}

func TestSequenceNotReusedAfterDeletion(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()
	load := ledgerLoad()

	first, err := ledger.Attach(ctx, load, models.PhotoTrailer, "a.jpg", []byte("one"))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Sequence)

	// empty the category entirely
	require.NoError(t, ledger.ReplaceSet(ctx, load, models.PhotoTrailer, nil, nil))
	stored, err := ledger.List(load.ID, models.PhotoTrailer)
	require.NoError(t, err)
	require.Empty(t, stored)

	second, err := ledger.Attach(ctx, load, models.PhotoTrailer, "b.jpg", []byte("two"))
	require.NoError(t, err)
	assert.Equal(t, 2, second.Sequence, "sequence numbers are never reused after deletion")
	assert.Equal(t, "driver_uploads/trailer/L-100_trailer_2.jpg", second.StoredKey)
}

func TestReplaceSetKeepsAndAttaches(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()
	load := ledgerLoad()

	kept, err := ledger.Attach(ctx, load, models.PhotoTrailer, "a.jpg", []byte("one"))
	require.NoError(t, err)
	_, err = ledger.Attach(ctx, load, models.PhotoTrailer, "b.jpg", []byte("two"))
	require.NoError(t, err)

	err = ledger.ReplaceSet(ctx, load, models.PhotoTrailer, []uint{kept.ID},
		[]Upload{{Name: "c.jpg", Data: []byte("three")}})
	require.NoError(t, err)

	stored, err := ledger.List(load.ID, models.PhotoTrailer)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "a.jpg", stored[0].OriginalName)
	assert.Equal(t, "c.jpg", stored[1].OriginalName)
	assert.Equal(t, 3, stored[1].Sequence)
}

func TestReplaceSetDeletesStaleBlobs(t *testing.T) {
	ledger, store := newTestLedger(t)
	ctx := context.Background()
	load := ledgerLoad()

	stale, err := ledger.Attach(ctx, load, models.PhotoPOD, "old.jpg", []byte("old"))
	require.NoError(t, err)

	require.NoError(t, ledger.ReplaceSet(ctx, load, models.PhotoPOD, nil,
		[]Upload{{Name: "new.jpg", Data: []byte("new")}}))

	_, err = store.Read(ctx, stale.StoredKey)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "superseded blob must be removed from storage")

	stored, err := ledger.List(load.ID, models.PhotoPOD)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	_, err = store.Read(ctx, stored[0].StoredKey)
	assert.NoError(t, err)
}
