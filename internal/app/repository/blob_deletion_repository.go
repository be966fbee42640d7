package repository

import (
	"time"

	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"gorm.io/gorm"
)

// BlobDeletionRepository is the outbox of object-store deletes
type BlobDeletionRepository interface {
	Enqueue(objectPath, reason string) (*model.BlobDeletion, error)
	FindByIDs(ids []uint) ([]model.BlobDeletion, error)
	// ListPending returns unfinished rows that have been tried fewer than maxAttempts times
	ListPending(maxAttempts, limit int) ([]model.BlobDeletion, error)
	MarkDone(id uint) error
	MarkFailed(id uint, cause error) (int, error)
	WithTx(tx *gorm.DB) BlobDeletionRepository
}

type blobDeletionRepository struct {
	db *gorm.DB
}

func NewBlobDeletionRepository(db *gorm.DB) BlobDeletionRepository {
	return &blobDeletionRepository{db: db}
}

func (r *blobDeletionRepository) WithTx(tx *gorm.DB) BlobDeletionRepository {
	return &blobDeletionRepository{db: tx}
}

func (r *blobDeletionRepository) Enqueue(objectPath, reason string) (*model.BlobDeletion, error) {
	entry := &model.BlobDeletion{ObjectPath: objectPath, Reason: reason}
	if err := r.db.Create(entry).Error; err != nil {
		logger.Error("Failed to enqueue blob deletion", err, map[string]interface{}{
			"path":   objectPath,
			"reason": reason,
		})
		return nil, err
	}

	logger.Debug("Blob deletion enqueued", map[string]interface{}{
		"id":     entry.ID,
		"path":   objectPath,
		"reason": reason,
	})
	return entry, nil
}

func (r *blobDeletionRepository) FindByIDs(ids []uint) ([]model.BlobDeletion, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var entries []model.BlobDeletion
	if err := r.db.Where("id IN ?", ids).Order("id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *blobDeletionRepository) ListPending(maxAttempts, limit int) ([]model.BlobDeletion, error) {
	var entries []model.BlobDeletion
	err := r.db.
		Where("done_at IS NULL AND attempts < ?", maxAttempts).
		Order("id ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		logger.Error("Failed to list pending blob deletions", err)
		return nil, err
	}
	return entries, nil
}

func (r *blobDeletionRepository) MarkDone(id uint) error {
	now := time.Now().UTC()
	return r.db.Model(&model.BlobDeletion{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"done_at": now, "last_error": ""}).Error
}

// MarkFailed records the failure and returns the new attempt count
func (r *blobDeletionRepository) MarkFailed(id uint, cause error) (int, error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	err := r.db.Model(&model.BlobDeletion{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": msg,
		}).Error
	if err != nil {
		return 0, err
	}

	var entry model.BlobDeletion
	if err := r.db.Select("attempts").First(&entry, id).Error; err != nil {
		return 0, err
	}
	return entry.Attempts, nil
}
