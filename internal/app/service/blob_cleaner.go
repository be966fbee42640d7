package service

import (
	"context"

	"github.com/kireiworks/cleaning-backend/internal/app/repository"
	"github.com/kireiworks/cleaning-backend/internal/storage"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
)

// MaxBlobDeleteAttempts bounds retries of one outbox entry
const MaxBlobDeleteAttempts = 5

// Blob deletion reasons
const (
	ReasonImageDeleted   = "image_deleted"
	ReasonImageReplaced  = "image_replaced"
	ReasonReceiptDeleted = "receipt_deleted"
	ReasonOrphanedUpload = "orphaned_upload"
)

// BlobCleaner drains the blob deletion outbox
type BlobCleaner interface {
	// Drain attempts the given entries now; failures stay queued for the scheduler
	Drain(ctx context.Context, ids []uint) DrainResult
	// DrainPending attempts up to limit pending entries
	DrainPending(ctx context.Context, limit int) DrainResult
}

type DrainResult struct {
	Deleted int
	Failed  int
}

type blobCleaner struct {
	outbox repository.BlobDeletionRepository
	store  storage.ObjectStore
}

func NewBlobCleaner(outbox repository.BlobDeletionRepository, store storage.ObjectStore) BlobCleaner {
	return &blobCleaner{outbox: outbox, store: store}
}

func (c *blobCleaner) Drain(ctx context.Context, ids []uint) DrainResult {
	if len(ids) == 0 {
		return DrainResult{}
	}
	entries, err := c.outbox.FindByIDs(ids)
	if err != nil {
		logger.Error("Failed to load blob deletion entries", err, map[string]interface{}{
			"count": len(ids),
		})
		return DrainResult{Failed: len(ids)}
	}

	var result DrainResult
	for _, e := range entries {
		if e.DoneAt != nil {
			continue
		}
		if c.process(ctx, e.ID, e.ObjectPath) {
			result.Deleted++
		} else {
			result.Failed++
		}
	}
	return result
}

func (c *blobCleaner) DrainPending(ctx context.Context, limit int) DrainResult {
	entries, err := c.outbox.ListPending(MaxBlobDeleteAttempts, limit)
	if err != nil {
		return DrainResult{}
	}

	var result DrainResult
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		if c.process(ctx, e.ID, e.ObjectPath) {
			result.Deleted++
		} else {
			result.Failed++
		}
	}

	if len(entries) > 0 {
		logger.Info("Blob deletion outbox drained", map[string]interface{}{
			"deleted": result.Deleted,
			"failed":  result.Failed,
		})
	}
	return result
}

func (c *blobCleaner) process(ctx context.Context, id uint, objectPath string) bool {
	if err := c.store.Delete(ctx, objectPath); err != nil {
		attempts, markErr := c.outbox.MarkFailed(id, err)
		if markErr != nil {
			logger.Error("Failed to record blob deletion failure", markErr, map[string]interface{}{
				"id": id,
			})
			return false
		}
		fields := map[string]interface{}{
			"id":       id,
			"path":     objectPath,
			"attempts": attempts,
		}
		if attempts >= MaxBlobDeleteAttempts {
			logger.Error("Blob deletion abandoned after max attempts", err, fields)
		} else {
			logger.Warn("Blob deletion failed, will retry", fields)
		}
		return false
	}

	if err := c.outbox.MarkDone(id); err != nil {
		logger.Error("Failed to mark blob deletion done", err, map[string]interface{}{
			"id": id,
		})
		return false
	}
	return true
}
