package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/kireiworks/cleaning-backend/internal/app/service"
	"github.com/kireiworks/cleaning-backend/pkg/jst"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// batchSize bounds the outbox entries handled per run
const batchSize = 200

// BlobCleanupScheduler drains the blob deletion outbox on a cron schedule
type BlobCleanupScheduler struct {
	cron    *cron.Cron
	spec    string
	cleaner service.BlobCleaner
	timeout time.Duration

	mu      sync.Mutex
	running bool
}

// NewBlobCleanupScheduler schedules in JST so specs like "0 3 * * *" mean 3am in Tokyo
func NewBlobCleanupScheduler(spec string, cleaner service.BlobCleaner) *BlobCleanupScheduler {
	return &BlobCleanupScheduler{
		cron:    cron.New(cron.WithLocation(jst.Zone)),
		spec:    spec,
		cleaner: cleaner,
		timeout: 2 * time.Minute,
	}
}

func (s *BlobCleanupScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.RunOnce)
	if err != nil {
		logger.Error("Failed to add cron job for blob cleanup", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Blob cleanup scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

// RunOnce drains one batch; overlapping runs are skipped
func (s *BlobCleanupScheduler) RunOnce() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		logger.Warn("Previous blob cleanup still running, skipping", nil)
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result := s.cleaner.DrainPending(ctx, batchSize)
	logger.Debug("Scheduled blob cleanup finished", map[string]interface{}{
		"deleted": result.Deleted,
		"failed":  result.Failed,
	})
}

// Stop waits for a running job to finish
func (s *BlobCleanupScheduler) Stop() {
	logger.Info("Stopping blob cleanup scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Blob cleanup scheduler stopped", nil)
}
