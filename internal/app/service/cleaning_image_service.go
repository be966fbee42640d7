package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/internal/app/repository"
	"github.com/kireiworks/cleaning-backend/internal/storage"
	"github.com/kireiworks/cleaning-backend/pkg/jst"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"github.com/kireiworks/cleaning-backend/pkg/util"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrImageNotFound      = errors.New("cleaning image not found")
	ErrInvalidBeforeAfter = errors.New("beforeAfter must be before or after")
)

// UploadedImage is the response shape of an upload or replace; timestamps render in JST
type UploadedImage struct {
	ID           uint              `json:"id"`
	RecordID     uint              `json:"recordId"`
	FacilityDbID uint              `json:"facilityDbId"`
	RoomType     string            `json:"roomType"`
	BeforeAfter  model.BeforeAfter `json:"beforeAfter"`
	URL          string            `json:"gcsUrl"`
	ContentType  string            `json:"contentType"`
	Size         int64             `json:"size"`
	OriginalName string            `json:"originalName,omitempty"`
	UploadedByID *uint             `json:"uploadedById,omitempty"`
	Metadata     datatypes.JSON    `json:"metadata,omitempty"`
	UploadedAt   jst.Time          `json:"uploadedAt"`
	UpdatedAt    jst.Time          `json:"updatedAt"`
}

func NewUploadedImage(img *model.CleaningImage) UploadedImage {
	return UploadedImage{
		ID:           img.ID,
		RecordID:     img.RecordID,
		FacilityDbID: img.FacilityID,
		RoomType:     img.RoomType,
		BeforeAfter:  img.BeforeAfter,
		URL:          img.GCSURL,
		ContentType:  img.ContentType,
		Size:         img.Size,
		OriginalName: img.OriginalName,
		UploadedByID: img.UploadedByID,
		Metadata:     img.Metadata,
		UploadedAt:   jst.Wrap(img.UploadedAt),
		UpdatedAt:    jst.Wrap(img.UpdatedAt),
	}
}

type UploadImageInput struct {
	FacilityID  string // facility code
	RecordID    uint
	RoomType    string
	BeforeAfter string
	File        UploadFile
}

// UploadNotifier is told when the first image of a record phase arrives
type UploadNotifier interface {
	ImagesUploaded(ctx context.Context, facility *model.Facility, roomType string, phase model.BeforeAfter, cleaningDate time.Time)
}

type CleaningImageService interface {
	Upload(ctx context.Context, actor util.Identity, in UploadImageInput) (*model.CleaningImage, error)
	Replace(ctx context.Context, actor util.Identity, id uint, file UploadFile) (*model.CleaningImage, error)
	Delete(ctx context.Context, actor util.Identity, id uint) error
	BatchDelete(ctx context.Context, actor util.Identity, req BatchIDs) (*BatchResult, error)
}

type cleaningImageService struct {
	db           *gorm.DB
	imageRepo    repository.CleaningImageRepository
	recordRepo   repository.CleaningRecordRepository
	facilityRepo repository.FacilityRepository
	outbox       repository.BlobDeletionRepository
	store        storage.ObjectStore
	cleaner      BlobCleaner
	notifier     UploadNotifier
	maxBytes     int64
}

func NewCleaningImageService(
	db *gorm.DB,
	imageRepo repository.CleaningImageRepository,
	recordRepo repository.CleaningRecordRepository,
	facilityRepo repository.FacilityRepository,
	outbox repository.BlobDeletionRepository,
	store storage.ObjectStore,
	cleaner BlobCleaner,
	notifier UploadNotifier,
	maxBytes int64,
) CleaningImageService {
	return &cleaningImageService{
		db:           db,
		imageRepo:    imageRepo,
		recordRepo:   recordRepo,
		facilityRepo: facilityRepo,
		outbox:       outbox,
		store:        store,
		cleaner:      cleaner,
		notifier:     notifier,
		maxBytes:     maxBytes,
	}
}

// ImageFolder is the object folder for one record phase
func ImageFolder(facilityCode string, cleaningDate time.Time, roomType string, phase model.BeforeAfter) string {
	return fmt.Sprintf("cleaning/%s/%s/%s/%s", facilityCode, jst.FormatDate(cleaningDate), roomType, phase)
}

func (s *cleaningImageService) Upload(ctx context.Context, actor util.Identity, in UploadImageInput) (*model.CleaningImage, error) {
	fields := map[string]interface{}{
		"facility_id":  in.FacilityID,
		"record_id":    in.RecordID,
		"room_type":    in.RoomType,
		"before_after": in.BeforeAfter,
		"size":         len(in.File.Data),
		"actor":        actor.LoginID,
	}
	logger.Info("Uploading cleaning image", fields)

	if in.FacilityID == "" || in.RecordID == 0 {
		return nil, ErrInvalidInput
	}
	if !model.IsValidRoomType(in.RoomType) {
		return nil, ErrInvalidRoomType
	}
	phase := model.BeforeAfter(in.BeforeAfter)
	if !phase.IsValid() {
		return nil, ErrInvalidBeforeAfter
	}
	if isClient(actor) {
		return nil, ErrForbidden
	}

	contentType, err := detectContentType(in.File, imageTypes, s.maxBytes)
	if err != nil {
		logger.Warn("Rejected cleaning image", map[string]interface{}{
			"reason":       err.Error(),
			"content_type": in.File.ContentType,
			"size":         len(in.File.Data),
		})
		return nil, err
	}

	facility, err := s.facilityRepo.FindByFacilityID(in.FacilityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFacilityNotFound
		}
		return nil, err
	}
	if !canAccessFacility(actor, facility) {
		return nil, ErrForbidden
	}

	record, err := s.recordRepo.FindByID(in.RecordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	if record.FacilityID != facility.ID || record.RoomType != in.RoomType {
		logger.Warn("Cleaning record mismatch", fields)
		return nil, ErrRecordMismatch
	}

	existing, err := s.imageRepo.CountByRecordPhase(record.ID, phase)
	if err != nil {
		return nil, err
	}

	meta, err := s.store.UploadLegacy(ctx, storage.UploadInput{
		Data:         in.File.Data,
		OriginalName: in.File.Name,
		Folder:       ImageFolder(facility.Code, record.CleaningDate, in.RoomType, phase),
		ContentType:  contentType,
		Metadata: map[string]string{
			"facilityId":  facility.Code,
			"roomType":    in.RoomType,
			"beforeAfter": string(phase),
		},
	})
	if err != nil {
		logger.Error("Object store upload failed", err, fields)
		return nil, ErrStorageUnavailable
	}

	image := &model.CleaningImage{
		RecordID:     record.ID,
		FacilityID:   facility.ID,
		RoomType:     in.RoomType,
		BeforeAfter:  phase,
		GCSURL:       meta.URL,
		ObjectPath:   meta.Path,
		ContentType:  contentType,
		Size:         meta.Size,
		OriginalName: in.File.Name,
		Metadata:     objectMetadataJSON(meta, actor),
		UploadedAt:   time.Now().UTC(),
	}
	if actor.AccountType == util.AccountTypeUser {
		uploader := actor.AccountID
		image.UploadedByID = &uploader
	}

	if err := s.imageRepo.Create(image); err != nil {
		s.discardBlob(ctx, meta.Path)
		return nil, err
	}

	logger.Info("Cleaning image uploaded", map[string]interface{}{
		"image_id": image.ID,
		"path":     image.ObjectPath,
	})

	if existing == 0 && s.notifier != nil {
		s.notifier.ImagesUploaded(ctx, facility, in.RoomType, phase, record.CleaningDate)
	}
	return image, nil
}

func objectMetadataJSON(meta *storage.ObjectMetadata, actor util.Identity) datatypes.JSON {
	raw, err := json.Marshal(map[string]interface{}{
		"bucket":       meta.Bucket,
		"originalName": meta.OriginalName,
		"uploadedBy":   actor.LoginID,
	})
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

// discardBlob removes an object whose row was never written; queues it when the delete fails
func (s *cleaningImageService) discardBlob(ctx context.Context, objectPath string) {
	if err := s.store.Delete(ctx, objectPath); err != nil {
		logger.Warn("Failed to delete orphaned upload, queueing", map[string]interface{}{
			"path":  objectPath,
			"error": err.Error(),
		})
		if _, qerr := s.outbox.Enqueue(objectPath, ReasonOrphanedUpload); qerr != nil {
			logger.Error("Orphaned upload could not be queued for deletion", qerr, map[string]interface{}{
				"path": objectPath,
			})
		}
	}
}

func (s *cleaningImageService) loadForWrite(repo repository.CleaningImageRepository, facilities repository.FacilityRepository, actor util.Identity, id uint) (*model.CleaningImage, error) {
	image, err := repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	if isClient(actor) {
		return nil, ErrForbidden
	}
	facility, err := facilities.FindByID(image.FacilityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFacilityNotFound
		}
		return nil, err
	}
	if !canAccessFacility(actor, facility) {
		return nil, ErrForbidden
	}
	return image, nil
}

// Replace swaps the image file. The old object is queued for deletion in the same
// transaction as the row update, so it is removed even if the immediate delete fails.
func (s *cleaningImageService) Replace(ctx context.Context, actor util.Identity, id uint, file UploadFile) (*model.CleaningImage, error) {
	logger.Info("Replacing cleaning image", map[string]interface{}{
		"image_id": id,
		"actor":    actor.LoginID,
	})

	image, err := s.loadForWrite(s.imageRepo, s.facilityRepo, actor, id)
	if err != nil {
		return nil, err
	}

	contentType, err := detectContentType(file, imageTypes, s.maxBytes)
	if err != nil {
		return nil, err
	}

	meta, err := s.store.UploadLegacy(ctx, storage.UploadInput{
		Data:         file.Data,
		OriginalName: file.Name,
		Folder:       path.Dir(image.ObjectPath),
		ContentType:  contentType,
	})
	if err != nil {
		logger.Error("Object store upload failed", err, map[string]interface{}{
			"image_id": id,
		})
		return nil, ErrStorageUnavailable
	}

	oldPath := image.ObjectPath
	var entry *model.BlobDeletion
	err = s.db.Transaction(func(tx *gorm.DB) error {
		current, err := s.imageRepo.WithTx(tx).FindByID(id)
		if err != nil {
			return err
		}
		oldPath = current.ObjectPath
		current.GCSURL = meta.URL
		current.ObjectPath = meta.Path
		current.ContentType = contentType
		current.Size = meta.Size
		current.OriginalName = file.Name
		current.Metadata = objectMetadataJSON(meta, actor)
		if err := s.imageRepo.WithTx(tx).Update(current); err != nil {
			return err
		}
		image = current

		entry, err = s.outbox.WithTx(tx).Enqueue(oldPath, ReasonImageReplaced)
		return err
	})
	if err != nil {
		s.discardBlob(ctx, meta.Path)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}

	s.cleaner.Drain(ctx, []uint{entry.ID})

	logger.Info("Cleaning image replaced", map[string]interface{}{
		"image_id": id,
		"old_path": oldPath,
		"new_path": image.ObjectPath,
	})
	return image, nil
}

func (s *cleaningImageService) Delete(ctx context.Context, actor util.Identity, id uint) error {
	logger.Info("Deleting cleaning image", map[string]interface{}{
		"image_id": id,
		"actor":    actor.LoginID,
	})

	entryID, err := s.deleteOne(actor, id)
	if err != nil {
		return err
	}
	s.cleaner.Drain(ctx, []uint{entryID})
	return nil
}

// deleteOne removes the row and queues its blob in one transaction
func (s *cleaningImageService) deleteOne(actor util.Identity, id uint) (uint, error) {
	var entryID uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		images := s.imageRepo.WithTx(tx)
		image, err := s.loadForWrite(images, s.facilityRepo.WithTx(tx), actor, id)
		if err != nil {
			return err
		}
		existed, err := images.Delete(id)
		if err != nil {
			return err
		}
		if !existed {
			return ErrImageNotFound
		}
		entry, err := s.outbox.WithTx(tx).Enqueue(image.ObjectPath, ReasonImageDeleted)
		if err != nil {
			return err
		}
		entryID = entry.ID
		return nil
	})
	return entryID, err
}

// BatchDelete deletes each id in its own transaction and reports per-id outcomes.
// Repeating a call is harmless: ids already gone report not_found.
func (s *cleaningImageService) BatchDelete(ctx context.Context, actor util.Identity, req BatchIDs) (*BatchResult, error) {
	ids, invalid, err := req.normalize()
	if err != nil {
		return nil, err
	}

	logger.Info("Batch deleting cleaning images", map[string]interface{}{
		"count":   len(ids),
		"invalid": len(invalid),
		"actor":   actor.LoginID,
	})

	result := &BatchResult{Results: make([]BatchItemResult, 0, len(ids)+len(invalid))}
	var queued []uint
	for _, id := range ids {
		entryID, err := s.deleteOne(actor, id)
		status := batchStatus(err)
		if status == BatchStatusDeleted {
			result.Succeeded++
			queued = append(queued, entryID)
		} else {
			result.Failed++
			if status == BatchStatusError {
				logger.Error("Batch delete item failed", err, map[string]interface{}{
					"image_id": id,
				})
			}
		}
		result.Results = append(result.Results, BatchItemResult{ID: id, Status: status})
	}
	result.addInvalid(invalid)

	drained := s.cleaner.Drain(ctx, queued)

	logger.Info("Batch delete finished", map[string]interface{}{
		"succeeded":     result.Succeeded,
		"failed":        result.Failed,
		"blobs_deleted": drained.Deleted,
		"blobs_pending": drained.Failed,
	})
	return result, nil
}
