package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/internal/app/repository"
	"github.com/kireiworks/cleaning-backend/internal/storage"
	"github.com/kireiworks/cleaning-backend/pkg/jst"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"github.com/kireiworks/cleaning-backend/pkg/util"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrReceiptNotFound = errors.New("receipt not found")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidMonth    = errors.New("invalid month")
)

type ReceiptUploadInput struct {
	File      UploadFile
	Title     string
	StoreName string
	Amount    string // decimal string, optional
	Notes     string
}

type ReceiptView struct {
	ID           uint            `json:"id"`
	FacilityDbID uint            `json:"facilityDbId"`
	Title        string          `json:"title"`
	StoreName    string          `json:"storeName,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Notes        string          `json:"notes,omitempty"`
	URL          string          `json:"url"`
	ContentType  string          `json:"contentType"`
	Size         int64           `json:"size"`
	UploadedAt   jst.Time        `json:"uploadedAt"`
	Month        string          `json:"month"`
}

// ReceiptMonth groups receipts of one JST calendar month, newest month first
type ReceiptMonth struct {
	Month    string          `json:"month"`
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
	Receipts []ReceiptView   `json:"receipts"`
}

type ReceiptService interface {
	Upload(ctx context.Context, actor util.Identity, facilityCode string, in ReceiptUploadInput) (*ReceiptView, error)
	List(actor util.Identity, facilityCode string) ([]ReceiptMonth, error)
	Delete(ctx context.Context, actor util.Identity, id uint) error
	BatchDelete(ctx context.Context, actor util.Identity, req BatchIDs) (*BatchResult, error)
	// ExportMonth renders one month of receipts as an XLSX workbook
	ExportMonth(actor util.Identity, facilityCode, month string) ([]byte, string, error)
}

type receiptService struct {
	db           *gorm.DB
	receiptRepo  repository.ReceiptRepository
	facilityRepo repository.FacilityRepository
	outbox       repository.BlobDeletionRepository
	store        storage.ObjectStore
	cleaner      BlobCleaner
	maxBytes     int64
	now          func() time.Time
}

func NewReceiptService(
	db *gorm.DB,
	receiptRepo repository.ReceiptRepository,
	facilityRepo repository.FacilityRepository,
	outbox repository.BlobDeletionRepository,
	store storage.ObjectStore,
	cleaner BlobCleaner,
	maxBytes int64,
) ReceiptService {
	return &receiptService{
		db:           db,
		receiptRepo:  receiptRepo,
		facilityRepo: facilityRepo,
		outbox:       outbox,
		store:        store,
		cleaner:      cleaner,
		maxBytes:     maxBytes,
		now:          time.Now,
	}
}

// ReceiptMonthKey is the month a receipt files under: its upload time in JST.
// Legacy year/month columns are consulted only when the upload time is missing,
// and "now" is the last resort.
func ReceiptMonthKey(r *model.Receipt, now time.Time) string {
	if !r.UploadedAt.IsZero() {
		return jst.MonthKey(r.UploadedAt)
	}
	if r.Year != nil && r.Month != nil && *r.Month >= 1 && *r.Month <= 12 {
		return jst.FormatMonth(*r.Year, *r.Month)
	}
	return jst.MonthKey(now)
}

func (s *receiptService) facilityFor(actor util.Identity, facilityCode string) (*model.Facility, error) {
	facility, err := s.facilityRepo.FindByFacilityID(facilityCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFacilityNotFound
		}
		return nil, err
	}
	if !canAccessFacility(actor, facility) {
		return nil, ErrForbidden
	}
	return facility, nil
}

func (s *receiptService) view(r *model.Receipt) ReceiptView {
	return ReceiptView{
		ID:           r.ID,
		FacilityDbID: r.FacilityID,
		Title:        r.Title,
		StoreName:    r.StoreName,
		Amount:       r.Amount,
		Notes:        r.Notes,
		URL:          r.GCSURL,
		ContentType:  r.ContentType,
		Size:         r.Size,
		UploadedAt:   jst.Wrap(r.UploadedAt),
		Month:        ReceiptMonthKey(r, s.now()),
	}
}

func (s *receiptService) Upload(ctx context.Context, actor util.Identity, facilityCode string, in ReceiptUploadInput) (*ReceiptView, error) {
	logger.Info("Uploading receipt", map[string]interface{}{
		"facility_id": facilityCode,
		"size":        len(in.File.Data),
		"actor":       actor.LoginID,
	})

	amount := decimal.Zero
	if a := strings.TrimSpace(in.Amount); a != "" {
		parsed, err := decimal.NewFromString(strings.ReplaceAll(a, ",", ""))
		if err != nil || parsed.IsNegative() {
			return nil, ErrInvalidAmount
		}
		amount = parsed
	}

	contentType, err := detectContentType(in.File, receiptTypes, s.maxBytes)
	if err != nil {
		logger.Warn("Rejected receipt file", map[string]interface{}{
			"reason": err.Error(),
		})
		return nil, err
	}

	facility, err := s.facilityFor(actor, facilityCode)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	meta, err := s.store.UploadLegacy(ctx, storage.UploadInput{
		Data:         in.File.Data,
		OriginalName: in.File.Name,
		Folder:       fmt.Sprintf("receipts/%s/%s", facility.Code, jst.MonthKey(now)),
		ContentType:  contentType,
	})
	if err != nil {
		logger.Error("Object store upload failed", err, map[string]interface{}{
			"facility_id": facilityCode,
		})
		return nil, ErrStorageUnavailable
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = in.File.Name
	}

	receipt := &model.Receipt{
		FacilityID:   facility.ID,
		Title:        title,
		StoreName:    strings.TrimSpace(in.StoreName),
		Amount:       amount,
		Notes:        in.Notes,
		GCSURL:       meta.URL,
		ObjectPath:   meta.Path,
		ContentType:  contentType,
		Size:         meta.Size,
		OriginalName: in.File.Name,
		UploadedAt:   now,
	}
	if actor.AccountType == util.AccountTypeUser {
		uploader := actor.AccountID
		receipt.UploadedByID = &uploader
	}

	if err := s.receiptRepo.Create(receipt); err != nil {
		if derr := s.store.Delete(ctx, meta.Path); derr != nil {
			if _, qerr := s.outbox.Enqueue(meta.Path, ReasonOrphanedUpload); qerr != nil {
				logger.Error("Orphaned receipt upload could not be queued", qerr, map[string]interface{}{
					"path": meta.Path,
				})
			}
		}
		return nil, err
	}

	v := s.view(receipt)
	return &v, nil
}

func (s *receiptService) List(actor util.Identity, facilityCode string) ([]ReceiptMonth, error) {
	facility, err := s.facilityFor(actor, facilityCode)
	if err != nil {
		return nil, err
	}

	receipts, err := s.receiptRepo.ListByFacility(facility.ID)
	if err != nil {
		return nil, err
	}
	return s.groupByMonth(receipts), nil
}

func (s *receiptService) groupByMonth(receipts []model.Receipt) []ReceiptMonth {
	byMonth := make(map[string]*ReceiptMonth)
	for i := range receipts {
		v := s.view(&receipts[i])
		group, ok := byMonth[v.Month]
		if !ok {
			group = &ReceiptMonth{Month: v.Month, Total: decimal.Zero}
			byMonth[v.Month] = group
		}
		group.Receipts = append(group.Receipts, v)
		group.Count++
		group.Total = group.Total.Add(v.Amount)
	}

	months := make([]ReceiptMonth, 0, len(byMonth))
	for _, g := range byMonth {
		months = append(months, *g)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month > months[j].Month })
	return months
}

func (s *receiptService) Delete(ctx context.Context, actor util.Identity, id uint) error {
	logger.Info("Deleting receipt", map[string]interface{}{
		"receipt_id": id,
		"actor":      actor.LoginID,
	})

	entryID, err := s.deleteOne(actor, id)
	if err != nil {
		return err
	}
	s.cleaner.Drain(ctx, []uint{entryID})
	return nil
}

func (s *receiptService) deleteOne(actor util.Identity, id uint) (uint, error) {
	var entryID uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		receipts := s.receiptRepo.WithTx(tx)
		receipt, err := receipts.FindByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReceiptNotFound
			}
			return err
		}
		facility, err := s.facilityRepo.WithTx(tx).FindByID(receipt.FacilityID)
		if err != nil {
			return err
		}
		if !canAccessFacility(actor, facility) {
			return ErrForbidden
		}
		existed, err := receipts.Delete(id)
		if err != nil {
			return err
		}
		if !existed {
			return ErrReceiptNotFound
		}
		entry, err := s.outbox.WithTx(tx).Enqueue(receipt.ObjectPath, ReasonReceiptDeleted)
		if err != nil {
			return err
		}
		entryID = entry.ID
		return nil
	})
	return entryID, err
}

func (s *receiptService) BatchDelete(ctx context.Context, actor util.Identity, req BatchIDs) (*BatchResult, error) {
	ids, invalid, err := req.normalize()
	if err != nil {
		return nil, err
	}

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
		}
		result.Results = append(result.Results, BatchItemResult{ID: id, Status: status})
	}
	result.addInvalid(invalid)
	s.cleaner.Drain(ctx, queued)

	logger.Info("Receipt batch delete finished", map[string]interface{}{
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	})
	return result, nil
}

func (s *receiptService) ExportMonth(actor util.Identity, facilityCode, month string) ([]byte, string, error) {
	year, mon, err := jst.ParseMonth(month)
	if err != nil {
		return nil, "", ErrInvalidMonth
	}

	facility, err := s.facilityFor(actor, facilityCode)
	if err != nil {
		return nil, "", err
	}

	from := time.Date(year, time.Month(mon), 1, 0, 0, 0, 0, jst.Zone)
	to := from.AddDate(0, 1, 0)
	receipts, err := s.receiptRepo.ListByFacilityBetween(facility.ID, from, to)
	if err != nil {
		return nil, "", err
	}

	views := make([]ReceiptView, 0, len(receipts))
	for i := range receipts {
		views = append(views, s.view(&receipts[i]))
	}

	data, err := renderReceiptWorkbook(facility, jst.FormatMonth(year, mon), views)
	if err != nil {
		logger.Error("Failed to render receipt workbook", err, map[string]interface{}{
			"facility_id": facilityCode,
			"month":       month,
		})
		return nil, "", err
	}

	filename := fmt.Sprintf("receipts_%s_%s.xlsx", facility.Code, jst.FormatMonth(year, mon))
	return data, filename, nil
}
