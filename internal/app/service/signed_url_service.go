package service

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/kireiworks/cleaning-backend/internal/app/repository"
	"github.com/kireiworks/cleaning-backend/internal/storage"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"github.com/kireiworks/cleaning-backend/pkg/util"
)

var ErrInvalidFolder = errors.New("invalid upload folder")

// Top-level folders a signed URL may point into
var signedFolders = []string{"cleaning", "receipts", "guidelines"}

type SignedUploadRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	Folder      string `json:"folder" binding:"required"`
}

// SignedUpload is a short-lived PUT grant; fileUrl is where the object will be readable
type SignedUpload struct {
	UploadURL string    `json:"uploadUrl"`
	FileURL   string    `json:"fileUrl"`
	Path      string    `json:"path"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type SignedRead struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type SignedURLService interface {
	SignedUpload(ctx context.Context, actor util.Identity, req SignedUploadRequest) (*SignedUpload, error)
	SignedRead(ctx context.Context, actor util.Identity, urlOrPath string) (*SignedRead, error)
}

type signedURLService struct {
	store        storage.ObjectStore
	facilityRepo repository.FacilityRepository
	expiry       time.Duration
	now          func() time.Time
}

func NewSignedURLService(store storage.ObjectStore, facilityRepo repository.FacilityRepository, expiry time.Duration) SignedURLService {
	if expiry <= 0 {
		expiry = storage.DefaultSignedURLExpiry
	}
	return &signedURLService{
		store:        store,
		facilityRepo: facilityRepo,
		expiry:       expiry,
		now:          time.Now,
	}
}

// cleanFolder rejects traversal and folders outside the known roots
func cleanFolder(folder string) (string, error) {
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	if folder == "" || strings.Contains(folder, "..") {
		return "", ErrInvalidFolder
	}
	folder = path.Clean(folder)
	root := strings.SplitN(folder, "/", 2)[0]
	for _, allowed := range signedFolders {
		if root == allowed {
			return folder, nil
		}
	}
	return "", ErrInvalidFolder
}

// cleanObjectPath rejects paths that only resolve to their folder after cleaning
func cleanObjectPath(objectPath string) error {
	if objectPath == "" || strings.HasPrefix(objectPath, "/") || path.Clean(objectPath) != objectPath {
		return ErrInvalidFolder
	}
	for _, seg := range strings.Split(objectPath, "/") {
		if seg == ".." || seg == "." {
			return ErrInvalidFolder
		}
	}
	_, err := cleanFolder(path.Dir(objectPath))
	return err
}

// facilityCodeOf returns the facility segment of cleaning/<code>/... and receipts/<code>/...
func facilityCodeOf(objectPath string) string {
	parts := strings.Split(objectPath, "/")
	if len(parts) < 3 {
		return ""
	}
	switch parts[0] {
	case "cleaning", "receipts":
		return parts[1]
	}
	return ""
}

// authorizePath checks the caller may touch objects of the facility encoded in the path
func (s *signedURLService) authorizePath(actor util.Identity, objectPath string, write bool) error {
	if strings.HasPrefix(objectPath, "guidelines/") {
		if write && !isHeadquarter(actor) {
			return ErrForbidden
		}
		return nil
	}
	if write && isClient(actor) && strings.HasPrefix(objectPath, "cleaning/") {
		return ErrForbidden
	}

	code := facilityCodeOf(objectPath)
	if code == "" {
		return ErrInvalidFolder
	}
	facility, err := s.facilityRepo.FindByFacilityID(code)
	if err != nil {
		return ErrForbidden
	}
	if !canAccessFacility(actor, facility) {
		return ErrForbidden
	}
	return nil
}

func (s *signedURLService) SignedUpload(ctx context.Context, actor util.Identity, req SignedUploadRequest) (*SignedUpload, error) {
	contentType := normalizeContentType(req.ContentType)
	if storage.ExtensionFor(contentType) == "bin" {
		return nil, ErrInvalidFileType
	}
	folder, err := cleanFolder(req.Folder)
	if err != nil {
		return nil, err
	}

	now := s.now()
	objectPath := storage.BuildObjectPath(folder, req.FileName, contentType, now)
	if err := s.authorizePath(actor, objectPath, true); err != nil {
		return nil, err
	}

	uploadURL, err := s.store.SignedUploadURL(ctx, objectPath, contentType, s.expiry)
	if err != nil {
		logger.Error("Failed to sign upload URL", err, map[string]interface{}{
			"path": objectPath,
		})
		return nil, ErrStorageUnavailable
	}

	logger.Info("Signed upload URL issued", map[string]interface{}{
		"path":  objectPath,
		"actor": actor.LoginID,
	})

	return &SignedUpload{
		UploadURL: uploadURL,
		FileURL:   s.store.PublicURL(objectPath),
		Path:      objectPath,
		ExpiresAt: now.Add(s.expiry).UTC(),
	}, nil
}

func (s *signedURLService) SignedRead(ctx context.Context, actor util.Identity, urlOrPath string) (*SignedRead, error) {
	objectPath, err := s.store.ObjectPath(urlOrPath)
	if err != nil {
		return nil, ErrInvalidFolder
	}
	if err := cleanObjectPath(objectPath); err != nil {
		return nil, err
	}
	if err := s.authorizePath(actor, objectPath, false); err != nil {
		return nil, err
	}

	url, err := s.store.SignedReadURL(ctx, objectPath, s.expiry)
	if err != nil {
		logger.Error("Failed to sign read URL", err, map[string]interface{}{
			"path": objectPath,
		})
		return nil, ErrStorageUnavailable
	}
	return &SignedRead{URL: url, ExpiresAt: s.now().Add(s.expiry).UTC()}, nil
}
