package service

import (
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrEmptyFile       = errors.New("empty file")
)

var (
	imageTypes   = []string{"image/jpeg", "image/png"}
	receiptTypes = []string{"image/jpeg", "image/png", "application/pdf"}
)

// UploadFile is an uploaded file already read into memory
type UploadFile struct {
	Data        []byte
	Name        string
	ContentType string // as declared by the client, may be empty
}

// detectContentType checks the sniffed type against allowed and, when the client declared
// a type, that the declaration agrees with the bytes. Returns the sniffed type.
func detectContentType(f UploadFile, allowed []string, maxBytes int64) (string, error) {
	if len(f.Data) == 0 {
		return "", ErrEmptyFile
	}
	if maxBytes > 0 && int64(len(f.Data)) > maxBytes {
		return "", ErrFileTooLarge
	}

	detected := mimetype.Detect(f.Data)
	sniffed := ""
	for _, t := range allowed {
		if detected.Is(t) {
			sniffed = t
			break
		}
	}
	if sniffed == "" {
		return "", ErrInvalidFileType
	}

	declared := normalizeContentType(f.ContentType)
	if declared != "" && declared != "application/octet-stream" && declared != sniffed {
		return "", ErrInvalidFileType
	}
	return sniffed, nil
}

func normalizeContentType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
	if ct == "image/jpg" || ct == "image/pjpeg" {
		return "image/jpeg"
	}
	return ct
}
