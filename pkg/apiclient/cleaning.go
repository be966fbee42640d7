package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
)

// Record identifies the cleaning record for one (facility, room, day)
type Record struct {
	RecordID     uint   `json:"recordId"`
	FacilityDbID uint   `json:"facilityDbId"`
	CleaningDate string `json:"cleaningDate"`
	Created      bool   `json:"created"`
}

// FindOrCreateRecord returns the record for the day, creating it on first use.
// An empty date means today in JST.
func (s *Session) FindOrCreateRecord(ctx context.Context, facilityID, roomType, date string) (*Record, error) {
	req, err := s.newRequest(ctx, http.MethodPost, "/api/auth/cleaning-records/find-or-create", map[string]string{
		"facilityId":   facilityID,
		"roomType":     roomType,
		"cleaningDate": date,
	})
	if err != nil {
		return nil, err
	}

	var out Record
	if err := s.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Image is an uploaded cleaning photo
type Image struct {
	ID           uint   `json:"id"`
	RecordID     uint   `json:"recordId"`
	FacilityDbID uint   `json:"facilityDbId"`
	RoomType     string `json:"roomType"`
	BeforeAfter  string `json:"beforeAfter"`
	URL          string `json:"gcsUrl"`
	ContentType  string `json:"contentType"`
	Size         int64  `json:"size"`
	OriginalName string `json:"originalName,omitempty"`
}

// UploadImageInput describes one photo upload
type UploadImageInput struct {
	FacilityID  string
	RecordID    uint
	RoomType    string
	BeforeAfter string // "before" or "after"
	FileName    string
	ContentType string
	Data        []byte
}

// ProgressFunc receives the bytes written so far out of the request body size
type ProgressFunc func(sent, total int64)

// UploadImage posts one photo as multipart/form-data. onProgress may be nil.
func (s *Session) UploadImage(ctx context.Context, in UploadImageInput, onProgress ProgressFunc) (*Image, error) {
	body, contentType, err := encodeImageForm(in)
	if err != nil {
		return nil, err
	}

	total := int64(body.Len())
	var reader io.Reader = body
	if onProgress != nil {
		reader = &progressReader{r: body, total: total, fn: onProgress}
	}

	req, err := s.newRequest(ctx, http.MethodPost, "/api/auth/cleaning-images/upload", nil)
	if err != nil {
		return nil, err
	}
	req.Body = io.NopCloser(reader)
	req.ContentLength = total
	req.Header.Set("Content-Type", contentType)

	var out struct {
		Image Image `json:"image"`
	}
	if err := s.send(req, &out); err != nil {
		return nil, err
	}
	return &out.Image, nil
}

func encodeImageForm(in UploadImageInput) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	fields := [][2]string{
		{"facilityId", in.FacilityID},
		{"recordId", strconv.FormatUint(uint64(in.RecordID), 10)},
		{"roomType", in.RoomType},
		{"beforeAfter", in.BeforeAfter},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, in.FileName))
	if in.ContentType != "" {
		header.Set("Content-Type", in.ContentType)
	} else {
		header.Set("Content-Type", "application/octet-stream")
	}
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(in.Data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return body, mw.FormDataContentType(), nil
}

type progressReader struct {
	r     io.Reader
	sent  int64
	total int64
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.fn(p.sent, p.total)
	}
	return n, err
}

// BatchItem is the outcome for one id
type BatchItem struct {
	ID     uint   `json:"id"`
	Input  string `json:"input,omitempty"` // set when the server could not read the id
	Status string `json:"status"`
}

// BatchResult mirrors the server's batch delete answer
type BatchResult struct {
	Message   string      `json:"message"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Results   []BatchItem `json:"results"`
}

// BatchDeleteImages deletes ids in one call. Older servers that answer 404/405 on the
// batch endpoint are retried on the legacy DELETE route and finally one id at a time.
func (s *Session) BatchDeleteImages(ctx context.Context, ids []uint) (*BatchResult, error) {
	if len(ids) == 0 {
		return &BatchResult{}, nil
	}
	payload := map[string][]uint{"imageIds": ids}

	result, err := s.batchDelete(ctx, http.MethodPost, "/api/auth/cleaning-images/batch-delete", payload)
	if !routeMissing(err) {
		return result, err
	}

	result, err = s.batchDelete(ctx, http.MethodDelete, "/api/auth/cleaning-images/batch", payload)
	if !routeMissing(err) {
		return result, err
	}

	return s.deleteEach(ctx, ids)
}

func (s *Session) batchDelete(ctx context.Context, method, path string, payload interface{}) (*BatchResult, error) {
	req, err := s.newRequest(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	var out BatchResult
	if err := s.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) deleteEach(ctx context.Context, ids []uint) (*BatchResult, error) {
	result := &BatchResult{Results: make([]BatchItem, 0, len(ids))}
	for _, id := range ids {
		err := s.DeleteImage(ctx, id)
		switch {
		case err == nil:
			result.Succeeded++
			result.Results = append(result.Results, BatchItem{ID: id, Status: "deleted"})
		case IsStatus(err, http.StatusNotFound):
			result.Failed++
			result.Results = append(result.Results, BatchItem{ID: id, Status: "not_found"})
		case IsStatus(err, http.StatusForbidden):
			result.Failed++
			result.Results = append(result.Results, BatchItem{ID: id, Status: "forbidden"})
		case IsUnauthorized(err), ctx.Err() != nil, errors.Is(err, ErrNoSession):
			return result, err
		default:
			result.Failed++
			result.Results = append(result.Results, BatchItem{ID: id, Status: "error"})
		}
	}
	result.Message = fmt.Sprintf("%d件削除、%d件失敗しました", result.Succeeded, result.Failed)
	if result.Failed == 0 {
		result.Message = fmt.Sprintf("%d件削除しました", result.Succeeded)
	}
	return result, nil
}

func routeMissing(err error) bool {
	return IsStatus(err, http.StatusNotFound, http.StatusMethodNotAllowed)
}

// DeleteImage deletes a single image
func (s *Session) DeleteImage(ctx context.Context, id uint) error {
	req, err := s.newRequest(ctx, http.MethodDelete, "/api/auth/cleaning-images/"+strconv.FormatUint(uint64(id), 10), nil)
	if err != nil {
		return err
	}
	return s.send(req, nil)
}

// Hierarchy is facility -> year -> month -> day -> room -> before/after -> images
type Hierarchy map[string]*FacilityNode

type FacilityNode struct {
	FacilityID string  `json:"facilityId"`
	DbID       uint    `json:"facilityDbId"`
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	Years      YearMap `json:"years"`
}

type (
	YearMap  map[int]MonthMap
	MonthMap map[int]DayMap
	DayMap   map[int]RoomMap
	RoomMap  map[string]PhaseMap
	PhaseMap map[string][]HierarchyImage
)

type HierarchyImage struct {
	ID          uint   `json:"id"`
	URL         string `json:"url"`
	RecordID    uint   `json:"recordId"`
	RoomType    string `json:"roomType"`
	BeforeAfter string `json:"beforeAfter"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	UploadedAt  string `json:"uploadedAt"`
	UploadedBy  string `json:"uploadedBy,omitempty"`
}

// Hierarchy fetches the upload tree. Both filters are optional.
func (s *Session) Hierarchy(ctx context.Context, companyID, facilityID string) (Hierarchy, int, error) {
	q := url.Values{}
	if companyID != "" {
		q.Set("companyId", companyID)
	}
	if facilityID != "" {
		q.Set("facilityId", facilityID)
	}
	path := "/api/auth/company/uploads/hierarchy"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	req, err := s.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, 0, err
	}
	var out struct {
		Hierarchy  Hierarchy `json:"hierarchy"`
		TotalCount int       `json:"totalCount"`
	}
	if err := s.send(req, &out); err != nil {
		return nil, 0, err
	}
	return out.Hierarchy, out.TotalCount, nil
}
