package model

import (
	"encoding/json"

	"github.com/kireiworks/cleaning-backend/pkg/jst"
)

// Rows are stored in UTC. These renderers swap each timestamp for jst.Time so
// every response, preloaded relations included, carries +09:00 offsets.

func (c Company) MarshalJSON() ([]byte, error) {
	type row Company
	return json.Marshal(struct {
		row
		CreatedAt jst.Time `json:"createdAt"`
		UpdatedAt jst.Time `json:"updatedAt"`
	}{row(c), jst.Wrap(c.CreatedAt), jst.Wrap(c.UpdatedAt)})
}

func (f Facility) MarshalJSON() ([]byte, error) {
	type row Facility
	return json.Marshal(struct {
		row
		CreatedAt jst.Time `json:"createdAt"`
		UpdatedAt jst.Time `json:"updatedAt"`
	}{row(f), jst.Wrap(f.CreatedAt), jst.Wrap(f.UpdatedAt)})
}

func (u User) MarshalJSON() ([]byte, error) {
	type row User
	return json.Marshal(struct {
		row
		CreatedAt jst.Time `json:"createdAt"`
		UpdatedAt jst.Time `json:"updatedAt"`
	}{row(u), jst.Wrap(u.CreatedAt), jst.Wrap(u.UpdatedAt)})
}

func (a ClientApplication) MarshalJSON() ([]byte, error) {
	type row ClientApplication
	return json.Marshal(struct {
		row
		RequestedDate *jst.Time `json:"requestedDate,omitempty"`
		CreatedAt     jst.Time  `json:"createdAt"`
		UpdatedAt     jst.Time  `json:"updatedAt"`
	}{row(a), jst.WrapPtr(a.RequestedDate), jst.Wrap(a.CreatedAt), jst.Wrap(a.UpdatedAt)})
}

func (n Notification) MarshalJSON() ([]byte, error) {
	type row Notification
	return json.Marshal(struct {
		row
		CreatedAt jst.Time `json:"createdAt"`
		UpdatedAt jst.Time `json:"updatedAt"`
	}{row(n), jst.Wrap(n.CreatedAt), jst.Wrap(n.UpdatedAt)})
}

func (g CleaningGuideline) MarshalJSON() ([]byte, error) {
	type row CleaningGuideline
	return json.Marshal(struct {
		row
		CreatedAt jst.Time `json:"createdAt"`
		UpdatedAt jst.Time `json:"updatedAt"`
	}{row(g), jst.Wrap(g.CreatedAt), jst.Wrap(g.UpdatedAt)})
}

func (r CleaningRecord) MarshalJSON() ([]byte, error) {
	type row CleaningRecord
	return json.Marshal(struct {
		row
		CleaningDate jst.Time `json:"cleaningDate"`
		CreatedAt    jst.Time `json:"createdAt"`
		UpdatedAt    jst.Time `json:"updatedAt"`
	}{row(r), jst.Wrap(r.CleaningDate), jst.Wrap(r.CreatedAt), jst.Wrap(r.UpdatedAt)})
}

func (img CleaningImage) MarshalJSON() ([]byte, error) {
	type row CleaningImage
	return json.Marshal(struct {
		row
		UploadedAt jst.Time `json:"uploadedAt"`
		UpdatedAt  jst.Time `json:"updatedAt"`
	}{row(img), jst.Wrap(img.UploadedAt), jst.Wrap(img.UpdatedAt)})
}

func (r Receipt) MarshalJSON() ([]byte, error) {
	type row Receipt
	return json.Marshal(struct {
		row
		UploadedAt jst.Time `json:"uploadedAt"`
		CreatedAt  jst.Time `json:"createdAt"`
		UpdatedAt  jst.Time `json:"updatedAt"`
	}{row(r), jst.Wrap(r.UploadedAt), jst.Wrap(r.CreatedAt), jst.Wrap(r.UpdatedAt)})
}
