package service

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

var (
	ErrEmptyBatch    = errors.New("no ids given")
	ErrBatchTooLarge = errors.New("too many ids in one batch")
)

// MaxBatchDeleteSize caps ids per batch delete call
const MaxBatchDeleteSize = 500

// Per-id batch outcomes
const (
	BatchStatusDeleted   = "deleted"
	BatchStatusNotFound  = "not_found"
	BatchStatusForbidden = "forbidden"
	BatchStatusInvalid   = "invalid"
	BatchStatusError     = "error"
)

type BatchItemResult struct {
	ID     uint   `json:"id"`
	Input  string `json:"input,omitempty"` // 不正なIDの元の値
	Status string `json:"status"`
}

// BatchResult reports per-id outcomes; succeeded ids stay deleted even when others fail
type BatchResult struct {
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Results   []BatchItemResult `json:"results"`
}

func (r *BatchResult) addInvalid(inputs []string) {
	for _, in := range inputs {
		r.Failed++
		r.Results = append(r.Results, BatchItemResult{Input: in, Status: BatchStatusInvalid})
	}
}

// BatchIDs is what a batch delete was asked for. Invalid holds entries that are not positive integers.
type BatchIDs struct {
	IDs     []uint
	Invalid []string
}

// ParseBatchIDs reads raw JSON array entries. Numbers and numeric strings become ids.
func ParseBatchIDs(lists ...[]json.RawMessage) BatchIDs {
	var out BatchIDs
	for _, list := range lists {
		for _, raw := range list {
			text := strings.TrimSpace(string(raw))
			n, err := strconv.ParseUint(strings.Trim(text, `"`), 10, 64)
			if err != nil || n == 0 || uint64(uint(n)) != n {
				out.Invalid = append(out.Invalid, text)
				continue
			}
			out.IDs = append(out.IDs, uint(n))
		}
	}
	return out
}

// normalize dedupes ids and reports zero ids as invalid entries
func (b BatchIDs) normalize() ([]uint, []string, error) {
	invalid := append([]string{}, b.Invalid...)
	seen := make(map[uint]struct{}, len(b.IDs))
	ids := make([]uint, 0, len(b.IDs))
	for _, id := range b.IDs {
		if id == 0 {
			invalid = append(invalid, "0")
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	switch total := len(ids) + len(invalid); {
	case total == 0:
		return nil, nil, ErrEmptyBatch
	case total > MaxBatchDeleteSize:
		return nil, nil, ErrBatchTooLarge
	}
	return ids, invalid, nil
}

func batchStatus(err error) string {
	switch {
	case err == nil:
		return BatchStatusDeleted
	case errors.Is(err, ErrImageNotFound), errors.Is(err, ErrReceiptNotFound):
		return BatchStatusNotFound
	case errors.Is(err, ErrForbidden):
		return BatchStatusForbidden
	}
	return BatchStatusError
}
