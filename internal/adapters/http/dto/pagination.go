package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// DefaultLimit is the default number of items per page.
const DefaultLimit = 20

// MaxLimit is the maximum allowed items per page.
const MaxLimit = 100

// ErrInvalidCursor is returned when a cursor cannot be decoded.
var ErrInvalidCursor = errors.New("invalid cursor")

// PaginationRequest is the query of a paged list.
type PaginationRequest struct {
	// Cursor is opaque, taken from a previous page's nextCursor.
	Cursor string `form:"cursor"`

	Limit int `form:"limit" json:"limit" validate:"omitempty,gte=1,lte=100"`
}

// GetLimit returns the limit with defaults applied.
func (p *PaginationRequest) GetLimit() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}

	return min(p.Limit, MaxLimit)
}

// Offset decodes the cursor. An empty cursor is the first page.
func (p *PaginationRequest) Offset() (int, error) {
	if p.Cursor == "" {
		return 0, nil
	}

	data, err := DecodeCursor(p.Cursor)
	if err != nil {
		return 0, err
	}

	return data.Offset, nil
}

// PaginatedResponse is one page of items.
type PaginatedResponse[T any] struct {
	Items []T `json:"items"`

	// NextCursor is empty on the last page.
	NextCursor string `json:"nextCursor,omitempty"`

	HasMore bool `json:"hasMore"`
	Total   int  `json:"total"`
}

// NewPaginatedResponse builds the page that starts at offset of a list with
// total items.
func NewPaginatedResponse[T any](items []T, offset, total int) *PaginatedResponse[T] {
	if items == nil {
		items = []T{}
	}

	next := offset + len(items)
	resp := &PaginatedResponse[T]{
		Items:   items,
		HasMore: next < total,
		Total:   total,
	}

	if resp.HasMore {
		resp.NextCursor = EncodeCursor(&CursorData{Offset: next})
	}

	return resp
}

// CursorData is what a cursor encodes. Quotes are append-only, so a
// position in the list is stable across pages.
type CursorData struct {
	Offset int `json:"o"`
}

// EncodeCursor encodes cursor data as URL-safe base64 JSON.
func EncodeCursor(data *CursorData) string {
	if data == nil {
		return ""
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return ""
	}

	return base64.URLEncoding.EncodeToString(raw)
}

// DecodeCursor reverses EncodeCursor.
func DecodeCursor(encoded string) (*CursorData, error) {
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var data CursorData
	if err := json.Unmarshal(raw, &data); err != nil || data.Offset < 0 {
		return nil, ErrInvalidCursor
	}

	return &data, nil
}
