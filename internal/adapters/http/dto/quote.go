package dto

import (
	"time"

	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// QuoteResponse is a quote on the wire.
type QuoteResponse struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// NewQuoteResponse converts a domain quote.
func NewQuoteResponse(q domain.Quote) QuoteResponse {
	return QuoteResponse{Text: q.Text, Category: q.Category}
}

// NewQuoteResponses converts a slice, never returning nil.
func NewQuoteResponses(quotes []domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, NewQuoteResponse(q))
	}

	return out
}

// AddQuoteRequest is the body of POST /quotes.
type AddQuoteRequest struct {
	Text     string `json:"text"     validate:"required,notblank"`
	Category string `json:"category" validate:"required,notblank"`
}

// SetFilterRequest is the body of PUT /filter.
type SetFilterRequest struct {
	Filter string `json:"filter" validate:"required,notblank"`
}

// RandomQuoteQuery is the query of GET /quotes/random.
type RandomQuoteQuery struct {
	Category string `form:"category"`
}

// DisplayResponse is the quote the client should render. Quote is absent
// when the filter selected nothing; Message then explains why.
type DisplayResponse struct {
	Quote    *QuoteResponse `json:"quote,omitempty"`
	Message  string         `json:"message,omitempty"`
	Filter   string         `json:"filter"`
	Restored bool           `json:"restored"`
}

// NewDisplayResponse converts a presenter display.
func NewDisplayResponse(d app.Display) DisplayResponse {
	resp := DisplayResponse{Message: d.Message, Filter: d.Filter, Restored: d.Restored}

	if d.Quote != nil {
		q := NewQuoteResponse(*d.Quote)
		resp.Quote = &q
	}

	return resp
}

// CategoriesResponse lists the filter choices: "all" first, then each
// category in first-seen order, plus the stored selection.
type CategoriesResponse struct {
	Options  []string `json:"options"`
	Selected string   `json:"selected"`
}

// NewCategoriesResponse builds the filter choices.
func NewCategoriesResponse(categories []string, selected string) CategoriesResponse {
	options := make([]string, 0, len(categories)+1)
	options = append(options, domain.FilterAll)
	options = append(options, categories...)

	return CategoriesResponse{Options: options, Selected: selected}
}

// ImportResponse reports an import.
type ImportResponse struct {
	Imported int                 `json:"imported"`
	Total    int                 `json:"total"`
	Strict   bool                `json:"strict"`
	Rejected []RejectionResponse `json:"rejected,omitempty"`
	Message  string              `json:"message"`
}

// RejectionResponse names a skipped element of an imported array.
type RejectionResponse struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// ImportSuccessMessage is shown after every successful import.
const ImportSuccessMessage = "Quotes imported successfully!"

// NewImportResponse converts an import result.
func NewImportResponse(r app.ImportResult) ImportResponse {
	resp := ImportResponse{
		Imported: r.Imported,
		Total:    r.Total,
		Strict:   r.Strict,
		Message:  ImportSuccessMessage,
	}

	for _, rej := range r.Rejected {
		resp.Rejected = append(resp.Rejected, RejectionResponse(rej))
	}

	return resp
}

// SyncResponse reports a manual sync.
type SyncResponse struct {
	Fetched int             `json:"fetched"`
	Added   int             `json:"added"`
	Quotes  []QuoteResponse `json:"quotes"`
}

// NewSyncResponse converts a sync result.
func NewSyncResponse(r app.SyncResult) SyncResponse {
	return SyncResponse{Fetched: r.Fetched, Added: r.Added, Quotes: NewQuoteResponses(r.Quotes)}
}

// NotificationResponse is one user-facing notice.
type NotificationResponse struct {
	Message   string    `json:"message"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationsResponse carries the drained notices, oldest first.
type NotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
}

// NewNotificationsResponse converts drained notifications.
func NewNotificationsResponse(ns []ports.Notification) NotificationsResponse {
	out := make([]NotificationResponse, 0, len(ns))
	for _, n := range ns {
		out = append(out, NotificationResponse{Message: n.Message, Count: n.Count, CreatedAt: n.CreatedAt})
	}

	return NotificationsResponse{Notifications: out}
}
