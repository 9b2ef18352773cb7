package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// ExportFilename is the suggested name for downloaded exports.
const ExportFilename = "quotes.json"

// ImportResult summarizes an import.
type ImportResult struct {
	Imported int         `json:"imported"`
	Total    int         `json:"total"`
	Rejected []Rejection `json:"rejected,omitempty"`
	Strict   bool        `json:"strict"`
}

// Rejection names an element of an imported array that was not appended.
type Rejection struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// importPlan is what Verify accepted and Archive will append.
type importPlan struct {
	accepted []domain.Quote
	rejected []Rejection
	strict   bool
}

// Transfer moves the quote list in and out as JSON documents.
type Transfer struct {
	book     *QuoteBook
	flags    ports.FeatureFlags
	executor *Executor
	logger   *slog.Logger
}

// NewTransfer creates a Transfer. flags may be nil, which keeps the lenient
// import mode.
func NewTransfer(book *QuoteBook, flags ports.FeatureFlags, executor *Executor, logger *slog.Logger) *Transfer {
	if logger == nil {
		logger = slog.Default()
	}

	if executor == nil {
		executor = NewExecutor(logger)
	}

	return &Transfer{book: book, flags: flags, executor: executor, logger: logger}
}

// Export renders every quote, in order, as a two-space indented JSON array.
func (t *Transfer) Export(ctx context.Context) ([]byte, error) {
	quotes := t.book.Snapshot()

	raw, err := json.MarshalIndent(quotes, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}

	t.logger.DebugContext(ctx, "quotes exported", slog.Int("count", len(quotes)))

	return raw, nil
}

// Import parses raw as a JSON array and appends its elements with one write.
// Invalid JSON or a non-array document fails with a ParseError and changes
// nothing. Elements that are not objects, or whose text or category is not a
// string, are rejected; with the strict-import flag, objects with an empty
// text or category are too. Only text and category are kept from an accepted
// object: any other field is dropped.
func (t *Transfer) Import(ctx context.Context, raw []byte) (ImportResult, error) {
	op := Operation[[]byte, []json.RawMessage, importPlan, ImportResult]{
		Name: "import_quotes",
		Validate: func(_ context.Context, raw []byte) error {
			if len(bytes.TrimSpace(raw)) == 0 {
				return domain.NewParseError("document is empty", nil)
			}
			return nil
		},
		Perform: func(_ context.Context, raw []byte) ([]json.RawMessage, error) {
			return parseArray(raw)
		},
		Verify: func(ctx context.Context, _ []byte, elems []json.RawMessage) (importPlan, error) {
			strict := t.strict(ctx)
			return planImport(elems, strict), nil
		},
		Archive: func(ctx context.Context, _ []byte, plan importPlan) error {
			return t.book.Append(ctx, plan.accepted)
		},
		Respond: func(_ context.Context, _ []byte, plan importPlan) (ImportResult, error) {
			return ImportResult{
				Imported: len(plan.accepted),
				Total:    t.book.Len(),
				Rejected: plan.rejected,
				Strict:   plan.strict,
			}, nil
		},
	}

	return Execute(ctx, t.executor, op, raw)
}

func (t *Transfer) strict(ctx context.Context) bool {
	if t.flags == nil {
		return false
	}

	return t.flags.IsEnabled(ctx, ports.FlagStrictImport, false)
}

func parseArray(raw []byte) ([]json.RawMessage, error) {
	if !json.Valid(raw) {
		var probe any
		return nil, domain.NewParseError("invalid JSON", json.Unmarshal(raw, &probe))
	}

	if bytes.TrimSpace(raw)[0] != '[' {
		return nil, domain.NewParseError("top-level value must be an array", nil)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, domain.NewParseError("invalid JSON", err)
	}

	return elems, nil
}

func planImport(elems []json.RawMessage, strict bool) importPlan {
	plan := importPlan{
		accepted: make([]domain.Quote, 0, len(elems)),
		strict:   strict,
	}

	reject := func(i int, reason string) {
		plan.rejected = append(plan.rejected, Rejection{Index: i, Reason: reason})
	}

	for i, elem := range elems {
		trimmed := bytes.TrimSpace(elem)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			reject(i, "element is not an object")
			continue
		}

		var q domain.Quote
		if err := json.Unmarshal(trimmed, &q); err != nil {
			reject(i, "text and category must be strings")
			continue
		}

		if strict {
			valid, err := domain.NewQuote(q.Text, q.Category)
			if err != nil {
				reject(i, err.Error())
				continue
			}
			q = valid
		}

		plan.accepted = append(plan.accepted, q)
	}

	return plan
}
