// Package domain contains core business entities and rules.
package domain

import "strings"

// FilterAll is the filter value that selects every quote regardless of category.
const FilterAll = "all"

// Quote is a text/category pair.
// This is a domain entity - it has no knowledge of external systems.
// Quotes carry no identifier; Text is the identity used for deduplication.
type Quote struct {
	// Text is the body of the quote.
	Text string `json:"text"`

	// Category groups quotes for filtering.
	Category string `json:"category"`
}

// NewQuote trims the inputs and returns a Quote.
// Returns a ValidationError if either field is empty after trimming.
func NewQuote(text, category string) (Quote, error) {
	q := Quote{
		Text:     strings.TrimSpace(text),
		Category: strings.TrimSpace(category),
	}

	if err := q.Validate(); err != nil {
		return Quote{}, err
	}

	return q, nil
}

// Validate reports whether the quote satisfies the non-empty field rule.
func (q Quote) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return NewValidationError("text", "must not be empty")
	}

	if strings.TrimSpace(q.Category) == "" {
		return NewValidationError("category", "must not be empty")
	}

	return nil
}

// Matches reports whether the quote belongs to the given filter.
func (q Quote) Matches(filter string) bool {
	return filter == FilterAll || q.Category == filter
}

// SeedQuotes returns the quotes a fresh store starts with.
func SeedQuotes() []Quote {
	return []Quote{
		{Text: "The best way to predict the future is to create it.", Category: "Inspiration"},
		{Text: "Life is what happens when you're busy making other plans.", Category: "Life"},
		{Text: "Success is not final, failure is not fatal: it is the courage to continue that counts.", Category: "Success"},
	}
}

// Categories derives the distinct categories of quotes in first-seen order.
func Categories(quotes []Quote) []string {
	seen := make(map[string]struct{}, len(quotes))
	out := make([]string, 0, len(quotes))

	for _, q := range quotes {
		if _, ok := seen[q.Category]; ok {
			continue
		}

		seen[q.Category] = struct{}{}
		out = append(out, q.Category)
	}

	return out
}

// NormalizeFilter maps a blank filter to FilterAll.
func NormalizeFilter(filter string) string {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return FilterAll
	}

	return filter
}
