package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuote(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category string
		want     Quote
		badField string
	}{
		{
			name:     "trims both fields",
			text:     "  Stay hungry.  ",
			category: " Life\t",
			want:     Quote{Text: "Stay hungry.", Category: "Life"},
		},
		{
			name:     "empty text",
			text:     "",
			category: "Life",
			badField: "text",
		},
		{
			name:     "whitespace category",
			text:     "Stay hungry.",
			category: "   ",
			badField: "category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewQuote(tt.text, tt.category)

			if tt.badField != "" {
				require.Error(t, err)

				var validationErr *ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, tt.badField, validationErr.Field)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuote_Matches(t *testing.T) {
	q := Quote{Text: "x", Category: "Life"}

	assert.True(t, q.Matches(FilterAll))
	assert.True(t, q.Matches("Life"))
	assert.False(t, q.Matches("life"))
	assert.False(t, q.Matches("Success"))
}

func TestSeedQuotes(t *testing.T) {
	seed := SeedQuotes()

	require.Len(t, seed, 3)
	assert.Equal(t, []string{"Inspiration", "Life", "Success"}, Categories(seed))

	for _, q := range seed {
		assert.NoError(t, q.Validate())
	}
}

func TestCategories_FirstSeenOrder(t *testing.T) {
	quotes := []Quote{
		{Text: "a", Category: "Life"},
		{Text: "b", Category: "Server"},
		{Text: "c", Category: "Life"},
		{Text: "d", Category: "Inspiration"},
	}

	assert.Equal(t, []string{"Life", "Server", "Inspiration"}, Categories(quotes))
	assert.Empty(t, Categories(nil))
}

func TestNormalizeFilter(t *testing.T) {
	assert.Equal(t, FilterAll, NormalizeFilter(""))
	assert.Equal(t, FilterAll, NormalizeFilter("  "))
	assert.Equal(t, "Life", NormalizeFilter(" Life "))
}
