package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/mocks"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

func TestQuoteBook_Load(t *testing.T) {
	tests := []struct {
		name      string
		stored    string
		getErr    error
		wantLen   int
		wantFirst string
		wantErr   bool
	}{
		{
			name:      "missing key seeds",
			getErr:    domain.NewNotFoundError("key", ports.KeyQuotes),
			wantLen:   3,
			wantFirst: "The best way to predict the future is to create it.",
		},
		{
			name:      "unparsable value seeds",
			stored:    "{not json",
			wantLen:   3,
			wantFirst: "The best way to predict the future is to create it.",
		},
		{
			name:      "null seeds",
			stored:    "null",
			wantLen:   3,
			wantFirst: "The best way to predict the future is to create it.",
		},
		{
			name:      "stored list wins",
			stored:    `[{"text":"Stay hungry.","category":"Life"}]`,
			wantLen:   1,
			wantFirst: "Stay hungry.",
		},
		{
			name:    "empty stored list stays empty",
			stored:  `[]`,
			wantLen: 0,
		},
		{
			name:    "storage failure is returned",
			getErr:  errors.New("disk I/O error"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := mocks.NewMockKeyValueStore(t)
			kv.On("Get", mock.Anything, ports.KeyQuotes).Return(tt.stored, tt.getErr)

			book := NewQuoteBook(kv, discardLogger())
			err := book.Load(context.Background())

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, book.Len())

			if tt.wantFirst != "" {
				assert.Equal(t, tt.wantFirst, book.Snapshot()[0].Text)
			}
		})
	}
}

func TestQuoteBook_LoadDoesNotPersistSeed(t *testing.T) {
	kv := mocks.NewMockKeyValueStore(t)
	kv.On("Get", mock.Anything, ports.KeyQuotes).Return("", domain.NewNotFoundError("key", ports.KeyQuotes))

	book := NewQuoteBook(kv, discardLogger())
	require.NoError(t, book.Load(context.Background()))

	kv.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, []string{"Inspiration", "Life", "Success"}, book.Categories())
}

func TestQuoteBook_Add(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category string
		want     domain.Quote
		errField string
	}{
		{
			name:     "appends trimmed quote",
			text:     "  Stay hungry.  ",
			category: " Life ",
			want:     domain.Quote{Text: "Stay hungry.", Category: "Life"},
		},
		{
			name:     "new category",
			text:     "Keep going.",
			category: "Motivation",
			want:     domain.Quote{Text: "Keep going.", Category: "Motivation"},
		},
		{name: "empty text", text: "   ", category: "Life", errField: "text"},
		{name: "empty category", text: "Something", category: "", errField: "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book, kv := loadedBook(t, nil)

			got, err := book.Add(context.Background(), tt.text, tt.category)

			if tt.errField != "" {
				require.Error(t, err)
				assert.True(t, domain.IsValidation(err))
				assert.Contains(t, err.Error(), tt.errField)
				assert.Equal(t, 3, book.Len())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 4, book.Len())
			assert.Equal(t, tt.want, book.Snapshot()[3])
			assert.Equal(t, book.Snapshot(), storedQuotes(t, kv))
			assert.Contains(t, book.Categories(), tt.want.Category)
		})
	}
}

func TestQuoteBook_InvalidAddSkipsStorage(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category string
	}{
		{name: "empty text", text: "", category: "Life"},
		{name: "whitespace text", text: " \t ", category: "Life"},
		{name: "empty category", text: "Something", category: ""},
		{name: "whitespace category", text: "Something", category: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := mocks.NewMockKeyValueStore(t)
			kv.On("Get", mock.Anything, ports.KeyQuotes).Return("[]", nil)

			book := NewQuoteBook(kv, discardLogger())
			require.NoError(t, book.Load(context.Background()))

			_, err := book.Add(context.Background(), tt.text, tt.category)
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
			assert.Equal(t, 0, book.Len())
			kv.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestQuoteBook_FailedPersistRollsBack(t *testing.T) {
	kv := mocks.NewMockKeyValueStore(t)
	kv.On("Get", mock.Anything, ports.KeyQuotes).Return("", domain.NewNotFoundError("key", ports.KeyQuotes))
	kv.On("Set", mock.Anything, ports.KeyQuotes, mock.Anything).Return(errors.New("database is locked"))

	book := NewQuoteBook(kv, discardLogger())
	require.NoError(t, book.Load(context.Background()))

	_, err := book.Add(context.Background(), "New", "Fresh")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persisting quotes")

	added, err := book.Merge(context.Background(), []domain.Quote{{Text: "Remote", Category: "Server"}})
	require.Error(t, err)
	assert.Nil(t, added)

	require.Error(t, book.Append(context.Background(), []domain.Quote{{Text: "x", Category: "y"}}))

	assert.Equal(t, 3, book.Len())
	assert.NotContains(t, book.Categories(), "Fresh")
	assert.NotContains(t, book.Categories(), "Server")
}

func TestQuoteBook_Merge(t *testing.T) {
	local := []domain.Quote{
		{Text: "A", Category: "Life"},
		{Text: "B", Category: "Life"},
	}

	tests := []struct {
		name      string
		incoming  []domain.Quote
		wantAdded []domain.Quote
		wantLen   int
	}{
		{
			name:     "local wins on equal text",
			incoming: []domain.Quote{{Text: "A", Category: "Server"}},
			wantLen:  2,
		},
		{
			name: "new texts appended in order",
			incoming: []domain.Quote{
				{Text: "C", Category: "Server"},
				{Text: "B", Category: "Server"},
				{Text: "D", Category: "Server"},
			},
			wantAdded: []domain.Quote{{Text: "C", Category: "Server"}, {Text: "D", Category: "Server"}},
			wantLen:   4,
		},
		{
			name: "duplicates inside the batch collapse",
			incoming: []domain.Quote{
				{Text: "E", Category: "Server"},
				{Text: "E", Category: "Server"},
			},
			wantAdded: []domain.Quote{{Text: "E", Category: "Server"}},
			wantLen:   3,
		},
		{
			name:    "empty batch",
			wantLen: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book, kv := loadedBook(t, local)

			added, err := book.Merge(context.Background(), tt.incoming)
			require.NoError(t, err)

			assert.Equal(t, tt.wantAdded, added)
			assert.Equal(t, tt.wantLen, book.Len())
			assert.Equal(t, local, book.Snapshot()[:2], "existing quotes keep their position")
			assert.Len(t, storedQuotes(t, kv), tt.wantLen)
		})
	}
}

func TestQuoteBook_MergeNothingNewSkipsWrite(t *testing.T) {
	kv := mocks.NewMockKeyValueStore(t)
	kv.On("Get", mock.Anything, ports.KeyQuotes).Return(`[{"text":"A","category":"Life"}]`, nil)

	book := NewQuoteBook(kv, discardLogger())
	require.NoError(t, book.Load(context.Background()))

	added, err := book.Merge(context.Background(), []domain.Quote{{Text: "A", Category: "Server"}})
	require.NoError(t, err)
	assert.Empty(t, added)

	kv.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuoteBook_Page(t *testing.T) {
	book, _ := loadedBook(t, nil)

	page, total := book.Page(1, 5)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "Life", page[0].Category)

	page, _ = book.Page(10, 5)
	assert.Empty(t, page)

	page, _ = book.Page(-1, 1)
	assert.Len(t, page, 1)
}

func TestQuoteBook_Matching(t *testing.T) {
	book, _ := loadedBook(t, nil)

	assert.Len(t, book.Matching(domain.FilterAll), 3)
	assert.Len(t, book.Matching("Life"), 1)
	assert.Empty(t, book.Matching("Nonexistent"))
}

func TestQuoteBook_SnapshotIsACopy(t *testing.T) {
	book, _ := loadedBook(t, nil)

	snap := book.Snapshot()
	snap[0].Text = "mutated"

	assert.NotEqual(t, "mutated", book.Snapshot()[0].Text)
}

func TestQuoteBook_ConcurrentAdds(t *testing.T) {
	book, kv := loadedBook(t, []domain.Quote{})

	const writers = 20

	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := book.Add(context.Background(), fmt.Sprintf("quote %d", i), "Load")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, writers, book.Len())
	assert.Len(t, storedQuotes(t, kv), writers)
	assert.Equal(t, []string{"Load"}, book.Categories())
}
