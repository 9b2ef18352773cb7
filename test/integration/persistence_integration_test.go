//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentAdds_AllPersisted fires parallel POSTs and checks that every
// quote is in the list after a restart.
func TestConcurrentAdds_AllPersisted(t *testing.T) {
	const workers = 20

	remoteTS := httptest.NewServer(newFakeRemote())
	defer remoteTS.Close()

	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "quotes.db")

	s, err := startStack(ctx, dbPath, remoteTS.URL, nil)
	require.NoError(t, err)

	seeded := s.book.Len()

	var wg sync.WaitGroup
	statuses := make([]int, workers)

	for i := range workers {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			body := fmt.Sprintf(`{"text":"Concurrent quote %d","category":"Load"}`, n)
			resp, err := http.Post(s.URL()+"/api/v1/quotes", "application/json", strings.NewReader(body))
			if err != nil {
				return
			}
			resp.Body.Close()
			statuses[n] = resp.StatusCode
		}(i)
	}

	wg.Wait()

	for i, status := range statuses {
		assert.Equal(t, http.StatusCreated, status, "request %d", i)
	}

	s.Close()

	restarted, err := startStack(ctx, dbPath, remoteTS.URL, nil)
	require.NoError(t, err)
	defer restarted.Close()

	assert.Equal(t, seeded+workers, restarted.book.Len())
	assert.Len(t, restarted.book.Matching("Load"), workers)
}

// TestRestart_KeepsFilterSelection checks that the category filter is durable
// while the shown quote is session-scoped.
func TestRestart_KeepsFilterSelection(t *testing.T) {
	remoteTS := httptest.NewServer(newFakeRemote())
	defer remoteTS.Close()

	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "quotes.db")

	s, err := startStack(ctx, dbPath, remoteTS.URL, nil)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPut, s.URL()+"/api/v1/filter", strings.NewReader(`{"filter":"Success"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	s.Close()

	restarted, err := startStack(ctx, dbPath, remoteTS.URL, nil)
	require.NoError(t, err)
	defer restarted.Close()

	resp, err = http.Get(restarted.URL() + "/api/v1/categories")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Selected string `json:"selected"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Success", body.Selected)
}
