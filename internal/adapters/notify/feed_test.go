package notify

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

var _ ports.Notifier = (*Feed)(nil)

func TestFeed_DrainEmpties(t *testing.T) {
	feed := NewFeed(0, nil)

	assert.Empty(t, feed.Drain())

	feed.Notify(context.Background(), ports.Notification{Message: "2 new quote(s) synced from server.", Count: 2})

	got := feed.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Count)
	assert.Empty(t, feed.Drain())
}

func TestFeed_DropsOldestWhenFull(t *testing.T) {
	feed := NewFeed(3, nil)

	for i := 1; i <= 5; i++ {
		feed.Notify(context.Background(), ports.Notification{Message: fmt.Sprint(i), Count: i})
	}

	got := feed.Drain()
	require.Len(t, got, 3)
	assert.Equal(t, []int{3, 4, 5}, []int{got[0].Count, got[1].Count, got[2].Count})
}
