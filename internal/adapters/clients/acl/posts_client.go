package acl

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

// PostsClientConfig configures a PostsClient.
type PostsClientConfig struct {
	// Client must have its BaseURL set to the posts API root.
	Client *clients.Client

	// ServiceName names the downstream in errors and health reports.
	ServiceName string

	Logger *slog.Logger
}

// PostsClient implements ports.RemoteQuoteSource over a JSONPlaceholder-style
// posts API: each post title becomes the text of a quote.
type PostsClient struct {
	BaseAdapter
	logger *slog.Logger
}

// postDTO is the external shape of a post.
type postDTO struct {
	UserID int     `json:"userId"`
	ID     int     `json:"id"`
	Title  *string `json:"title"`
	Body   string  `json:"body"`
}

// NewPostsClient creates the adapter. Panics if Client is nil.
func NewPostsClient(cfg PostsClientConfig) *PostsClient {
	if cfg.Client == nil {
		panic("PostsClient: Client is required")
	}

	name := cfg.ServiceName
	if name == "" {
		name = "remote-quotes"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &PostsClient{
		BaseAdapter: NewBaseAdapter(cfg.Client, name),
		logger:      logger,
	}
}

// FetchQuotes fetches up to limit posts and returns their titles as quotes
// with no category; callers assign one.
func (c *PostsClient) FetchQuotes(ctx context.Context, limit int) ([]domain.Quote, error) {
	if err := ValidatePositive(limit, "limit"); err != nil {
		return nil, err
	}

	path := "/posts?_limit=" + strconv.Itoa(limit)
	c.logger.Log(ctx, logging.LevelTrace, "fetching posts", slog.String("path", path))

	body, err := c.Get(ctx, path, "fetch posts")
	if err != nil {
		return nil, err
	}

	posts, err := DecodeResponse[[]postDTO](body)
	if err != nil {
		return nil, domain.NewUnavailableError(c.ServiceName(), err.Error())
	}

	quotes, err := TranslateSlice(posts, translatePost)
	if err != nil {
		return nil, domain.NewUnavailableError(c.ServiceName(), err.Error())
	}

	if len(quotes) > limit {
		quotes = quotes[:limit]
	}

	c.logger.DebugContext(ctx, "posts fetched", slog.Int("count", len(quotes)))

	return quotes, nil
}

func translatePost(p *postDTO) (domain.Quote, error) {
	if p.Title == nil {
		return domain.Quote{}, fmt.Errorf("post %d has no title", p.ID)
	}

	return domain.Quote{Text: *p.Title}, nil
}

// Name identifies the downstream in readiness reports.
func (c *PostsClient) Name() string {
	return c.ServiceName()
}

// Check fetches a single post to prove the downstream answers.
func (c *PostsClient) Check(ctx context.Context) error {
	body, err := c.Get(ctx, "/posts?_limit=1", "health check")
	if err != nil {
		return err
	}

	return body.Close()
}
