package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// importFormField is the multipart field an uploaded export arrives in.
const importFormField = "file"

// NotificationFeed hands out pending notifications once.
type NotificationFeed interface {
	Drain() []ports.Notification
}

// QuoteHandlerConfig contains the handler's collaborators.
type QuoteHandlerConfig struct {
	Book      *app.QuoteBook
	Presenter *app.Presenter
	Transfer  *app.Transfer
	Syncer    *app.Syncer
	Feed      NotificationFeed
}

// QuoteHandler serves the quote API.
type QuoteHandler struct {
	book      *app.QuoteBook
	presenter *app.Presenter
	transfer  *app.Transfer
	syncer    *app.Syncer
	feed      NotificationFeed
}

// NewQuoteHandler creates a quote handler.
func NewQuoteHandler(cfg QuoteHandlerConfig) *QuoteHandler {
	return &QuoteHandler{
		book:      cfg.Book,
		presenter: cfg.Presenter,
		transfer:  cfg.Transfer,
		syncer:    cfg.Syncer,
		feed:      cfg.Feed,
	}
}

// ListQuotes handles GET /api/v1/quotes.
//
// @Summary List quotes in insertion order
// @Tags quotes
// @Produce json
// @Param cursor query string false "Cursor from a previous page"
// @Param limit query int false "Page size (1-100)"
// @Success 200 {object} dto.PaginatedResponse[dto.QuoteResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes [get]
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	var req dto.PaginationRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	offset, err := req.Offset()
	if err != nil {
		dto.RespondWithCode(c, dto.ErrorCodeBadRequest, err.Error())
		return
	}

	quotes, total := h.book.Page(offset, req.GetLimit())
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(dto.NewQuoteResponses(quotes), offset, total))
}

// AddQuote handles POST /api/v1/quotes.
//
// @Summary Add a quote
// @Tags quotes
// @Accept json
// @Produce json
// @Param quote body dto.AddQuoteRequest true "Quote"
// @Success 201 {object} dto.QuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/quotes [post]
func (h *QuoteHandler) AddQuote(c *gin.Context) {
	var req dto.AddQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	q, err := h.book.Add(c.Request.Context(), req.Text, req.Category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuoteResponse(q))
}

// RandomQuote handles GET /api/v1/quotes/random. Without ?category the
// stored filter applies.
//
// @Summary Show a random quote
// @Tags quotes
// @Produce json
// @Param category query string false "Category or \"all\""
// @Success 200 {object} dto.DisplayResponse
// @Router /api/v1/quotes/random [get]
func (h *QuoteHandler) RandomQuote(c *gin.Context) {
	var q dto.RandomQuoteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		dto.RespondWithCode(c, dto.ErrorCodeBadRequest, "malformed query")
		return
	}

	ctx := c.Request.Context()

	filter := q.Category
	if strings.TrimSpace(filter) == "" {
		filter = h.presenter.Filter(ctx)
	}

	display, err := h.presenter.PickAndShow(ctx, middleware.GetSessionID(c), filter)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewDisplayResponse(display))
}

// CurrentQuote handles GET /api/v1/quotes/current: the quote this session
// last saw, or a fresh draw when it has none.
//
// @Summary Restore the session's quote
// @Tags quotes
// @Produce json
// @Success 200 {object} dto.DisplayResponse
// @Router /api/v1/quotes/current [get]
func (h *QuoteHandler) CurrentQuote(c *gin.Context) {
	display, err := h.presenter.RestoreOnStart(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewDisplayResponse(display))
}

// Categories handles GET /api/v1/categories.
//
// @Summary List filter options
// @Tags categories
// @Produce json
// @Success 200 {object} dto.CategoriesResponse
// @Router /api/v1/categories [get]
func (h *QuoteHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewCategoriesResponse(h.book.Categories(), h.presenter.Filter(c.Request.Context())))
}

// SetFilter handles PUT /api/v1/filter.
//
// @Summary Select the category filter
// @Tags categories
// @Accept json
// @Produce json
// @Param filter body dto.SetFilterRequest true "Filter"
// @Success 200 {object} dto.DisplayResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/filter [put]
func (h *QuoteHandler) SetFilter(c *gin.Context) {
	var req dto.SetFilterRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	display, err := h.presenter.SetFilter(c.Request.Context(), middleware.GetSessionID(c), req.Filter)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewDisplayResponse(display))
}

// Export handles GET /api/v1/export as a quotes.json download.
//
// @Summary Download every quote
// @Tags transfer
// @Produce json
// @Success 200 {array} dto.QuoteResponse
// @Router /api/v1/export [get]
func (h *QuoteHandler) Export(c *gin.Context) {
	raw, err := h.transfer.Export(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": app.ExportFilename}))
	c.Data(http.StatusOK, "application/json", raw)
}

// Import handles POST /api/v1/import. The document is either the raw body
// or a multipart upload in the "file" field.
//
// @Summary Append quotes from an exported file
// @Tags transfer
// @Accept json,mpfd
// @Produce json
// @Success 200 {object} dto.ImportResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Router /api/v1/import [post]
func (h *QuoteHandler) Import(c *gin.Context) {
	raw, err := readImport(c)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	result, err := h.transfer.Import(c.Request.Context(), raw)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewImportResponse(result))
}

func readImport(c *gin.Context) ([]byte, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, fmt.Errorf("reading body: %w", err)
		}

		return raw, nil
	}

	fh, err := c.FormFile(importFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError

		switch {
		case errors.As(err, &tooLarge):
			return nil, fmt.Errorf("reading upload: %w", err)
		case errors.Is(err, http.ErrMissingFile):
			return nil, domain.NewValidationError(importFormField, "is required")
		default:
			return nil, domain.NewParseError("malformed multipart upload", err)
		}
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	return raw, nil
}

// Sync handles POST /api/v1/sync.
//
// @Summary Sync with the remote source now
// @Tags sync
// @Produce json
// @Success 200 {object} dto.SyncResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/sync [post]
func (h *QuoteHandler) Sync(c *gin.Context) {
	result, err := h.syncer.SyncNow(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSyncResponse(result))
}

// Notifications handles GET /api/v1/notifications. Each notice is returned once.
//
// @Summary Drain pending notifications
// @Tags sync
// @Produce json
// @Success 200 {object} dto.NotificationsResponse
// @Router /api/v1/notifications [get]
func (h *QuoteHandler) Notifications(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewNotificationsResponse(h.feed.Drain()))
}

// EndSession handles DELETE /api/v1/session.
//
// @Summary Forget this session's quote
// @Tags session
// @Success 204
// @Router /api/v1/session [delete]
func (h *QuoteHandler) EndSession(c *gin.Context) {
	if err := h.presenter.EndSession(c.Request.Context(), middleware.GetSessionID(c)); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterQuoteRoutes registers the API routes on rg.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("", h.ListQuotes)
	quotes.POST("", h.AddQuote)
	quotes.GET("/random", h.RandomQuote)
	quotes.GET("/current", h.CurrentQuote)

	rg.GET("/categories", h.Categories)
	rg.PUT("/filter", h.SetFilter)
	rg.GET("/export", h.Export)
	rg.POST("/import", h.Import)
	rg.POST("/sync", h.Sync)
	rg.GET("/notifications", h.Notifications)
	rg.DELETE("/session", h.EndSession)
}
