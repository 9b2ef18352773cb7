package acl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// BaseAdapter carries the client and downstream name shared by adapters.
type BaseAdapter struct {
	client      *clients.Client
	serviceName string
}

// NewBaseAdapter creates a BaseAdapter.
func NewBaseAdapter(client *clients.Client, serviceName string) BaseAdapter {
	return BaseAdapter{client: client, serviceName: serviceName}
}

// ServiceName returns the downstream name used in errors.
func (a *BaseAdapter) ServiceName() string {
	return a.serviceName
}

// Get issues a GET and returns the body of a 2xx/3xx response; the caller
// closes it. Failures come back as domain errors.
func (a *BaseAdapter) Get(ctx context.Context, path, operation string) (io.ReadCloser, error) {
	resp, err := a.client.Get(ctx, path)
	if err != nil {
		return nil, MapHTTPError(nil, err, a.serviceName, operation, "")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer func() { _ = resp.Body.Close() }()

		return nil, MapHTTPError(resp, nil, a.serviceName, operation, path)
	}

	return resp.Body, nil
}

// DecodeResponse decodes a JSON body into T and closes it.
func DecodeResponse[T any](body io.ReadCloser) (T, error) {
	var out T

	if body == nil {
		return out, errors.New("response body is nil")
	}
	defer func() { _ = body.Close() }()

	if err := json.NewDecoder(body).Decode(&out); err != nil {
		return out, fmt.Errorf("decoding response: %w", err)
	}

	return out, nil
}

// ValidatePositive returns a ValidationError unless value is positive.
func ValidatePositive[T ~int | ~int64 | ~float64](value T, fieldName string) error {
	if value <= 0 {
		return domain.NewValidationError(fieldName, "must be positive")
	}

	return nil
}

// Translator converts one external DTO into a domain value.
type Translator[E, D any] func(ext *E) (D, error)

// TranslateSlice translates items in order, stopping at the first failure.
func TranslateSlice[E, D any](items []E, translate Translator[E, D]) ([]D, error) {
	out := make([]D, 0, len(items))

	for i := range items {
		d, err := translate(&items[i])
		if err != nil {
			return nil, fmt.Errorf("translating item %d: %w", i, err)
		}

		out = append(out, d)
	}

	return out, nil
}
