package ports

import (
	"context"
	"net/url"
)

// Backend performs typed JSON requests against the REST API. Non-2xx
// responses are returned as classified *errors.AppError values.
type Backend interface {
	// GetJSON issues a GET and decodes the response body into dst.
	GetJSON(ctx context.Context, path string, query url.Values, dst any) error

	// SendJSON issues method with body encoded as JSON and decodes the
	// response into dst. A nil dst discards the body.
	SendJSON(ctx context.Context, method, path string, body, dst any) error
}
