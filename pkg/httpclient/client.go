// Package httpclient holds the transport used to fetch remote documents.
package httpclient

import "context"

// Response is the part of an HTTP response callers inspect.
type Response interface {
	Body() []byte
	StatusCode() int
	Header(key string) string
}

// Client performs GET requests; fakes satisfy it in tests.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}
