// Package transport performs the HTTP GETs the catalog fetchers depend on.
package transport

import "context"

// Getter fetches the full body of a URL.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// GetterFunc adapts a plain function to Getter.
type GetterFunc func(ctx context.Context, url string) ([]byte, error)

// Get calls f(ctx, url).
func (f GetterFunc) Get(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}
