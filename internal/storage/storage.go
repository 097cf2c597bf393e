// Package storage issues time-limited read URLs for objects in the recordings bucket.
package storage

import (
	"context"
)

//go:generate go run go.uber.org/mock/mockgen -source=storage.go -destination=mock_storage.go -package=storage

// URLIssuer turns an object locator into a URL a remote service can fetch without credentials.
type URLIssuer interface {
	ReadURL(ctx context.Context, locator string) (string, error)
}
