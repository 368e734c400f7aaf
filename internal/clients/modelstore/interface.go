package modelstore

//go:generate mockgen -destination=mock/mock_client.go -package=mockmodelstore . Client

import (
	"context"
)

// Client fetches raw model payloads
type Client interface {
	// Fetch returns the bytes behind an http, https or file URL. A bare path
	// is read from disk.
	Fetch(ctx context.Context, url string) ([]byte, error)
}
