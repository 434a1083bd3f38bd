package gcs

import (
	"context"
)

// Archiver stores raw statement uploads in object storage.
// This interface enables mocking and testing of storage functionality.
type Archiver interface {
	// Archive writes data under objectName and returns the object's URI.
	Archive(ctx context.Context, objectName, contentType string, data []byte) (string, error)

	// Delete removes the object behind a URI previously returned by Archive.
	Delete(ctx context.Context, uri string) error
}

// Nop is an Archiver used when no bucket is configured. It stores nothing
// and returns an empty URI.
type Nop struct{}

func (Nop) Archive(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	return "", nil
}

func (Nop) Delete(ctx context.Context, uri string) error {
	return nil
}
