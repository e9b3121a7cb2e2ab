// Package artifacts stores exported run files on a local directory or an
// S3-compatible bucket.
package artifacts

import (
	"context"
	"io"
)

// Sink receives exported run artifacts under slash-separated keys such as
// "<run-id>/micap.csv".
type Sink interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	// Location describes where key ends up, for logging and output
	Location(key string) string
}

const (
	ContentTypeCSV  = "text/csv"
	ContentTypeJSON = "application/json"
	ContentTypeZip  = "application/zip"
	ContentTypeText = "text/plain; version=0.0.4"
)
