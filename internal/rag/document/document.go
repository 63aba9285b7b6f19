package document

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/akolanti/SecoursTech/internal/domain/commonModels"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrTransport = errors.New("document transport error")
	ErrEncoding  = errors.New("document encoding error")
)

// Payload is a document ready to be attached to a generation call: the raw
// bytes as base64 text, with no data-URL header.
type Payload struct {
	Name     string
	MIMEType string
	Data     string
	Size     int
}

// Store returns the raw bytes behind a canonical path.
type Store interface {
	Open(ctx context.Context, canonicalPath string) ([]byte, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, doc commonModels.Document) (Payload, error)
}

// Canonicalize roots p at "/" and resolves dot segments so it cannot climb
// above the store root.
func Canonicalize(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
