package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FileStore serves documents from a directory on disk.
type FileStore struct {
	root     string
	maxBytes int64
}

func NewFileStore(root string, maxBytes int64) *FileStore {
	return &FileStore{root: root, maxBytes: maxBytes}
}

func (s *FileStore) Open(ctx context.Context, canonicalPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	full := filepath.Join(s.root, filepath.FromSlash(Canonicalize(canonicalPath)))

	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, canonicalPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, canonicalPath)
	}
	if s.maxBytes > 0 && info.Size() > s.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTransport, canonicalPath, s.maxBytes)
	}

	raw, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return raw, nil
}

// HTTPStore fetches documents relative to a base URL, the way a browser
// would load them from the public folder.
type HTTPStore struct {
	base     *url.URL
	client   *http.Client
	maxBytes int64
}

func NewHTTPStore(baseURL string, client *http.Client, maxBytes int64) (*HTTPStore, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid document base url: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPStore{base: u, client: client, maxBytes: maxBytes}, nil
}

func (s *HTTPStore) Open(ctx context.Context, canonicalPath string) ([]byte, error) {
	target := *s.base
	target.Path = s.base.Path + Canonicalize(canonicalPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s (404)", ErrNotFound, canonicalPath)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: HTTP %d loading %s", ErrTransport, resp.StatusCode, canonicalPath)
	}

	var body io.Reader = resp.Body
	if s.maxBytes > 0 {
		body = io.LimitReader(resp.Body, s.maxBytes+1)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if s.maxBytes > 0 && int64(len(raw)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTransport, canonicalPath, s.maxBytes)
	}
	return raw, nil
}
