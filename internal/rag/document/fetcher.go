package document

import (
	"context"
	"mime"
	"path"
	"time"

	"github.com/akolanti/SecoursTech/internal/domain/commonModels"
	"github.com/akolanti/SecoursTech/internal/metrics"
	"github.com/akolanti/SecoursTech/pkg/logger_i"
	"github.com/patrickmn/go-cache"
)

type storeFetcher struct {
	store  Store
	logger *logger_i.Logger
}

func NewFetcher(store Store) Fetcher {
	return &storeFetcher{store: store, logger: logger_i.NewLogger("document_fetcher")}
}

func (f *storeFetcher) Fetch(ctx context.Context, doc commonModels.Document) (Payload, error) {
	log := f.logger.WithTrace(ctx).With("document", doc.Filename)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_fetch", time.Since(start)) }()

	p := Canonicalize(doc.Path)
	log.Debug("Loading document", "path", p)

	raw, err := f.store.Open(ctx, p)
	if err != nil {
		log.Error("Document load failed", "path", p, "error", err)
		return Payload{}, err
	}
	return Encode(doc.Filename, raw, mime.TypeByExtension(path.Ext(p)))
}

// CachedFetcher keeps encoded payloads in memory; procedure PDFs are static
// for the lifetime of the process.
type CachedFetcher struct {
	next  Fetcher
	cache *cache.Cache
}

func NewCachedFetcher(next Fetcher, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *CachedFetcher) Fetch(ctx context.Context, doc commonModels.Document) (Payload, error) {
	key := Canonicalize(doc.Path)
	if x, found := c.cache.Get(key); found {
		return x.(Payload), nil
	}
	p, err := c.next.Fetch(ctx, doc)
	if err != nil {
		return Payload{}, err
	}
	c.cache.Set(key, p, cache.DefaultExpiration)
	return p, nil
}

func (c *CachedFetcher) Flush() {
	c.cache.Flush()
}
