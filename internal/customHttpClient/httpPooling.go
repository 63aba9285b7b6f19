package customHttpClient

import (
	"net/http"
	"time"

	"github.com/akolanti/SecoursTech/internal/config"
)

// customTransport is shared by the generation backends and the HTTP
// document store so keep-alive connections are reused between calls.
var customTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// NewClient returns a client on the pooled transport. A zero timeout
// leaves deadlines to the request context.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: customTransport,
		Timeout:   timeout,
	}
}
