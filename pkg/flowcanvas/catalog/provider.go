package catalog

import (
	"context"
	"log/slog"
	"sync"

	fcerrors "github.com/randalmurphal/flowcanvas/pkg/flowcanvas/errors"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/observability"
)

// AlertFunc shows a blocking message to the user.
type AlertFunc func(title, message string)

// Provider fetches the catalog once and then serves it read-only.
// Before a successful Load, and after a failed one, Catalog returns an empty
// catalog; it is never partially populated.
type Provider struct {
	fetcher Fetcher
	retry   fcerrors.RetryConfig
	logger  *slog.Logger
	alert   AlertFunc

	// loadMu serializes fetches; mu only guards the published catalog, so
	// readers never wait on a fetch in flight.
	loadMu  sync.Mutex
	mu      sync.RWMutex
	catalog *Catalog
	loaded  bool
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithRetry sets the retry policy for the fetch.
func WithRetry(cfg fcerrors.RetryConfig) ProviderOption {
	return func(p *Provider) {
		p.retry = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithAlert sets the function used to surface a failed load.
func WithAlert(fn AlertFunc) ProviderOption {
	return func(p *Provider) {
		p.alert = fn
	}
}

// NewProvider creates a provider around fetcher.
func NewProvider(fetcher Fetcher, opts ...ProviderOption) *Provider {
	p := &Provider{
		fetcher: fetcher,
		retry:   fcerrors.DefaultRetry,
		logger:  slog.Default(),
		catalog: Empty(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load fetches the catalog. After one success, further calls are no-ops.
// On failure the alert fires, the catalog stays empty and the error is
// returned so the caller may try again later. Catalog keeps answering
// while a fetch is in flight.
func (p *Provider) Load(ctx context.Context) error {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()
	if p.Loaded() {
		return nil
	}

	done := observability.TimedOperation()
	res := fcerrors.WithRetryContext(ctx, p.retry, func(ctx context.Context) (*Catalog, error) {
		entries, err := p.fetcher.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		c, err := New(entries)
		if err != nil {
			return nil, fcerrors.Invalid(err, "build catalog")
		}
		return c, nil
	})
	if res.Err != nil {
		observability.LogCatalogError(p.logger, res.Err)
		if p.alert != nil {
			p.alert("Could not load node catalog", fcerrors.UserMessage(res.Err))
		}
		return res.Err
	}

	p.mu.Lock()
	p.catalog = res.Value
	p.loaded = true
	p.mu.Unlock()
	observability.LogCatalogLoaded(p.logger, res.Value.Len(), done())
	return nil
}

// Catalog returns the loaded catalog, or an empty one.
func (p *Provider) Catalog() *Catalog {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.catalog
}

// Loaded reports whether a fetch has succeeded.
func (p *Provider) Loaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loaded
}
