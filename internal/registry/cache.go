package registry

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultTTL is how long a fetched registry stays fresh.
const DefaultTTL = 5 * time.Minute

// Loader produces a fully-populated registry: document fetched, versions
// resolved, installed status annotated. Callers of the cache never see a
// partially-resolved registry.
type Loader func(ctx context.Context) (Registry, error)

// Cache is a time-boxed cache around a Loader. It is owned by a single
// logical caller: concurrent Fetch/Invalidate calls on one Cache are the
// caller's responsibility to serialize.
type Cache struct {
	loader    Loader
	ttl       time.Duration
	clock     func() time.Time
	cached    *Registry
	fetchedAt time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL overrides the default freshness window.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock substitutes the time source, letting tests drive expiry
// without real waiting.
func WithClock(clock func() time.Time) CacheOption {
	return func(c *Cache) { c.clock = clock }
}

// NewCache creates a cache around loader.
func NewCache(loader Loader, opts ...CacheOption) *Cache {
	c := &Cache{
		loader: loader,
		ttl:    DefaultTTL,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the catalog, hitting the network only when forced, expired,
// or never fetched. A fetch failure leaves any previously cached value
// untouched, but still reports the failure.
func (c *Cache) Fetch(ctx context.Context, forceRefresh bool) (*Registry, error) {
	if !forceRefresh && c.cached != nil && c.clock().Sub(c.fetchedAt) < c.ttl {
		return c.cached, nil
	}

	reg, err := c.loader(ctx)
	if err != nil {
		return nil, err
	}

	c.cached = &reg
	c.fetchedAt = c.clock()
	return c.cached, nil
}

// Invalidate drops the cached registry so the next Fetch goes to the
// network. Called after install and uninstall so installed status stays
// honest.
func (c *Cache) Invalidate() {
	c.cached = nil
	c.fetchedAt = time.Time{}
}

// CheckForUpdates returns the installed mods with a newer version
// available.
func (c *Cache) CheckForUpdates(ctx context.Context) ([]Mod, error) {
	reg, err := c.Fetch(ctx, false)
	if err != nil {
		return nil, err
	}

	var updates []Mod
	for _, mod := range reg.Mods {
		if mod.IsInstalled && mod.HasUpdate {
			updates = append(updates, mod)
		}
	}
	return updates, nil
}

// NewLoader composes the fetch pipeline: raw document, then release
// resolution, then installed-status annotation.
func NewLoader(fetcher *DocumentFetcher, resolver *Resolver, inv Inventory, logger *log.Logger) Loader {
	if logger == nil {
		logger = log.Default()
	}

	return func(ctx context.Context) (Registry, error) {
		doc, err := fetcher.Fetch(ctx)
		if err != nil {
			return Registry{}, err
		}

		resolved := resolver.Resolve(ctx, doc)

		annotated, err := Annotate(resolved, inv)
		if err != nil {
			return Registry{}, err
		}

		logger.Debug("registry loaded", "mods", len(annotated.Mods))
		return annotated, nil
	}
}
