package geo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nakurusafety/incident-analytics/internal/domain"
	"github.com/nakurusafety/incident-analytics/internal/observability"
)

// Resolution defaults.
const (
	DefaultRetries   = 3
	DefaultCacheSize = 500
)

// RemoteGeocoder issues a single remote lookup for a free-text query.
// A (zero, false, nil) return means the query produced no usable result.
type RemoteGeocoder interface {
	Search(ctx context.Context, query string) (domain.Geo, bool, error)
}

// Resolver resolves place names through an ordered chain of strategies:
// gazetteer match, remote lookup scoped to the constituency, then a
// broadened remote lookup retried with backoff. Exhausting the chain yields
// an unresolved result, never an error.
type Resolver struct {
	matcher *Matcher
	remote  RemoteGeocoder
	cache   *lru.Cache[resolveKey, domain.Geo]
	logger  *slog.Logger
	metrics *observability.Metrics

	// Waits between remote attempts. Overridable in tests; production
	// keeps the operational values (1s after a miss, 2s after a
	// transport error) to stay polite to the public geocoding API.
	retryWait time.Duration
	errWait   time.Duration
}

type resolveKey struct {
	text         string
	constituency string
	retries      int
}

// NewResolver creates a Resolver with a bounded result cache. Pass a nil
// remote to resolve from the gazetteer only.
func NewResolver(matcher *Matcher, remote RemoteGeocoder, cacheSize int, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	// lru.New only errors on a non-positive size, which is guarded above.
	cache, _ := lru.New[resolveKey, domain.Geo](cacheSize)
	return &Resolver{
		matcher:   matcher,
		remote:    remote,
		cache:     cache,
		logger:    logger,
		metrics:   metrics,
		retryWait: time.Second,
		errWait:   2 * time.Second,
	}
}

// Resolve converts a place name to coordinates. The constituency scopes the
// first remote query; retries bounds the remote attempts. Repeat calls with
// identical arguments are served from the cache without network traffic.
//
// Callers may abandon a resolution by cancelling the context; cancellation
// is checked before every backoff sleep.
func (r *Resolver) Resolve(ctx context.Context, text, constituency string, retries int) (domain.Geo, bool) {
	if constituency == "" {
		constituency = "Nakuru"
	}
	key := resolveKey{text: text, constituency: constituency, retries: retries}

	if g, ok := r.cache.Get(key); ok {
		r.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return g, true
	}
	r.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	if lat, lon, ok := r.matcher.Match(text); ok {
		g := domain.Geo{Lat: lat, Lon: lon}
		r.metrics.GeocodeRequests.WithLabelValues("gazetteer", "success").Inc()
		r.cache.Add(key, g)
		return g, true
	}
	r.metrics.GeocodeRequests.WithLabelValues("gazetteer", "miss").Inc()

	if r.remote == nil {
		return domain.Geo{}, false
	}

	primary := fmt.Sprintf("%s, %s, Nakuru County, Kenya", text, constituency)
	broadened := fmt.Sprintf("%s, Nakuru, Kenya", text)

	for attempt := 0; attempt < retries; attempt++ {
		queries := []string{broadened}
		if attempt == 0 {
			queries = []string{primary, broadened}
		}

		wait := r.retryWait
		for _, q := range queries {
			g, ok, transportErr := r.searchOnce(ctx, q)
			if ok {
				r.cache.Add(key, g)
				return g, true
			}
			if ctx.Err() != nil {
				return domain.Geo{}, false
			}
			if transportErr {
				wait = r.errWait
				break
			}
		}

		if attempt < retries-1 {
			if !sleepWithContext(ctx, wait) {
				return domain.Geo{}, false
			}
		}
	}

	r.logger.Warn("could not resolve location", "text", text, "constituency", constituency)
	return domain.Geo{}, false
}

// searchOnce runs one remote query and validates the result against the
// county bounding box. The third return distinguishes transport errors,
// which get the longer backoff, from clean misses.
func (r *Resolver) searchOnce(ctx context.Context, query string) (domain.Geo, bool, bool) {
	start := time.Now()
	g, found, err := r.remote.Search(ctx, query)
	r.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		r.metrics.GeocodeRequests.WithLabelValues("remote", "error").Inc()
		r.logger.Warn("remote geocoding failed", "query", query, "error", err)
		return domain.Geo{}, false, true
	}
	if !found || !domain.InCountyBounds(g.Lat, g.Lon) {
		r.metrics.GeocodeRequests.WithLabelValues("remote", "miss").Inc()
		return domain.Geo{}, false, false
	}
	r.metrics.GeocodeRequests.WithLabelValues("remote", "success").Inc()
	return g, true, false
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
