// Package fetch retrieves finance API payloads and turns them into
// normalized, cached responses.
package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/internal/metrics"
	"github.com/GregMSThompson/finance-dashboard/internal/normalize"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

const (
	DefaultTTL     = 60 * time.Second
	DefaultTimeout = 8 * time.Second
)

var errAllStrategiesFailed = errors.New("all fetch strategies failed")

// responseCache is the slice of the TTL cache the fetcher needs.
type responseCache interface {
	Get(key string) (normalize.Response, bool)
	Set(key string, value normalize.Response, ttl time.Duration)
}

type Fetcher struct {
	client     *http.Client
	cache      responseCache
	normalizer *normalize.Normalizer
	providers  []Provider
	strategies []Strategy
	limiter    *HostRateLimiter
	ttl        time.Duration
	timeout    time.Duration
	group      singleflight.Group

	allowPrivate bool
}

type Option func(*Fetcher)

// WithHTTPClient replaces the default client, and with it the guard against
// dialling internal addresses.
func WithHTTPClient(c *http.Client) Option { return func(f *Fetcher) { f.client = c } }

func WithNormalizer(n *normalize.Normalizer) Option { return func(f *Fetcher) { f.normalizer = n } }

func WithProviders(p []Provider) Option { return func(f *Fetcher) { f.providers = p } }

func WithStrategies(s ...Strategy) Option { return func(f *Fetcher) { f.strategies = s } }

// WithTTL sets how long Fetch caches a response.
func WithTTL(d time.Duration) Option { return func(f *Fetcher) { f.ttl = d } }

// WithTimeout bounds each strategy attempt.
func WithTimeout(d time.Duration) Option { return func(f *Fetcher) { f.timeout = d } }

// AllowPrivateHosts lets the fetcher reach loopback and private addresses.
// Only local development and tests should need it.
func AllowPrivateHosts(allow bool) Option { return func(f *Fetcher) { f.allowPrivate = allow } }

// WithHostInterval enforces a minimum spacing between requests to one host.
func WithHostInterval(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.limiter = NewHostRateLimiter(d)
		}
	}
}

func New(cache responseCache, opts ...Option) *Fetcher {
	f := &Fetcher{
		cache:      cache,
		normalizer: normalize.New(),
		strategies: DefaultStrategies(DefaultRelayURL, DefaultEnvelopeRelayURL),
		ttl:        DefaultTTL,
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		if f.allowPrivate {
			f.client = &http.Client{}
		} else {
			f.client = newPublicClient()
		}
	}
	return f
}

// Decorate returns the URL that is requested and used as the cache key.
func (f *Fetcher) Decorate(rawURL string) string {
	return Decorate(rawURL, f.providers)
}

// Fetch returns the cached response for rawURL when one is still fresh and
// otherwise retrieves, normalizes and caches it for the fetcher's TTL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (normalize.Response, error) {
	key := f.Decorate(rawURL)
	if resp, ok := f.cache.Get(key); ok {
		metrics.RecordCacheLookup(true)
		return resp, nil
	}
	metrics.RecordCacheLookup(false)
	return f.load(ctx, key, f.ttl)
}

// Refresh always goes to the network and caches the result for ttl (the
// fetcher's TTL when ttl <= 0). Pair it with Stale for stale-while-revalidate.
func (f *Fetcher) Refresh(ctx context.Context, rawURL string, ttl time.Duration) (normalize.Response, error) {
	if ttl <= 0 {
		ttl = f.ttl
	}
	return f.load(ctx, f.Decorate(rawURL), ttl)
}

// Stale returns the cached response for rawURL without any network call.
func (f *Fetcher) Stale(rawURL string) (normalize.Response, bool) {
	resp, ok := f.cache.Get(f.Decorate(rawURL))
	metrics.RecordCacheLookup(ok)
	return resp, ok
}

// load runs one retrieval per key no matter how many callers ask. The shared
// work ignores caller cancellation; each caller stops waiting when its own
// ctx ends.
func (f *Fetcher) load(ctx context.Context, key string, ttl time.Duration) (normalize.Response, error) {
	work := context.WithoutCancel(ctx)
	ch := f.group.DoChan(key, func() (any, error) {
		start := time.Now()
		resp, err := f.retrieveAndNormalize(work, key)
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.RecordFetch(status, time.Since(start).Seconds())
		if err != nil {
			return nil, err
		}
		f.cache.Set(key, resp, ttl)
		return resp, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return normalize.Response{}, errs.NewTransportError(redact(key, f.providers), ctx.Err())
	case res = <-ch:
	}
	if res.Shared {
		logger.FromContext(ctx).Debug("fetch result shared with concurrent caller", "url", redact(key, f.providers))
	}
	if res.Err != nil {
		return normalize.Response{}, res.Err
	}
	return res.Val.(normalize.Response), nil
}

func (f *Fetcher) retrieveAndNormalize(ctx context.Context, key string) (normalize.Response, error) {
	public := redact(key, f.providers)
	if err := checkTarget(key, f.allowPrivate); err != nil {
		return normalize.Response{}, err
	}
	raw, err := f.retrieve(ctx, key, public)
	if err != nil {
		return normalize.Response{}, err
	}
	return f.normalizer.Normalize(raw, public)
}

// retrieve tries each strategy in order. A failed or timed-out attempt moves
// on to the next one; only the last error is reported.
func (f *Fetcher) retrieve(ctx context.Context, target, public string) (any, error) {
	log := logger.FromContext(ctx)

	var lastErr error
	for _, s := range f.strategies {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		doc, err := f.attempt(ctx, s, target)
		if err == nil {
			metrics.RecordAttempt(s.Name, "ok")
			return doc, nil
		}
		metrics.RecordAttempt(s.Name, "error")
		lastErr = unwrapURLError(err)
		log.Warn("fetch strategy failed", "strategy", s.Name, "url", public, "error", lastErr)
	}
	if lastErr == nil {
		lastErr = errAllStrategiesFailed
	}
	return nil, errs.NewTransportError(public, lastErr)
}

func (f *Fetcher) attempt(ctx context.Context, s Strategy, target string) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if f.limiter != nil {
		if err := f.limiter.WaitForHost(ctx, s.requestURL(target)); err != nil {
			return nil, err
		}
	}
	return s.retrieve(ctx, f.client, target)
}

// unwrapURLError drops the request URL (which may carry a credential) from
// transport errors.
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
