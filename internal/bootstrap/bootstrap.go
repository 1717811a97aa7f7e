package bootstrap

import (
	"context"
	"log/slog"

	"cloud.google.com/go/firestore"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"firebase.google.com/go/v4/auth"

	"github.com/GregMSThompson/finance-dashboard/internal/cache"
	"github.com/GregMSThompson/finance-dashboard/internal/config"
	"github.com/GregMSThompson/finance-dashboard/internal/fetch"
	"github.com/GregMSThompson/finance-dashboard/internal/normalize"
	"github.com/GregMSThompson/finance-dashboard/internal/poller"
	"github.com/GregMSThompson/finance-dashboard/internal/store"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

type Bootstrap struct {
	Log       *slog.Logger
	Firestore *firestore.Client
	Firebase  *auth.Client
	Secrets   *secretmanager.Client
	Cache     *cache.TTL[normalize.Response]
	Fetcher   *fetch.Fetcher
	Poller    *poller.Poller

	cancel context.CancelFunc
}

func Run(cfg *config.Config) (*Bootstrap, error) {
	var err error
	applicationCtx, cancel := context.WithCancel(context.Background())
	bs := &Bootstrap{cancel: cancel}

	bs.Log = logger.New(cfg.LogLevel, logger.CloudRun)
	applicationCtx = logger.ToContext(applicationCtx, bs.Log)

	bs.Firestore, err = InitFirestore(applicationCtx, cfg.ProjectID)
	if err != nil {
		return bs, err
	}
	bs.Firebase, err = InitFirebase(applicationCtx)
	if err != nil {
		return bs, err
	}

	keys := cfg.ProviderKeys()
	if cfg.ProviderSecrets {
		bs.Secrets, err = InitSecretManager(applicationCtx)
		if err != nil {
			return bs, err
		}
		keys, err = store.NewProviderSecretsStore(bs.Secrets, cfg.ProjectID).
			ResolveProviderKeys(applicationCtx, keys, providerNames())
		if err != nil {
			return bs, err
		}
	}

	bs.Cache = cache.New[normalize.Response]()
	bs.Fetcher = NewFetcher(cfg, bs.Cache, keys)
	bs.Poller = poller.New(applicationCtx, bs.Fetcher, poller.WithIdleTimeout(cfg.PollIdleTimeout))

	return bs, nil
}

// NewFetcher builds the fetcher from configuration. The CLI uses it without
// the rest of the bootstrap.
func NewFetcher(cfg *config.Config, c *cache.TTL[normalize.Response], keys map[string]string) *fetch.Fetcher {
	norm := normalize.New(
		normalize.WithLocation(cfg.Location()),
		normalize.WithRateFlattening(cfg.RateFlattening),
	)
	return fetch.New(c,
		fetch.WithNormalizer(norm),
		fetch.WithProviders(fetch.DefaultProviders(keys)),
		fetch.WithStrategies(fetch.DefaultStrategies(cfg.RelayURL, cfg.EnvelopeRelayURL)...),
		fetch.WithTTL(cfg.CacheTTL),
		fetch.WithTimeout(cfg.FetchTimeout),
		fetch.WithHostInterval(cfg.ProviderMinInterval),
		fetch.AllowPrivateHosts(cfg.AllowPrivateHosts),
	)
}

func providerNames() []string {
	providers := fetch.DefaultProviders(nil)
	out := make([]string, len(providers))
	for i, p := range providers {
		out[i] = p.Name
	}
	return out
}

// Close stops background refreshes and releases the cloud clients.
func (bs *Bootstrap) Close() {
	if bs.Poller != nil {
		bs.Poller.Stop()
	}
	if bs.cancel != nil {
		bs.cancel()
	}
	if bs.Secrets != nil {
		bs.Secrets.Close()
	}
	if bs.Firestore != nil {
		bs.Firestore.Close()
	}
}
