package di

import (
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"coincast/internal/domain/models"
	"coincast/internal/domain/repository"
	"coincast/internal/handler/api"
	"coincast/internal/provider"
	"coincast/internal/provider/chain"
	"coincast/internal/provider/coingecko"
	"coincast/internal/provider/exchange"
	"coincast/internal/provider/sentiment"
	"coincast/internal/provider/stockindex"
	icache "coincast/internal/service/cache"
	"coincast/internal/usecase"
	"coincast/pkg/config"
	xhttp "coincast/pkg/http"
	applogger "coincast/pkg/logger"
	"coincast/pkg/metrics"
	"coincast/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideHTTPClient creates the shared outbound HTTP client.
func ProvideHTTPClient() *xhttp.Client {
	return xhttp.NewClient()
}

// ProvideCache creates the TTL cache shared by all aggregation calls.
func ProvideCache(m repository.Metrics) repository.Cache {
	return icache.New(m)
}

// ProvideSnapshotStore creates the Redis last-good-snapshot store, or nil
// when Redis is disabled.
func ProvideSnapshotStore(cfg *config.Config) repository.SnapshotStore {
	if !cfg.Redis.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return icache.NewRedisSnapshotStore(client, cfg.Redis.Key, cfg.Redis.TTL)
}

// ProvideRegistry builds the provider registry from configuration: one
// registration per configured source, each with its own TTL, timeout and
// rate budget.
func ProvideRegistry(cfg *config.Config, hc *xhttp.Client) (*provider.Registry, error) {
	reg := provider.NewRegistry()

	if len(cfg.Providers.StockIndex.Symbols) > 0 {
		p := cfg.Providers.StockIndex
		reg.Register(provider.Registration{
			Provider:     stockindex.New(p.BaseURL, hc),
			TTL:          p.TTL,
			Timeout:      p.Timeout,
			RateCapacity: p.Rate.Capacity,
			RateRefill:   p.Rate.RefillPerSec,
		})
	}

	if cfg.Providers.CryptoMarkets.TopN > 0 || len(cfg.Providers.CryptoMarkets.IDs) > 0 {
		p := cfg.Providers.CryptoMarkets
		reg.Register(provider.Registration{
			Provider:     coingecko.New(p.BaseURL, p.VsCurrency, hc),
			TTL:          p.TTL,
			Timeout:      p.Timeout,
			RateCapacity: p.Rate.Capacity,
			RateRefill:   p.Rate.RefillPerSec,
		})
	}

	if cfg.Providers.Sentiment.Enabled {
		p := cfg.Providers.Sentiment
		reg.Register(provider.Registration{
			Provider:     sentiment.New(p.BaseURL, hc),
			TTL:          p.TTL,
			Timeout:      p.Timeout,
			RateCapacity: p.Rate.Capacity,
			RateRefill:   p.Rate.RefillPerSec,
		})
	}

	for _, ex := range cfg.Providers.Exchanges {
		var adapter repository.Provider
		switch strings.ToLower(ex.Name) {
		case "binance":
			adapter = exchange.NewBinance(ex.BaseURL, hc)
		case "kucoin":
			adapter = exchange.NewKuCoin(ex.BaseURL, hc)
		default:
			return nil, fmt.Errorf("unknown exchange %q", ex.Name)
		}
		reg.Register(provider.Registration{
			Provider:     adapter,
			TTL:          ex.TTL,
			Timeout:      ex.Timeout,
			RateCapacity: ex.Rate.Capacity,
			RateRefill:   ex.Rate.RefillPerSec,
		})
	}

	if len(reg.IDs()) == 0 {
		return nil, fmt.Errorf("no providers registered")
	}
	return reg, nil
}

// ProvideRequests translates configuration into the fan-out request list.
func ProvideRequests(cfg *config.Config) []usecase.Request {
	var reqs []usecase.Request

	if len(cfg.Providers.StockIndex.Symbols) > 0 {
		reqs = append(reqs, usecase.Request{
			Provider: models.ProviderStockIndex,
			Req:      models.FetchRequest{Symbols: cfg.Providers.StockIndex.Symbols},
			TTL:      cfg.Providers.StockIndex.TTL,
		})
	}
	if cfg.Providers.CryptoMarkets.TopN > 0 {
		reqs = append(reqs, usecase.Request{
			Provider: models.ProviderCoinGecko,
			Req:      models.FetchRequest{TopN: cfg.Providers.CryptoMarkets.TopN},
			TTL:      cfg.Providers.CryptoMarkets.TTL,
		})
	} else if len(cfg.Providers.CryptoMarkets.IDs) > 0 {
		reqs = append(reqs, usecase.Request{
			Provider: models.ProviderCoinGecko,
			Req:      models.FetchRequest{Symbols: cfg.Providers.CryptoMarkets.IDs},
			TTL:      cfg.Providers.CryptoMarkets.TTL,
		})
	}
	if cfg.Providers.Sentiment.Enabled {
		reqs = append(reqs, usecase.Request{
			Provider: models.ProviderSentiment,
			Req:      models.FetchRequest{},
			TTL:      cfg.Providers.Sentiment.TTL,
		})
	}
	for _, ex := range cfg.Providers.Exchanges {
		reqs = append(reqs, usecase.Request{
			Provider: models.ProviderID(strings.ToLower(ex.Name)),
			Req:      models.FetchRequest{Symbols: ex.Pairs},
			TTL:      ex.TTL,
		})
	}
	return reqs
}

// ProvideAggregator wires the snapshot assembler.
func ProvideAggregator(reg *provider.Registry, cache repository.Cache, m repository.Metrics, l *applogger.Logger) *usecase.Aggregator {
	return usecase.NewAggregator(reg, cache, m, l)
}

// ProvideHub creates the websocket broadcast hub.
func ProvideHub(l *applogger.Logger) *api.Hub {
	return api.NewHub(l)
}

// ProvideRefresher wires the periodic refresh loop.
func ProvideRefresher(
	cfg *config.Config,
	agg *usecase.Aggregator,
	store repository.SnapshotStore,
	hub *api.Hub,
	m repository.Metrics,
	l *applogger.Logger,
) (*usecase.Refresher, error) {
	threshold, err := decimal.NewFromString(cfg.Refresh.VolatilityThreshold)
	if err != nil {
		return nil, fmt.Errorf("volatility threshold %q: %w", cfg.Refresh.VolatilityThreshold, err)
	}
	return usecase.NewRefresher(agg, ProvideRequests(cfg), cfg.Refresh.Interval, threshold, store, hub, m, l), nil
}

// ProvideChainGateway creates the balance gateway when configured.
func ProvideChainGateway(cfg *config.Config, hc *xhttp.Client) *chain.Gateway {
	if cfg.Chain.BaseURL == "" && cfg.Chain.APIKey == "" {
		return nil
	}
	return chain.NewGateway(cfg.Chain.BaseURL, cfg.Chain.APIKey, cfg.Chain.Timeout, hc)
}

// ProvideHandler wires the Echo route handler.
func ProvideHandler(l *applogger.Logger, r *usecase.Refresher, g *chain.Gateway, hub *api.Hub) xhttp.Handler {
	return api.NewMarketHandler(l, r, g, hub)
}

// ProvideApp assembles the application.
func ProvideApp(cfg *config.Config, l *applogger.Logger, r *usecase.Refresher, h xhttp.Handler) *server.App {
	return server.New(cfg, l, r, h)
}
