package exchange

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coincast/internal/domain/models"
	xhttp "coincast/pkg/http"
)

func TestBinanceFetch_MapsPairAndDecodesTicker(t *testing.T) {
	var gotSymbols []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v3/ticker/24hr", r.URL.Path)
		sym := r.URL.Query().Get("symbol")
		gotSymbols = append(gotSymbols, sym)
		fmt.Fprintf(w, `{
			"symbol":%q,
			"lastPrice":"61250.50",
			"priceChangePercent":"-2.345",
			"quoteVolume":"1234567.89",
			"closeTime":1767261600000
		}`, sym)
	}))
	defer srv.Close()

	b := NewBinance(srv.URL, xhttp.NewClient())
	readings, err := b.Fetch(context.Background(), models.FetchRequest{Symbols: []string{"BTC/USDT", "ETH/USDT"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, gotSymbols, "canonical pairs map to the exchange's native form")

	require.Len(t, readings, 2)
	btc := readings[0]
	assert.Equal(t, "BTC/USDT", btc.Instrument, "readings keep the canonical pair")
	assert.Equal(t, models.ProviderBinance, btc.Source)
	assert.True(t, btc.Value.Equal(decimal.RequireFromString("61250.50")))
	require.NotNil(t, btc.PercentChange24h)
	assert.True(t, btc.PercentChange24h.Equal(decimal.RequireFromString("-2.345")))
	require.NotNil(t, btc.QuoteVolume24h)
	assert.Equal(t, int64(1767261600), btc.AsOf.Unix())
}

func TestBinanceFetch_UnknownPairSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") == "BTCUSDT" {
			fmt.Fprint(w, `{"symbol":"BTCUSDT","lastPrice":"61250.50","priceChangePercent":"0.1","quoteVolume":"1","closeTime":1767261600000}`)
			return
		}
		http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	b := NewBinance(srv.URL, xhttp.NewClient())
	readings, err := b.Fetch(context.Background(), models.FetchRequest{Symbols: []string{"BTC/USDT", "FAKE/USDT"}})
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, "BTC/USDT", readings[0].Instrument)
}

func TestBinanceFetch_ServerErrorIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	b := NewBinance(srv.URL, xhttp.NewClient())
	_, err := b.Fetch(context.Background(), models.FetchRequest{Symbols: []string{"BTC/USDT"}})
	require.Error(t, err)
	assert.Equal(t, models.ErrUnreachable, models.KindOf(err))
}

func TestBinanceFetch_MalformedPairNeverHitsNetwork(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	b := NewBinance(srv.URL, xhttp.NewClient())
	readings, err := b.Fetch(context.Background(), models.FetchRequest{Symbols: []string{"not-a-pair"}})
	require.NoError(t, err)
	assert.Empty(t, readings)
	assert.Zero(t, hits)
}
