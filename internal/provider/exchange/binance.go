package exchange

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"coincast/internal/domain/models"
	"coincast/internal/domain/repository"
	"coincast/internal/symbols"
	xhttp "coincast/pkg/http"
)

const binanceBaseURL = "https://api.binance.com"

// Binance is the per-exchange ticker connector for Binance spot. Request by
// canonical trading pair; a pair the exchange does not list is dropped from
// the result set, not escalated to a whole-call failure.
type Binance struct {
	baseURL string
	http    *xhttp.Client
}

func NewBinance(baseURL string, client *xhttp.Client) *Binance {
	if baseURL == "" {
		baseURL = binanceBaseURL
	}
	return &Binance{baseURL: baseURL, http: client}
}

func (b *Binance) ID() models.ProviderID { return models.ProviderBinance }

type binanceTicker struct {
	Symbol             string          `json:"symbol"`
	LastPrice          decimal.Decimal `json:"lastPrice"`
	PriceChangePercent decimal.Decimal `json:"priceChangePercent"`
	QuoteVolume        decimal.Decimal `json:"quoteVolume"`
	CloseTime          int64           `json:"closeTime"` // ms
}

// Fetch walks the requested pairs, one 24h-ticker call each.
func (b *Binance) Fetch(ctx context.Context, req models.FetchRequest) ([]models.Reading, error) {
	readings := make([]models.Reading, 0, len(req.Symbols))

	for _, pair := range req.Symbols {
		native, err := symbols.ToExchange("binance", pair)
		if err != nil {
			// A malformed pair can never resolve on this exchange.
			continue
		}

		var t binanceTicker
		q := url.Values{"symbol": {native}}
		if err := b.http.GetJSON(ctx, b.baseURL+"/api/v3/ticker/24hr", q, &t); err != nil {
			var se *xhttp.StatusError
			if errors.As(err, &se) {
				// Binance answers 400 with code -1121 for an unknown symbol.
				if se.Code == http.StatusBadRequest || se.Code == http.StatusNotFound {
					continue
				}
				return nil, models.NewFetchError(b.ID(), models.ErrUnreachable, pair, err)
			}
			if errors.Is(err, xhttp.ErrDecode) {
				return nil, models.NewFetchError(b.ID(), models.ErrMalformedResponse, pair, err)
			}
			return nil, models.ClassifyTransport(b.ID(), err)
		}

		if t.Symbol == "" {
			return nil, models.NewFetchError(b.ID(), models.ErrMalformedResponse, "ticker without symbol for "+pair, nil)
		}

		asOf := time.Now().UTC()
		if t.CloseTime > 0 {
			asOf = time.UnixMilli(t.CloseTime).UTC()
		}
		pct := t.PriceChangePercent
		vol := t.QuoteVolume
		readings = append(readings, models.Reading{
			Instrument:       pair,
			Value:            t.LastPrice,
			Unit:             models.UnitCurrencyMajor,
			AsOf:             asOf,
			Source:           b.ID(),
			PercentChange24h: &pct,
			QuoteVolume24h:   &vol,
		})
	}
	return readings, nil
}

var _ repository.Provider = (*Binance)(nil)
