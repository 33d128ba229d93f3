package coingecko

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"coincast/internal/domain/models"
	"coincast/internal/domain/repository"
	xhttp "coincast/pkg/http"
)

const DefaultBaseURL = "https://api.coingecko.com"

// Client fetches crypto market data, either a ranked top-N by market cap or
// an explicit coin id list, in one batched call. The API is rate limited;
// a 429 means the service is there but refusing us, which the taxonomy files
// under Unreachable rather than MalformedResponse.
type Client struct {
	baseURL    string
	vsCurrency string
	http       *xhttp.Client
}

func New(baseURL, vsCurrency string, client *xhttp.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if vsCurrency == "" {
		vsCurrency = "usd"
	}
	return &Client{baseURL: baseURL, vsCurrency: vsCurrency, http: client}
}

func (c *Client) ID() models.ProviderID { return models.ProviderCoinGecko }

type market struct {
	ID             string              `json:"id"`
	Symbol         string              `json:"symbol"`
	CurrentPrice   decimal.Decimal     `json:"current_price"`
	MarketCap      decimal.Decimal     `json:"market_cap"`
	PriceChange24h decimal.NullDecimal `json:"price_change_percentage_24h"`
	LastUpdated    time.Time           `json:"last_updated"`
}

// Fetch performs one batched markets call.
func (c *Client) Fetch(ctx context.Context, req models.FetchRequest) ([]models.Reading, error) {
	q := url.Values{
		"vs_currency": {c.vsCurrency},
		"page":        {"1"},
	}
	switch {
	case req.TopN > 0:
		q.Set("order", "market_cap_desc")
		q.Set("per_page", fmt.Sprintf("%d", req.TopN))
	case len(req.Symbols) > 0:
		q.Set("ids", strings.Join(req.Symbols, ","))
		q.Set("per_page", fmt.Sprintf("%d", len(req.Symbols)))
	default:
		return nil, models.NewFetchError(c.ID(), models.ErrNotFound, "empty request", nil)
	}

	var out []market
	u := c.baseURL + "/api/v3/coins/markets"
	if err := c.http.GetJSON(ctx, u, q, &out); err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) {
			if se.Code == http.StatusTooManyRequests {
				return nil, models.NewFetchError(c.ID(), models.ErrUnreachable, "rate limited", err)
			}
			if se.Code == http.StatusNotFound {
				return nil, models.NewFetchError(c.ID(), models.ErrNotFound, "markets", err)
			}
			return nil, models.NewFetchError(c.ID(), models.ErrUnreachable, "markets", err)
		}
		if errors.Is(err, xhttp.ErrDecode) {
			return nil, models.NewFetchError(c.ID(), models.ErrMalformedResponse, "markets", err)
		}
		return nil, models.ClassifyTransport(c.ID(), err)
	}

	readings := make([]models.Reading, 0, len(out))
	for _, m := range out {
		if m.ID == "" {
			return nil, models.NewFetchError(c.ID(), models.ErrMalformedResponse, "market entry without id", nil)
		}
		asOf := m.LastUpdated
		if asOf.IsZero() {
			asOf = time.Now().UTC()
		}
		mcap := m.MarketCap
		r := models.Reading{
			Instrument: m.ID,
			Value:      m.CurrentPrice,
			Unit:       models.UnitCurrencyMajor,
			AsOf:       asOf.UTC(),
			Source:     c.ID(),
			MarketCap:  &mcap,
		}
		if m.PriceChange24h.Valid {
			pct := m.PriceChange24h.Decimal
			r.PercentChange24h = &pct
		}
		readings = append(readings, r)
	}
	return readings, nil
}

var _ repository.Provider = (*Client)(nil)
