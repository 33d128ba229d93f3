package stockindex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"coincast/internal/domain/models"
	"coincast/internal/domain/repository"
	xhttp "coincast/pkg/http"
)

// DefaultBaseURL is the public chart endpoint serving index and crypto-INR
// quotes (NIFTY 50, SENSEX, BTC-INR and friends).
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Client fetches latest close prices per index symbol. The backing chart API
// has no batch form, so one Fetch walks the requested symbols; a symbol the
// source does not know is skipped, never a whole-call failure.
type Client struct {
	baseURL string
	http    *xhttp.Client
}

func New(baseURL string, client *xhttp.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: baseURL, http: client}
}

func (c *Client) ID() models.ProviderID { return models.ProviderStockIndex }

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string          `json:"currency"`
				RegularMarketPrice decimal.Decimal `json:"regularMarketPrice"`
				ChartPreviousClose decimal.Decimal `json:"chartPreviousClose"`
				RegularMarketTime  int64           `json:"regularMarketTime"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch returns one reading per known symbol.
func (c *Client) Fetch(ctx context.Context, req models.FetchRequest) ([]models.Reading, error) {
	readings := make([]models.Reading, 0, len(req.Symbols))

	for _, sym := range req.Symbols {
		r, err := c.fetchOne(ctx, sym)
		if err != nil {
			var fe *models.FetchError
			if errors.As(err, &fe) && fe.Kind == models.ErrNotFound {
				continue
			}
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, nil
}

func (c *Client) fetchOne(ctx context.Context, symbol string) (models.Reading, error) {
	var out chartResponse
	u := fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, url.PathEscape(symbol))
	q := url.Values{"range": {"1d"}, "interval": {"1d"}}

	if err := c.http.GetJSON(ctx, u, q, &out); err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) {
			if se.Code == http.StatusNotFound {
				return models.Reading{}, models.NewFetchError(c.ID(), models.ErrNotFound, symbol, err)
			}
			return models.Reading{}, models.NewFetchError(c.ID(), models.ErrUnreachable, symbol, err)
		}
		if errors.Is(err, xhttp.ErrDecode) {
			return models.Reading{}, models.NewFetchError(c.ID(), models.ErrMalformedResponse, symbol, err)
		}
		return models.Reading{}, models.ClassifyTransport(c.ID(), err)
	}

	if out.Chart.Error != nil {
		return models.Reading{}, models.NewFetchError(c.ID(), models.ErrNotFound, out.Chart.Error.Description, nil)
	}
	if len(out.Chart.Result) == 0 {
		return models.Reading{}, models.NewFetchError(c.ID(), models.ErrNotFound, symbol, nil)
	}

	meta := out.Chart.Result[0].Meta
	if meta.RegularMarketPrice.IsZero() && meta.RegularMarketTime == 0 {
		return models.Reading{}, models.NewFetchError(c.ID(), models.ErrMalformedResponse, "empty meta for "+symbol, nil)
	}

	r := models.Reading{
		Instrument: symbol,
		Value:      meta.RegularMarketPrice,
		Unit:       models.UnitCurrencyMajor,
		AsOf:       time.Unix(meta.RegularMarketTime, 0).UTC(),
		Source:     c.ID(),
	}
	if !meta.ChartPreviousClose.IsZero() {
		pct := meta.RegularMarketPrice.Sub(meta.ChartPreviousClose).
			Div(meta.ChartPreviousClose).
			Mul(decimal.NewFromInt(100)).
			Round(4)
		r.PercentChange24h = &pct
	}
	return r, nil
}

var _ repository.Provider = (*Client)(nil)
