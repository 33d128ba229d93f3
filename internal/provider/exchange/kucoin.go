package exchange

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"coincast/internal/domain/models"
	"coincast/internal/domain/repository"
	"coincast/internal/symbols"
	xhttp "coincast/pkg/http"
)

const kucoinBaseURL = "https://api.kucoin.com"

// KuCoin is the per-exchange ticker connector for KuCoin spot.
type KuCoin struct {
	baseURL string
	http    *xhttp.Client
}

func NewKuCoin(baseURL string, client *xhttp.Client) *KuCoin {
	if baseURL == "" {
		baseURL = kucoinBaseURL
	}
	return &KuCoin{baseURL: baseURL, http: client}
}

func (k *KuCoin) ID() models.ProviderID { return models.ProviderKuCoin }

type kucoinStats struct {
	Code string `json:"code"`
	Data *struct {
		Symbol     string              `json:"symbol"`
		Last       decimal.NullDecimal `json:"last"`
		ChangeRate decimal.NullDecimal `json:"changeRate"` // fraction, 0.0045 = 0.45%
		VolValue   decimal.NullDecimal `json:"volValue"`
		Time       int64               `json:"time"` // ms
	} `json:"data"`
}

// Fetch walks the requested pairs, one market-stats call each. KuCoin
// answers 200 with a null/empty data block for symbols it does not list.
func (k *KuCoin) Fetch(ctx context.Context, req models.FetchRequest) ([]models.Reading, error) {
	readings := make([]models.Reading, 0, len(req.Symbols))

	for _, pair := range req.Symbols {
		native, err := symbols.ToExchange("kucoin", pair)
		if err != nil {
			continue
		}

		var out kucoinStats
		q := url.Values{"symbol": {native}}
		if err := k.http.GetJSON(ctx, k.baseURL+"/api/v1/market/stats", q, &out); err != nil {
			var se *xhttp.StatusError
			if errors.As(err, &se) {
				return nil, models.NewFetchError(k.ID(), models.ErrUnreachable, pair, err)
			}
			if errors.Is(err, xhttp.ErrDecode) {
				return nil, models.NewFetchError(k.ID(), models.ErrMalformedResponse, pair, err)
			}
			return nil, models.ClassifyTransport(k.ID(), err)
		}

		// Unknown pair on this exchange only.
		if out.Data == nil || !out.Data.Last.Valid {
			continue
		}

		asOf := time.Now().UTC()
		if out.Data.Time > 0 {
			asOf = time.UnixMilli(out.Data.Time).UTC()
		}
		r := models.Reading{
			Instrument: pair,
			Value:      out.Data.Last.Decimal,
			Unit:       models.UnitCurrencyMajor,
			AsOf:       asOf,
			Source:     k.ID(),
		}
		if out.Data.ChangeRate.Valid {
			pct := out.Data.ChangeRate.Decimal.Mul(decimal.NewFromInt(100))
			r.PercentChange24h = &pct
		}
		if out.Data.VolValue.Valid {
			vol := out.Data.VolValue.Decimal
			r.QuoteVolume24h = &vol
		}
		readings = append(readings, r)
	}
	return readings, nil
}

var _ repository.Provider = (*KuCoin)(nil)
