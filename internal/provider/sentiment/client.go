package sentiment

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"coincast/internal/domain/models"
	"coincast/internal/domain/repository"
	xhttp "coincast/pkg/http"
)

const DefaultBaseURL = "https://api.alternative.me"

// Instrument is the single key this provider serves.
const Instrument = "fear_greed"

// Client fetches the crypto fear & greed index: a 0-100 score plus a
// categorical label. There are no request parameters beyond "latest".
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

func (c *Client) ID() models.ProviderID { return models.ProviderSentiment }

type fngResponse struct {
	Data []struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
		Timestamp      string `json:"timestamp"`
	} `json:"data"`
}

// Fetch ignores request symbols; the index is a singleton.
func (c *Client) Fetch(ctx context.Context, _ models.FetchRequest) ([]models.Reading, error) {
	var out fngResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/fng/", nil, &out); err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) {
			return nil, models.NewFetchError(c.ID(), models.ErrUnreachable, "fng", err)
		}
		if errors.Is(err, xhttp.ErrDecode) {
			return nil, models.NewFetchError(c.ID(), models.ErrMalformedResponse, "fng", err)
		}
		return nil, models.ClassifyTransport(c.ID(), err)
	}

	if len(out.Data) == 0 {
		return nil, models.NewFetchError(c.ID(), models.ErrMalformedResponse, "empty data", nil)
	}

	latest := out.Data[0]
	score, err := decimal.NewFromString(latest.Value)
	if err != nil {
		return nil, models.NewFetchError(c.ID(), models.ErrMalformedResponse, "score "+latest.Value, err)
	}
	if score.IsNegative() || score.GreaterThan(decimal.NewFromInt(100)) {
		return nil, models.NewFetchError(c.ID(), models.ErrMalformedResponse, "score out of range "+latest.Value, nil)
	}

	asOf := time.Now().UTC()
	if ts, err := strconv.ParseInt(latest.Timestamp, 10, 64); err == nil && ts > 0 {
		asOf = time.Unix(ts, 0).UTC()
	}

	return []models.Reading{{
		Instrument: Instrument,
		Value:      score,
		Unit:       models.UnitCount,
		AsOf:       asOf,
		Source:     c.ID(),
		Label:      latest.Classification,
	}}, nil
}

var _ repository.Provider = (*Client)(nil)
