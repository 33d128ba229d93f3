package chain

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	xhttp "coincast/pkg/http"
)

const DefaultBaseURL = "https://api.etherscan.io"

// addressRe matches a hex account address. Validation happens before any
// network call; a bad address never reaches the gateway.
var addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ErrInvalidAddress rejects malformed addresses locally.
var ErrInvalidAddress = errors.New("invalid account address")

// Balance is a native-unit balance for one address.
type Balance struct {
	Address   string          `json:"address"`
	Native    decimal.Decimal `json:"native"`
	Unit      string          `json:"unit"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Gateway reads account balances from an Etherscan-style API. It sits
// outside the aggregation core: read-only, one call per request, no cache.
type Gateway struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *xhttp.Client
}

func NewGateway(baseURL, apiKey string, timeout time.Duration, client *xhttp.Client) *Gateway {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Gateway{baseURL: baseURL, apiKey: apiKey, timeout: timeout, http: client}
}

type balanceResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// FetchBalance validates the address format, then fetches the balance and
// converts from wei to native units.
func (g *Gateway) FetchBalance(ctx context.Context, address string) (Balance, error) {
	if !addressRe.MatchString(address) {
		return Balance{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	q := url.Values{
		"module":  {"account"},
		"action":  {"balance"},
		"address": {address},
		"tag":     {"latest"},
	}
	if g.apiKey != "" {
		q.Set("apikey", g.apiKey)
	}

	var out balanceResponse
	if err := g.http.GetJSON(ctx, g.baseURL+"/api", q, &out); err != nil {
		return Balance{}, fmt.Errorf("balance %s: %w", address, err)
	}
	if out.Status != "1" {
		return Balance{}, fmt.Errorf("balance %s: gateway said %q", address, out.Message)
	}

	wei, err := decimal.NewFromString(out.Result)
	if err != nil {
		return Balance{}, fmt.Errorf("balance %s: bad amount %q: %w", address, out.Result, err)
	}

	return Balance{
		Address:   address,
		Native:    wei.Shift(-18),
		Unit:      "ETH",
		FetchedAt: time.Now().UTC(),
	}, nil
}
