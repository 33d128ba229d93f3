package chain

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xhttp "coincast/pkg/http"
)

const testAddress = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"

func TestFetchBalance_WeiToNative(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "account", q.Get("module"))
		require.Equal(t, "balance", q.Get("action"))
		require.Equal(t, testAddress, q.Get("address"))
		require.Equal(t, "secret", q.Get("apikey"))
		fmt.Fprint(w, `{"status":"1","message":"OK","result":"1500000000000000000"}`)
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "secret", time.Second, xhttp.NewClient())
	bal, err := g.FetchBalance(context.Background(), testAddress)
	require.NoError(t, err)

	assert.Equal(t, testAddress, bal.Address)
	assert.Equal(t, "ETH", bal.Unit)
	assert.True(t, bal.Native.Equal(decimal.RequireFromString("1.5")))
}

func TestFetchBalance_InvalidAddressRejectedLocally(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "", time.Second, xhttp.NewClient())
	for _, addr := range []string{"", "742d35Cc6634C0532925a3b844Bc454e4438f44e", "0xshort", "0x" + testAddress} {
		_, err := g.FetchBalance(context.Background(), addr)
		assert.ErrorIs(t, err, ErrInvalidAddress, "address %q", addr)
	}
	assert.Zero(t, hits, "invalid addresses must never reach the gateway")
}

func TestFetchBalance_GatewayRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`)
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "", time.Second, xhttp.NewClient())
	_, err := g.FetchBalance(context.Background(), testAddress)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTOK")
}
