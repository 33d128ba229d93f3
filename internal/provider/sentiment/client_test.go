package sentiment

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

func TestFetch_ScoreWithLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/fng/", r.URL.Path)
		fmt.Fprint(w, `{"data":[{"value":"61","value_classification":"Greed","timestamp":"1767261600"}]}`)
	}))
	defer srv.Close()

	c := New(srv.URL, xhttp.NewClient())
	readings, err := c.Fetch(context.Background(), models.FetchRequest{})
	require.NoError(t, err)
	require.Len(t, readings, 1)

	fng := readings[0]
	assert.Equal(t, Instrument, fng.Instrument)
	assert.Equal(t, models.ProviderSentiment, fng.Source)
	assert.True(t, fng.Value.Equal(decimal.NewFromInt(61)))
	assert.Equal(t, models.UnitCount, fng.Unit)
	assert.Equal(t, "Greed", fng.Label)
	assert.Equal(t, int64(1767261600), fng.AsOf.Unix())
}

func TestFetch_ScoreOutOfRangeIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"value":"215","value_classification":"Greed","timestamp":"1767261600"}]}`)
	}))
	defer srv.Close()

	c := New(srv.URL, xhttp.NewClient())
	_, err := c.Fetch(context.Background(), models.FetchRequest{})
	require.Error(t, err)
	assert.Equal(t, models.ErrMalformedResponse, models.KindOf(err))
}

func TestFetch_EmptyDataIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer srv.Close()

	c := New(srv.URL, xhttp.NewClient())
	_, err := c.Fetch(context.Background(), models.FetchRequest{})
	require.Error(t, err)
	assert.Equal(t, models.ErrMalformedResponse, models.KindOf(err))
}

func TestFetch_ServerErrorIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, xhttp.NewClient())
	_, err := c.Fetch(context.Background(), models.FetchRequest{})
	require.Error(t, err)
	assert.Equal(t, models.ErrUnreachable, models.KindOf(err))
}
