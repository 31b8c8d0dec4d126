package chain

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHttpPricer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/price", r.URL.Path)
		require.Equal(t, "USDT", r.URL.Query().Get("symbol"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"symbol":"USDT","price":1.0002}`))
	}))
	defer srv.Close()

	t.Setenv("PRICE_API_URL", srv.URL)
	pricer := NewHttpPricer()
	price, _, err := pricer.LatestPrice(context.Background(), "usdt")
	require.NoError(t, err)
	require.Equal(t, 1.0002, price)
}

func TestHttpPricerBadResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"symbol":"XXX","price":0}`))
	}))
	defer srv.Close()

	t.Setenv("PRICE_API_URL", srv.URL)
	pricer := NewHttpPricer()
	_, _, err := pricer.LatestPrice(context.Background(), "xxx")
	require.Error(t, err)
}
