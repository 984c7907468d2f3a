package explorer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/blocks/latest", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "proj", r.Header.Get("project_id"))
		_, _ = w.Write([]byte(`{"hash":"bh","height":8234567,"slot":1,"epoch":2,"time":3,"tx_count":4}`))
	})
	mux.HandleFunc("/addresses/addr_ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"address":"addr_ok","amount":[{"unit":"lovelace","quantity":"5000000"}],"type":"shelley"}`))
	})
	mux.HandleFunc("/addresses/addr_ok/transactions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"tx_hash":"t1","tx_index":0,"block_height":10,"block_time":11}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLatestBlock(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, "proj", srv.Client())

	b, err := c.LatestBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bh", b.Hash)
	assert.Equal(t, int64(8234567), b.Height)
	assert.Equal(t, 4, b.TxCount)
}

func TestAddress(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, "proj", srv.Client())

	a, err := c.Address(context.Background(), "addr_ok")
	require.NoError(t, err)
	assert.Equal(t, "5000000", a.Lovelace())

	txs, err := c.AddressTransactions(context.Background(), "addr_ok")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "t1", txs[0].TxHash)
}

func TestAddressNotFound(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, "proj", srv.Client())

	_, err := c.Address(context.Background(), "addr_missing")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestLovelaceMissing(t *testing.T) {
	assert.Equal(t, "0", Address{}.Lovelace())
}
