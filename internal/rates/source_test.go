package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/fxkeeper/internal/common"
	"github.com/dmitrijs2005/fxkeeper/internal/logging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.HandlerFunc) *HTTPSource {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPSource(srv.URL+"/latest/{base}", time.Second, logging.Discard())
}

func TestHTTPSource_Success(t *testing.T) {
	var gotPath string
	src := serve(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"success","base_code":"USD","rates":{"USD":1,"EUR":0.92,"jpy":151.37}}`))
	})

	tbl, err := src.Fetch(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, "/latest/USD", gotPath)
	assert.Equal(t, "USD", tbl.BaseCode)
	assert.True(t, tbl.Rates["EUR"].Equal(decimal.RequireFromString("0.92")))
	assert.True(t, tbl.Rates["JPY"].Equal(decimal.RequireFromString("151.37")))
}

func TestHTTPSource_ConversionRatesVariant(t *testing.T) {
	src := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"success","base_code":"EUR","conversion_rates":{"USD":1.08}}`))
	})

	tbl, err := src.Fetch(context.Background(), "EUR")
	require.NoError(t, err)
	assert.True(t, tbl.Rates["USD"].Equal(decimal.RequireFromString("1.08")))
}

func TestHTTPSource_FailuresAreUnavailable(t *testing.T) {
	tests := []struct {
		name string
		h    http.HandlerFunc
	}{
		{"non-2xx", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusBadGateway)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"rates": [`))
		}},
		{"provider error", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"result":"error","error-type":"unsupported-code"}`))
		}},
		{"base mismatch", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"result":"success","base_code":"EUR","rates":{"USD":1.08}}`))
		}},
		{"no rates", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"result":"success","base_code":"USD"}`))
		}},
		{"zero rate", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"result":"success","base_code":"USD","rates":{"EUR":0}}`))
		}},
		{"negative rate", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"result":"success","base_code":"USD","rates":{"EUR":-1}}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := serve(t, tt.h)
			_, err := src.Fetch(context.Background(), "USD")
			assert.ErrorIs(t, err, common.ErrUnavailable)
		})
	}
}

func TestHTTPSource_TimeoutIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	src := NewHTTPSource(srv.URL+"/{base}", 50*time.Millisecond, logging.Discard())

	_, err := src.Fetch(context.Background(), "USD")
	assert.ErrorIs(t, err, common.ErrUnavailable)
}

func TestHTTPSource_UnreachableIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	src := NewHTTPSource(addr+"/{base}", time.Second, logging.Discard())
	_, err := src.Fetch(context.Background(), "USD")
	assert.ErrorIs(t, err, common.ErrUnavailable)
}
