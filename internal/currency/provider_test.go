package currency

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/storage"
)

type memStore struct{ data map[string][]byte }

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) GetAny(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *memStore) Set(_ context.Context, key string, val []byte) error {
	m.data[key] = val
	return nil
}

type failing struct{ calls atomic.Int32 }

func (f *failing) Name() string { return "failing" }
func (f *failing) Fetch(context.Context) (float64, error) {
	f.calls.Add(1)
	return 0, errors.New("down")
}

func TestParseGooglePatterns(t *testing.T) {
	t.Parallel()

	cases := map[string]float64{
		`<div data-last-price="3.7512" data-x="1">`:   3.7512,
		`<span data-value="3.80">`:                    3.80,
		`rate "3.69" PEN today`:                       3.69,
		`<div class="YMlKec fxKbKc">3.7421</div>`:     3.7421,
		`<div data-last-price="0" data-value="3.71">`: 3.71,
	}
	for html, want := range cases {
		got, err := parseGoogle([]byte(html))
		require.NoError(t, err, html)
		require.InDelta(t, want, got, 1e-9, html)
	}

	_, err := parseGoogle([]byte(`<html>nothing here</html>`))
	require.ErrorIs(t, err, errNoRate)
}

func TestGoogleFinanceFetch(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`<div class="YMlKec fxKbKc">3.7421</div>`))
	}))
	defer srv.Close()

	rate, err := NewGoogleFinance(srv.URL).Fetch(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 3.7421, rate, 1e-9)
}

func TestExchangeRateAPIFetch(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"base":"USD","rates":{"EUR":0.92,"PEN":3.77}}`))
	}))
	defer srv.Close()

	rate, err := NewExchangeRateAPI(srv.URL).Fetch(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 3.77, rate, 1e-9)
}

func TestExchangeRateAPIMissingPEN(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"rates":{"EUR":0.92}}`))
	}))
	defer srv.Close()

	_, err := NewExchangeRateAPI(srv.URL).Fetch(context.Background())
	require.Error(t, err)
}

func TestSecondarySourceUsedWhenPrimaryFails(t *testing.T) {
	t.Parallel()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"rates":{"PEN":3.81}}`))
	}))
	defer api.Close()

	store := newMemStore()
	p := NewProvider(zap.NewNop(), store, Options{}, NewGoogleFinance(down.URL), NewExchangeRateAPI(api.URL))
	q := p.GetRate(context.Background())
	require.Equal(t, SourceExchangeRateAPI, q.Source)
	require.InDelta(t, 3.81, q.Rate, 1e-9)

	var stored Quote
	require.NoError(t, json.Unmarshal(store.data[storage.KeyRate], &stored))
	require.Equal(t, SourceExchangeRateAPI, stored.Source)
}

func TestAllSourcesFailUsesManualFallback(t *testing.T) {
	t.Parallel()
	p := NewProvider(zap.NewNop(), newMemStore(), Options{}, &failing{}, &failing{})

	q := p.GetRate(context.Background())
	require.Equal(t, 3.75, q.Rate)
	require.Equal(t, SourceManual, q.Source)
}

func TestStoredRateBeatsManualRegardlessOfAge(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	old, _ := json.Marshal(Quote{Rate: 3.6, AsOf: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Source: SourceGoogle})
	store.data[storage.KeyRate] = old

	p := NewProvider(zap.NewNop(), store, Options{}, &failing{})
	q := p.GetRate(context.Background())
	require.Equal(t, 3.6, q.Rate)
	require.Equal(t, SourceGoogle, q.Source)
}

func TestCacheExpiry(t *testing.T) {
	t.Parallel()
	src := &failing{}
	p := NewProvider(zap.NewNop(), nil, Options{CacheTTL: time.Hour}, src)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	p.GetRate(context.Background())
	p.GetRate(context.Background())
	require.Equal(t, int32(1), src.calls.Load())

	now = now.Add(61 * time.Minute)
	p.GetRate(context.Background())
	require.Equal(t, int32(2), src.calls.Load())
}
