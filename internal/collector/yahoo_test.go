package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const chartBody = `{"chart":{"result":[{
  "meta":{"gmtoffset":-14400},
  "timestamp":[1704205800,1704292200,1704378600,1704465000],
  "indicators":{
    "quote":[{"open":[10,10.5,null,11],"high":[10.6,10.9,null,11.4],"low":[9.9,10.2,null,10.8],
              "close":[10.5,10.8,null,11.2],"volume":[1000,1200,null,0]}],
    "adjclose":[{"adjclose":[10.4,10.7,null,11.1]}]
  }}],"error":null}}`

func newTestYahoo(t *testing.T, handler http.HandlerFunc) *YahooFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	f := NewYahooFetcher("", 5*time.Second, 100, zap.NewNop())
	f.BaseURL = srv.URL
	return f
}

func TestYahooFetcher_FetchDailyBars(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Write([]byte(chartBody))
	})

	from := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	bars, err := f.FetchDailyBars(context.Background(), "ICLN", from, to)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/ICLN", gotPath)
	assert.Equal(t, []string{"1d"}, gotQuery["interval"])
	assert.Equal(t, []string{"1704153600"}, gotQuery["period1"])
	assert.Equal(t, []string{"1704499200"}, gotQuery["period2"])

	require.Len(t, bars, 3, "null close bar is dropped")
	assert.Equal(t, from, bars[0].Date)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), bars[2].Date)
	assert.Equal(t, 10.5, bars[0].Close)
	assert.Equal(t, 10.4, bars[0].AdjClose)
	assert.Equal(t, 1200.0, bars[1].Volume)
	assert.Equal(t, 0.0, bars[2].Volume)
}

func TestYahooFetcher_SymbolMap(t *testing.T) {
	var gotPath string
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(chartBody))
	})
	_, err := f.FetchDailyBars(context.Background(), "SPX500", time.Now().AddDate(0, 0, -5), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/%5EGSPC", gotPath)
}

func TestYahooFetcher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http status", http.StatusTooManyRequests, "slow down"},
		{"api error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`},
		{"bad json", http.StatusOK, `{"chart":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := f.FetchDailyBars(context.Background(), "KRBN", time.Now().AddDate(0, -1, 0), time.Now())
			assert.Error(t, err)
		})
	}
}

func TestYahooFetcher_ContextCanceled(t *testing.T) {
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartBody))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.FetchDailyBars(ctx, "KRBN", time.Now().AddDate(0, -1, 0), time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}
