package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
	"github.com/zerodha/gokiteconnect/v4/models"

	"news-impact/internal/types"
)

func priceQuery(ticker string) types.PriceQuery {
	return types.PriceQuery{
		Ticker: ticker,
		Start:  time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
	}
}

func TestYahooFetch(t *testing.T) {
	var gotPath, gotInterval string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInterval = r.URL.Query().Get("interval")
		fmt.Fprint(w, `{"chart":{"result":[{
			"timestamp":[1736236800,1736150400,1736323200],
			"indicators":{"quote":[{
				"open":[101,99,null],
				"high":[102,100,null],
				"low":[100,98,null],
				"close":[101.5,99.5,null],
				"volume":[2000,null,null]
			}]}
		}],"error":null}}`)
	}))
	defer srv.Close()

	series, err := NewYahoo(YahooConfig{BaseURL: srv.URL}).Fetch(context.Background(), priceQuery("ACME.NS"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if gotPath != "/v8/finance/chart/ACME.NS" || gotInterval != "1d" {
		t.Errorf("Unexpected request %s interval=%s", gotPath, gotInterval)
	}
	if len(series.Points) != 2 {
		t.Fatalf("Expected 2 bars (null close dropped), got %d", len(series.Points))
	}
	if series.Points[0].Close != 99.5 || series.Points[0].Volume != 0 {
		t.Errorf("Expected sorted first bar close 99.5 vol 0, got %+v", series.Points[0])
	}
	if series.Points[1].Volume != 2000 {
		t.Errorf("Expected volume 2000, got %v", series.Points[1].Volume)
	}
}

func TestYahooUnknownTicker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	_, err := NewYahoo(YahooConfig{BaseURL: srv.URL}).Fetch(context.Background(), priceQuery("NOPE.NS"))
	if !errors.Is(err, ErrTickerNotFound) {
		t.Errorf("Expected ErrTickerNotFound, got %v", err)
	}
}

func TestYahooServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewYahoo(YahooConfig{BaseURL: srv.URL}).Fetch(context.Background(), priceQuery("ACME.NS"))
	var se *StatusError
	if !errors.As(err, &se) || !se.Retryable() {
		t.Errorf("Expected retryable StatusError, got %v", err)
	}
}

type fakeKite struct {
	token    int
	interval string
	from, to time.Time
	candles  []kiteconnect.HistoricalData
	err      error
}

func (f *fakeKite) GetHistoricalData(token int, interval string, from, to time.Time, continuous, oi bool) ([]kiteconnect.HistoricalData, error) {
	f.token, f.interval, f.from, f.to = token, interval, from, to
	return f.candles, f.err
}

func TestKiteFetch(t *testing.T) {
	day := time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC)
	fake := &fakeKite{candles: []kiteconnect.HistoricalData{
		{Date: models.Time{Time: day}, Open: 100, High: 105, Low: 99, Close: 104, Volume: 1500},
	}}
	k := newKite(fake, KiteParams{Tokens: map[string]uint32{"RELIANCE": 256265}})

	series, err := k.Fetch(context.Background(), priceQuery("reliance.ns"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fake.token != 256265 || fake.interval != "day" {
		t.Errorf("Expected token 256265 interval day, got %d %s", fake.token, fake.interval)
	}
	if !fake.to.After(time.Date(2025, 1, 8, 23, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected end of day upper bound, got %v", fake.to)
	}
	if len(series.Points) != 1 || series.Points[0].Close != 104 || series.Points[0].Volume != 1500 {
		t.Errorf("Unexpected series %+v", series.Points)
	}
	if k.mapper.getSymbol(256265) != "RELIANCE" {
		t.Errorf("Expected reverse mapping to RELIANCE, got %q", k.mapper.getSymbol(256265))
	}
}

func TestKiteUnknownSymbol(t *testing.T) {
	k := newKite(&fakeKite{}, KiteParams{})
	_, err := k.Fetch(context.Background(), priceQuery("ACME.NS"))
	if !errors.Is(err, ErrTickerNotFound) {
		t.Errorf("Expected ErrTickerNotFound, got %v", err)
	}
}

func TestKiteClientError(t *testing.T) {
	k := newKite(&fakeKite{err: errors.New("token expired")}, KiteParams{Tokens: map[string]uint32{"TCS": 2953217}})
	_, err := k.Fetch(context.Background(), priceQuery("TCS.NS"))
	if err == nil || !strings.Contains(err.Error(), "token expired") {
		t.Errorf("Expected wrapped client error, got %v", err)
	}
}

func TestNewKiteRequiresCredentials(t *testing.T) {
	if _, err := NewKite(KiteParams{APIKey: "key"}); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("Expected ErrMissingCredentials, got %v", err)
	}
}
