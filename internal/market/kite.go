package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"news-impact/internal/interfaces"
	"news-impact/internal/logger"
	"news-impact/internal/types"
)

// ErrMissingCredentials is returned when Kite is selected without a token
var ErrMissingCredentials = errors.New("missing Kite API key/access token")

// historicalClient is the slice of the Kite client used here
type historicalClient interface {
	GetHistoricalData(instrumentToken int, interval string, fromDate time.Time, toDate time.Time, continuous bool, oi bool) ([]kiteconnect.HistoricalData, error)
}

// KiteParams configures the Kite source
type KiteParams struct {
	APIKey      string
	AccessToken string
	Timeout     time.Duration
	// Tokens maps exchange symbols (RELIANCE) to instrument tokens
	Tokens map[string]uint32
}

// Kite reads historical candles through Zerodha Kite Connect
type Kite struct {
	client historicalClient
	mapper *instrumentMapper
}

var _ interfaces.PriceSource = (*Kite)(nil)

// NewKite creates a Kite source with a live Kite Connect client
func NewKite(p KiteParams) (*Kite, error) {
	if p.APIKey == "" || p.AccessToken == "" {
		return nil, ErrMissingCredentials
	}
	if p.Timeout <= 0 {
		p.Timeout = 30 * time.Second
	}

	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	kc.SetHTTPClient(&http.Client{Timeout: p.Timeout})

	return newKite(kc, p), nil
}

func newKite(client historicalClient, p KiteParams) *Kite {
	mapper := newInstrumentMapper()
	for symbol, token := range p.Tokens {
		mapper.addMapping(symbol, token)
	}
	return &Kite{client: client, mapper: mapper}
}

// Fetch returns candles for q.Ticker. Yahoo-style suffixes (.NS, .BO) are
// stripped before the instrument lookup.
func (k *Kite) Fetch(ctx context.Context, q types.PriceQuery) (types.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return types.PriceSeries{}, err
	}

	symbol := exchangeSymbol(q.Ticker)
	token, ok := k.mapper.getToken(symbol)
	if !ok {
		return types.PriceSeries{}, fmt.Errorf("%w: no instrument token for %s", ErrTickerNotFound, symbol)
	}

	from := q.Start.UTC()
	to := q.End.UTC().Add(24*time.Hour - time.Second)
	candles, err := k.client.GetHistoricalData(int(token), kiteInterval(q.Interval), from, to, false, false)
	if err != nil {
		var kerr kiteconnect.Error
		if errors.As(err, &kerr) && (kerr.Code == http.StatusTooManyRequests || kerr.Code >= 500) {
			return types.PriceSeries{}, &StatusError{Source: "kite", Code: kerr.Code}
		}
		return types.PriceSeries{}, fmt.Errorf("kite historical %s: %w", symbol, err)
	}

	points := make([]types.PricePoint, 0, len(candles))
	for _, c := range candles {
		points = append(points, types.PricePoint{
			Timestamp: c.Date.Time,
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    float64(c.Volume),
		})
	}

	logger.Debug(ctx, "Kite candles fetched", "symbol", symbol, "token", token, "bars", len(points))
	return types.NewPriceSeries(q.Ticker, points), nil
}

func exchangeSymbol(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	for _, suffix := range []string{".NS", ".BO"} {
		t = strings.TrimSuffix(t, suffix)
	}
	return t
}

func kiteInterval(interval string) string {
	switch interval {
	case "1m":
		return "minute"
	case "5m":
		return "5minute"
	case "15m":
		return "15minute"
	case "1h", "60m":
		return "60minute"
	default:
		return "day"
	}
}

// instrumentMapper maps between exchange symbols and instrument tokens
type instrumentMapper struct {
	symbolToToken map[string]uint32
	tokenToSymbol map[uint32]string
	mu            sync.RWMutex
}

func newInstrumentMapper() *instrumentMapper {
	return &instrumentMapper{
		symbolToToken: make(map[string]uint32),
		tokenToSymbol: make(map[uint32]string),
	}
}

func (im *instrumentMapper) addMapping(symbol string, token uint32) {
	im.mu.Lock()
	defer im.mu.Unlock()

	symbol = strings.ToUpper(symbol)
	im.symbolToToken[symbol] = token
	im.tokenToSymbol[token] = symbol
}

func (im *instrumentMapper) getToken(symbol string) (uint32, bool) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	token, exists := im.symbolToToken[symbol]
	return token, exists
}

func (im *instrumentMapper) getSymbol(token uint32) string {
	im.mu.RLock()
	defer im.mu.RUnlock()

	return im.tokenToSymbol[token]
}
