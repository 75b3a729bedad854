// Package yahoo wraps the go-yfinance library for historical price fetching.
package yahoo

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"
)

// HistoricalPrice is one daily OHLCV bar.
type HistoricalPrice struct {
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
	AdjClose float64
}

// Client fetches market data from Yahoo Finance.
type Client struct {
	log zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		log: log.With().Str("client", "yahoo").Logger(),
	}
}

// GetHistoricalPrices fetches daily bars for a symbol over the given period
// (e.g. "1y", "5y", "max").
func (c *Client) GetHistoricalPrices(symbol, period string) ([]HistoricalPrice, error) {
	yahooSymbol := strings.ToUpper(strings.TrimSpace(symbol))

	t, err := ticker.New(yahooSymbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker for %s: %w", yahooSymbol, err)
	}
	defer t.Close()

	params := models.HistoryParams{
		Period:     period,
		Interval:   "1d",
		AutoAdjust: true,
	}

	bars, err := t.History(params)
	if err != nil {
		return nil, fmt.Errorf("failed to get historical prices for %s: %w", yahooSymbol, err)
	}

	prices := make([]HistoricalPrice, 0, len(bars))
	for _, bar := range bars {
		prices = append(prices, HistoricalPrice{
			Date:     bar.Date,
			Open:     bar.Open,
			High:     bar.High,
			Low:      bar.Low,
			Close:    bar.Close,
			Volume:   int64(bar.Volume),
			AdjClose: bar.AdjClose,
		})
	}

	c.log.Debug().Str("symbol", yahooSymbol).Int("bars", len(prices)).Msg("Fetched historical prices")
	return prices, nil
}

// GetCurrentPrice gets the latest quote for a symbol, retrying with
// exponential backoff.
func (c *Client) GetCurrentPrice(symbol string, maxRetries int) (*float64, error) {
	if maxRetries == 0 {
		maxRetries = 3
	}

	yahooSymbol := strings.ToUpper(strings.TrimSpace(symbol))

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		t, err := ticker.New(yahooSymbol)
		if err != nil {
			lastErr = fmt.Errorf("failed to create ticker: %w", err)
			if attempt < maxRetries-1 {
				waitTime := time.Duration(1<<uint(attempt)) * time.Second
				c.log.Warn().Err(err).Str("symbol", symbol).Int("attempt", attempt+1).Dur("wait", waitTime).Msg("Retrying")
				time.Sleep(waitTime)
				continue
			}
			return nil, lastErr
		}
		defer t.Close()

		quote, err := t.Quote()
		if err == nil && quote != nil && quote.RegularMarketPrice > 0 {
			price := quote.RegularMarketPrice
			return &price, nil
		}

		lastErr = fmt.Errorf("no valid quote for %s", yahooSymbol)
		if attempt < maxRetries-1 {
			time.Sleep(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}

	return nil, lastErr
}
