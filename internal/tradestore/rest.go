package tradestore

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

// RESTQuerier is a Querier backed by a columnar trade-store HTTP API. It
// retries 5xx responses and transport errors with exponential backoff,
// same as the rest of this codebase's REST clients.
type RESTQuerier struct {
	http     *resty.Client
	exchange string
	logger   *slog.Logger
}

// NewRESTQuerier builds a RESTQuerier against baseURL. exchange tags every
// returned types.MarketTrade.
func NewRESTQuerier(baseURL, exchange string, logger *slog.Logger) *RESTQuerier {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		})

	return &RESTQuerier{http: httpClient, exchange: exchange, logger: logger.With("component", "tradestore")}
}

type tradesResponse struct {
	Trades     []wireTrade `json:"trades"`
	NextCursor string      `json:"next_cursor"`
}

type wireTrade struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Amount    float64 `json:"amount"`
	Side      string  `json:"side"`
	Timestamp int64   `json:"timestamp"`
}

// Trades fetches one page of trades for instrument in [from, to). Passing
// an empty cursor starts from the beginning of the range.
func (q *RESTQuerier) Trades(ctx context.Context, instrument types.Instrument, from, to time.Time, cursor string) (Page, error) {
	var result tradesResponse
	req := q.http.R().
		SetContext(ctx).
		SetQueryParam("symbol", instrument.String()).
		SetQueryParam("from", from.UTC().Format(time.RFC3339)).
		SetQueryParam("to", to.UTC().Format(time.RFC3339)).
		SetResult(&result)
	if cursor != "" {
		req.SetQueryParam("cursor", cursor)
	}

	resp, err := req.Get("/trades")
	if err != nil {
		return Page{}, fmt.Errorf("query trades: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Page{}, fmt.Errorf("query trades: status %d: %s", resp.StatusCode(), resp.String())
	}

	trades := make([]types.MarketTrade, 0, len(result.Trades))
	for _, wt := range result.Trades {
		trades = append(trades, types.MarketTrade{
			Exchange:  q.exchange,
			Symbol:    wt.Symbol,
			Timestamp: wt.Timestamp,
			Price:     wt.Price,
			Amount:    wt.Amount,
			Side:      types.Side(wt.Side),
		})
	}

	return Page{Trades: trades, NextCursor: result.NextCursor}, nil
}
