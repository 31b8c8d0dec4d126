package chain

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Pricer returns the latest fiat price for a token.
type Pricer interface {
	LatestPrice(ctx context.Context, token string) (price float64, asOf time.Time, err error)
}

// HttpPricer queries a JSON price API of the form
// GET {PRICE_API_URL}/price?symbol=<TOKEN> -> {"symbol": "...", "price": 1.0}.
type HttpPricer struct {
	client *resty.Client
}

type priceResponse struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func NewHttpPricer() *HttpPricer {
	client := resty.New().
		SetBaseURL(os.Getenv("PRICE_API_URL")).
		SetTimeout(10 * time.Second).
		SetRetryCount(2)
	return &HttpPricer{client: client}
}

func (p *HttpPricer) LatestPrice(ctx context.Context, token string) (float64, time.Time, error) {
	var out priceResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", strings.ToUpper(token)).
		SetResult(&out).
		Get("/price")
	if err != nil {
		return 0, time.Time{}, err
	}
	if resp.IsError() {
		return 0, time.Time{}, fmt.Errorf("price api returned %s for %s", resp.Status(), token)
	}
	if out.Price <= 0 {
		return 0, time.Time{}, fmt.Errorf("price api returned no price for %s", token)
	}
	return out.Price, time.Now(), nil
}
