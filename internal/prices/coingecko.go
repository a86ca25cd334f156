package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CoinGeckoClient fetches spot prices from the public CoinGecko API
type CoinGeckoClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewCoinGeckoClient creates a CoinGecko client
func NewCoinGeckoClient() *CoinGeckoClient {
	return &CoinGeckoClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: "https://api.coingecko.com/api/v3",
	}
}

// SimplePrices fetches current prices for the given coin ids in the given
// quote currency (e.g. "usd"). The result maps coin id to price.
func (c *CoinGeckoClient) SimplePrices(ctx context.Context, ids []string, vsCurrency string) (map[string]float64, error) {
	if len(ids) == 0 {
		return make(map[string]float64), nil
	}

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", vsCurrency)
	reqURL := fmt.Sprintf("%s/simple/price?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices from CoinGecko: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("CoinGecko API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	// CoinGecko returns {"bitcoin":{"usd":64000.12}, ...}
	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	result := make(map[string]float64, len(payload))
	for id, quotes := range payload {
		if price, ok := quotes[vsCurrency]; ok {
			result[id] = price
		}
	}
	return result, nil
}
