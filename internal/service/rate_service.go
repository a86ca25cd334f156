package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"investra/internal/cache"
)

// RateService serves fiat exchange rates for the converter widget,
// fronting the upstream provider with a TTL cache
type RateService struct {
	httpClient *http.Client
	baseURL    string
	base       string
	cache      *cache.RatesCache
	log        *logrus.Logger
}

// NewRateService creates a RateService quoting against the given base
// currency (e.g. "USD")
func NewRateService(baseURL, base string, ratesCache *cache.RatesCache, log *logrus.Logger) *RateService {
	if baseURL == "" {
		baseURL = "https://api.exchangerate.host"
	}
	return &RateService{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		base:       base,
		cache:      ratesCache,
		log:        log,
	}
}

// Rates returns the current rate table, hitting the upstream provider
// only when the cache has expired
func (s *RateService) Rates(ctx context.Context) (map[string]float64, error) {
	if rates, ok := s.cache.Get(); ok {
		return rates, nil
	}
	return s.Refresh(ctx)
}

// Refresh fetches a fresh rate table and replaces the cache
func (s *RateService) Refresh(ctx context.Context) (map[string]float64, error) {
	reqURL := fmt.Sprintf("%s/latest?base=%s", s.baseURL, s.base)

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch exchange rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("exchange rate API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var payload struct {
		Base  string             `json:"base"`
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode rates response: %w", err)
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("exchange rate API returned empty table")
	}

	s.cache.Set(payload.Rates)
	s.log.Debugf("Refreshed exchange rates: %d currencies against %s", len(payload.Rates), s.base)
	return payload.Rates, nil
}
