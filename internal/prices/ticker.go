package prices

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Polling intervals for the two dashboard widgets
const (
	MarketPollInterval   = 8 * time.Second
	HeadlinePollInterval = 60 * time.Second
)

// HeadlineSymbols is the fixed six-symbol set of the headline widget
var HeadlineSymbols = []string{"bitcoin", "ethereum", "tether", "binancecoin", "solana", "ripple"}

// FetchFunc fetches one batch of symbol prices
type FetchFunc func(ctx context.Context) (map[string]float64, error)

// Ticker polls prices on a fixed interval. It fetches once immediately on
// Start, skips ticks while the visibility hook reports hidden, and keeps
// the last good values when a fetch fails so the display never blanks.
// Stop tears the loop down deterministically; no state is written after
// Stop returns.
type Ticker struct {
	name     string
	interval time.Duration
	fetch    FetchFunc
	visible  func() bool
	log      *logrus.Logger

	mu      sync.RWMutex
	last    map[string]float64
	updated time.Time

	startOnce sync.Once
	stopOnce  sync.Once
	stopChan  chan struct{}
	doneChan  chan struct{}
}

// NewTicker creates a ticker. visible may be nil, in which case every tick
// polls.
func NewTicker(name string, interval time.Duration, fetch FetchFunc, visible func() bool, log *logrus.Logger) *Ticker {
	if log == nil {
		log = logrus.New()
	}
	return &Ticker{
		name:     name,
		interval: interval,
		fetch:    fetch,
		visible:  visible,
		log:      log,
		last:     make(map[string]float64),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// NewMarketTicker polls the given CoinGecko ids every 8 seconds
func NewMarketTicker(client *CoinGeckoClient, ids []string, visible func() bool, log *logrus.Logger) *Ticker {
	fetch := func(ctx context.Context) (map[string]float64, error) {
		return client.SimplePrices(ctx, ids, "usd")
	}
	return NewTicker("market", MarketPollInterval, fetch, visible, log)
}

// NewHeadlineTicker polls the fixed six headline symbols every minute
func NewHeadlineTicker(client *CoinGeckoClient, visible func() bool, log *logrus.Logger) *Ticker {
	fetch := func(ctx context.Context) (map[string]float64, error) {
		return client.SimplePrices(ctx, HeadlineSymbols, "usd")
	}
	return NewTicker("headline", HeadlinePollInterval, fetch, visible, log)
}

// Start begins the polling loop. Subsequent calls are no-ops.
func (t *Ticker) Start(ctx context.Context) {
	t.startOnce.Do(func() {
		go t.pollLoop(ctx)
	})
}

// Stop halts polling and waits for the loop to exit. Safe to call more
// than once.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopChan)
	})
	<-t.doneChan
}

// Prices returns a copy of the last successfully fetched values and when
// they were fetched
func (t *Ticker) Prices() (map[string]float64, time.Time) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]float64, len(t.last))
	for k, v := range t.last {
		out[k] = v
	}
	return out, t.updated
}

func (t *Ticker) pollLoop(ctx context.Context) {
	defer close(t.doneChan)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.poll(ctx)

	for {
		select {
		case <-ticker.C:
			t.poll(ctx)
		case <-t.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// poll runs one fetch. The loop is a single goroutine, so at most one
// fetch is in flight per tick by construction.
func (t *Ticker) poll(ctx context.Context) {
	if t.visible != nil && !t.visible() {
		t.log.Debugf("%s ticker: skipping poll while hidden", t.name)
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, t.interval)
	defer cancel()

	values, err := t.fetch(fetchCtx)
	if err != nil {
		// Silent degrade: keep showing the last good values.
		t.log.Warnf("%s ticker: fetch failed, keeping last values: %v", t.name, err)
		return
	}
	if len(values) == 0 {
		return
	}

	t.mu.Lock()
	t.last = values
	t.updated = time.Now()
	t.mu.Unlock()
}
