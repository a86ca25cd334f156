package prices

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestTickerFetchesImmediately(t *testing.T) {
	fetch := func(ctx context.Context) (map[string]float64, error) {
		return map[string]float64{"bitcoin": 64000}, nil
	}
	tk := NewTicker("test", time.Hour, fetch, nil, nil)
	tk.Start(context.Background())
	defer tk.Stop()

	waitFor(t, time.Second, func() bool {
		prices, _ := tk.Prices()
		return prices["bitcoin"] == 64000
	})
}

func TestTickerKeepsLastValuesOnFailure(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context) (map[string]float64, error) {
		if calls.Add(1) == 1 {
			return map[string]float64{"bitcoin": 64000}, nil
		}
		return nil, errors.New("upstream down")
	}
	tk := NewTicker("test", 10*time.Millisecond, fetch, nil, nil)
	tk.Start(context.Background())
	defer tk.Stop()

	waitFor(t, time.Second, func() bool { return calls.Load() >= 3 })

	prices, updated := tk.Prices()
	if prices["bitcoin"] != 64000 {
		t.Errorf("failed fetch must keep last values, got %v", prices)
	}
	if updated.IsZero() {
		t.Error("updated time lost")
	}
}

func TestTickerSkipsWhileHidden(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context) (map[string]float64, error) {
		calls.Add(1)
		return map[string]float64{"bitcoin": 1}, nil
	}
	visible := func() bool { return false }

	tk := NewTicker("test", 10*time.Millisecond, fetch, visible, nil)
	tk.Start(context.Background())
	defer tk.Stop()

	time.Sleep(60 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("hidden ticker must not fetch, got %d calls", calls.Load())
	}
}

func TestTickerStopIsDeterministic(t *testing.T) {
	fetch := func(ctx context.Context) (map[string]float64, error) {
		return map[string]float64{"bitcoin": 1}, nil
	}
	tk := NewTicker("test", 10*time.Millisecond, fetch, nil, nil)
	tk.Start(context.Background())

	done := make(chan struct{})
	go func() {
		tk.Stop()
		// Stop is idempotent.
		tk.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestTickerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetch := func(ctx context.Context) (map[string]float64, error) {
		return map[string]float64{"bitcoin": 1}, nil
	}
	tk := NewTicker("test", 10*time.Millisecond, fetch, nil, nil)
	tk.Start(ctx)

	cancel()

	select {
	case <-tk.doneChan:
	case <-time.After(time.Second):
		t.Fatal("loop did not exit on context cancel")
	}
}
