package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"investra/internal/cache"
)

func TestRatesServedFromCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("base") != "USD" {
			t.Errorf("base = %q", r.URL.Query().Get("base"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"base": "USD", "rates": {"EUR": 0.92, "GBP": 0.79}}`))
	}))
	defer srv.Close()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	svc := NewRateService(srv.URL, "USD", cache.NewRatesCache(time.Minute), log)

	for i := 0; i < 3; i++ {
		rates, err := svc.Rates(context.Background())
		if err != nil {
			t.Fatalf("Rates: %v", err)
		}
		if rates["EUR"] != 0.92 {
			t.Errorf("rates = %v", rates)
		}
	}

	if calls.Load() != 1 {
		t.Errorf("expected a single upstream call, got %d", calls.Load())
	}
}

func TestRefreshErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	svc := NewRateService(srv.URL, "USD", cache.NewRatesCache(time.Minute), log)

	if _, err := svc.Refresh(context.Background()); err == nil {
		t.Error("expected error on upstream failure")
	}
}

func TestRefreshRejectsEmptyTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"base": "USD", "rates": {}}`))
	}))
	defer srv.Close()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	svc := NewRateService(srv.URL, "USD", cache.NewRatesCache(time.Minute), log)

	if _, err := svc.Refresh(context.Background()); err == nil {
		t.Error("expected error for an empty rate table")
	}
}
