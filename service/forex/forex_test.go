package forex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"
)

func newServer(t *testing.T, rates map[string]float64) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fetch-one" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("api_key") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		to := r.URL.Query().Get("to")
		value, ok := rates[to]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		_ = json.NewEncoder(w).Encode(Response{
			Base:    r.URL.Query().Get("from"),
			Results: map[string]float64{to: value},
		})
	}))
}

func TestGetRate(t *testing.T) {
	srv := newServer(t, map[string]float64{"EUR": 0.85})
	defer srv.Close()

	c, err := New("key", WithBaseURL(srv.URL+"/"), WithRateLimit(rate.Inf, 1))
	if err != nil {
		t.Fatalf("unable to create client: %v", err)
	}

	er, err := c.GetRate(context.Background(), "USD", "EUR")
	if err != nil {
		t.Fatalf("unable to get rate: %v", err)
	}
	if er.Base != "USD" || er.Target != "EUR" || er.Rate != 0.85 {
		t.Errorf("Unexpected rate: %+v", er)
	}

	if _, err := c.GetRate(context.Background(), "USD", "XXX"); err == nil {
		t.Error("Expected error for unknown target")
	}
}

func TestSeederSkipsFailedTargets(t *testing.T) {
	srv := newServer(t, map[string]float64{"EUR": 0.85, "RUB": 75})
	defer srv.Close()

	c, err := New("key", WithBaseURL(srv.URL+"/"), WithRateLimit(rate.Inf, 1))
	if err != nil {
		t.Fatalf("unable to create client: %v", err)
	}

	entries, err := NewSeeder(c, "usd", []string{"RUB", "EUR", "XXX", "USD"}).Load(context.Background())
	if err != nil {
		t.Fatalf("unable to load: %v", err)
	}

	want := []struct {
		code string
		rate float64
	}{{"USD", 1}, {"EUR", 0.85}, {"RUB", 75}}

	if len(entries) != len(want) {
		t.Fatalf("Expected %d entries, got %+v", len(want), entries)
	}
	for i, w := range want {
		if entries[i].Currency != w.code || entries[i].Rate != w.rate {
			t.Errorf("entry %d: expected %s=%v, got %+v", i, w.code, w.rate, entries[i])
		}
	}
}

func TestSeederFailsWhenNothingFetched(t *testing.T) {
	srv := newServer(t, map[string]float64{})
	defer srv.Close()

	c, err := New("wrong", WithBaseURL(srv.URL+"/"), WithRateLimit(rate.Inf, 1))
	if err != nil {
		t.Fatalf("unable to create client: %v", err)
	}

	if _, err := NewSeeder(c, "USD", []string{"EUR"}).Load(context.Background()); err == nil {
		t.Error("Expected error when every fetch fails")
	}
}
