package steam

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(baseURL string) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(ClientConfig{
		BaseURL:          baseURL,
		Currency:         5,
		Timeout:          time.Second,
		BaseDelay:        time.Millisecond,
		FailureDelayStep: time.Millisecond,
		MaxDelay:         5 * time.Millisecond,
		RateLimitSleep:   time.Millisecond,
	}, logger)
}

func TestFetchSuccess(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"appid":            q.Get("appid"),
			"currency":         q.Get("currency"),
			"market_hash_name": q.Get("market_hash_name"),
		}
		w.Write([]byte(`{"success":true,"lowest_price":"10 руб.","median_price":"12 руб.","volume":"52"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	defer c.Close()

	quote := c.Fetch(context.Background(), 730, "Fracture Case")
	if quote == nil {
		t.Fatal("Fetch returned nil for a valid response")
	}
	if quote.LowestPrice != "10 руб." || quote.Volume != "52" {
		t.Errorf("quote = %+v", quote)
	}
	if gotQuery["appid"] != "730" || gotQuery["currency"] != "5" || gotQuery["market_hash_name"] != "Fracture Case" {
		t.Errorf("query = %v", gotQuery)
	}
	if c.Failures() != 0 {
		t.Errorf("Failures = %d, want 0", c.Failures())
	}
}

func TestFetchFailuresIncrementAndReset(t *testing.T) {
	var fail bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"success":true,"lowest_price":"10","median_price":"12","volume":"52"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	defer c.Close()
	ctx := context.Background()

	fail = true
	if quote := c.Fetch(ctx, 730, "x"); quote != nil {
		t.Fatal("Fetch returned a quote for a 500 response")
	}
	if quote := c.Fetch(ctx, 730, "x"); quote != nil {
		t.Fatal("Fetch returned a quote for a 500 response")
	}
	if c.Failures() != 2 {
		t.Errorf("Failures = %d, want 2", c.Failures())
	}

	fail = false
	if quote := c.Fetch(ctx, 730, "x"); quote == nil {
		t.Fatal("Fetch returned nil after recovery")
	}
	if c.Failures() != 0 {
		t.Errorf("Failures = %d after success, want 0", c.Failures())
	}
}

func TestFetchRateLimitDoesNotCountAsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	defer c.Close()

	if quote := c.Fetch(context.Background(), 730, "x"); quote != nil {
		t.Fatal("Fetch returned a quote for a 429 response")
	}
	if c.Failures() != 0 {
		t.Errorf("Failures = %d after 429, want 0", c.Failures())
	}
}

func TestFetchBadPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"success":`},
		{"vendor failure", `{"success":false}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := testClient(srv.URL)
			defer c.Close()

			if quote := c.Fetch(context.Background(), 730, "x"); quote != nil {
				t.Fatal("Fetch returned a quote for a bad payload")
			}
			if c.Failures() != 1 {
				t.Errorf("Failures = %d, want 1", c.Failures())
			}
		})
	}
}

func TestFetchCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"lowest_price":"10","median_price":"12"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if quote := c.Fetch(ctx, 730, "x"); quote != nil {
		t.Fatal("Fetch returned a quote with a cancelled context")
	}
}

func TestPacingDelayGrowsWithFailuresAndCaps(t *testing.T) {
	c := testClient("http://localhost")
	defer c.Close()

	base := c.pacingDelay()
	c.recordFailure()
	c.recordFailure()
	if got := c.pacingDelay(); got != base+2*time.Millisecond {
		t.Errorf("pacingDelay after 2 failures = %v, want %v", got, base+2*time.Millisecond)
	}

	for i := 0; i < 100; i++ {
		c.recordFailure()
	}
	if got := c.pacingDelay(); got != 5*time.Millisecond {
		t.Errorf("pacingDelay = %v, want cap 5ms", got)
	}
}
