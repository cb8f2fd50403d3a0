package quotes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestClient(serverURL string) *Client {
	return NewClient(serverURL, http.DefaultClient, zerolog.Nop())
}

func TestFetchReturnsQuotes(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"q": "Do or do not.", "a": "Yoda"},
			{"q": " Stay hungry. ", "a": ""},
			{"q": "", "a": "Nobody"}
		]`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Fetch(context.Background(), 10)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 valid quotes, got %d", len(got))
	}
	if got[0].Text != "Do or do not." || got[0].Author != "Yoda" {
		t.Fatalf("unexpected first quote: %+v", got[0])
	}
	if got[1].Text != "Stay hungry." {
		t.Fatalf("expected trimmed text, got %q", got[1].Text)
	}
	if got[1].Author != "Unknown" {
		t.Fatalf("expected Unknown author fallback, got %q", got[1].Author)
	}
}

func TestFetchAppliesLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"q": "one", "a": "a"},
			{"q": "two", "a": "b"},
			{"q": "three", "a": "c"}
		]`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Fetch(context.Background(), 2)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(got))
	}
}

func TestFetchMalformedJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "a list"`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Fetch(context.Background(), 10)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestFetchEmptyPayload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Fetch(context.Background(), 10)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse for empty payload, got %v", err)
	}
}

func TestFetchServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Fetch(context.Background(), 10)
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestFetchTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestClient(srv.URL).Fetch(ctx, 10)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestFetchUnreachableHost(t *testing.T) {
	t.Parallel()

	// Port 0 is never listening.
	_, err := newTestClient("http://127.0.0.1:0").Fetch(context.Background(), 10)
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}
