package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mindfuel/dispatch/models"
)

// Failure classes for a content fetch. The client never retries internally;
// the dispatcher treats any of these as run-fatal.
var (
	ErrTimeout           = errors.New("content source timed out")
	ErrUnreachable       = errors.New("content source unreachable")
	ErrMalformedResponse = errors.New("content source returned malformed response")
)

// Client fetches a batch of quote texts from the external provider. The
// provider's responses are untrusted input: malformed or empty payloads are
// errors, never panics.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewClient(baseURL string, httpClient *http.Client, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		log:        log.With().Str("component", "quotes_client").Logger(),
	}
}

// providerItem is the provider's wire shape: a JSON list of short text items
// with "q" (quote) and "a" (author) keys.
type providerItem struct {
	Q string `json:"q"`
	A string `json:"a"`
}

// Fetch retrieves up to limit quotes. The timeout comes from ctx, which the
// caller bounds explicitly.
func (c *Client) Fetch(ctx context.Context, limit int) ([]models.Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrUnreachable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnreachable, resp.StatusCode)
	}

	var items []providerItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	quotes := make([]models.Quote, 0, len(items))
	for _, item := range items {
		text := strings.TrimSpace(item.Q)
		if text == "" {
			c.log.Warn().Str("author", item.A).Msg("skipping malformed quote entry")
			continue
		}
		author := strings.TrimSpace(item.A)
		if author == "" {
			author = "Unknown"
		}
		quotes = append(quotes, models.Quote{Text: text, Author: author})
	}

	// An empty result set is indistinguishable from a broken provider.
	if len(quotes) == 0 {
		return nil, fmt.Errorf("%w: no valid quotes in payload", ErrMalformedResponse)
	}

	c.log.Debug().Int("count", len(quotes)).Msg("fetched quotes")
	return quotes, nil
}
