package parts

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

// HTTPFetcher reads part records from the parts endpoint of the API service.
type HTTPFetcher struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPFetcher returns a fetcher for the service at baseURL. apiKey is sent
// as X-API-Key when non-empty.
func NewHTTPFetcher(baseURL, apiKey string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

// FetchParts implements Fetcher.
func (f *HTTPFetcher) FetchParts(ctx context.Context, videoID string) ([]RawPart, error) {
	endpoint := f.baseURL + "/api/videos/" + url.PathEscape(videoID) + "/parts"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.apiKey != "" {
		req.Header.Set("X-API-Key", f.apiKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}

	var raw []RawPart
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("error decoding parts: %w", err)
	}
	return raw, nil
}
