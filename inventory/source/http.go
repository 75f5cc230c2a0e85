package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"showroom"
)

// HTTPSource fetches the export over HTTP, typically a Google Sheets
// `export?format=csv` URL.
type HTTPSource struct {
	url        string
	httpClient showroom.HTTPClient
}

func NewHTTPSource(url string, httpClient showroom.HTTPClient) *HTTPSource {
	return &HTTPSource{url: url, httpClient: httpClient}
}

func (h *HTTPSource) Load(ctx context.Context) ([]byte, error) {
	if h.url == "" {
		return nil, fmt.Errorf("no catalog url configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog export: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog export: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("catalog export returned %s", resp.Status)
	}

	slog.Debug("CATALOG: Export fetched", "url", h.url, "bytes", len(body))
	return body, nil
}
