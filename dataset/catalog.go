// catalog.go fetches dataset listings from an open-data catalog search
// API. The default endpoint serves the Abu Dhabi open-data portal; any
// API with the same identifier/distribution shape works.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Dataset is one downloadable distribution of a catalog entry.
type Dataset struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Format     string `json:"format"` // "csv", "json", "xml", ...
}

// Loadable reports whether this distribution can be loaded. Only CSV
// distributions with a download URL are supported.
func (d Dataset) Loadable() bool {
	return d.URL != "" && strings.EqualFold(d.Format, "csv")
}

// Catalog queries an open-data catalog for dataset distributions.
type Catalog struct {
	endpoint string
}

// NewCatalog creates a catalog client for the given search endpoint.
func NewCatalog(endpoint string) *Catalog {
	return &Catalog{endpoint: endpoint}
}

// FetchDataset looks up a catalog entry by identifier and returns its
// downloadable distributions.
func (c *Catalog) FetchDataset(ctx context.Context, identifier string) ([]Dataset, error) {
	if identifier == "" {
		return nil, fmt.Errorf("dataset identifier is required")
	}

	reqURL := c.endpoint + "?identifier=" + url.QueryEscape(identifier)
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog API error (%d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Data struct {
			Distribution []Dataset `json:"distribution"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("catalog parse error: %w", err)
	}

	if len(result.Data.Distribution) == 0 {
		return nil, fmt.Errorf("catalog entry %q has no distributions", identifier)
	}
	return result.Data.Distribution, nil
}
