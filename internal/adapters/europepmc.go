// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adapters

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/repurpose-engine/internal/httputil"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// europePMCAPIBase is the Europe PMC search endpoint. Declared as a var so
// tests can substitute an httptest server.
var europePMCAPIBase = "https://www.ebi.ac.uk/europepmc/webservices/rest/search"

// EuropePMC counts supporting literature for boolean queries (R5).
type EuropePMC struct {
	Client *http.Client
	Cfg    types.EnrichmentConfig
}

// Name returns the adapter identifier.
func (e *EuropePMC) Name() string { return "europe_pmc" }

// CountLiterature returns the total hit count for the query. Only the count
// is requested; no article payloads are transferred (R5.1).
func (e *EuropePMC) CountLiterature(ctx context.Context, query string) (int, error) {
	if query == "" {
		return 0, fmt.Errorf("empty literature query")
	}

	params := url.Values{
		"query":    {query},
		"format":   {"json"},
		"pageSize": {"1"},
	}
	reqURL := europePMCAPIBase + "?" + params.Encode()

	var pr europePMCResponse
	if err := httputil.GetJSON(ctx, e.Client, reqURL, map[string]string{"User-Agent": e.Cfg.UserAgent}, &pr); err != nil {
		return 0, fmt.Errorf("Europe PMC search: %w", err)
	}
	return pr.HitCount, nil
}

type europePMCResponse struct {
	HitCount int `json:"hitCount"`
}
