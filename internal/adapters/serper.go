// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adapters

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/repurpose-engine/internal/httputil"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// serperAPIBase is the Serper web-search endpoint. Declared as a var so tests
// can substitute an httptest server.
var serperAPIBase = "https://google.serper.dev/search"

// TradeFlow selects the direction of a trade query.
type TradeFlow string

const (
	TradeImport TradeFlow = "import"
	TradeExport TradeFlow = "export"
)

// SearchHit is one organic web result used by the narrative agents. The
// market and trade tasks consume titles and snippets; link provenance is
// kept for the report.
type SearchHit struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Serper runs Google web searches through the Serper API for market and
// trade intelligence (R8).
type Serper struct {
	Client *http.Client
	APIKey string
	Cfg    types.EnrichmentConfig
}

// Name returns the adapter identifier.
func (s *Serper) Name() string { return "serper" }

// SearchMarket returns web results for a free-form market query (R8.1).
func (s *Serper) SearchMarket(ctx context.Context, query string) ([]SearchHit, error) {
	return s.search(ctx, query)
}

// SearchTrade returns web results for an import/export trade query built
// from an HS code or product name, a year, and an optional flow (R8.2).
func (s *Serper) SearchTrade(ctx context.Context, hsCodeOrName string, year int, flow TradeFlow) ([]SearchHit, error) {
	parts := []string{hsCodeOrName}
	if flow != "" {
		parts = append(parts, string(flow))
	}
	parts = append(parts, "trade statistics")
	if year > 0 {
		parts = append(parts, fmt.Sprintf("%d", year))
	}
	return s.search(ctx, strings.Join(parts, " "))
}

func (s *Serper) search(ctx context.Context, query string) ([]SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if s.APIKey == "" {
		return nil, fmt.Errorf("serper API key not configured")
	}

	headers := map[string]string{
		"X-API-KEY":  s.APIKey,
		"User-Agent": s.Cfg.UserAgent,
	}
	body := map[string]any{"q": query, "num": 10}

	var sr serperResponse
	if err := httputil.PostJSON(ctx, s.Client, serperAPIBase, headers, body, &sr); err != nil {
		return nil, fmt.Errorf("serper search: %w", err)
	}

	hits := make([]SearchHit, 0, len(sr.Organic))
	for _, o := range sr.Organic {
		hits = append(hits, SearchHit{Title: o.Title, Link: o.Link, Snippet: o.Snippet})
	}
	return hits, nil
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}
