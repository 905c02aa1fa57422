// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adapters

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/repurpose-engine/internal/httputil"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// patentsViewAPIBase is the PatentsView patent search endpoint. Declared as a
// var so tests can substitute an httptest server.
var patentsViewAPIBase = "https://search.patentsview.org/api/v1/patent/"

// patentsViewFields lists the fields requested from the API.
const patentsViewFields = `["patent_id","patent_title","patent_abstract","patent_date","assignees.assignee_organization","inventors.inventor_name_last"]`

// PatentsView searches granted US patents by keyword for the prior-art
// landscape (R7).
type PatentsView struct {
	Client *http.Client
	APIKey string
	Cfg    types.EnrichmentConfig
}

// Name returns the adapter identifier.
func (p *PatentsView) Name() string { return "patentsview" }

// Search queries patent titles and abstracts for the keyword, optionally
// restricted to patents granted on or after fromDate (R7.1, R7.2).
func (p *PatentsView) Search(ctx context.Context, keyword string, maxResults int, fromDate time.Time) ([]types.Patent, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, fmt.Errorf("empty patent keyword")
	}

	if maxResults <= 0 {
		maxResults = 20
	}
	if maxResults > 1000 {
		maxResults = 1000
	}

	params := url.Values{
		"q": {buildPatentQuery(keyword, fromDate)},
		"f": {patentsViewFields},
		"o": {fmt.Sprintf(`{"per_page":%d}`, maxResults)},
	}
	reqURL := patentsViewAPIBase + "?" + params.Encode()

	headers := map[string]string{"User-Agent": p.Cfg.UserAgent}
	if p.APIKey != "" {
		headers["X-Api-Key"] = p.APIKey
	}

	var pvr patentsViewResponse
	if err := httputil.GetJSON(ctx, p.Client, reqURL, headers, &pvr); err != nil {
		return nil, fmt.Errorf("PatentsView search: %w", err)
	}

	patents := make([]types.Patent, 0, len(pvr.Patents))
	for _, raw := range pvr.Patents {
		patent := types.Patent{
			// US prefix matches how the IDs are cited downstream.
			ID:        "US" + raw.PatentID,
			Title:     raw.PatentTitle,
			Abstract:  raw.PatentAbstract,
			Assignees: []string{},
			Inventors: []string{},
		}
		for _, a := range raw.Assignees {
			if a.AssigneeOrganization != "" {
				patent.Assignees = append(patent.Assignees, a.AssigneeOrganization)
			}
		}
		for _, inv := range raw.Inventors {
			if inv.InventorNameLast != "" {
				patent.Inventors = append(patent.Inventors, inv.InventorNameLast)
			}
		}
		if raw.PatentDate != "" {
			if d, err := time.Parse("2006-01-02", raw.PatentDate); err == nil {
				patent.Date = d
			}
		}
		patents = append(patents, patent)
	}
	return patents, nil
}

// buildPatentQuery constructs the JSON query parameter: keyword text match on
// title and abstract, AND-combined with an optional grant-date floor.
func buildPatentQuery(keyword string, fromDate time.Time) string {
	textCond := fmt.Sprintf(`{"_or":[{"_text_any":{"patent_title":"%s"}},{"_text_any":{"patent_abstract":"%s"}}]}`,
		escapeJSON(keyword), escapeJSON(keyword))

	if fromDate.IsZero() {
		return textCond
	}
	dateCond := fmt.Sprintf(`{"_gte":{"patent_date":"%s"}}`, fromDate.Format("2006-01-02"))
	return fmt.Sprintf(`{"_and":[%s,%s]}`, textCond, dateCond)
}

// escapeJSON escapes a string for safe inclusion in a JSON string value.
func escapeJSON(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// PatentsView API JSON structures.
type patentsViewResponse struct {
	Patents []patentsViewPatent `json:"patents"`
	Count   int                 `json:"count"`
}

type patentsViewPatent struct {
	PatentID       string `json:"patent_id"`
	PatentTitle    string `json:"patent_title"`
	PatentAbstract string `json:"patent_abstract"`
	PatentDate     string `json:"patent_date"`
	Assignees      []struct {
		AssigneeOrganization string `json:"assignee_organization"`
	} `json:"assignees"`
	Inventors []struct {
		InventorNameLast string `json:"inventor_name_last"`
	} `json:"inventors"`
}
