// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adapters

import (
	"context"
	"fmt"
	"math"
	"net/http"

	"github.com/pdiddy/repurpose-engine/internal/httputil"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// openTargetsAPIBase is the Open Targets GraphQL endpoint. Declared as a var
// so tests can substitute an httptest server.
var openTargetsAPIBase = "https://api.platform.opentargets.org/api/v4/graphql"

const diseaseSearchQuery = `query searchDisease($queryString: String!) {
  search(queryString: $queryString, entityNames: ["disease"], page: {index: 0, size: 1}) {
    hits { id name }
  }
}`

const diseaseTargetsQuery = `query getDiseaseTargets($efoId: String!, $size: Int!) {
  disease(efoId: $efoId) {
    associatedTargets(page: {index: 0, size: $size}) {
      rows {
        target { id approvedSymbol approvedName biotype }
        score
      }
    }
  }
}`

// OpenTargets resolves a disease name to its associated protein targets via
// the Open Targets GraphQL API (R4). The lookup is two requests: a disease
// search for the EFO identifier, then the associated-target page.
type OpenTargets struct {
	Client *http.Client
	Cfg    types.EnrichmentConfig
}

// Name returns the adapter identifier.
func (o *OpenTargets) Name() string { return "open_targets" }

// AssociatedTargets returns up to limit targets associated with the disease,
// ordered by association score as the platform ranks them. Association
// scores are rounded to 3 decimals (R4.2).
func (o *OpenTargets) AssociatedTargets(ctx context.Context, diseaseName string, limit int) ([]types.AssociatedTarget, error) {
	if diseaseName == "" {
		return nil, fmt.Errorf("empty disease name")
	}
	if limit <= 0 {
		limit = 10
	}

	headers := map[string]string{"User-Agent": o.Cfg.UserAgent}

	searchReq := graphqlRequest{
		Query:     diseaseSearchQuery,
		Variables: map[string]any{"queryString": diseaseName},
	}
	var searchResp diseaseSearchResponse
	if err := httputil.PostJSON(ctx, o.Client, openTargetsAPIBase, headers, searchReq, &searchResp); err != nil {
		return nil, fmt.Errorf("Open Targets disease search: %w", err)
	}
	if len(searchResp.Errors) > 0 {
		return nil, fmt.Errorf("Open Targets disease search: %s", searchResp.Errors[0].Message)
	}
	if len(searchResp.Data.Search.Hits) == 0 {
		return nil, fmt.Errorf("disease %q not found in Open Targets", diseaseName)
	}
	efoID := searchResp.Data.Search.Hits[0].ID

	targetsReq := graphqlRequest{
		Query:     diseaseTargetsQuery,
		Variables: map[string]any{"efoId": efoID, "size": limit},
	}
	var targetsResp diseaseTargetsResponse
	if err := httputil.PostJSON(ctx, o.Client, openTargetsAPIBase, headers, targetsReq, &targetsResp); err != nil {
		return nil, fmt.Errorf("Open Targets associated targets: %w", err)
	}
	if len(targetsResp.Errors) > 0 {
		return nil, fmt.Errorf("Open Targets associated targets: %s", targetsResp.Errors[0].Message)
	}

	rows := targetsResp.Data.Disease.AssociatedTargets.Rows
	targets := make([]types.AssociatedTarget, 0, len(rows))
	for _, row := range rows {
		if row.Target.ID == "" {
			continue
		}
		targets = append(targets, types.AssociatedTarget{
			TargetID:         row.Target.ID,
			Symbol:           row.Target.ApprovedSymbol,
			Name:             row.Target.ApprovedName,
			Biotype:          row.Target.Biotype,
			AssociationScore: math.Round(row.Score*1000) / 1000,
		})
	}
	if len(targets) > limit {
		targets = targets[:limit]
	}
	return targets, nil
}

// Open Targets GraphQL structures.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type diseaseSearchResponse struct {
	Data struct {
		Search struct {
			Hits []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"hits"`
		} `json:"search"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

type diseaseTargetsResponse struct {
	Data struct {
		Disease struct {
			AssociatedTargets struct {
				Rows []struct {
					Target struct {
						ID             string `json:"id"`
						ApprovedSymbol string `json:"approvedSymbol"`
						ApprovedName   string `json:"approvedName"`
						Biotype        string `json:"biotype"`
					} `json:"target"`
					Score float64 `json:"score"`
				} `json:"rows"`
			} `json:"associatedTargets"`
		} `json:"disease"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}
