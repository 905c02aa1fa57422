// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adapters

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/repurpose-engine/internal/httputil"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// clinicalTrialsAPIBase is the ClinicalTrials.gov v2 studies endpoint.
// Declared as a var so tests can substitute an httptest server.
var clinicalTrialsAPIBase = "https://clinicaltrials.gov/api/v2/studies"

// trialsMaxPageSize is the hard page-size cap the registry enforces.
const trialsMaxPageSize = 50

// TrialFilters holds the structured study-search parameters (R6.1).
type TrialFilters struct {
	Condition    string
	Intervention string
	Status       []string
	MaxResults   int
}

// ClinicalTrials queries the ClinicalTrials.gov v2 registry (R6).
type ClinicalTrials struct {
	Client *http.Client
	Cfg    types.EnrichmentConfig
}

// Name returns the adapter identifier.
func (t *ClinicalTrials) Name() string { return "clinical_trials" }

// Search returns registered studies matching the filters. The registry's
// nested protocol sections are flattened into Trial records (R6.2, R6.3).
func (t *ClinicalTrials) Search(ctx context.Context, filters TrialFilters) ([]types.Trial, error) {
	if filters.Condition == "" && filters.Intervention == "" {
		return nil, fmt.Errorf("trial search needs a condition or an intervention")
	}

	pageSize := filters.MaxResults
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > trialsMaxPageSize {
		pageSize = trialsMaxPageSize
	}

	params := url.Values{
		"format":   {"json"},
		"pageSize": {strconv.Itoa(pageSize)},
	}
	if filters.Condition != "" {
		params.Set("query.cond", filters.Condition)
	}
	if filters.Intervention != "" {
		params.Set("query.intr", filters.Intervention)
	}
	if len(filters.Status) > 0 {
		status := filters.Status[0]
		for _, s := range filters.Status[1:] {
			status += "," + s
		}
		params.Set("filter.overallStatus", status)
	}

	reqURL := clinicalTrialsAPIBase + "?" + params.Encode()

	var tr trialsResponse
	if err := httputil.GetJSON(ctx, t.Client, reqURL, map[string]string{"User-Agent": t.Cfg.UserAgent}, &tr); err != nil {
		return nil, fmt.Errorf("ClinicalTrials.gov search: %w", err)
	}

	trials := make([]types.Trial, 0, len(tr.Studies))
	for _, study := range tr.Studies {
		p := study.ProtocolSection

		title := p.IdentificationModule.BriefTitle
		if title == "" {
			title = p.IdentificationModule.OfficialTitle
		}

		trial := types.Trial{
			ID:            p.IdentificationModule.NCTID,
			Title:         title,
			Status:        p.StatusModule.OverallStatus,
			Phases:        p.DesignModule.Phases,
			Conditions:    p.ConditionsModule.Conditions,
			Interventions: []string{},
		}
		for _, iv := range p.ArmsInterventionsModule.Interventions {
			trial.Interventions = append(trial.Interventions, iv.Name)
		}
		if trial.Phases == nil {
			trial.Phases = []string{}
		}
		if trial.Conditions == nil {
			trial.Conditions = []string{}
		}
		trials = append(trials, trial)
	}
	return trials, nil
}

// ClinicalTrials.gov v2 JSON structures (only the fields the pipeline reads).
type trialsResponse struct {
	Studies []trialStudy `json:"studies"`
}

type trialStudy struct {
	ProtocolSection struct {
		IdentificationModule struct {
			NCTID         string `json:"nctId"`
			BriefTitle    string `json:"briefTitle"`
			OfficialTitle string `json:"officialTitle"`
		} `json:"identificationModule"`
		StatusModule struct {
			OverallStatus string `json:"overallStatus"`
		} `json:"statusModule"`
		DesignModule struct {
			Phases []string `json:"phases"`
		} `json:"designModule"`
		ConditionsModule struct {
			Conditions []string `json:"conditions"`
		} `json:"conditionsModule"`
		ArmsInterventionsModule struct {
			Interventions []struct {
				Name string `json:"name"`
			} `json:"interventions"`
		} `json:"armsInterventionsModule"`
	} `json:"protocolSection"`
}
