// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adapters

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/repurpose-engine/internal/httputil"
	"github.com/pdiddy/repurpose-engine/internal/scoring"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// bindingDBAPIBase is the BindingDB REST endpoint. Declared as a var so tests
// can substitute an httptest server.
var bindingDBAPIBase = "https://bindingdb.org/rest/getTargetByCompound"

// BindingDB queries BindingDB for protein targets with measured binding
// affinity against a compound structure (R3).
type BindingDB struct {
	Client *http.Client
	Cfg    types.EnrichmentConfig
}

// Name returns the adapter identifier.
func (b *BindingDB) Name() string { return "bindingdb" }

// TargetAffinities fetches every target with a reported affinity for the
// SMILES structure, filtered server-side by cutoffUM (µM). Each affinity
// read becomes its own record; values reported with a > or < qualifier are
// kept and marked approximate. NormalizedUM is filled from the reported
// value and unit (R3.1-R3.3).
func (b *BindingDB) TargetAffinities(ctx context.Context, smiles string, cutoffUM float64) ([]types.TargetAffinity, error) {
	if smiles == "" {
		return nil, fmt.Errorf("empty SMILES")
	}

	params := url.Values{
		"smiles":   {smiles},
		"cutoff":   {strconv.FormatFloat(cutoffUM, 'f', -1, 64)},
		"response": {"application/json"},
	}
	reqURL := bindingDBAPIBase + "?" + params.Encode()

	var br bindingDBResponse
	if err := httputil.GetJSON(ctx, b.Client, reqURL, map[string]string{"User-Agent": b.Cfg.UserAgent}, &br); err != nil {
		return nil, fmt.Errorf("BindingDB request: %w", err)
	}

	var affinities []types.TargetAffinity
	for _, aff := range br.Affinities {
		value, approximate, ok := parseAffinity(aff.Affinity)
		for _, target := range aff.TargetData {
			record := types.TargetAffinity{
				TargetName:   target.TargetName,
				UniprotID:    target.UniprotID,
				Species:      target.TargetSpecies,
				AffinityType: aff.AffinityType,
				AffinityUnit: aff.AffinityUnit,
				Source:       aff.Source,
				Approximate:  approximate,
			}
			if ok {
				record.AffinityValue = value
				record.NormalizedUM = scoring.NormalizeUM(value, aff.AffinityUnit)
			}
			affinities = append(affinities, record)
		}
	}
	return affinities, nil
}

// parseAffinity reads a reported affinity value, tolerating > and <
// qualifiers. The second return reports whether a qualifier was present,
// the third whether a numeric value was parsed at all.
func parseAffinity(raw string) (float64, bool, bool) {
	s := strings.TrimSpace(raw)
	approximate := false
	if strings.HasPrefix(s, ">") || strings.HasPrefix(s, "<") {
		approximate = true
		s = strings.TrimSpace(s[1:])
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, approximate, false
	}
	return v, approximate, true
}

// BindingDB API JSON structures.
type bindingDBResponse struct {
	Affinities []bindingDBAffinity `json:"affinities"`
}

type bindingDBAffinity struct {
	AffinityType string              `json:"affinity_type"`
	Affinity     string              `json:"affinity"`
	AffinityUnit string              `json:"affinity_unit"`
	Source       string              `json:"source"`
	TargetData   []bindingDBTarget   `json:"target_data"`
}

type bindingDBTarget struct {
	TargetName    string `json:"target_name"`
	UniprotID     string `json:"uniprot_id"`
	TargetSpecies string `json:"target_species"`
}
