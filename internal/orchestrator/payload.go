// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import (
	"encoding/json"
	"fmt"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// truncationMarker terminates a payload cut at the character budget so the
// consuming agent knows data is missing rather than malformed.
const truncationMarker = "\n[payload truncated at character budget]"

// SerializeRecord renders the enrichment record to canonical indented JSON,
// truncated to at most budget characters plus the truncation marker.
func SerializeRecord(rec *types.EnrichmentRecord, budget int) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("nil enrichment record")
	}
	if budget <= 0 {
		budget = 100000
	}

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing enrichment record: %w", err)
	}

	s := string(out)
	if len(s) > budget {
		s = s[:budget] + truncationMarker
	}
	return s, nil
}
