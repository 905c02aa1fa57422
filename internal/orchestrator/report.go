// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import (
	"fmt"
	"strings"

	"github.com/pdiddy/repurpose-engine/internal/scoring"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// emptySlotText marks a report section whose task produced no data. The
// policy is uniform: sections are always printed, never silently skipped.
const emptySlotText = "No data available for this section."

// reportSections fixes the synthesis read order. Completion order of the
// collector tasks never changes the report structure.
var reportSections = []struct {
	Slot  string
	Title string
}{
	{SlotWebIntel, "Web Intelligence Findings"},
	{SlotPatents, "Patent Prior-Art Insights"},
	{SlotTrials, "Clinical Trial Intelligence"},
	{SlotInterpretation, "Enrichment Interpretation"},
	{SlotMarket, "Market and Competitive Landscape"},
	{SlotTrade, "Import-Export Trade Summary"},
	{SlotPathway, "Target-Disease Mechanistic Validation"},
	{SlotStrategy, "Repurposing Strategy and Ranking"},
}

// SynthesisPrompt builds the report agent's prompt from every slot in the
// fixed section order.
func SynthesisPrompt(rc *ResearchContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Synthesize the following research findings into a polished executive report for %q.\n", rc.Query)
	b.WriteString("Preserve the section order below. Do not speculate; where a section reports a data gap, summarize the gap briefly.\n")

	for _, section := range reportSections {
		fmt.Fprintf(&b, "\n%s:\n", section.Title)
		if text, ok := rc.Slot(section.Slot); ok && strings.TrimSpace(text) != "" {
			b.WriteString(text)
		} else {
			b.WriteString(emptySlotText)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FinalizeReport appends the deterministic feasibility line to the report
// agent's output. The score comes from the scoring engine, never from the
// model, so the terminal line is reproducible for identical enrichment data.
func FinalizeReport(reportText string, rec *types.EnrichmentRecord) string {
	text := strings.TrimSpace(reportText)
	if text == "" {
		text = emptySlotText
	}
	return fmt.Sprintf("%s\n\nOverall feasibility score: %.3f\n", text, OverallFeasibility(rec))
}

// OverallFeasibility reduces the enrichment record to one bounded score. On
// the disease branch it scores the top-ranked candidate; on the drug branch
// it scores the entity itself from its affinity and safety evidence.
func OverallFeasibility(rec *types.EnrichmentRecord) float64 {
	if rec == nil {
		return 0
	}

	if rec.InputType == types.InputDisease {
		if len(rec.Candidates) == 0 {
			return 0
		}
		top := rec.Candidates[0]
		overlap := 0.0
		for _, hit := range top.TargetsHit {
			overlap += hit.AssociationScore
		}
		if overlap > 1 {
			overlap = 1
		}
		return scoring.Feasibility(scoring.Inputs{
			TargetOverlap:   overlap,
			Affinities:      top.Affinities,
			LiteratureCount: top.LiteratureCount,
			SafetyFlags:     top.Warnings,
		})
	}

	return scoring.Feasibility(scoring.Inputs{
		Affinities:  rec.Affinities,
		SafetyFlags: rec.Warnings,
	})
}
