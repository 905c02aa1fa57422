// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scoring converts enrichment signals into repurposing scores using
// fixed, auditable weights. The rubrics here are designed constants, not
// tunable model parameters; changing a weight is a behavior change.
// Implements: prd012-scoring (R1-R4);
//
//	docs/ARCHITECTURE § Scoring.
package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// Inputs carries the signals for one feasibility computation. TargetOverlap
// and MoARelevance are caller-supplied confidences in [0, 1]. When
// PotencyConfidence is nil it is derived from Affinities.
type Inputs struct {
	TargetOverlap     float64
	PotencyConfidence *float64
	MoARelevance      float64
	LiteratureCount   int
	SafetyFlags       []types.DrugWarning
	Affinities        []types.TargetAffinity
}

// Feasibility computes the bounded repurposing feasibility score:
//
//	0.30*target_overlap + 0.30*potency + 0.20*moa + 0.10*literature + 0.10*safety
//
// The result is clamped to [0, 1] and rounded to 3 decimals (R1.1-R1.5).
func Feasibility(in Inputs) float64 {
	potency := 0.0
	switch {
	case in.PotencyConfidence != nil:
		potency = *in.PotencyConfidence
	case len(in.Affinities) > 0:
		potency = PotencyConfidence(in.Affinities)
	}

	score := 0.30*in.TargetOverlap +
		0.30*potency +
		0.20*in.MoARelevance +
		0.10*LiteratureScore(in.LiteratureCount) +
		0.10*SafetyScore(in.SafetyFlags)

	return round3(math.Min(1.0, math.Max(0.0, score)))
}

// LiteratureScore maps a supporting-paper count onto a saturating log scale:
// min(1, log10(count+1)/3). Roughly 100 papers ≈ 0.67 and 1000 ≈ 1.0 (R1.3).
func LiteratureScore(count int) float64 {
	if count <= 0 {
		return 0.0
	}
	return math.Min(1.0, math.Log10(float64(count)+1)/3.0)
}

// SafetyScore is the inverse of the accumulated safety risk. No warnings
// means 1.0 (R1.4).
func SafetyScore(flags []types.DrugWarning) float64 {
	if len(flags) == 0 {
		return 1.0
	}
	return 1.0 - SafetyRisk(flags)
}

// SafetyRisk accumulates fixed penalties per warning record, capped at 1.0:
// withdrawal or boxed warning +0.5, any "severe" class token +0.3, generic
// warning or caution +0.1 (R1.4).
func SafetyRisk(flags []types.DrugWarning) float64 {
	risk := 0.0
	for _, f := range flags {
		warningType := strings.ToLower(f.Type)
		warningClass := strings.ToLower(f.Class)

		switch {
		case warningType == "withdrawn" || warningType == "black_box":
			risk += 0.5
		case strings.Contains(warningClass, "severe"):
			risk += 0.3
		case warningType == "warning" || warningType == "caution":
			risk += 0.1
		}
	}
	return math.Min(1.0, risk)
}

// PotencyConfidence derives a binding-potency confidence in [0, 1] from raw
// affinity records. Every value is normalized to nanomolar, mapped to a
// confidence tier (<10 nM → 1.0, <100 nM → 0.8, <1000 nM → 0.6,
// <10000 nM → 0.3, else 0.1), and the tiers are averaged. Records without a
// parseable value are skipped; with none parseable the confidence is 0 (R2).
func PotencyConfidence(affinities []types.TargetAffinity) float64 {
	var tiers []float64
	for _, a := range affinities {
		if a.AffinityValue <= 0 {
			continue
		}
		tiers = append(tiers, potencyTier(toNanomolar(a.AffinityValue, a.AffinityUnit)))
	}
	if len(tiers) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, s := range tiers {
		sum += s
	}
	return round3(sum / float64(len(tiers)))
}

func potencyTier(nm float64) float64 {
	switch {
	case nm < 10:
		return 1.0
	case nm < 100:
		return 0.8
	case nm < 1000:
		return 0.6
	case nm < 10000:
		return 0.3
	default:
		return 0.1
	}
}

// toNanomolar converts an affinity value to nM. Unrecognized units are
// treated as nM, matching the upstream convention.
func toNanomolar(value float64, unit string) float64 {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "um", "µm", "μm":
		return value * 1000
	case "mm":
		return value * 1e6
	default:
		return value
	}
}

// NormalizeUM converts an affinity value to micromolar for storage on
// TargetAffinity records (R2.3).
func NormalizeUM(value float64, unit string) float64 {
	return toNanomolar(value, unit) / 1000
}

// RankScore computes the additive pool-ranking score for one disease-branch
// candidate (R3):
//
//	sum(association scores of hit targets)*5 + affinity bonus
//	  + literature bonus − warning count
//
// It is unbounded and only meaningful relative to other candidates in the
// same pool.
func RankScore(c types.DrugCandidate) float64 {
	score := 0.0
	for _, hit := range c.TargetsHit {
		score += hit.AssociationScore * 5
	}
	score += affinityBonus(c.Affinities)
	score += literatureBonus(c.LiteratureCount)
	score -= float64(len(c.Warnings))
	return score
}

// affinityBonus rewards the candidate's single best affinity: 2.0 below
// 0.1 µM, 1.0 below 1 µM, otherwise 0.
func affinityBonus(affinities []types.TargetAffinity) float64 {
	best := math.Inf(1)
	for _, a := range affinities {
		if a.AffinityValue <= 0 {
			continue
		}
		if um := NormalizeUM(a.AffinityValue, a.AffinityUnit); um < best {
			best = um
		}
	}
	switch {
	case best < 0.1:
		return 2.0
	case best < 1.0:
		return 1.0
	default:
		return 0.0
	}
}

// literatureBonus rewards supporting literature in coarse steps.
func literatureBonus(count int) float64 {
	switch {
	case count > 100:
		return 3.0
	case count > 50:
		return 2.0
	case count > 10:
		return 1.0
	case count > 0:
		return 0.5
	default:
		return 0.0
	}
}

// SortCandidates orders a candidate pool descending by rank score. The sort
// is stable so ties keep their discovery order (R3.4).
func SortCandidates(pool []types.DrugCandidate) {
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].RankScore > pool[j].RankScore
	})
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
