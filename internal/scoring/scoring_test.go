// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"math"
	"testing"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFeasibility_AllSignalsMax(t *testing.T) {
	one := 1.0
	got := Feasibility(Inputs{
		TargetOverlap:     1,
		PotencyConfidence: &one,
		MoARelevance:      1,
		LiteratureCount:   1000,
		SafetyFlags:       nil,
	})
	// literature: min(1, log10(1001)/3) ≈ 1.0, safety: 1.0 → total 1.000.
	if got != 1.000 {
		t.Errorf("Feasibility = %v, want 1.000", got)
	}
}

func TestFeasibility_ZeroSignals(t *testing.T) {
	got := Feasibility(Inputs{})
	// Only the no-warnings safety term contributes: 0.10 * 1.0.
	if got != 0.100 {
		t.Errorf("Feasibility = %v, want 0.100", got)
	}
}

func TestFeasibility_DerivesPotencyFromAffinities(t *testing.T) {
	got := Feasibility(Inputs{
		TargetOverlap: 1,
		Affinities: []types.TargetAffinity{
			{AffinityValue: 10, AffinityUnit: "nM"},
			{AffinityValue: 500, AffinityUnit: "nM"},
		},
	})
	// potency = (0.8 + 0.6)/2 = 0.7 → 0.30 + 0.30*0.7 + 0.10 = 0.610.
	if got != 0.610 {
		t.Errorf("Feasibility = %v, want 0.610", got)
	}
}

func TestLiteratureScore(t *testing.T) {
	tests := []struct {
		count int
		want  float64
	}{
		{0, 0.0},
		{-3, 0.0},
		{9, math.Log10(10) / 3.0},
		{999, 1.0},
		{1000000, 1.0},
	}
	for _, tt := range tests {
		if got := LiteratureScore(tt.count); !almostEqual(got, tt.want) {
			t.Errorf("LiteratureScore(%d) = %v, want %v", tt.count, got, tt.want)
		}
	}
}

func TestSafetyRisk(t *testing.T) {
	tests := []struct {
		name  string
		flags []types.DrugWarning
		want  float64
	}{
		{"empty", nil, 0.0},
		{"withdrawn", []types.DrugWarning{{Type: "withdrawn"}}, 0.5},
		{"black box", []types.DrugWarning{{Type: "black_box"}}, 0.5},
		{"severe class", []types.DrugWarning{{Type: "other", Class: "Severe cutaneous reaction"}}, 0.3},
		{"generic warning", []types.DrugWarning{{Type: "warning"}}, 0.1},
		{"caution", []types.DrugWarning{{Type: "Caution"}}, 0.1},
		{"capped", []types.DrugWarning{{Type: "withdrawn"}, {Type: "black_box"}, {Type: "withdrawn"}}, 1.0},
		{"withdrawn beats severe class", []types.DrugWarning{{Type: "withdrawn", Class: "severe"}}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafetyRisk(tt.flags); !almostEqual(got, tt.want) {
				t.Errorf("SafetyRisk = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSafetyScore_SingleSevereWarning(t *testing.T) {
	got := SafetyScore([]types.DrugWarning{{Type: "other", Class: "severe hepatotoxicity"}})
	if !almostEqual(got, 0.7) {
		t.Errorf("SafetyScore = %v, want 0.7", got)
	}
}

func TestPotencyConfidence_Tiers(t *testing.T) {
	tests := []struct {
		name string
		affs []types.TargetAffinity
		want float64
	}{
		{"empty", nil, 0.0},
		{"sub-10nM", []types.TargetAffinity{{AffinityValue: 5, AffinityUnit: "nM"}}, 1.0},
		{"10nM and 500nM average", []types.TargetAffinity{
			{AffinityValue: 10, AffinityUnit: "nM"},
			{AffinityValue: 500, AffinityUnit: "nM"},
		}, 0.7},
		{"micromolar converts", []types.TargetAffinity{{AffinityValue: 0.005, AffinityUnit: "uM"}}, 1.0},
		{"millimolar converts", []types.TargetAffinity{{AffinityValue: 1, AffinityUnit: "mM"}}, 0.1},
		{"unparseable skipped", []types.TargetAffinity{
			{AffinityValue: 0, AffinityUnit: "nM"},
			{AffinityValue: 5, AffinityUnit: "nM"},
		}, 1.0},
		{"all unparseable", []types.TargetAffinity{{AffinityValue: 0}}, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PotencyConfidence(tt.affs); !almostEqual(got, tt.want) {
				t.Errorf("PotencyConfidence = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFeasibility_MetforminScenario(t *testing.T) {
	// Two affinity reads, one in the top tier and one mid-tier:
	// (1.0 + 0.6) / 2 = 0.8. Tier boundaries are strict, so exactly
	// 10 nM would fall into the 0.8 tier.
	got := PotencyConfidence([]types.TargetAffinity{
		{AffinityValue: 9, AffinityUnit: "nM"},
		{AffinityValue: 500, AffinityUnit: "nM"},
	})
	if !almostEqual(got, 0.8) {
		t.Errorf("PotencyConfidence = %v, want 0.8", got)
	}
}

func TestNormalizeUM(t *testing.T) {
	tests := []struct {
		value float64
		unit  string
		want  float64
	}{
		{3, "uM", 3},
		{3, "µM", 3},
		{1500, "nM", 1.5},
		{2, "mM", 2000},
		{250, "", 0.25}, // default nM
	}
	for _, tt := range tests {
		if got := NormalizeUM(tt.value, tt.unit); !almostEqual(got, tt.want) {
			t.Errorf("NormalizeUM(%v, %q) = %v, want %v", tt.value, tt.unit, got, tt.want)
		}
	}
}

func TestRankScore(t *testing.T) {
	c := types.DrugCandidate{
		TargetsHit: []types.CandidateTargetHit{
			{Symbol: "DPP4", AssociationScore: 0.8},
			{Symbol: "PPARG", AssociationScore: 0.4},
		},
		Affinities:      []types.TargetAffinity{{AffinityValue: 50, AffinityUnit: "nM"}}, // 0.05 µM → +2.0
		LiteratureCount: 60,                                                              // → +2.0
		Warnings:        []types.DrugWarning{{Type: "warning"}},                          // → −1.0
	}
	want := (0.8+0.4)*5 + 2.0 + 2.0 - 1.0
	if got := RankScore(c); !almostEqual(got, want) {
		t.Errorf("RankScore = %v, want %v", got, want)
	}
}

func TestRankScore_LiteratureBonusSteps(t *testing.T) {
	tests := []struct {
		count int
		want  float64
	}{
		{0, 0.0},
		{1, 0.5},
		{11, 1.0},
		{51, 2.0},
		{101, 3.0},
	}
	for _, tt := range tests {
		c := types.DrugCandidate{LiteratureCount: tt.count}
		if got := RankScore(c); !almostEqual(got, tt.want) {
			t.Errorf("RankScore(literature=%d) = %v, want %v", tt.count, got, tt.want)
		}
	}
}

func TestSortCandidates_StableOnTies(t *testing.T) {
	pool := []types.DrugCandidate{
		{ID: "A", RankScore: 2.0},
		{ID: "B", RankScore: 5.0},
		{ID: "C", RankScore: 2.0},
	}
	SortCandidates(pool)

	want := []string{"B", "A", "C"}
	for i, id := range want {
		if pool[i].ID != id {
			t.Errorf("pool[%d].ID = %q, want %q", i, pool[i].ID, id)
		}
	}
}
