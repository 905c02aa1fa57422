// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/repurpose-engine/internal/adapters"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// enrichDrug runs the drug branch: identity lookup, then affinity,
// annotation, trial, and patent collection. A failed identity lookup
// degrades to the raw input name; every other failure leaves its field
// empty.
func (p *Pipeline) enrichDrug(ctx context.Context, query, name string) *types.EnrichmentRecord {
	cfg := p.Cfg.WithDefaults()
	rec := types.NewEnrichmentRecord(types.InputDrug, query, name)

	if p.Molecules != nil {
		mol, err := p.Molecules.LookupMolecule(ctx, name)
		if err != nil {
			p.warnSkip("molecule_lookup", err)
		} else {
			rec.MoleculeID = mol.ID
			rec.SMILES = mol.SMILES
			if mol.Name != "" {
				rec.Name = mol.Name
			}
			p.logger().Info("molecule resolved",
				zap.String("id", mol.ID),
				zap.String("name", rec.Name))
		}
	}

	if p.Affinities != nil && rec.SMILES != "" {
		affs, err := p.Affinities.TargetAffinities(ctx, rec.SMILES, cfg.AffinityCutoffUM)
		if err != nil {
			p.warnSkip("target_affinities", err)
		} else {
			rec.Affinities = topAffinities(affs, cfg.MaxAffinityTargets)
		}
	}

	if p.Molecules != nil && rec.MoleculeID != "" {
		if mechs, err := p.Molecules.Mechanisms(ctx, rec.MoleculeID); err != nil {
			p.warnSkip("mechanisms", err)
		} else {
			rec.Mechanisms = capList(mechs, cfg.MaxListLen)
		}

		if inds, err := p.Molecules.Indications(ctx, rec.MoleculeID); err != nil {
			p.warnSkip("indications", err)
		} else {
			rec.Indications = capList(inds, cfg.MaxListLen)
		}

		if warns, err := p.Molecules.Warnings(ctx, rec.MoleculeID); err != nil {
			p.warnSkip("warnings", err)
		} else {
			rec.Warnings = capList(warns, cfg.MaxListLen)
		}
	}

	if p.Molecules != nil && rec.SMILES != "" {
		if similar, err := p.Molecules.Similar(ctx, rec.SMILES, cfg.SimilarityThreshold); err != nil {
			p.warnSkip("similarity", err)
		} else {
			rec.Similar = capList(similar, cfg.MaxListLen)
		}
	}

	if p.Trials != nil {
		trials, err := p.Trials.Search(ctx, adapters.TrialFilters{
			Intervention: rec.Name,
			MaxResults:   cfg.MaxListLen,
		})
		if err != nil {
			p.warnSkip("clinical_trials", err)
		} else {
			rec.Trials = capList(trials, cfg.MaxListLen)
		}
	}

	if p.Patents != nil {
		patents, err := p.Patents.Search(ctx, rec.Name, cfg.MaxListLen, time.Time{})
		if err != nil {
			p.warnSkip("patents", err)
		} else {
			rec.Patents = capList(patents, cfg.MaxListLen)
		}
	}

	return rec
}

// topAffinities sorts ascending by normalized micromolar affinity, placing
// unparsed values last, and keeps the best k.
func topAffinities(affs []types.TargetAffinity, k int) []types.TargetAffinity {
	sorted := make([]types.TargetAffinity, len(affs))
	copy(sorted, affs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return affinityKey(sorted[i]) < affinityKey(sorted[j])
	})
	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}

func affinityKey(a types.TargetAffinity) float64 {
	if a.NormalizedUM <= 0 {
		return math.Inf(1)
	}
	return a.NormalizedUM
}

// capList bounds a result list without mutating the input.
func capList[T any](list []T, max int) []T {
	if list == nil {
		return []T{}
	}
	if len(list) > max {
		return list[:max]
	}
	return list
}
