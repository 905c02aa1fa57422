// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/repurpose-engine/internal/scoring"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// enrichDisease runs the disease branch: target association, candidate pool
// construction, bounded-parallel candidate enrichment, then ranking. The
// pool deduplicates by candidate identifier; a drug hitting several
// associated targets appears once with every hit accumulated.
func (p *Pipeline) enrichDisease(ctx context.Context, query, name string) *types.EnrichmentRecord {
	cfg := p.Cfg.WithDefaults()
	rec := types.NewEnrichmentRecord(types.InputDisease, query, name)

	if p.Targets == nil {
		return rec
	}
	targets, err := p.Targets.AssociatedTargets(ctx, name, cfg.MaxDiseaseTargets)
	if err != nil {
		p.warnSkip("associated_targets", err)
		return rec
	}
	rec.DiseaseTargets = targets

	pool := p.buildCandidatePool(ctx, targets, cfg)
	if len(pool) == 0 {
		return rec
	}

	p.enrichCandidates(ctx, name, pool, cfg)

	for i := range pool {
		pool[i].RankScore = scoring.RankScore(pool[i])
	}
	scoring.SortCandidates(pool)
	rec.Candidates = pool

	p.logger().Info("candidate pool ranked",
		zap.Int("targets", len(targets)),
		zap.Int("candidates", len(pool)))
	return rec
}

// buildCandidatePool expands the top associated targets into a deduplicated
// candidate pool in discovery order.
func (p *Pipeline) buildCandidatePool(ctx context.Context, targets []types.AssociatedTarget, cfg types.EnrichmentConfig) []types.DrugCandidate {
	if p.Molecules == nil {
		return nil
	}

	expand := targets
	if len(expand) > cfg.MaxTargetsExpanded {
		expand = expand[:cfg.MaxTargetsExpanded]
	}

	index := make(map[string]int)
	var pool []types.DrugCandidate

	for _, target := range expand {
		drugs, err := p.Molecules.DrugsForTarget(ctx, target.TargetID)
		if err != nil {
			p.warnSkip("drugs_for_target", err)
			continue
		}
		if len(drugs) > cfg.MaxCandidatesPerTarget {
			drugs = drugs[:cfg.MaxCandidatesPerTarget]
		}

		hit := types.CandidateTargetHit{
			Symbol:           target.Symbol,
			AssociationScore: target.AssociationScore,
		}
		for _, drug := range drugs {
			if i, ok := index[drug.ID]; ok {
				pool[i].TargetsHit = append(pool[i].TargetsHit, hit)
				continue
			}
			index[drug.ID] = len(pool)
			pool = append(pool, types.DrugCandidate{
				ID:          drug.ID,
				Name:        drug.ID,
				TargetsHit:  []types.CandidateTargetHit{hit},
				Affinities:  []types.TargetAffinity{},
				Mechanisms:  []types.Mechanism{},
				Indications: []string{},
				Warnings:    []types.DrugWarning{},
			})
		}
	}
	return pool
}

// enrichCandidates fills molecule metadata, annotations, and literature
// counts for every pool entry. Candidates are processed concurrently with a
// bounded worker count; each goroutine writes only its own pool slot.
func (p *Pipeline) enrichCandidates(ctx context.Context, disease string, pool []types.DrugCandidate, cfg types.EnrichmentConfig) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.CandidateWorkers)

	for i := range pool {
		i := i
		g.Go(func() error {
			p.enrichCandidate(gctx, disease, &pool[i], cfg)
			return nil
		})
	}
	// Worker funcs contain their own failures and never return an error.
	_ = g.Wait()
}

func (p *Pipeline) enrichCandidate(ctx context.Context, disease string, c *types.DrugCandidate, cfg types.EnrichmentConfig) {
	mol, err := p.Molecules.GetMolecule(ctx, c.ID)
	if err != nil {
		p.warnSkip("candidate_molecule", err)
	} else {
		if mol.Name != "" {
			c.Name = mol.Name
		}
		c.SMILES = mol.SMILES
	}

	if p.Affinities != nil && c.SMILES != "" {
		if affs, err := p.Affinities.TargetAffinities(ctx, c.SMILES, cfg.AffinityCutoffUM); err != nil {
			p.warnSkip("candidate_affinities", err)
		} else {
			c.Affinities = topAffinities(affs, cfg.MaxAffinityTargets)
		}
	}

	if mechs, err := p.Molecules.Mechanisms(ctx, c.ID); err != nil {
		p.warnSkip("candidate_mechanisms", err)
	} else {
		c.Mechanisms = capList(mechs, cfg.MaxListLen)
	}

	if inds, err := p.Molecules.Indications(ctx, c.ID); err != nil {
		p.warnSkip("candidate_indications", err)
	} else {
		c.Indications = capList(inds, cfg.MaxListLen)
	}

	if warns, err := p.Molecules.Warnings(ctx, c.ID); err != nil {
		p.warnSkip("candidate_warnings", err)
	} else {
		c.Warnings = capList(warns, cfg.MaxListLen)
	}

	if p.Literature != nil {
		if count, err := p.Literature.CountLiterature(ctx, disease+" AND "+c.Name); err != nil {
			p.warnSkip("candidate_literature", err)
		} else {
			c.LiteratureCount = count
		}
	}
}
