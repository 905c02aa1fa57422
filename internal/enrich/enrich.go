// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich classifies a free-text research query as a drug or a
// disease and drives a fixed sequence of adapter calls to build one
// normalized EnrichmentRecord. No single adapter failure aborts the
// pipeline; every failed call leaves its field empty and is logged.
// Implements: prd011-enrichment (R1-R6); docs/ARCHITECTURE § Enrichment.
package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/repurpose-engine/internal/adapters"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// MoleculeSource resolves molecule identity, annotations, and per-target
// drug candidates. Satisfied by adapters.ChEMBL.
type MoleculeSource interface {
	LookupMolecule(ctx context.Context, name string) (types.Molecule, error)
	GetMolecule(ctx context.Context, id string) (types.Molecule, error)
	Mechanisms(ctx context.Context, id string) ([]types.Mechanism, error)
	Indications(ctx context.Context, id string) ([]string, error)
	Warnings(ctx context.Context, id string) ([]types.DrugWarning, error)
	Similar(ctx context.Context, smiles string, thresholdPercent int) ([]types.SimilarMolecule, error)
	DrugsForTarget(ctx context.Context, targetID string) ([]types.TargetDrug, error)
}

// AffinitySource reports measured target binding affinities for a structure.
// Satisfied by adapters.BindingDB.
type AffinitySource interface {
	TargetAffinities(ctx context.Context, smiles string, cutoffUM float64) ([]types.TargetAffinity, error)
}

// TargetSource resolves a disease name to its associated protein targets.
// Satisfied by adapters.OpenTargets.
type TargetSource interface {
	AssociatedTargets(ctx context.Context, diseaseName string, limit int) ([]types.AssociatedTarget, error)
}

// LiteratureSource counts supporting publications for a boolean query.
// Satisfied by adapters.EuropePMC.
type LiteratureSource interface {
	CountLiterature(ctx context.Context, query string) (int, error)
}

// TrialSource searches registered clinical studies. Satisfied by
// adapters.ClinicalTrials.
type TrialSource interface {
	Search(ctx context.Context, filters adapters.TrialFilters) ([]types.Trial, error)
}

// PatentSource searches granted patents by keyword. Satisfied by
// adapters.PatentsView.
type PatentSource interface {
	Search(ctx context.Context, keyword string, maxResults int, fromDate time.Time) ([]types.Patent, error)
}

// Pipeline holds the adapter set and configuration for one enrichment run.
// Any source left nil is simply skipped, its fields staying empty.
type Pipeline struct {
	Molecules  MoleculeSource
	Affinities AffinitySource
	Targets    TargetSource
	Literature LiteratureSource
	Trials     TrialSource
	Patents    PatentSource

	Cfg types.EnrichmentConfig
	Log *zap.Logger
}

// Run classifies the query and executes the matching branch. The returned
// record is complete even under partial adapter failure; the error is
// non-nil only for an unusable query.
func (p *Pipeline) Run(ctx context.Context, query string) (*types.EnrichmentRecord, error) {
	inputType, name := DetectInputType(query)

	p.logger().Info("enrichment started",
		zap.String("query", query),
		zap.String("input_type", string(inputType)),
		zap.String("entity", name))

	if inputType == types.InputDrug {
		return p.enrichDrug(ctx, query, name), nil
	}
	return p.enrichDisease(ctx, query, name), nil
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}

// warnSkip records a contained adapter failure.
func (p *Pipeline) warnSkip(step string, err error) {
	p.logger().Warn("adapter call failed, field left empty",
		zap.String("step", step),
		zap.Error(err))
}
