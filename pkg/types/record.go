// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the repurpose-engine pipeline.
// Implements: prd011-enrichment (EnrichmentRecord, R1.1-R1.4);
//
//	prd013-adapters (Molecule, TargetAffinity, AssociatedTarget, Trial, Patent);
//	prd012-scoring (DrugCandidate, R3.2).
//
// See docs/ARCHITECTURE.md § Data Structures.
package types

import "time"

// InputType classifies a research query as naming a drug or a disease.
type InputType string

const (
	InputDrug    InputType = "drug"
	InputDisease InputType = "disease"
)

// Molecule is the canonical identity of a small molecule resolved by name.
type Molecule struct {
	// ID is the ChEMBL molecule identifier (e.g. "CHEMBL1431").
	ID string `json:"id" yaml:"id"`

	// SMILES is the canonical structure string. Empty when the source record
	// carries no structure.
	SMILES string `json:"smiles" yaml:"smiles"`

	// Name is the preferred display name resolved by the lookup.
	Name string `json:"name" yaml:"name"`
}

// TargetAffinity is one binding-affinity measurement for a protein target.
type TargetAffinity struct {
	// TargetName is the protein target name as reported by the source.
	TargetName string `json:"target_name" yaml:"target_name"`

	// UniprotID is the target's UniProt accession, when known.
	UniprotID string `json:"uniprot_id,omitempty" yaml:"uniprot_id,omitempty"`

	// Species is the target organism (used to distinguish human targets).
	Species string `json:"species,omitempty" yaml:"species,omitempty"`

	// AffinityType is the measurement kind: Ki, IC50, Kd, EC50.
	AffinityType string `json:"affinity_type" yaml:"affinity_type"`

	// AffinityValue is the reported numeric value in AffinityUnit units.
	AffinityValue float64 `json:"affinity_value" yaml:"affinity_value"`

	// AffinityUnit is the reported unit ("nM", "uM", "mM").
	AffinityUnit string `json:"affinity_unit" yaml:"affinity_unit"`

	// NormalizedUM is AffinityValue converted to micromolar. A value of X µM
	// stays X; X nM becomes X/1000; X mM becomes X*1000.
	NormalizedUM float64 `json:"normalized_um" yaml:"normalized_um"`

	// Approximate marks values the source reported with a > or < qualifier.
	Approximate bool `json:"approximate,omitempty" yaml:"approximate,omitempty"`

	// Source is the provenance of the measurement (PubMed ID or curation set).
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// Mechanism is one mechanism-of-action record for a molecule.
type Mechanism struct {
	ActionType  string `json:"action_type" yaml:"action_type"`
	Description string `json:"description" yaml:"description"`
	TargetID    string `json:"target_id,omitempty" yaml:"target_id,omitempty"`
	TargetName  string `json:"target_name,omitempty" yaml:"target_name,omitempty"`
}

// DrugWarning is one safety warning attached to a molecule.
type DrugWarning struct {
	// Type is the warning category ("withdrawn", "black_box", "warning", "caution").
	Type string `json:"type" yaml:"type"`

	// Class is the toxicity class reported by the source (e.g. "hepatotoxicity; severe").
	Class string `json:"class" yaml:"class"`

	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// SimilarMolecule is a structurally similar molecule reference.
type SimilarMolecule struct {
	ID         string  `json:"id" yaml:"id"`
	Name       string  `json:"name" yaml:"name"`
	Similarity float64 `json:"similarity" yaml:"similarity"`
}

// AssociatedTarget is a disease-associated protein target with its evidence score.
type AssociatedTarget struct {
	TargetID string `json:"target_id" yaml:"target_id"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Biotype  string `json:"biotype,omitempty" yaml:"biotype,omitempty"`

	// AssociationScore is the overall disease-target association in [0, 1].
	AssociationScore float64 `json:"association_score" yaml:"association_score"`
}

// TargetDrug is a molecule known to modulate a specific target.
type TargetDrug struct {
	ID         string `json:"id" yaml:"id"`
	ActionType string `json:"action_type,omitempty" yaml:"action_type,omitempty"`
	Mechanism  string `json:"mechanism,omitempty" yaml:"mechanism,omitempty"`
}

// Trial is a registered clinical study.
type Trial struct {
	ID            string   `json:"id" yaml:"id"`
	Title         string   `json:"title" yaml:"title"`
	Status        string   `json:"status" yaml:"status"`
	Phases        []string `json:"phases" yaml:"phases"`
	Conditions    []string `json:"conditions" yaml:"conditions"`
	Interventions []string `json:"interventions" yaml:"interventions"`
}

// Patent is a granted patent record from the patent search backend.
type Patent struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Abstract  string    `json:"abstract" yaml:"abstract"`
	Date      time.Time `json:"date" yaml:"date"`
	Assignees []string  `json:"assignees" yaml:"assignees"`
	Inventors []string  `json:"inventors" yaml:"inventors"`
}

// CandidateTargetHit records that a drug candidate modulates one of the
// disease's associated targets, with that target's association score.
type CandidateTargetHit struct {
	Symbol           string  `json:"symbol" yaml:"symbol"`
	AssociationScore float64 `json:"association_score" yaml:"association_score"`
}

// DrugCandidate is one entry in the disease branch's candidate pool. A
// candidate appears once regardless of how many associated targets it hits;
// TargetsHit accumulates every hit in discovery order.
type DrugCandidate struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	SMILES string `json:"smiles" yaml:"smiles"`

	TargetsHit  []CandidateTargetHit `json:"targets_hit" yaml:"targets_hit"`
	Affinities  []TargetAffinity     `json:"affinities" yaml:"affinities"`
	Mechanisms  []Mechanism          `json:"mechanisms" yaml:"mechanisms"`
	Indications []string             `json:"indications" yaml:"indications"`
	Warnings    []DrugWarning        `json:"warnings" yaml:"warnings"`

	// LiteratureCount is the number of papers matching "<disease> AND <name>".
	LiteratureCount int `json:"literature_count" yaml:"literature_count"`

	// RankScore orders the candidate pool. It is an unbounded relative score,
	// not a calibrated probability.
	RankScore float64 `json:"rank_score" yaml:"rank_score"`
}

// EnrichmentRecord is the normalized aggregate of all adapter data collected
// for one drug or disease entity. Built once per run by the enrichment
// pipeline and read-only afterward. Every list field is non-nil so consumers
// can iterate unconditionally.
type EnrichmentRecord struct {
	InputType InputType `json:"input_type" yaml:"input_type"`

	// Query is the raw query the record was built from.
	Query string `json:"query" yaml:"query"`

	// Name is the resolved display name, or the cleaned input when the
	// lookup failed (degraded mode).
	Name string `json:"name" yaml:"name"`

	// MoleculeID and SMILES are set on the drug branch when lookup succeeded.
	MoleculeID string `json:"molecule_id,omitempty" yaml:"molecule_id,omitempty"`
	SMILES     string `json:"smiles,omitempty" yaml:"smiles,omitempty"`

	Affinities  []TargetAffinity  `json:"affinities" yaml:"affinities"`
	Mechanisms  []Mechanism       `json:"mechanisms" yaml:"mechanisms"`
	Indications []string          `json:"indications" yaml:"indications"`
	Warnings    []DrugWarning     `json:"warnings" yaml:"warnings"`
	Similar     []SimilarMolecule `json:"similar" yaml:"similar"`
	Trials      []Trial           `json:"trials" yaml:"trials"`
	Patents     []Patent          `json:"patents" yaml:"patents"`

	// DiseaseTargets and Candidates are populated on the disease branch.
	DiseaseTargets []AssociatedTarget `json:"disease_targets" yaml:"disease_targets"`
	Candidates     []DrugCandidate    `json:"candidates" yaml:"candidates"`
}

// NewEnrichmentRecord returns a record with every list initialized empty.
func NewEnrichmentRecord(inputType InputType, query, name string) *EnrichmentRecord {
	return &EnrichmentRecord{
		InputType:      inputType,
		Query:          query,
		Name:           name,
		Affinities:     []TargetAffinity{},
		Mechanisms:     []Mechanism{},
		Indications:    []string{},
		Warnings:       []DrugWarning{},
		Similar:        []SimilarMolecule{},
		Trials:         []Trial{},
		Patents:        []Patent{},
		DiseaseTargets: []AssociatedTarget{},
		Candidates:     []DrugCandidate{},
	}
}
