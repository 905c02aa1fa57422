// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package adapters wraps each external biomedical data source behind a
// uniform contract: typed query parameters in, normalized records or an
// error out. Adapters never panic past their boundary and every request
// carries the configured timeout. Implements: prd013-adapters (R1-R7);
//
//	docs/ARCHITECTURE § Adapters.
package adapters

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/pdiddy/repurpose-engine/internal/httputil"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// chemblAPIBase is the ChEMBL REST endpoint. Declared as a var so tests can
// substitute an httptest server.
var chemblAPIBase = "https://www.ebi.ac.uk/chembl/api/data"

// ChEMBL queries the ChEMBL REST API for molecule identity, mechanisms,
// indications, warnings, and structural similarity (R2).
type ChEMBL struct {
	Client *http.Client
	Cfg    types.EnrichmentConfig
}

// Name returns the adapter identifier.
func (c *ChEMBL) Name() string { return "chembl" }

func (c *ChEMBL) headers() map[string]string {
	return map[string]string{"User-Agent": c.Cfg.UserAgent}
}

// LookupMolecule resolves a drug name to its canonical identity. It tries an
// exact preferred-name match first, then the full-text search endpoint,
// preferring exact preferred-name hits, then exact synonym hits weighted by
// synonym type and development phase, then the highest-phase result (R2.1).
func (c *ChEMBL) LookupMolecule(ctx context.Context, name string) (types.Molecule, error) {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return types.Molecule{}, fmt.Errorf("empty molecule name")
	}

	if mol, ok := c.lookupExact(ctx, clean); ok {
		return mol, nil
	}
	return c.lookupFullText(ctx, clean)
}

func (c *ChEMBL) lookupExact(ctx context.Context, name string) (types.Molecule, bool) {
	params := url.Values{
		"pref_name__iexact": {name},
		"limit":             {"1"},
	}
	reqURL := chemblAPIBase + "/molecule.json?" + params.Encode()

	var mr moleculeResponse
	if err := httputil.GetJSON(ctx, c.Client, reqURL, c.headers(), &mr); err != nil {
		return types.Molecule{}, false
	}
	if len(mr.Molecules) == 0 {
		return types.Molecule{}, false
	}

	m := mr.Molecules[0]
	return types.Molecule{
		ID:     m.MoleculeChEMBLID,
		SMILES: m.MoleculeStructures.CanonicalSMILES,
		Name:   m.PrefName,
	}, true
}

func (c *ChEMBL) lookupFullText(ctx context.Context, name string) (types.Molecule, error) {
	params := url.Values{
		"q":     {name},
		"limit": {"20"},
	}
	reqURL := chemblAPIBase + "/molecule/search.json?" + params.Encode()

	var mr moleculeResponse
	if err := httputil.GetJSON(ctx, c.Client, reqURL, c.headers(), &mr); err != nil {
		return types.Molecule{}, fmt.Errorf("ChEMBL molecule search: %w", err)
	}
	if len(mr.Molecules) == 0 {
		return types.Molecule{}, fmt.Errorf("no ChEMBL results for %q", name)
	}

	lower := strings.ToLower(name)

	// First pass: exact preferred-name match.
	for _, m := range mr.Molecules {
		if m.PrefName != "" && strings.ToLower(m.PrefName) == lower {
			return types.Molecule{
				ID:     m.MoleculeChEMBLID,
				SMILES: m.MoleculeStructures.CanonicalSMILES,
				Name:   m.PrefName,
			}, nil
		}
	}

	// Second pass: exact synonym match, scored by synonym type and phase.
	var bestMol *chemblMolecule
	bestName := ""
	bestScore := 0
	for i := range mr.Molecules {
		m := &mr.Molecules[i]
		for _, syn := range m.MoleculeSynonyms {
			if strings.ToLower(syn.MoleculeSynonym) != lower {
				continue
			}
			score := int(m.MaxPhase * 10)
			switch syn.SynType {
			case "INN", "USAN":
				score += 100
			case "BAN":
				score += 50
			case "TRADE_NAME", "ATC":
				score += 25
			default:
				score += 10
			}
			if score > bestScore {
				bestScore = score
				bestMol = m
				bestName = syn.MoleculeSynonym
			}
		}
	}
	if bestMol != nil {
		return types.Molecule{
			ID:     bestMol.MoleculeChEMBLID,
			SMILES: bestMol.MoleculeStructures.CanonicalSMILES,
			Name:   bestName,
		}, nil
	}

	// Third pass: highest development phase wins.
	sorted := make([]chemblMolecule, len(mr.Molecules))
	copy(sorted, mr.Molecules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MaxPhase > sorted[j].MaxPhase })

	m := sorted[0]
	displayName := m.PrefName
	if displayName == "" {
		for _, syn := range m.MoleculeSynonyms {
			if syn.SynType == "INN" || syn.SynType == "USAN" || syn.SynType == "BAN" {
				displayName = syn.MoleculeSynonym
				break
			}
		}
		if displayName == "" && len(m.MoleculeSynonyms) > 0 {
			displayName = m.MoleculeSynonyms[0].MoleculeSynonym
		}
	}

	return types.Molecule{
		ID:     m.MoleculeChEMBLID,
		SMILES: m.MoleculeStructures.CanonicalSMILES,
		Name:   displayName,
	}, nil
}

// GetMolecule fetches molecule metadata by ChEMBL ID (R2.2).
func (c *ChEMBL) GetMolecule(ctx context.Context, id string) (types.Molecule, error) {
	reqURL := chemblAPIBase + "/molecule/" + url.PathEscape(id) + ".json"

	var m chemblMolecule
	if err := httputil.GetJSON(ctx, c.Client, reqURL, c.headers(), &m); err != nil {
		return types.Molecule{}, fmt.Errorf("ChEMBL molecule %s: %w", id, err)
	}
	return types.Molecule{
		ID:     id,
		SMILES: m.MoleculeStructures.CanonicalSMILES,
		Name:   m.PrefName,
	}, nil
}

// Mechanisms fetches mechanism-of-action records for a molecule (R2.3).
func (c *ChEMBL) Mechanisms(ctx context.Context, id string) ([]types.Mechanism, error) {
	params := url.Values{
		"molecule_chembl_id": {id},
		"limit":              {fmt.Sprintf("%d", c.Cfg.MaxListLen)},
	}
	reqURL := chemblAPIBase + "/mechanism.json?" + params.Encode()

	var mr mechanismResponse
	if err := httputil.GetJSON(ctx, c.Client, reqURL, c.headers(), &mr); err != nil {
		return nil, fmt.Errorf("ChEMBL mechanisms for %s: %w", id, err)
	}

	mechanisms := make([]types.Mechanism, 0, len(mr.Mechanisms))
	for _, m := range mr.Mechanisms {
		mechanisms = append(mechanisms, types.Mechanism{
			ActionType:  m.ActionType,
			Description: m.MechanismOfAction,
			TargetID:    m.TargetChEMBLID,
			TargetName:  m.TargetName,
		})
	}
	return mechanisms, nil
}

// Indications fetches known therapeutic indications, preferring the MeSH
// heading and falling back to the EFO term (R2.4).
func (c *ChEMBL) Indications(ctx context.Context, id string) ([]string, error) {
	params := url.Values{
		"molecule_chembl_id": {id},
		"limit":              {fmt.Sprintf("%d", c.Cfg.MaxListLen)},
	}
	reqURL := chemblAPIBase + "/drug_indication.json?" + params.Encode()

	var ir indicationResponse
	if err := httputil.GetJSON(ctx, c.Client, reqURL, c.headers(), &ir); err != nil {
		return nil, fmt.Errorf("ChEMBL indications for %s: %w", id, err)
	}

	indications := make([]string, 0, len(ir.DrugIndications))
	for _, ind := range ir.DrugIndications {
		switch {
		case ind.MeshHeading != "":
			indications = append(indications, ind.MeshHeading)
		case ind.EFOTerm != "":
			indications = append(indications, ind.EFOTerm)
		}
	}
	return indications, nil
}

// Warnings fetches safety warnings for a molecule (R2.5).
func (c *ChEMBL) Warnings(ctx context.Context, id string) ([]types.DrugWarning, error) {
	params := url.Values{
		"molecule_chembl_id": {id},
		"limit":              {fmt.Sprintf("%d", c.Cfg.MaxListLen)},
	}
	reqURL := chemblAPIBase + "/drug_warning.json?" + params.Encode()

	var wr warningResponse
	if err := httputil.GetJSON(ctx, c.Client, reqURL, c.headers(), &wr); err != nil {
		return nil, fmt.Errorf("ChEMBL warnings for %s: %w", id, err)
	}

	warnings := make([]types.DrugWarning, 0, len(wr.DrugWarnings))
	for _, w := range wr.DrugWarnings {
		warnings = append(warnings, types.DrugWarning{
			Type:        w.WarningType,
			Class:       w.WarningClass,
			Description: w.WarningDescription,
		})
	}
	return warnings, nil
}

// Similar fetches structurally similar molecules for a SMILES string at the
// given similarity threshold percentage (R2.6).
func (c *ChEMBL) Similar(ctx context.Context, smiles string, thresholdPercent int) ([]types.SimilarMolecule, error) {
	if smiles == "" {
		return nil, fmt.Errorf("empty SMILES")
	}

	reqURL := fmt.Sprintf("%s/similarity/%s/%d.json", chemblAPIBase, url.PathEscape(smiles), thresholdPercent)

	var mr moleculeResponse
	if err := httputil.GetJSON(ctx, c.Client, reqURL, c.headers(), &mr); err != nil {
		return nil, fmt.Errorf("ChEMBL similarity: %w", err)
	}

	similar := make([]types.SimilarMolecule, 0, len(mr.Molecules))
	for _, m := range mr.Molecules {
		similar = append(similar, types.SimilarMolecule{
			ID:         m.MoleculeChEMBLID,
			Name:       m.PrefName,
			Similarity: m.Similarity,
		})
	}
	return similar, nil
}

// DrugsForTarget finds molecules that modulate a target via the mechanism
// endpoint, deduplicated by molecule ID in response order (R2.7).
func (c *ChEMBL) DrugsForTarget(ctx context.Context, targetID string) ([]types.TargetDrug, error) {
	params := url.Values{
		"target_chembl_id": {targetID},
		"limit":            {fmt.Sprintf("%d", c.Cfg.MaxListLen)},
	}
	reqURL := chemblAPIBase + "/mechanism.json?" + params.Encode()

	var mr mechanismResponse
	if err := httputil.GetJSON(ctx, c.Client, reqURL, c.headers(), &mr); err != nil {
		return nil, fmt.Errorf("ChEMBL drugs for target %s: %w", targetID, err)
	}

	seen := make(map[string]bool)
	var drugs []types.TargetDrug
	for _, m := range mr.Mechanisms {
		if m.MoleculeChEMBLID == "" || seen[m.MoleculeChEMBLID] {
			continue
		}
		seen[m.MoleculeChEMBLID] = true
		drugs = append(drugs, types.TargetDrug{
			ID:         m.MoleculeChEMBLID,
			ActionType: m.ActionType,
			Mechanism:  m.MechanismOfAction,
		})
	}
	return drugs, nil
}

// ChEMBL API JSON structures.
type moleculeResponse struct {
	Molecules []chemblMolecule `json:"molecules"`
}

type chemblMolecule struct {
	MoleculeChEMBLID   string           `json:"molecule_chembl_id"`
	PrefName           string           `json:"pref_name"`
	MaxPhase           float64          `json:"max_phase"`
	Similarity         float64          `json:"similarity,string"`
	MoleculeStructures chemblStructures `json:"molecule_structures"`
	MoleculeSynonyms   []chemblSynonym  `json:"molecule_synonyms"`
}

type chemblStructures struct {
	CanonicalSMILES string `json:"canonical_smiles"`
}

type chemblSynonym struct {
	MoleculeSynonym string `json:"molecule_synonym"`
	SynType         string `json:"syn_type"`
}

type mechanismResponse struct {
	Mechanisms []chemblMechanism `json:"mechanisms"`
}

type chemblMechanism struct {
	ActionType        string `json:"action_type"`
	MechanismOfAction string `json:"mechanism_of_action"`
	MoleculeChEMBLID  string `json:"molecule_chembl_id"`
	TargetChEMBLID    string `json:"target_chembl_id"`
	TargetName        string `json:"target_name"`
}

type indicationResponse struct {
	DrugIndications []chemblIndication `json:"drug_indications"`
}

type chemblIndication struct {
	MeshHeading string `json:"mesh_heading"`
	EFOTerm     string `json:"efo_term"`
}

type warningResponse struct {
	DrugWarnings []chemblWarning `json:"drug_warnings"`
}

type chemblWarning struct {
	WarningType        string `json:"warning_type"`
	WarningClass       string `json:"warning_class"`
	WarningDescription string `json:"warning_description"`
}
