// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by every adapter that makes
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "repurpose-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// EnrichmentConfig holds settings for the deterministic enrichment pipeline.
// The caps bound both payload size and adapter fan-out; they match the
// pipeline defaults and rarely need changing.
type EnrichmentConfig struct {
	HTTPConfig `yaml:",inline"`

	// AffinityCutoffUM is the maximum affinity (µM) requested from the
	// binding backend (default 10).
	AffinityCutoffUM float64 `json:"affinity_cutoff_um" yaml:"affinity_cutoff_um"`

	// MaxAffinityTargets caps the affinity list kept per molecule, best
	// (lowest normalized µM) first (default 20).
	MaxAffinityTargets int `json:"max_affinity_targets" yaml:"max_affinity_targets"`

	// MaxListLen caps each of the mechanism, indication, warning, and
	// similarity lists (default 50).
	MaxListLen int `json:"max_list_len" yaml:"max_list_len"`

	// SimilarityThreshold is the structural similarity percentage for the
	// similar-molecule lookup (default 70).
	SimilarityThreshold int `json:"similarity_threshold" yaml:"similarity_threshold"`

	// MaxDiseaseTargets caps the associated-target list on the disease
	// branch (default 10).
	MaxDiseaseTargets int `json:"max_disease_targets" yaml:"max_disease_targets"`

	// MaxTargetsExpanded is how many of the top associated targets are
	// expanded into drug candidates (default 5).
	MaxTargetsExpanded int `json:"max_targets_expanded" yaml:"max_targets_expanded"`

	// MaxCandidatesPerTarget bounds the candidate fan-out per target (default 4).
	MaxCandidatesPerTarget int `json:"max_candidates_per_target" yaml:"max_candidates_per_target"`

	// CandidateWorkers is the number of candidates enriched concurrently
	// (default 4).
	CandidateWorkers int `json:"candidate_workers" yaml:"candidate_workers"`
}

// WithDefaults returns the config with zero values replaced by defaults.
func (c EnrichmentConfig) WithDefaults() EnrichmentConfig {
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "repurpose-engine/0.1"
	}
	if c.AffinityCutoffUM <= 0 {
		c.AffinityCutoffUM = 10
	}
	if c.MaxAffinityTargets <= 0 {
		c.MaxAffinityTargets = 20
	}
	if c.MaxListLen <= 0 {
		c.MaxListLen = 50
	}
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = 70
	}
	if c.MaxDiseaseTargets <= 0 {
		c.MaxDiseaseTargets = 10
	}
	if c.MaxTargetsExpanded <= 0 {
		c.MaxTargetsExpanded = 5
	}
	if c.MaxCandidatesPerTarget <= 0 {
		c.MaxCandidatesPerTarget = 4
	}
	if c.CandidateWorkers <= 0 {
		c.CandidateWorkers = 4
	}
	return c
}

// AgentConfig holds shared settings for narrative tasks that call the
// Generative AI API.
type AgentConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxTurns bounds the tool-use loop per task (default 7). Exceeding it
	// yields a contained turn-budget failure, never a hang.
	MaxTurns int `json:"max_turns" yaml:"max_turns"`

	// MaxTokens is the per-response token cap (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// OrchestratorConfig holds settings for the phased research scheduler.
type OrchestratorConfig struct {
	// TaskTimeout is the per-task wall-clock deadline (default 5m). The run
	// as a whole is bounded only by the caller's context.
	TaskTimeout time.Duration `json:"task_timeout" yaml:"task_timeout"`

	// PayloadCharBudget caps the serialized enrichment payload handed to
	// interpretation tasks (default 100000). Longer payloads are truncated
	// with an explicit marker.
	PayloadCharBudget int `json:"payload_char_budget" yaml:"payload_char_budget"`
}

// RunStoreConfig holds settings for research-run persistence.
type RunStoreConfig struct {
	// RunsDir is the base directory for stored runs (contains index/).
	RunsDir string `json:"runs_dir" yaml:"runs_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Enrichment   EnrichmentConfig   `json:"enrichment" yaml:"enrichment"`
	Agents       AgentConfig        `json:"agents" yaml:"agents"`
	Orchestrator OrchestratorConfig `json:"orchestrator" yaml:"orchestrator"`
	RunStore     RunStoreConfig     `json:"run_store" yaml:"run_store"`
}
