// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/repurpose-engine/internal/adapters"
	"github.com/pdiddy/repurpose-engine/internal/agents"
	"github.com/pdiddy/repurpose-engine/internal/enrich"
	"github.com/pdiddy/repurpose-engine/internal/orchestrator"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// backends groups the constructed adapter set so the pipeline and the agent
// roster share one instance per data source.
type backends struct {
	chembl    *adapters.ChEMBL
	bindingdb *adapters.BindingDB
	targets   *adapters.OpenTargets
	europePMC *adapters.EuropePMC
	trials    *adapters.ClinicalTrials
	patents   *adapters.PatentsView
	serper    *adapters.Serper
}

func enrichmentConfig() types.EnrichmentConfig {
	cfg := types.EnrichmentConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("enrichment.timeout"),
			UserAgent: viper.GetString("enrichment.user_agent"),
		},
		AffinityCutoffUM:       viper.GetFloat64("enrichment.affinity_cutoff_um"),
		MaxAffinityTargets:     viper.GetInt("enrichment.max_affinity_targets"),
		MaxListLen:             viper.GetInt("enrichment.max_list_len"),
		SimilarityThreshold:    viper.GetInt("enrichment.similarity_threshold"),
		MaxDiseaseTargets:      viper.GetInt("enrichment.max_disease_targets"),
		MaxTargetsExpanded:     viper.GetInt("enrichment.max_targets_expanded"),
		MaxCandidatesPerTarget: viper.GetInt("enrichment.max_candidates_per_target"),
		CandidateWorkers:       viper.GetInt("enrichment.candidate_workers"),
	}
	return cfg.WithDefaults()
}

func buildBackends(cfg types.EnrichmentConfig) *backends {
	client := &http.Client{Timeout: cfg.Timeout}
	return &backends{
		chembl:    &adapters.ChEMBL{Client: client, Cfg: cfg},
		bindingdb: &adapters.BindingDB{Client: client, Cfg: cfg},
		targets:   &adapters.OpenTargets{Client: client, Cfg: cfg},
		europePMC: &adapters.EuropePMC{Client: client, Cfg: cfg},
		trials:    &adapters.ClinicalTrials{Client: client, Cfg: cfg},
		patents: &adapters.PatentsView{
			Client: client,
			APIKey: secretDefault("patentsview-api-key", viper.GetString("patentsview.api_key")),
			Cfg:    cfg,
		},
		serper: &adapters.Serper{
			Client: client,
			APIKey: secretDefault("serper-api-key", viper.GetString("serper.api_key")),
			Cfg:    cfg,
		},
	}
}

func buildPipeline(b *backends, cfg types.EnrichmentConfig, log *zap.Logger) *enrich.Pipeline {
	return &enrich.Pipeline{
		Molecules:  b.chembl,
		Affinities: b.bindingdb,
		Targets:    b.targets,
		Literature: b.europePMC,
		Trials:     b.trials,
		Patents:    b.patents,
		Cfg:        cfg,
		Log:        log,
	}
}

func agentConfig(cmd *cobra.Command) types.AgentConfig {
	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = viper.GetString("agents.model")
	}
	if model == "" {
		model = "claude-sonnet-4-5-20250929"
	}
	maxTurns, _ := cmd.Flags().GetInt("max-turns")

	return types.AgentConfig{
		Model:     model,
		APIKey:    secretDefault("anthropic-api-key", viper.GetString("agents.api_key")),
		MaxTurns:  maxTurns,
		MaxTokens: viper.GetInt("agents.max_tokens"),
	}
}

func buildOrchestrator(cmd *cobra.Command, log *zap.Logger) *orchestrator.Orchestrator {
	cfg := enrichmentConfig()
	b := buildBackends(cfg)

	taskTimeout, _ := cmd.Flags().GetDuration("task-timeout")
	if taskTimeout <= 0 {
		taskTimeout = viper.GetDuration("orchestrator.task_timeout")
	}
	if taskTimeout <= 0 {
		taskTimeout = 5 * time.Minute
	}

	o := &orchestrator.Orchestrator{
		Enrich: buildPipeline(b, cfg, log),
		Cfg: types.OrchestratorConfig{
			TaskTimeout:       taskTimeout,
			PayloadCharBudget: viper.GetInt("orchestrator.payload_char_budget"),
		},
		Log: log,
	}

	agentCfg := agentConfig(cmd)
	if agentCfg.APIKey != "" {
		o.Runner = &agents.Client{
			Cfg:        agentCfg,
			HTTPClient: &http.Client{Timeout: taskTimeout},
		}
		o.Roster = orchestrator.Roster{
			WebIntel:       agents.NewWebIntelAgent(b.europePMC, b.serper),
			Patents:        agents.NewPatentAgent(b.patents),
			Trials:         agents.NewTrialsAgent(b.trials),
			Market:         agents.NewMarketAgent(b.serper),
			Trade:          agents.NewTradeAgent(b.serper),
			Interpretation: agents.NewInterpretationAgent(),
			Pathway:        agents.NewPathwayAgent(b.targets),
			Strategy:       agents.NewStrategyAgent(),
			Report:         agents.NewReportAgent(),
		}
	}
	return o
}

func buildLogger(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
