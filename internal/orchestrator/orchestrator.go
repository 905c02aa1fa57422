// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/repurpose-engine/internal/agents"
	"github.com/pdiddy/repurpose-engine/internal/enrich"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// AgentRunner executes one narrative agent task. Satisfied by agents.Client.
type AgentRunner interface {
	Run(ctx context.Context, agent agents.Agent, prompt string) (string, error)
}

// Roster holds the narrative agents by role.
type Roster struct {
	WebIntel       agents.Agent
	Patents        agents.Agent
	Trials         agents.Agent
	Market         agents.Agent
	Trade          agents.Agent
	Interpretation agents.Agent
	Pathway        agents.Agent
	Strategy       agents.Agent
	Report         agents.Agent
}

// Orchestrator wires the enrichment pipeline and the agent roster into the
// phased scheduler.
type Orchestrator struct {
	Enrich *enrich.Pipeline
	Runner AgentRunner
	Roster Roster

	Cfg types.OrchestratorConfig
	Log *zap.Logger
}

// Run executes a full research run: parallel collection, interpretation,
// strategy, then synthesis. It returns the populated context and the final
// report text, which always ends with the deterministic feasibility line.
// The error is non-nil only when the caller's context is cancelled.
func (o *Orchestrator) Run(ctx context.Context, query string) (*ResearchContext, string, error) {
	rc := NewResearchContext(query)
	sched := &Scheduler{Cfg: o.Cfg, Log: o.Log}

	inputType, entity := enrich.DetectInputType(query)
	collectPrompt := collectionPrompt(inputType, entity)

	if err := sched.RunPhases(ctx, rc, o.phases(rc, collectPrompt)); err != nil {
		return rc, "", err
	}

	raw, _ := rc.Slot(SlotReport)
	report := FinalizeReport(raw, rc.Record())
	return rc, report, nil
}

func (o *Orchestrator) phases(rc *ResearchContext, collectPrompt string) []Phase {
	collect := Phase{Name: "collect", Tasks: []Task{{
		Slot: SlotEnrichment,
		Run: func(ctx context.Context) (string, error) {
			rec, err := o.Enrich.Run(ctx, rc.Query)
			if err != nil {
				return "", err
			}
			rc.SetRecord(rec)
			return SerializeRecord(rec, o.Cfg.PayloadCharBudget)
		},
	}}}

	if o.Runner != nil {
		collect.Tasks = append(collect.Tasks,
			o.agentTask(SlotWebIntel, o.Roster.WebIntel, func() string { return collectPrompt }),
			o.agentTask(SlotPatents, o.Roster.Patents, func() string { return collectPrompt }),
			o.agentTask(SlotTrials, o.Roster.Trials, func() string { return collectPrompt }),
			o.agentTask(SlotMarket, o.Roster.Market, func() string { return collectPrompt }),
			o.agentTask(SlotTrade, o.Roster.Trade, func() string { return collectPrompt }),
		)
	}

	phases := []Phase{collect}
	if o.Runner == nil {
		return phases
	}

	// Interpretation and pathway read only phase 1 slots, so they can run
	// concurrently. Strategy reads the pathway analysis and runs after it.
	phases = append(phases,
		Phase{Name: "interpret", Tasks: []Task{
			o.agentTask(SlotInterpretation, o.Roster.Interpretation, func() string {
				return o.interpretationPrompt(rc)
			}),
			o.agentTask(SlotPathway, o.Roster.Pathway, func() string {
				return o.pathwayPrompt(rc)
			}),
		}},
		Phase{Name: "strategize", Tasks: []Task{
			o.agentTask(SlotStrategy, o.Roster.Strategy, func() string {
				return o.strategyPrompt(rc)
			}),
		}},
		Phase{Name: "synthesize", Tasks: []Task{
			o.agentTask(SlotReport, o.Roster.Report, func() string {
				return SynthesisPrompt(rc)
			}),
		}},
	)
	return phases
}

// agentTask defers prompt construction to dispatch time so later phases see
// the slots populated by earlier ones.
func (o *Orchestrator) agentTask(slot string, agent agents.Agent, prompt func() string) Task {
	return Task{
		Slot: slot,
		Run: func(ctx context.Context) (string, error) {
			return o.Runner.Run(ctx, agent, prompt())
		},
	}
}

func collectionPrompt(inputType types.InputType, entity string) string {
	if entity == "" {
		entity = "the requested entity"
	}
	if inputType == types.InputDrug {
		return fmt.Sprintf("Gather global intelligence for repurposing the drug %s: "+
			"clinical evidence, prior art, trials, market, and trade signals.", entity)
	}
	return fmt.Sprintf("Gather global intelligence for drug repurposing options to treat %s: "+
		"clinical evidence, prior art, trials, market, and trade signals.", entity)
}

func (o *Orchestrator) interpretationPrompt(rc *ResearchContext) string {
	payload, ok := rc.Slot(SlotEnrichment)
	if !ok || strings.TrimSpace(payload) == "" {
		payload = emptySlotText
	}
	return fmt.Sprintf("Interpret the following enrichment payload for %q. "+
		"Classify primary targets versus off-targets, assess mechanism relevance, "+
		"and identify repurposing opportunities and safety concerns.\n\n%s", rc.Query, payload)
}

func (o *Orchestrator) pathwayPrompt(rc *ResearchContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following research data for %q and identify mechanistic pathways. "+
		"Provide mechanistic validation for drug repurposing opportunities.\n", rc.Query)
	for _, slot := range []string{SlotWebIntel, SlotPatents, SlotTrials, SlotEnrichment, SlotMarket, SlotTrade} {
		writeSlotBlock(&b, rc, slot)
	}
	return b.String()
}

func (o *Orchestrator) strategyPrompt(rc *ResearchContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on the following research and pathway analysis for %q, rank drug "+
		"repurposing candidates. Provide a ranked list with feasibility assessments.\n", rc.Query)
	for _, slot := range []string{SlotPathway, SlotTrials, SlotPatents, SlotMarket} {
		writeSlotBlock(&b, rc, slot)
	}
	return b.String()
}

func writeSlotBlock(b *strings.Builder, rc *ResearchContext, slot string) {
	text, ok := rc.Slot(slot)
	if !ok || strings.TrimSpace(text) == "" {
		text = emptySlotText
	}
	fmt.Fprintf(b, "\n%s:\n%s\n", slot, text)
}
