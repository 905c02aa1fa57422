// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/pdiddy/repurpose-engine/internal/agents"
	"github.com/pdiddy/repurpose-engine/internal/enrich"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestResearchContext_SlotWriteOnce(t *testing.T) {
	rc := NewResearchContext("Metformin")
	if err := rc.SetSlot(SlotWebIntel, "first"); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := rc.SetSlot(SlotWebIntel, "second"); err == nil {
		t.Fatal("second write to the same slot must fail")
	}
	if v, _ := rc.Slot(SlotWebIntel); v != "first" {
		t.Errorf("slot = %q, want first write preserved", v)
	}
}

func TestResearchContext_ConcurrentErrorAppends(t *testing.T) {
	rc := NewResearchContext("Metformin")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			rc.AppendError(fmt.Sprintf("trace %d", i))
		}()
	}
	wg.Wait()
	if got := len(rc.Errors()); got != 50 {
		t.Errorf("len(Errors) = %d, want 50", got)
	}
}

func TestScheduler_PhasesAreStrictlyOrdered(t *testing.T) {
	rc := NewResearchContext("q")
	s := &Scheduler{}

	phase2SawPhase1 := false
	phases := []Phase{
		{Name: "one", Tasks: []Task{
			{Slot: "a", Run: func(context.Context) (string, error) {
				time.Sleep(20 * time.Millisecond)
				return "A", nil
			}},
			{Slot: "b", Run: func(context.Context) (string, error) { return "B", nil }},
		}},
		{Name: "two", Tasks: []Task{
			{Slot: "c", Run: func(context.Context) (string, error) {
				_, okA := rc.Slot("a")
				_, okB := rc.Slot("b")
				phase2SawPhase1 = okA && okB
				return "C", nil
			}},
		}},
	}

	if err := s.RunPhases(context.Background(), rc, phases); err != nil {
		t.Fatalf("RunPhases: %v", err)
	}
	if !phase2SawPhase1 {
		t.Error("phase 2 started before phase 1 settled")
	}
}

func TestScheduler_TasksWithinPhaseRunConcurrently(t *testing.T) {
	rc := NewResearchContext("q")
	s := &Scheduler{}

	sleeper := func(slot string) Task {
		return Task{Slot: slot, Run: func(context.Context) (string, error) {
			time.Sleep(50 * time.Millisecond)
			return "done", nil
		}}
	}

	start := time.Now()
	err := s.RunPhases(context.Background(), rc, []Phase{
		{Name: "p", Tasks: []Task{sleeper("a"), sleeper("b"), sleeper("c")}},
	})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("RunPhases: %v", err)
	}
	if elapsed > 130*time.Millisecond {
		t.Errorf("phase took %v; tasks appear to run sequentially", elapsed)
	}
}

func TestScheduler_TaskFailureIsContained(t *testing.T) {
	rc := NewResearchContext("q")
	s := &Scheduler{}

	err := s.RunPhases(context.Background(), rc, []Phase{{Name: "p", Tasks: []Task{
		{Slot: "bad", Run: func(context.Context) (string, error) {
			return "", fmt.Errorf("backend exploded")
		}},
		{Slot: "good", Run: func(context.Context) (string, error) { return "fine", nil }},
	}}})
	if err != nil {
		t.Fatalf("RunPhases must not fail on task errors: %v", err)
	}

	if v, _ := rc.Slot("bad"); v != "Agent failed: backend exploded" {
		t.Errorf("failure placeholder = %q", v)
	}
	if v, _ := rc.Slot("good"); v != "fine" {
		t.Errorf("sibling task result = %q", v)
	}
	errs := rc.Errors()
	if len(errs) != 1 || !strings.Contains(errs[0], "backend exploded") {
		t.Errorf("error log = %v", errs)
	}
}

func TestScheduler_TurnBudgetGetsDistinctPlaceholder(t *testing.T) {
	rc := NewResearchContext("q")
	s := &Scheduler{}

	err := s.RunPhases(context.Background(), rc, []Phase{{Name: "p", Tasks: []Task{
		{Slot: "looping", Run: func(context.Context) (string, error) {
			return "", fmt.Errorf("agent task: %w", &agents.TurnBudgetError{Agent: "looping", MaxTurns: 7})
		}},
	}}})
	if err != nil {
		t.Fatalf("RunPhases: %v", err)
	}

	v, _ := rc.Slot("looping")
	if v != turnBudgetPlaceholder {
		t.Errorf("slot = %q, want turn-budget placeholder", v)
	}
	if strings.Contains(v, "Agent failed") {
		t.Error("turn-budget failure must not use the generic placeholder")
	}
}

func TestScheduler_PanicIsContained(t *testing.T) {
	rc := NewResearchContext("q")
	s := &Scheduler{}

	err := s.RunPhases(context.Background(), rc, []Phase{{Name: "p", Tasks: []Task{
		{Slot: "panicky", Run: func(context.Context) (string, error) {
			panic("nil map write")
		}},
	}}})
	if err != nil {
		t.Fatalf("RunPhases must survive a panicking task: %v", err)
	}

	v, _ := rc.Slot("panicky")
	if !strings.Contains(v, "Agent failed") {
		t.Errorf("slot = %q, want failure placeholder", v)
	}
	errs := rc.Errors()
	if len(errs) != 1 || !strings.Contains(errs[0], "panicked") {
		t.Errorf("error log = %v", errs)
	}
}

func TestSerializeRecord_Truncates(t *testing.T) {
	rec := types.NewEnrichmentRecord(types.InputDrug, "Metformin", "Metformin")
	for i := 0; i < 200; i++ {
		rec.Indications = append(rec.Indications, fmt.Sprintf("indication number %d", i))
	}

	out, err := SerializeRecord(rec, 500)
	if err != nil {
		t.Fatalf("SerializeRecord: %v", err)
	}
	if !strings.HasSuffix(out, truncationMarker) {
		t.Error("truncated payload must end with the marker")
	}
	if len(out) > 500+len(truncationMarker) {
		t.Errorf("len(out) = %d, exceeds budget", len(out))
	}

	small, err := SerializeRecord(rec, 1<<20)
	if err != nil {
		t.Fatalf("SerializeRecord: %v", err)
	}
	if strings.Contains(small, truncationMarker) {
		t.Error("payload under budget must not carry the marker")
	}
}

func TestSynthesisPrompt_FixedOrderAndEmptySections(t *testing.T) {
	rc := NewResearchContext("Metformin")
	rc.SetSlot(SlotTrade, "trade findings")
	rc.SetSlot(SlotWebIntel, "web findings")

	prompt := SynthesisPrompt(rc)

	// Order follows the template, not population order.
	web := strings.Index(prompt, "web findings")
	trade := strings.Index(prompt, "trade findings")
	if web < 0 || trade < 0 || web > trade {
		t.Errorf("section order wrong: web at %d, trade at %d", web, trade)
	}
	if count := strings.Count(prompt, emptySlotText); count != len(reportSections)-2 {
		t.Errorf("empty-slot markers = %d, want %d", count, len(reportSections)-2)
	}
}

func TestFinalizeReport_AppendsDeterministicScoreLine(t *testing.T) {
	rec := types.NewEnrichmentRecord(types.InputDrug, "Metformin", "Metformin")

	// Potency 0, safety 1.0 with no warnings, everything else 0.
	out := FinalizeReport("Report body.", rec)
	if !strings.HasSuffix(out, "Overall feasibility score: 0.100\n") {
		t.Errorf("report tail = %q", out)
	}
	if !strings.HasPrefix(out, "Report body.") {
		t.Errorf("report head = %q", out)
	}

	if out := FinalizeReport("x", nil); !strings.HasSuffix(out, "Overall feasibility score: 0.000\n") {
		t.Errorf("nil record tail = %q", out)
	}

	if out := FinalizeReport("   ", rec); !strings.Contains(out, emptySlotText) {
		t.Errorf("empty report body must fall back to the no-data text: %q", out)
	}
}

func TestOverallFeasibility_DiseaseUsesTopCandidate(t *testing.T) {
	rec := types.NewEnrichmentRecord(types.InputDisease, "Type 2 Diabetes", "Type 2 Diabetes")
	rec.Candidates = []types.DrugCandidate{{
		ID: "D1",
		TargetsHit: []types.CandidateTargetHit{
			{Symbol: "PPARG", AssociationScore: 0.8},
			{Symbol: "DPP4", AssociationScore: 0.4},
		},
		Affinities:      []types.TargetAffinity{{AffinityValue: 9, AffinityUnit: "nM"}},
		LiteratureCount: 999,
	}}

	// overlap capped at 1.0, potency 1.0, literature 1.0, safety 1.0:
	// 0.30 + 0.30 + 0 + 0.10 + 0.10 = 0.800
	if got := OverallFeasibility(rec); got != 0.800 {
		t.Errorf("OverallFeasibility = %v, want 0.800", got)
	}

	rec.Candidates = nil
	if got := OverallFeasibility(rec); got != 0 {
		t.Errorf("empty pool score = %v, want 0", got)
	}
}

// fakeRunner returns canned output per agent name.
type fakeRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	errs    map[string]error
	prompts map[string]string
}

func (f *fakeRunner) Run(_ context.Context, agent agents.Agent, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.prompts == nil {
		f.prompts = make(map[string]string)
	}
	f.prompts[agent.Name] = prompt
	if err := f.errs[agent.Name]; err != nil {
		return "", err
	}
	if out, ok := f.outputs[agent.Name]; ok {
		return out, nil
	}
	return "findings from " + agent.Name, nil
}

func testRoster() Roster {
	return Roster{
		WebIntel:       agents.Agent{Name: "web_intelligence"},
		Patents:        agents.Agent{Name: "patent_landscape"},
		Trials:         agents.Agent{Name: "clinical_trials"},
		Market:         agents.Agent{Name: "market_insights"},
		Trade:          agents.Agent{Name: "trade_flows"},
		Interpretation: agents.Agent{Name: "enrichment_interpretation"},
		Pathway:        agents.Agent{Name: "disease_pathway"},
		Strategy:       agents.Agent{Name: "repurposing_strategy"},
		Report:         agents.Agent{Name: "report_generation"},
	}
}

func TestOrchestratorRun_EndToEnd(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"report_generation": "Executive report.",
	}}
	o := &Orchestrator{
		// No adapters configured: the enrichment task still settles with a
		// complete, empty record.
		Enrich: &enrich.Pipeline{},
		Runner: runner,
		Roster: testRoster(),
	}

	rc, report, err := o.Run(context.Background(), "Metformin")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, slot := range []string{
		SlotEnrichment, SlotWebIntel, SlotPatents, SlotTrials, SlotMarket,
		SlotTrade, SlotInterpretation, SlotPathway, SlotStrategy, SlotReport,
	} {
		if _, ok := rc.Slot(slot); !ok {
			t.Errorf("slot %s not populated", slot)
		}
	}

	if !strings.HasPrefix(report, "Executive report.") {
		t.Errorf("report = %q", report)
	}
	if !strings.Contains(report, "Overall feasibility score: ") {
		t.Error("report must end with the feasibility line")
	}
	if rc.Record() == nil {
		t.Error("enrichment record not stored")
	}

	// The strategy prompt is built after the pathway slot settles.
	runner.mu.Lock()
	defer runner.mu.Unlock()
	if !strings.Contains(runner.prompts["repurposing_strategy"], "findings from disease_pathway") {
		t.Error("strategy prompt missing pathway analysis")
	}
	if !strings.Contains(runner.prompts["enrichment_interpretation"], `"input_type"`) {
		t.Error("interpretation prompt missing enrichment payload")
	}
}

func TestOrchestratorRun_CollectorFailureStillProducesReport(t *testing.T) {
	runner := &fakeRunner{errs: map[string]error{
		"web_intelligence": fmt.Errorf("search backend down"),
		"trade_flows":      &agents.TurnBudgetError{Agent: "trade_flows", MaxTurns: 7},
	}}
	o := &Orchestrator{
		Enrich: &enrich.Pipeline{},
		Runner: runner,
		Roster: testRoster(),
	}

	rc, report, err := o.Run(context.Background(), "Type 2 Diabetes")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if v, _ := rc.Slot(SlotWebIntel); !strings.Contains(v, "Agent failed") {
		t.Errorf("web slot = %q", v)
	}
	if v, _ := rc.Slot(SlotTrade); v != turnBudgetPlaceholder {
		t.Errorf("trade slot = %q", v)
	}
	if len(rc.Errors()) != 2 {
		t.Errorf("error log size = %d, want 2", len(rc.Errors()))
	}
	if !strings.Contains(report, "Overall feasibility score: ") {
		t.Error("report still must carry the feasibility line")
	}
}

func TestOrchestratorRun_WithoutRunnerIsEnrichmentOnly(t *testing.T) {
	o := &Orchestrator{Enrich: &enrich.Pipeline{}}

	rc, report, err := o.Run(context.Background(), "Metformin")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := rc.Slot(SlotEnrichment); !ok {
		t.Error("enrichment slot not populated")
	}
	if _, ok := rc.Slot(SlotWebIntel); ok {
		t.Error("narrative slots must stay empty without a runner")
	}
	if !strings.Contains(report, emptySlotText) {
		t.Error("report body should fall back to the no-data text")
	}
}
