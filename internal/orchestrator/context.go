// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrator runs a research query through strictly ordered
// phases of concurrent tasks. Every task writes exactly one slot of the
// shared ResearchContext; failures are contained per task so the run always
// settles and the report is always produced.
// Implements: prd010-scheduler (R1-R7); docs/ARCHITECTURE § Orchestrator.
package orchestrator

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// Slot names. Each task owns exactly one; the report reads them in the
// fixed order of reportSections.
const (
	SlotWebIntel       = "web_intelligence"
	SlotPatents        = "patents"
	SlotTrials         = "clinical_trials"
	SlotEnrichment     = "enrichment"
	SlotInterpretation = "interpretation"
	SlotMarket         = "market"
	SlotTrade          = "trade"
	SlotPathway        = "pathway"
	SlotStrategy       = "strategy"
	SlotReport         = "report"
)

// ResearchContext accumulates one run's results. Slots are write-once; the
// error log is append-only and never cleared. Both are guarded by one mutex
// since tasks of the same phase settle concurrently.
type ResearchContext struct {
	RunID   string
	Query   string
	Started time.Time

	mu     sync.Mutex
	slots  map[string]string
	errors []string
	record *types.EnrichmentRecord
}

// NewResearchContext creates an empty context for one run.
func NewResearchContext(query string) *ResearchContext {
	return &ResearchContext{
		RunID:   uuid.NewString(),
		Query:   query,
		Started: time.Now().UTC(),
		slots:   make(map[string]string),
	}
}

// SetSlot writes a slot exactly once. A second write to the same slot is a
// scheduler defect and is rejected.
func (c *ResearchContext) SetSlot(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.slots[name]; exists {
		return fmt.Errorf("slot %q already written", name)
	}
	c.slots[name] = value
	return nil
}

// Slot reads one slot. The second return reports whether it was populated.
func (c *ResearchContext) Slot(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.slots[name]
	return v, ok
}

// Slots returns a copy of every populated slot.
func (c *ResearchContext) Slots() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.slots))
	for k, v := range c.slots {
		out[k] = v
	}
	return out
}

// AppendError appends one error trace to the run log.
func (c *ResearchContext) AppendError(trace string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, trace)
}

// Errors returns a copy of the accumulated error traces in append order.
func (c *ResearchContext) Errors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.errors))
	copy(out, c.errors)
	return out
}

// SetRecord stores the enrichment record built in phase 1.
func (c *ResearchContext) SetRecord(rec *types.EnrichmentRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record = rec
}

// Record returns the enrichment record, or nil when enrichment failed.
func (c *ResearchContext) Record() *types.EnrichmentRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record
}
