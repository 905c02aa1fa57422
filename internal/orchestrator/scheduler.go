// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/repurpose-engine/internal/agents"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// turnBudgetPlaceholder fills a slot whose task looped past its tool-use
// budget. Distinct from the generic failure text because it usually points
// at a tool malfunction rather than a data problem.
const turnBudgetPlaceholder = "Agent exceeded its maximum conversation turns. " +
	"This usually indicates a tool error or a task that was too complex."

// Task is one unit of phase work. Run produces the text for the task's slot.
type Task struct {
	Slot string
	Run  func(ctx context.Context) (string, error)
}

// Phase is a named group of tasks started together. The scheduler does not
// release the next phase until every task has settled.
type Phase struct {
	Name  string
	Tasks []Task
}

// Scheduler executes phases strictly in order with gather semantics.
type Scheduler struct {
	Cfg types.OrchestratorConfig
	Log *zap.Logger
}

// RunPhases drives every phase to completion. Task failures are contained
// into slot placeholders and the error log; RunPhases itself fails only when
// the caller's context is cancelled between phases.
func (s *Scheduler) RunPhases(ctx context.Context, rc *ResearchContext, phases []Phase) error {
	for _, phase := range phases {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run cancelled before phase %s: %w", phase.Name, err)
		}

		s.logger().Info("phase started",
			zap.String("run_id", rc.RunID),
			zap.String("phase", phase.Name),
			zap.Int("tasks", len(phase.Tasks)))
		start := time.Now()

		var wg sync.WaitGroup
		for _, task := range phase.Tasks {
			task := task
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.runTask(ctx, rc, task)
			}()
		}
		wg.Wait()

		s.logger().Info("phase settled",
			zap.String("phase", phase.Name),
			zap.Duration("elapsed", time.Since(start)))
	}
	return nil
}

// runTask executes one task under the per-task deadline and writes its slot.
// Panics, turn-budget exhaustion, and generic errors all settle into a
// placeholder so a sibling task is never blocked.
func (s *Scheduler) runTask(ctx context.Context, rc *ResearchContext, task Task) {
	timeout := s.Cfg.TaskTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			trace := fmt.Sprintf("task %s panicked: %v\n%s", task.Slot, r, debug.Stack())
			rc.AppendError(trace)
			s.settle(rc, task.Slot, fmt.Sprintf("Agent failed: %v", r))
			s.logger().Error("task panicked", zap.String("slot", task.Slot), zap.Any("panic", r))
		}
	}()

	result, err := task.Run(tctx)
	if err != nil {
		rc.AppendError(fmt.Sprintf("task %s: %v", task.Slot, err))

		var budgetErr *agents.TurnBudgetError
		if errors.As(err, &budgetErr) {
			s.logger().Warn("task exceeded turn budget",
				zap.String("slot", task.Slot),
				zap.Int("max_turns", budgetErr.MaxTurns))
			s.settle(rc, task.Slot, turnBudgetPlaceholder)
			return
		}

		s.logger().Warn("task failed", zap.String("slot", task.Slot), zap.Error(err))
		s.settle(rc, task.Slot, fmt.Sprintf("Agent failed: %v", err))
		return
	}

	s.settle(rc, task.Slot, result)
	s.logger().Info("task completed", zap.String("slot", task.Slot))
}

func (s *Scheduler) settle(rc *ResearchContext, slot, value string) {
	if err := rc.SetSlot(slot, value); err != nil {
		// Duplicate slot assignment is a scheduler construction defect.
		s.logger().Error("slot conflict", zap.String("slot", slot), zap.Error(err))
	}
}

func (s *Scheduler) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
