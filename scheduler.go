package taskflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/flowforge/taskflow/config"
)

// StepStatus is the execution status of a step. Legal transitions are
// PENDING→RUNNING→{COMPLETED, FAILED} and PENDING→SKIPPED; no state is ever
// revisited.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// StepResult is the outcome of one step's execution.
type StepResult struct {
	StepID        string
	Status        StepStatus
	Output        any
	Error         string
	ExecutionTime time.Duration
	RetryCount    int
	ToolUsed      string
}

// TaskExecutionResult is the outcome of an entire task flow run.
type TaskExecutionResult struct {
	TaskName           string
	Success            bool
	StepResults        map[string]*StepResult
	TotalExecutionTime time.Duration
	ErrorSummary       []string
}

// Scheduler drives a TaskFlowConfig to completion: it selects ready steps
// each wave, evaluates conditions, lays out parallel groups, executes steps
// with retry/fallback policy, and aggregates results.
type Scheduler struct {
	registry *ToolRegistry
	context  *ContextManager
	sem      chan struct{}
	logger   *slog.Logger
	tracer   Tracer
}

// SchedulerOption configures a Scheduler at construction.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets the structured logger used for step lifecycle
// events. Defaults to slog.Default().
func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// WithTracer attaches a Tracer; step execution is wrapped in spans when set.
func WithTracer(t Tracer) SchedulerOption {
	return func(s *Scheduler) { s.tracer = t }
}

// NewScheduler constructs a Scheduler backed by registry and ctxMgr, with a
// worker pool bounded to maxWorkers concurrent tool invocations.
func NewScheduler(registry *ToolRegistry, ctxMgr *ContextManager, maxWorkers int, opts ...SchedulerOption) *Scheduler {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	s := &Scheduler{
		registry: registry,
		context:  ctxMgr,
		sem:      make(chan struct{}, maxWorkers),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExecuteTask drives flow from start to finish and returns a summary of
// every step's outcome. It never panics or returns an error: internal
// failures are surfaced through the result's ErrorSummary.
func (s *Scheduler) ExecuteTask(ctx context.Context, flow *config.TaskFlowConfig) *TaskExecutionResult {
	start := time.Now()
	s.logger.Info("starting task execution", "task", flow.Name)

	var span Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, "task.execute", StringAttr(AttrFlowName, flow.Name))
		defer span.End()
	}

	if errs := config.Validate(flow); len(errs) > 0 {
		err := &ErrValidation{Errors: errs}
		s.logger.Error("configuration validation failed", "error", err)
		if span != nil {
			span.Error(err)
		}
		return &TaskExecutionResult{
			TaskName:     flow.Name,
			Success:      false,
			ErrorSummary: err.Errors,
		}
	}

	results := make(map[string]*StepResult, len(flow.Steps))
	for _, step := range flow.Steps {
		results[step.ID] = &StepResult{StepID: step.ID, Status: StepPending}
	}

	s.runWaves(ctx, flow, results)

	success := true
	for _, r := range results {
		if r.Status != StepSkipped && r.Status != StepCompleted {
			success = false
			break
		}
	}

	totalTime := time.Since(start)
	s.logger.Info("task execution completed", "task", flow.Name, "success", success)

	return &TaskExecutionResult{
		TaskName:           flow.Name,
		Success:            success,
		StepResults:        results,
		TotalExecutionTime: totalTime,
	}
}

// runWaves is the wave loop: each iteration scans every PENDING step for
// readiness, evaluates conditions, partitions the ready set into parallel
// groups, and executes the whole wave concurrently before rescanning. It
// terminates when a wave finds no ready steps — any steps still PENDING at
// that point are unreachable (a failed/skipped dependency, or a cycle).
func (s *Scheduler) runWaves(ctx context.Context, flow *config.TaskFlowConfig, results map[string]*StepResult) {
	for {
		var ready []config.StepConfig
		for _, step := range flow.Steps {
			res := results[step.ID]
			if res.Status != StepPending {
				continue
			}
			if !dependenciesSatisfied(step, results) {
				continue
			}
			if checkCondition(step, results) {
				ready = append(ready, step)
			} else {
				res.Status = StepSkipped
				s.logger.Info("step skipped due to condition", "step", step.ID, "condition", step.Condition)
			}
		}

		if len(ready) == 0 {
			return
		}

		groups := groupParallelSteps(ready, flow.ParallelGroups)

		var wg sync.WaitGroup
		for _, group := range groups {
			group := group
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.executeGroup(ctx, group, results)
			}()
		}
		wg.Wait()
	}
}

// dependenciesSatisfied reports whether every dependency of step has
// reached COMPLETED. FAILED or SKIPPED dependencies never satisfy
// readiness — the dependent remains PENDING and becomes unreachable.
func dependenciesSatisfied(step config.StepConfig, results map[string]*StepResult) bool {
	for _, dep := range step.Dependencies {
		r, ok := results[dep]
		if !ok || r.Status != StepCompleted {
			return false
		}
	}
	return true
}

// checkCondition evaluates a step's guard. The grammar is intentionally
// minimal: an empty condition is always true; a "dep_<id>" condition is
// true iff that step's status is COMPLETED; any other non-empty string is
// true.
func checkCondition(step config.StepConfig, results map[string]*StepResult) bool {
	if step.Condition == "" {
		return true
	}
	if depID, ok := strings.CutPrefix(step.Condition, "dep_"); ok {
		r, exists := results[depID]
		return exists && r.Status == StepCompleted
	}
	return true
}

// groupParallelSteps partitions ready into execution groups. Declared
// parallel groups are honored first, in declaration order, each containing
// whichever of its named ids are currently ready and not yet consumed;
// every remaining ready step is then wrapped in its own singleton group.
// Empty groups are discarded.
func groupParallelSteps(ready []config.StepConfig, parallelGroups [][]string) [][]config.StepConfig {
	if len(parallelGroups) == 0 {
		groups := make([][]config.StepConfig, 0, len(ready))
		for _, step := range ready {
			groups = append(groups, []config.StepConfig{step})
		}
		return groups
	}

	byID := make(map[string]config.StepConfig, len(ready))
	for _, step := range ready {
		byID[step.ID] = step
	}
	used := make(map[string]bool, len(ready))

	var groups [][]config.StepConfig
	for _, groupIDs := range parallelGroups {
		var group []config.StepConfig
		for _, id := range groupIDs {
			if step, ok := byID[id]; ok && !used[id] {
				group = append(group, step)
				used[id] = true
			}
		}
		if len(group) > 0 {
			groups = append(groups, group)
		}
	}

	for _, step := range ready {
		if !used[step.ID] {
			groups = append(groups, []config.StepConfig{step})
		}
	}

	return groups
}

// executeGroup runs every member of a parallel group concurrently and
// waits for the whole group to finish.
func (s *Scheduler) executeGroup(ctx context.Context, group []config.StepConfig, results map[string]*StepResult) {
	var wg sync.WaitGroup
	for _, step := range group {
		step := step
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.executeStep(ctx, step, results)
		}()
	}
	wg.Wait()
}

// executeStep runs a single PENDING→RUNNING→{COMPLETED,FAILED} transition.
func (s *Scheduler) executeStep(ctx context.Context, step config.StepConfig, results map[string]*StepResult) {
	res := results[step.ID]
	res.Status = StepRunning
	start := time.Now()

	var span Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, "step.execute",
			StringAttr(AttrStepID, step.ID),
			StringAttr(AttrStepName, step.Name),
			StringAttr(AttrStepTool, step.Tool))
		defer span.End()
	}

	tool, ok := s.registry.Get(step.Tool)
	if !ok {
		err := &ErrToolNotFound{Tool: step.Tool}
		res.Status = StepFailed
		res.Error = err.Error()
		res.ExecutionTime = time.Since(start)
		s.logger.Error("step failed", "step", step.ID, "error", err)
		if span != nil {
			span.Error(err)
			span.SetAttr(StringAttr(AttrStepStatus, string(res.Status)))
		}
		return
	}

	input := prepareStepInput(step, results)

	output, toolUsed, attempts, err := s.executeWithRetry(ctx, tool, step, input)
	res.ExecutionTime = time.Since(start)
	// RetryCount reports retries actually spent (attempts beyond the first),
	// matching the retry_count config field it's measured against.
	res.RetryCount = attempts - 1

	if err != nil {
		res.Status = StepFailed
		res.Error = err.Error()
		s.logger.Error("step failed", "step", step.ID, "error", err)
		if span != nil {
			span.Error(err)
			span.SetAttr(StringAttr(AttrStepStatus, string(res.Status)), IntAttr(AttrStepRetries, res.RetryCount))
		}
		return
	}

	res.Status = StepCompleted
	res.Output = output
	res.ToolUsed = toolUsed
	s.context.Set(fmt.Sprintf("step_%s_output", step.ID), output, step.ID)
	s.logger.Info("step completed", "step", step.ID, "tool", toolUsed)
	if span != nil {
		span.SetAttr(
			StringAttr(AttrStepToolUsed, toolUsed),
			StringAttr(AttrStepStatus, string(res.Status)),
			IntAttr(AttrStepRetries, res.RetryCount))
	}
}

// executeWithRetry runs the primary tool for up to 1+step.RetryCount
// attempts, sleeping step.RetryDelay between failures, then falls through
// to each fallback tool in order for a single attempt apiece. It returns
// the winning output, the name of whichever tool actually produced it, and
// the number of primary attempts spent.
func (s *Scheduler) executeWithRetry(ctx context.Context, tool Tool, step config.StepConfig, input map[string]any) (output any, toolUsed string, primaryAttempts int, err error) {
	var lastErr error
	maxAttempts := 1 + step.RetryCount

	for attempt := 0; attempt < maxAttempts; attempt++ {
		primaryAttempts++
		out, rerr := s.dispatch(ctx, tool, input)
		if rerr == nil {
			return out, step.Tool, primaryAttempts, nil
		}
		lastErr = rerr

		if attempt < maxAttempts-1 {
			s.logger.Warn("step attempt failed, retrying", "step", step.ID, "attempt", attempt+1, "error", rerr)
			timer := time.NewTimer(step.RetryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, "", primaryAttempts, ctx.Err()
			case <-timer.C:
			}
		} else {
			s.logger.Error("step retries exhausted", "step", step.ID, "error", rerr)
		}
	}

	for _, name := range step.FallbackTools {
		fallback, ok := s.registry.Get(name)
		if !ok {
			s.logger.Warn("fallback tool not found, skipping", "step", step.ID, "tool", name)
			continue
		}
		s.logger.Info("trying fallback tool", "step", step.ID, "tool", name)
		out, rerr := s.dispatch(ctx, fallback, input)
		if rerr == nil {
			return out, name, primaryAttempts, nil
		}
		s.logger.Warn("fallback tool failed", "step", step.ID, "tool", name, "error", rerr)
		lastErr = rerr
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("all execution attempts failed")
	}
	return nil, "", primaryAttempts, lastErr
}

// dispatch runs tool.Run on the bounded worker pool with a snapshot of the
// global context scope taken at dispatch time.
func (s *Scheduler) dispatch(ctx context.Context, tool Tool, input map[string]any) (any, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.sem }()

	scope := s.context.GetAll(globalScope)
	return tool.Run(ctx, input, scope)
}

// prepareStepInput builds the mapping passed to a tool's Run: a shallow
// copy of the step's parameters, augmented with "dep_<id>_output" for every
// dependency whose result carries a non-nil output.
func prepareStepInput(step config.StepConfig, results map[string]*StepResult) map[string]any {
	input := make(map[string]any, len(step.Parameters)+len(step.Dependencies))
	for k, v := range step.Parameters {
		input[k] = v
	}
	for _, dep := range step.Dependencies {
		if r, ok := results[dep]; ok && r.Output != nil {
			input[fmt.Sprintf("dep_%s_output", dep)] = r.Output
		}
	}
	return input
}
