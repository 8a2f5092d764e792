// Command taskflow runs a task flow document once and prints a summary of
// the execution result.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	taskflow "github.com/flowforge/taskflow"
	"github.com/flowforge/taskflow/config"
	appconfig "github.com/flowforge/taskflow/internal/config"
	"github.com/flowforge/taskflow/internal/telemetry"
	"github.com/flowforge/taskflow/tools/docparse"
	"github.com/flowforge/taskflow/tools/httpfetch"
	"github.com/flowforge/taskflow/tools/knowledge"
	"github.com/flowforge/taskflow/tools/pdfreport"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <flow.yaml>", os.Args[0])
	}
	flowPath := os.Args[1]

	cfg := appconfig.Load(os.Getenv("TASKFLOW_CONFIG"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var tracer taskflow.Tracer
	if cfg.Observer.Enabled {
		shutdown, err := telemetry.Init(ctx)
		if err != nil {
			log.Fatalf("telemetry init: %v", err)
		}
		defer shutdown(ctx)
		tracer = telemetry.NewTracer()
	}

	flow, err := config.ParseFile(flowPath)
	if err != nil {
		log.Fatalf("parse flow: %v", err)
	}

	registry := taskflow.NewToolRegistry()
	registry.Register(httpfetch.New())
	registry.Register(docparse.New())
	registry.Register(pdfreport.New())

	kb, err := knowledge.New(knowledgeDBPath())
	if err != nil {
		log.Fatalf("knowledge tool: %v", err)
	}
	defer kb.Close()
	registry.Register(kb)

	ctxMgr := taskflow.NewContextManager(cfg.Scheduler.ContextExpiration)

	opts := []taskflow.SchedulerOption{taskflow.WithSchedulerLogger(slog.Default())}
	if tracer != nil {
		opts = append(opts, taskflow.WithTracer(tracer))
	}
	scheduler := taskflow.NewScheduler(registry, ctxMgr, cfg.Scheduler.MaxWorkers, opts...)

	start := time.Now()
	result := scheduler.ExecuteTask(ctx, flow)

	printSummary(result, time.Since(start))
	if !result.Success {
		os.Exit(1)
	}
}

func knowledgeDBPath() string {
	if p := os.Getenv("TASKFLOW_KNOWLEDGE_DB"); p != "" {
		return p
	}
	return "taskflow-knowledge.db"
}

func printSummary(result *taskflow.TaskExecutionResult, elapsed time.Duration) {
	fmt.Printf("task: %s\n", result.TaskName)
	fmt.Printf("success: %v\n", result.Success)
	fmt.Printf("elapsed: %s\n", elapsed)
	for _, errMsg := range result.ErrorSummary {
		fmt.Printf("error: %s\n", errMsg)
	}
	for id, step := range result.StepResults {
		fmt.Printf("  %-20s %-10s retries=%d tool=%s time=%s\n",
			id, step.Status, step.RetryCount, step.ToolUsed, step.ExecutionTime)
		if step.Error != "" {
			fmt.Printf("    error: %s\n", step.Error)
		}
	}
}
