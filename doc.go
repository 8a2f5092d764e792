// Package taskflow is a dependency-driven scheduler for declaratively
// specified task flows.
//
// A task flow is a directed acyclic graph of steps. Each step calls a
// named, pluggable [Tool] with bounded retries, optional fallback tools,
// optional conditional gating, and explicit opportunities for parallel
// execution. The scheduler honors dependency ordering, maximizes
// concurrency where a flow declares it safe, isolates per-step failure,
// and makes upstream outputs available to downstream steps through a
// shared, TTL-scoped context store.
//
// # Quick Start
//
//	registry := taskflow.NewToolRegistry()
//	registry.Register(httpfetch.New())
//
//	flow, err := config.Parse(doc)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sched := taskflow.NewScheduler(registry, taskflow.NewContextManager(10*time.Minute), 4)
//	result := sched.ExecuteTask(ctx, flow)
//
// # Core Types
//
//   - [Tool] and [ToolRegistry] — the pluggable capability surface.
//   - [ContextManager] — a thread-safe, TTL-scoped key-value store shared
//     across a run.
//   - [Scheduler] — the execution engine: [Scheduler.ExecuteTask] drives a
//     flow from start to finish and returns a [TaskExecutionResult].
//
// # Included Collaborators
//
// Tools: tools/httpfetch (web fetch + readability extraction),
// tools/docparse (PDF/CSV/Markdown extraction), tools/pdfreport (minimal
// PDF report writer), tools/knowledge (SQLite-backed keyword retrieval).
// Configuration: config (YAML task flow documents with environment
// variable substitution). Entry points: cmd/taskflow (CLI),
// cmd/taskflow-server (HTTP service).
package taskflow
