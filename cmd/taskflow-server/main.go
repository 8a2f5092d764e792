// Command taskflow-server exposes the scheduler over HTTP: POST a task flow
// document to execute it synchronously, or list the tools currently
// registered.
package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	taskflow "github.com/flowforge/taskflow"
	"github.com/flowforge/taskflow/config"
	appconfig "github.com/flowforge/taskflow/internal/config"
	"github.com/flowforge/taskflow/internal/telemetry"
	"github.com/flowforge/taskflow/tools/docparse"
	"github.com/flowforge/taskflow/tools/httpfetch"
	"github.com/flowforge/taskflow/tools/knowledge"
	"github.com/flowforge/taskflow/tools/pdfreport"
)

type server struct {
	scheduler *taskflow.Scheduler
	registry  *taskflow.ToolRegistry
}

func main() {
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

	registry := taskflow.NewToolRegistry()
	registry.Register(httpfetch.New())
	registry.Register(docparse.New())
	registry.Register(pdfreport.New())

	kb, err := knowledge.New(os.Getenv("TASKFLOW_KNOWLEDGE_DB"))
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

	srv := &server{scheduler: scheduler, registry: registry}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Post("/tasks/execute", srv.handleExecute)
	r.Get("/tools", srv.handleListTools)

	addr := os.Getenv("TASKFLOW_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	httpSrv := &http.Server{Addr: addr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	slog.Info("taskflow-server listening", "addr", addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server: %v", err)
	}
}

func (s *server) handleExecute(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	flow, err := config.Parse(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := s.scheduler.ExecuteTask(r.Context(), flow)

	w.Header().Set("Content-Type", "application/json")
	if !result.Success {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	json.NewEncoder(w).Encode(result)
}

func (s *server) handleListTools(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.registry.List())
}
