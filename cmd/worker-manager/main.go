// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"automatch-workers/internal/common/camunda"
	"automatch-workers/internal/common/config"
	"automatch-workers/internal/common/logger"
	"automatch-workers/internal/common/observability"
	"automatch-workers/internal/models"
	"automatch-workers/internal/pipeline"
	"automatch-workers/pkg/registry"

	cpu "automatch-workers/internal/workers/matching/candidate-profile-updated"
	jpu "automatch-workers/internal/workers/matching/job-posting-updated"
	rmb "automatch-workers/internal/workers/matching/run-matching-batch"
	ssc "automatch-workers/internal/workers/matching/search-similar-candidates"
	uap "automatch-workers/internal/workers/matching/update-autoapply-preference"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("vectorStore", cfg.Matching.VectorStore),
	)

	obs := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint, log)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = pipeline.RetryWithBackoff(ctx, func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, log, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init storage backends with retry ---
	conns, err := pipeline.Connect(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("storage connection failed", zap.Error(err))
	}
	defer conns.Close()

	p, err := pipeline.New(ctx, cfg, conns, log)
	if err != nil {
		zapLog.Fatal("pipeline setup failed", zap.Error(err))
	}
	if err := p.Migrate(ctx); err != nil {
		zapLog.Fatal("schema migration failed", zap.Error(err))
	}

	// --- Register matching workers ---
	activities := registry.Default()
	if err := activities.Validate(); err != nil {
		zapLog.Fatal("activity registry invalid", zap.Error(err))
	}
	client := zeebe.GetClient()
	var workers []worker.JobWorker

	if wc := config.GetWorkerConfig(cfg, rmb.TaskType); wc.Enabled {
		c := rmb.LoadConfig(wc)
		handler := rmb.NewHandler(c, p.Orchestrator, p.RunOptions(models.TriggerWorkflow), log)
		workers = append(workers, startWorker(client, obs, rmb.TaskType, c.MaxJobsActive, c.Timeout, handler.Handle, log))
	}

	if wc := config.GetWorkerConfig(cfg, uap.TaskType); wc.Enabled {
		c := uap.LoadConfig(wc)
		handler := uap.NewHandler(c, p.Limiter, log)
		workers = append(workers, startWorker(client, obs, uap.TaskType, c.MaxJobsActive, c.Timeout, handler.Handle, log))
	}

	if wc := config.GetWorkerConfig(cfg, cpu.TaskType); wc.Enabled {
		c := cpu.LoadConfig(wc)
		handler := cpu.NewHandler(c, p.Lifecycle, log)
		workers = append(workers, startWorker(client, obs, cpu.TaskType, c.MaxJobsActive, c.Timeout, handler.Handle, log))
	}

	if wc := config.GetWorkerConfig(cfg, jpu.TaskType); wc.Enabled {
		c := jpu.LoadConfig(wc)
		handler := jpu.NewHandler(c, p.Lifecycle, log)
		workers = append(workers, startWorker(client, obs, jpu.TaskType, c.MaxJobsActive, c.Timeout, handler.Handle, log))
	}

	if wc := config.GetWorkerConfig(cfg, ssc.TaskType); wc.Enabled {
		c := ssc.LoadConfig(wc)
		handler := ssc.NewHandler(c, p.Index, log)
		workers = append(workers, startWorker(client, obs, ssc.TaskType, c.MaxJobsActive, c.Timeout, handler.Handle, log))
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	srv := &http.Server{
		Addr:              cfg.App.HTTPAddr,
		Handler:           healthMux(p, zeebe, activities),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, w := range workers {
		w.Close()
	}
	for _, w := range workers {
		w.AwaitClose()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func healthMux(p *pipeline.Pipeline, zeebe *camunda.Client, activities *registry.ActivityRegistry) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", "")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := p.Ready(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not_ready", err.Error())
			return
		}
		if err := zeebe.HealthCheck(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not_ready", err.Error())
			return
		}
		writeStatus(w, http.StatusOK, "ready", "")
	})
	mux.HandleFunc("/activities", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(activities)
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, code int, status, reason string) {
	body := map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if reason != "" {
		body["reason"] = reason
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func startWorker(
	client zbc.Client,
	obs *observability.Observability,
	taskType string,
	maxJobsActive int,
	timeout time.Duration,
	handlerFunc func(worker.JobClient, entities.Job),
	log logger.Logger,
) worker.JobWorker {
	traced := func(jc worker.JobClient, job entities.Job) {
		started := time.Now()
		ctx, span := obs.StartSpan(context.Background(), taskType,
			attribute.Int64("job_key", job.Key),
			attribute.Int64("process_instance_key", job.ProcessInstanceKey),
		)
		defer span.End()

		handlerFunc(jc, job)

		obs.RecordJobProcessed(ctx, taskType, "handled")
		obs.RecordJobDuration(ctx, taskType, time.Since(started), "handled")
	}

	return camunda.OpenWorker(client, camunda.WorkerOptions{
		TaskType:      taskType,
		MaxJobsActive: maxJobsActive,
		Timeout:       timeout,
	}, traced, log)
}
