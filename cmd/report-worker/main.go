// cmd/report-worker/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"report-workers/internal/common/camunda"
	"report-workers/internal/common/config"
	"report-workers/internal/common/database"
	"report-workers/internal/common/logger"
	"report-workers/internal/common/observability"
	"report-workers/internal/common/validation"
	"report-workers/internal/report/assembler"
	"report-workers/internal/report/audit"
	"report-workers/internal/report/docstore"
	"report-workers/internal/report/exportindex"
	"report-workers/internal/report/template"
	"report-workers/internal/report/tradeconfig"
	"report-workers/pkg/registry"

	erd "report-workers/internal/workers/reporting/export-report-docx"
	grt "report-workers/internal/workers/reporting/generate-report-text"
	rrd "report-workers/internal/workers/reporting/release-report-document"
	srt "report-workers/internal/workers/reporting/select-report-template"
	urt "report-workers/internal/workers/reporting/upload-report-template"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console", "stderr")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting report worker...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: cfg.Camunda.Plaintext,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		RetryConfig: &camunda.RetryConfig{
			MaxRetries: 10,
			BaseDelay:  2 * time.Second,
			MaxDelay:   30 * time.Second,
		},
	}, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	// --- Redis (finished documents) ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- PostgreSQL (audit trail, trade configs) ---
	var pg *database.PostgresClient
	if cfg.Database.Postgres.Enabled() {
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- Elasticsearch (export index) ---
	var esClient *database.ElasticsearchClient
	if cfg.Reports.IndexEnabled {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Activity registry ---
	reg, err := registry.LoadRegistry(cfg.RegistryPath)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}
	if err := reg.Validate(); err != nil {
		zapLog.Fatal("activity registry invalid", zap.Error(err))
	}
	validator, err := validation.NewValidator(reg)
	if err != nil {
		zapLog.Fatal("input schemas failed to compile", zap.Error(err))
	}

	trades, err := newTradeStore(ctx, cfg, pg, log)
	if err != nil {
		zapLog.Fatal("trade config store failed", zap.Error(err))
	}

	// --- Workers ---
	var workers []*camunda.CamundaWorker
	start := func(name, taskType string, handler camunda.JobHandler) {
		wcfg := config.GetWorkerConfig(cfg, name)
		if !wcfg.Enabled {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), taskType, camunda.WorkerOptions{
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
		}, handler, log))
	}

	{
		c := srt.DefaultConfig()
		applyWorkerConfig(cfg, "select-report-template", &c.Timeout, &c.MaxJobsActive)
		c.TemplatesRoot = cfg.Templates.Root
		mustValidate(zapLog, srt.TaskType, c.Validate())
		start("select-report-template", srt.TaskType, srt.NewHandler(c, validator, log).Handle)
	}

	{
		c := urt.DefaultConfig()
		applyWorkerConfig(cfg, "upload-report-template", &c.Timeout, &c.MaxJobsActive)
		c.TemplatesRoot = cfg.Templates.Root
		mustValidate(zapLog, urt.TaskType, c.Validate())
		start("upload-report-template", urt.TaskType, urt.NewHandler(c, validator, log).Handle)
	}

	documents := docstore.NewStore(redis.Client, config.GetDuration(cfg.Reports.DocumentTTL), log)

	{
		c := erd.DefaultConfig()
		applyWorkerConfig(cfg, "export-report-docx", &c.Timeout, &c.MaxJobsActive)
		mustValidate(zapLog, erd.TaskType, c.Validate())

		deps := erd.Dependencies{
			Assembler: assembler.New(
				template.NewResolver(template.Layout{Root: cfg.Templates.Root}, log),
				assembler.Options{ImageWidthEMU: cfg.Reports.ImageWidthEMU, Metrics: obs},
				log,
			),
			Documents: documents,
			Validator: validator,
		}
		if cfg.Reports.AuditEnabled {
			recorder := audit.NewRecorder(pg.DB, log)
			if err := recorder.EnsureSchema(ctx); err != nil {
				zapLog.Fatal("audit schema failed", zap.Error(err))
			}
			deps.Audit = recorder
		}
		if cfg.Reports.IndexEnabled {
			deps.Index = exportindex.NewIndexer(esClient.Client, cfg.Reports.ExportIndex, log)
		}
		start("export-report-docx", erd.TaskType, erd.NewHandler(c, deps, log).Handle)
	}

	{
		c := rrd.DefaultConfig()
		applyWorkerConfig(cfg, "release-report-document", &c.Timeout, &c.MaxJobsActive)
		mustValidate(zapLog, rrd.TaskType, c.Validate())
		start("release-report-document", rrd.TaskType, rrd.NewHandler(c, documents, validator, log).Handle)
	}

	{
		c := grt.DefaultConfig()
		applyWorkerConfig(cfg, "generate-report-text", &c.Timeout, &c.MaxJobsActive)
		c.GenAIBaseURL = cfg.APIs.GenAI.BaseURL
		c.GenAIAPIKey = cfg.APIs.GenAI.APIKey
		c.MaxRetries = cfg.APIs.GenAI.MaxRetries
		if config.IsWorkerEnabled(cfg, "generate-report-text") {
			mustValidate(zapLog, grt.TaskType, c.Validate())
		}
		start("generate-report-text", grt.TaskType, grt.NewHandler(c, trades, validator, log).Handle)
	}

	zapLog.Info("Report workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := zeebe.HealthCheck(checkCtx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err)
			return
		}
		if err := redis.Ping(checkCtx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err)
			return
		}
		writeStatus(w, http.StatusOK, "ready", nil)
	})
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: cfg.HTTP.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}

	zapLog.Info("Report worker stopped gracefully")
}

func newTradeStore(ctx context.Context, cfg *config.Config, pg *database.PostgresClient, log logger.Logger) (tradeconfig.Store, error) {
	if cfg.Templates.TradeConfigBackend != "postgres" {
		return tradeconfig.NewFileStore(cfg.Templates.TradeConfigPath, log), nil
	}
	store := tradeconfig.NewPostgresStore(pg.DB, log)
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("trade config schema: %w", err)
	}
	return store, nil
}

// applyWorkerConfig copies the shared per-worker settings over a worker's defaults.
func applyWorkerConfig(cfg *config.Config, name string, timeout *time.Duration, maxJobs *int) {
	wcfg, ok := cfg.Workers[name]
	if !ok {
		return
	}
	if wcfg.Timeout > 0 {
		*timeout = config.GetDuration(wcfg.Timeout)
	}
	if wcfg.MaxJobsActive > 0 {
		*maxJobs = wcfg.MaxJobsActive
	}
}

func mustValidate(log *zap.Logger, taskType string, err error) {
	if err != nil {
		log.Fatal("invalid worker config", zap.String("taskType", taskType), zap.Error(err))
	}
}

func writeStatus(w http.ResponseWriter, code int, status string, err error) {
	body := map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if err != nil {
		body["error"] = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
