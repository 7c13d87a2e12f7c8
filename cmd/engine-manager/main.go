// cmd/engine-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"matching-engine/internal/common/config"
	"matching-engine/internal/common/database"
	"matching-engine/internal/common/embedding"
	"matching-engine/internal/common/logger"
	"matching-engine/internal/common/observability"
	"matching-engine/internal/engine/composite"
	"matching-engine/internal/engine/culture"
	"matching-engine/internal/engine/learning"
	"matching-engine/internal/engine/pipeline"
	"matching-engine/internal/engine/scoring"
	"matching-engine/internal/engine/weights"
	"matching-engine/internal/store/elastic"
	pgstore "matching-engine/internal/store/postgres"

	bm "matching-engine/internal/workers/matching/batch-match"
	mc "matching-engine/internal/workers/matching/match-candidates"

	po "matching-engine/internal/workers/learning/predict-outcome"
	rm "matching-engine/internal/workers/learning/retrain-model"
	sf "matching-engine/internal/workers/learning/submit-feedback"
	ta "matching-engine/internal/workers/learning/tenant-analytics"
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
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting engine manager...")

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe client with retry ---
	var zeebeClient zbc.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
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

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Stores ---
	jobStore := pgstore.NewJobStore(pg.DB)
	candidateStore := pgstore.NewCandidateStore(pg.DB)
	predictionStore := pgstore.NewPredictionStore(pg.DB)
	feedbackStore := pgstore.NewFeedbackStore(pg.DB)
	sampleStore := pgstore.NewSampleStore(pg.DB)
	versionStore := pgstore.NewVersionStore(pg.DB)
	analyticsStore := pgstore.NewAnalyticsStore(pg.DB)
	candidateSearch := elastic.NewCandidateSearch(esClient.Client, cfg.Database.Elasticsearch.CandidateIndex)

	// --- Scoring engine ---
	strategy := buildStrategy(cfg, rdb, zapLog)
	cultureEst := culture.NewEstimator(feedbackStore, log)
	weightCache := weights.NewRedisProfileCache(rdb.Client, 0)
	learner := weights.NewLearner(feedbackStore, weightCache, log)
	scorer := composite.NewScorer(strategy, cultureEst, learner, log)

	resultCache := pipeline.NewRedisResultCache(rdb.Client)
	batchPipeline := pipeline.New(scorer, weightCache, resultCache, pipeline.Options{
		ChunkSize: cfg.Scoring.ChunkSize,
		PoolSize:  cfg.Scoring.PoolSize,
		TopN:      cfg.Scoring.TopN,
	}, log)

	// --- Learning loop ---
	loop := learning.NewLoop(scorer, learner, predictionStore, feedbackStore, sampleStore, versionStore, log)
	retrainController := learning.NewRetrainController(sampleStore, versionStore, log)
	analyticsService := learning.NewAnalyticsService(analyticsStore, versionStore)

	// --- Register workers ---
	if cfg.Workers[mc.TaskType].Enabled {
		handler := mc.NewHandler(
			&mc.Config{
				Timeout:      time.Duration(cfg.Workers[mc.TaskType].Timeout) * time.Millisecond,
				DefaultLimit: cfg.Scoring.TopN,
				PoolSize:     100,
			},
			jobStore, candidateStore, candidateSearch, scorer, log,
		)
		startWorker(zeebeClient, mc.TaskType, cfg.Workers[mc.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[bm.TaskType].Enabled {
		handler := bm.NewHandler(
			&bm.Config{
				Timeout:         time.Duration(cfg.Workers[bm.TaskType].Timeout) * time.Millisecond,
				MaxBatchJobs:    cfg.Scoring.MaxBatchJobs,
				BatchCandidates: cfg.Scoring.BatchCandidates,
			},
			jobStore, candidateSearch, batchPipeline, log,
		)
		startWorker(zeebeClient, bm.TaskType, cfg.Workers[bm.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[po.TaskType].Enabled {
		handler := po.NewHandler(
			&po.Config{
				Timeout: time.Duration(cfg.Workers[po.TaskType].Timeout) * time.Millisecond,
			},
			jobStore, candidateStore, loop, log,
		)
		startWorker(zeebeClient, po.TaskType, cfg.Workers[po.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[sf.TaskType].Enabled {
		handler := sf.NewHandler(
			&sf.Config{
				Timeout: time.Duration(cfg.Workers[sf.TaskType].Timeout) * time.Millisecond,
			},
			jobStore, candidateStore, loop, log,
		)
		startWorker(zeebeClient, sf.TaskType, cfg.Workers[sf.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[rm.TaskType].Enabled {
		handler := rm.NewHandler(
			&rm.Config{
				Timeout: time.Duration(cfg.Workers[rm.TaskType].Timeout) * time.Millisecond,
			},
			retrainController, log,
		)
		startWorker(zeebeClient, rm.TaskType, cfg.Workers[rm.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[ta.TaskType].Enabled {
		handler := ta.NewHandler(
			&ta.Config{
				Timeout: time.Duration(cfg.Workers[ta.TaskType].Timeout) * time.Millisecond,
			},
			analyticsService, log,
		)
		startWorker(zeebeClient, ta.TaskType, cfg.Workers[ta.TaskType], handler.Handle, zapLog)
	}

	// --- Health & metrics server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("addr", cfg.App.MetricsAddr))
		if err := http.ListenAndServe(cfg.App.MetricsAddr, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Engine manager stopped gracefully")
}

// buildStrategy selects the scoring strategy at construction time. Advanced
// needs the embedding service; fallback is purely lexical.
func buildStrategy(cfg *config.Config, rdb *database.RedisClient, log *zap.Logger) scoring.Strategy {
	if cfg.Scoring.Strategy != "advanced" {
		log.Info("using fallback scoring strategy")
		return scoring.NewFallbackStrategy()
	}

	var provider embedding.Provider = embedding.NewHTTPProvider(cfg.Embedder)
	if cfg.Embedder.CacheTTL > 0 {
		provider = embedding.NewCachedProvider(provider, rdb.Client, time.Duration(cfg.Embedder.CacheTTL)*time.Second)
	}
	log.Info("using advanced scoring strategy", zap.String("model", cfg.Embedder.Model))
	return scoring.NewAdvancedStrategy(provider)
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
