package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/config"
	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/export"
	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/handlers"
	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/queue"
	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/ratelimit"
	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/repository"
	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/services"
	xhttp "github.com/andrewPaul004/ColorGarbApp-sub004/pkg/http"
	"github.com/andrewPaul004/ColorGarbApp-sub004/pkg/logger"
	"github.com/andrewPaul004/ColorGarbApp-sub004/pkg/pg"
	"github.com/andrewPaul004/ColorGarbApp-sub004/pkg/prom"
	"github.com/andrewPaul004/ColorGarbApp-sub004/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 30))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Use(handlers.AuthMiddleware(config.Get().JWTSecret))
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	// webhooks only get enqueued here, the processor binary drains them
	webhookQueue, err := queue.NewQueue(redisAdap, queue.QueueConfig{
		Name:              config.Get().QueueName,
		ConsumerGroup:     config.Get().QueueConsumerGroup,
		ConsumerName:      config.Get().QueueConsumerName,
		MaxRetries:        config.Get().QueueMaxRetries,
		VisibilityTimeout: config.Get().QueueVisibilityTimeout,
		PollInterval:      config.Get().QueuePollInterval,
		BatchSize:         config.Get().QueueBatchSize,
		MaxLen:            config.Get().QueueMaxLen,
		EnableDLQ:         config.Get().QueueEnableDLQ,
	})
	if err != nil {
		logger.Error("failed creating queue", "error", err)
		return
	}

	auditRepo := repository.NewCommunicationAuditRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// services
	auditService := services.NewAuditService(auditRepo, orderRepo)
	healthService := services.NewHealthService(db, redisAdap)

	dispatcher := export.NewWorkerDispatcher(1024, 4)
	go func() {
		if err := dispatcher.Start(); err != nil {
			logger.Error("export dispatcher stopped", "error", err)
		}
	}()

	jobStore := export.NewMemoryJobStore()
	exportService := export.NewService(auditRepo, auditService, jobStore, dispatcher, export.Config{
		InlineThreshold: int64(config.Get().ExportInlineThreshold),
		MaxRecords:      config.Get().ExportMaxRecords,
		JobRetention:    config.Get().ExportJobRetention,
	})
	exportLimiter := ratelimit.New(redisAdap, int64(config.Get().ExportRateLimit), config.Get().ExportRateLimitWindow, "ratelimit:export:")

	// expired job sweeper
	cleanupDone := make(chan struct{})
	go func() {
		t := time.NewTicker(10 * time.Minute)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				if n := exportService.CleanupJobs(); n > 0 {
					logger.Info("cleaned up expired export jobs", "count", n)
				}
			case <-cleanupDone:
				return
			}
		}
	}()

	// v1 handlers
	auditHandler := handlers.NewAuditHandler(auditService)
	exportHandler := handlers.NewExportHandler(exportService, exportLimiter)
	webhookHandler := handlers.NewWebhookHandler(webhookQueue, config.Get().ProviderWebhookToken)
	healthHandler := handlers.NewHealthHandler(healthService)

	g := s.Router.Group("/api/v1")
	handlers.RegisterAuditRoutes(g, auditHandler)
	handlers.RegisterExportRoutes(g, exportHandler)
	handlers.RegisterWebhookRoutes(g, webhookHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	hostname, _ := os.Hostname()
	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus registry", "error", err)
	}
	if addr := config.Get().AppDebugMetricsAddr; addr != "" {
		uri := config.Get().AppDebugMetricsURI
		if uri == "" {
			uri = "/metrics"
		}
		go func() {
			prom.ListenAndServer(addr, uri)
		}()
	}

	// Create new server
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Kill, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	select {
	case <-c:
		close(cleanupDone)
		dispatcher.Stop()
		s.Shutdown()
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
