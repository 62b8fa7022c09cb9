// cmd/onboarding-server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"client-onboarding/internal/common/auth"
	awsclients "client-onboarding/internal/common/aws"
	"client-onboarding/internal/common/camunda"
	"client-onboarding/internal/common/config"
	"client-onboarding/internal/common/database"
	"client-onboarding/internal/common/docstore"
	"client-onboarding/internal/common/graph"
	"client-onboarding/internal/common/lock"
	"client-onboarding/internal/common/logger"
	"client-onboarding/internal/common/notify"
	"client-onboarding/internal/common/observability"
	"client-onboarding/internal/common/render"
	"client-onboarding/internal/server"

	approve "client-onboarding/internal/workers/onboarding/approve-application"
	checkdup "client-onboarding/internal/workers/onboarding/check-duplicate"
	submit "client-onboarding/internal/workers/onboarding/submit-application"
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
	configPath := flag.String("config", "", "Path to a YAML config file (default: configs/config.yaml lookup)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting onboarding server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	ctx := context.Background()

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer func() {
		if err := obs.Shutdown(context.Background()); err != nil {
			zapLog.Error("observability shutdown failed", zap.Error(err))
		}
	}()

	graphTimeout := config.GetDuration(cfg.Graph.Timeout)

	// --- Microsoft Graph: document library and mailbox ---
	tenantID, clientID, clientSecret := cfg.StorageCredentials()
	storageHTTP := auth.NewHTTPClient(ctx, auth.ClientCredentials{
		AuthorityURL: cfg.Graph.AuthorityURL,
		TenantID:     tenantID,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}, graphTimeout)
	storageGraph := graph.NewClient(cfg.Graph.BaseURL, storageHTTP, graphTimeout)

	store := docstore.NewSharePointStore(storageGraph, docstore.SharePointConfig{
		Hostname:        cfg.SharePoint.Hostname(),
		SitePath:        cfg.SharePoint.SitePath(),
		DocumentLibrary: cfg.SharePoint.DocumentLibrary,
	}, log)

	notifyOpts := notify.Options{
		Provider:   cfg.Notifications.Provider,
		From:       cfg.Email.From,
		To:         cfg.Email.LegalTeam,
		SMSEnabled: cfg.Notifications.SMS.Enabled,
		SMSPhone:   cfg.Notifications.SMS.ApproverPhone,
	}
	if cfg.Notifications.Provider == notify.ProviderGraph {
		mailHTTP := auth.NewHTTPClient(ctx, auth.ClientCredentials{
			AuthorityURL: cfg.Graph.AuthorityURL,
			TenantID:     cfg.Email.TenantID,
			ClientID:     cfg.Email.ClientID,
			ClientSecret: cfg.Email.ClientSecret,
		}, graphTimeout)
		notifyOpts.Mail = graph.NewClient(cfg.Graph.BaseURL, mailHTTP, graphTimeout)
	}
	if cfg.Notifications.Provider == notify.ProviderSES || cfg.Notifications.SMS.Enabled {
		clients, err := awsclients.NewClients(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws client init failed", zap.Error(err))
		}
		notifyOpts.SES = clients.SES
		notifyOpts.SNS = clients.SNS
	}
	notifier, err := notify.New(notifyOpts, log)
	if err != nil {
		zapLog.Fatal("notifier init failed", zap.Error(err))
	}

	// --- Client folder lock ---
	var lockStore redis.Cmdable
	if cfg.Locking.Backend == lock.BackendRedis {
		var rdb *redis.Client
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(ctx, cfg.Database.Redis)
			return err
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		lockStore = rdb
		zapLog.Info("Redis connected successfully")
	}
	locker, err := lock.New(cfg.Locking.Backend, lockStore, config.GetDuration(cfg.Locking.TTL))
	if err != nil {
		zapLog.Fatal("lock init failed", zap.Error(err))
	}

	renderer := render.New()

	// --- Workflow handlers ---
	checkCfg := checkdup.LoadConfig()
	checkCfg.ExposeErrorDetails = cfg.Server.ExposeErrorDetails
	checkHandler := checkdup.NewHandler(checkCfg, store, log)

	submitCfg := submit.LoadConfig()
	submitCfg.MaxFileBytes = cfg.Server.MaxFileBytes
	submitCfg.MaxRequestBytes = cfg.Server.MaxRequestBytes
	submitCfg.BaseURL = cfg.Server.BaseURL
	submitCfg.SiteURL = cfg.SharePoint.SiteURL
	submitCfg.SiteName = cfg.SharePoint.SiteName
	submitCfg.DocumentLibrary = cfg.SharePoint.DocumentLibrary
	submitCfg.ExposeErrorDetails = cfg.Server.ExposeErrorDetails
	submitHandler := submit.NewHandler(submitCfg, submit.Dependencies{
		Store:         store,
		Renderer:      renderer,
		Notifier:      notifier,
		Locker:        locker,
		Observability: obs,
	}, log)

	approveCfg := approve.LoadConfig()
	approveCfg.ExposeErrorDetails = cfg.Server.ExposeErrorDetails
	approveHandler := approve.NewHandler(approveCfg, approve.Dependencies{
		Store:         store,
		Renderer:      renderer,
		Observability: obs,
	}, log)

	// --- Optional Zeebe approval worker ---
	var zeebe *camunda.Client
	var approveWorker *camunda.Worker
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClient(ctx, camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")

		approveWorker = camunda.NewWorker(
			zeebe.GetClient(),
			approve.TaskType,
			cfg.Camunda.MaxJobsActive,
			config.GetDuration(cfg.Camunda.Timeout),
			approveHandler,
			log,
		)
	}

	// --- HTTP server ---
	srv := server.New(cfg, store, server.Handlers{
		CheckDuplicate: checkHandler,
		Submit:         submitHandler,
		Approve:        approveHandler,
	}, log)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zapLog.Info("HTTP server listening",
			zap.Int("port", cfg.Server.Port),
			zap.String("baseUrl", cfg.Server.BaseURL),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	if approveWorker != nil {
		approveWorker.Stop()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Onboarding server stopped")
}
