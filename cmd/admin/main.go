package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/GSA/notifications-admin-sub001/internal/apiclient"
	"github.com/GSA/notifications-admin-sub001/internal/config"
	"github.com/GSA/notifications-admin-sub001/internal/handler"
	accountHandler "github.com/GSA/notifications-admin-sub001/internal/handler/account"
	jobHandler "github.com/GSA/notifications-admin-sub001/internal/handler/job"
	notificationHandler "github.com/GSA/notifications-admin-sub001/internal/handler/notification"
	uploadHandler "github.com/GSA/notifications-admin-sub001/internal/handler/upload"
	"github.com/GSA/notifications-admin-sub001/internal/middleware"
	"github.com/GSA/notifications-admin-sub001/internal/router"
	"github.com/GSA/notifications-admin-sub001/internal/rowcache"
	exportService "github.com/GSA/notifications-admin-sub001/internal/service/export"
	jobService "github.com/GSA/notifications-admin-sub001/internal/service/job"
	notificationService "github.com/GSA/notifications-admin-sub001/internal/service/notification"
	uploadService "github.com/GSA/notifications-admin-sub001/internal/service/upload"
	"github.com/GSA/notifications-admin-sub001/internal/storage"
	"github.com/GSA/notifications-admin-sub001/pkg/logger"
	"github.com/GSA/notifications-admin-sub001/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, secrets, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	tz, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("failed to load timezone")
	}

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics("notify_admin", registry)

	// Initialize the Redis row cache store
	kv, err := rowcache.NewRedisKV(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}

	// Initialize object stores, one client per bucket credential pair
	ctx := context.Background()
	csvClient, err := storage.NewS3Client(ctx, config.CSVUploadCredentials(cfg, secrets))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build csv upload bucket client")
	}
	csvStore := storage.NewStore(csvClient, cfg.Buckets.CSVUpload.Name)

	contactClient, err := storage.NewS3Client(ctx, config.ContactListCredentials(cfg, secrets))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build contact list bucket client")
	}
	contactStore := storage.NewStore(contactClient, cfg.Buckets.ContactList.Name)

	logoClient, err := storage.NewS3Client(ctx, config.LogoUploadCredentials(cfg, secrets))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build logo bucket client")
	}
	logoStore := storage.NewStore(logoClient, cfg.Buckets.LogoUpload.Name)

	rows := rowcache.NewCache(kv, csvStore, appLogger, m)

	// Initialize the notifications API client
	api := apiclient.NewClient(apiclient.Config{
		HostName:       cfg.API.HostName,
		ClientUserName: secrets.ClientUserName,
		ClientSecret:   secrets.ClientSecret,
		Timeout:        cfg.API.Timeout(),
	}, appLogger, m)

	// Initialize services
	uploadSvc := uploadService.NewService(csvStore, contactStore, rows, appLogger, m)
	jobSvc := jobService.NewService(api, uploadSvc, appLogger, m)
	notificationSvc := notificationService.NewService(api, appLogger)
	exportSvc := exportService.NewService(api, csvStore, tz, appLogger, m)

	// Initialize middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(secrets.SessionSecret)
	tmpl := handler.Templates()

	h := handler.NewHandler(map[string]handler.Pinger{"redis": kv})
	uploadH := uploadHandler.NewHandler(uploadSvc, api, rows, cfg.DefaultServiceLimit)
	jobH := jobHandler.NewHandler(jobSvc, notificationSvc, exportSvc, tmpl)
	notificationH := notificationHandler.NewHandler(notificationSvc, exportSvc, tmpl)
	accountH := accountHandler.NewHandler(logoStore, appLogger)

	// Setup router
	r := router.NewRouter(
		authMiddleware,
		uploadH,
		jobH,
		notificationH,
		accountH,
		h,
		registry,
		router.Config{
			RateLimit:      rate.Limit(cfg.RateLimit.Rate),
			RateBurst:      cfg.RateLimit.Burst,
			RequestTimeout: cfg.Server.Timeout(),
			MetricsPrefix:  "notify_admin_http",
		},
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	// Start server
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
