package main

import (
	"context"
	"errors"
	"homegallery/config"
	"homegallery/controller"
	"homegallery/database"
	"homegallery/logger"
	"homegallery/middlewares"
	"homegallery/resolver"
	"homegallery/route"
	"homegallery/storage"
	"homegallery/telemetry"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load(config.Chain{config.EnvProvider{}, config.NewVaultProvider()})
	if err != nil {
		logger.New(telemetry.ServiceName, "info").Entry().WithError(err).Fatal("load configuration")
	}

	log := logger.New(telemetry.ServiceName, cfg.LogLevel)
	if envErr != nil {
		log.Entry().WithError(envErr).Debug("no .env file")
	}
	for key, reason := range cfg.Unresolved {
		log.Entry().WithField("key", key).WithError(reason).Warn("configuration value not found, using default")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint: cfg.TelemetryEndpoint,
		Region:   cfg.Region,
	})
	if err != nil {
		log.Entry().WithError(err).Warn("tracing disabled")
		shutdownTracing = func(context.Context) error { return nil }
	}

	fetcher, err := storage.NewS3Fetcher(ctx, storage.S3Config{
		Region:    cfg.AWSRegion,
		AccessKey: cfg.AWSAccessKey,
		SecretKey: cfg.AWSSecretKey,
		Endpoint:  cfg.S3Endpoint,
	})
	if err != nil {
		log.Entry().WithError(err).Fatal("create s3 client")
	}
	if cfg.BucketName != "" {
		probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := fetcher.Probe(probeCtx, cfg.BucketName); err != nil {
			log.Entry().WithError(err).WithField("bucket", cfg.BucketName).Warn("bucket not reachable")
		}
		cancel()
	}

	store := database.NewStore(cfg.MongoHost, cfg.Database, log.Entry().WithField("component", "database"))
	if err := store.Ping(ctx); err != nil {
		// Requests connect on their own, so the server still starts.
		log.Entry().WithError(err).Warn("mongodb not reachable")
	}

	res := resolver.New(fetcher, cfg.StagingDir, log.Entry().WithField("component", "resolver"))
	gallery := controller.NewGallery(store, res, cfg.PhotosCollection, cfg.FacesCollection)

	gin.SetMode(gin.ReleaseMode)
	router := route.Engine(log)
	route.Pages(router, gallery)
	route.Images(router, gallery, middlewares.NewRateLimiter(ctx, cfg.RateLimit, time.Minute))
	route.Auth(router)
	route.Ops(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Entry().WithField("addr", srv.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Entry().WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	log.Entry().Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Entry().WithError(err).Error("server shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Entry().WithError(err).Error("tracing shutdown")
	}
}
