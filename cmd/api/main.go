package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/givingly/giveaway-api/internal/config"
	"github.com/givingly/giveaway-api/internal/infrastructure/analytics"
	"github.com/givingly/giveaway-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/givingly/giveaway-api/internal/infrastructure/jwt"
	s3infra "github.com/givingly/giveaway-api/internal/infrastructure/s3"
	"github.com/givingly/giveaway-api/internal/infrastructure/sns"
	"github.com/givingly/giveaway-api/internal/pkg/logging"
	transporthttp "github.com/givingly/giveaway-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logging.New(cfg.AppEnv)

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider (optional — graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.WithError(err).Warn("JWT provider not available")
	}

	// S3 store for pictures.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SNS push publisher (optional — graceful fallback).
	var publisher sns.Publisher
	if p, err := sns.NewPublisher(cfg); err == nil {
		publisher = p
	} else {
		log.WithError(err).Warn("SNS publisher not available")
	}

	// External pageview counter. An empty base URL yields zero counts.
	pageviews := analytics.NewClient(cfg.AnalyticsBaseURL, cfg.AnalyticsProfileID)

	deps := &transporthttp.Deps{
		UserRepo:         dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		GiveawayRepo:     dynamo.NewGiveawayRepo(dynamoClient, cfg.DynamoTables.Giveaways),
		CommentRepo:      dynamo.NewCommentRepo(dynamoClient, cfg.DynamoTables.GiveawayComments),
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		CommunityRepo:    dynamo.NewCommunityRepo(dynamoClient, cfg.DynamoTables.Communities),
		CatalogRepo: dynamo.NewCatalogRepo(dynamoClient,
			cfg.DynamoTables.ParentCategories, cfg.DynamoTables.Categories, cfg.DynamoTables.StatusTypes),
		PictureRepo: dynamo.NewPictureRepo(dynamoClient, cfg.DynamoTables.Pictures),
		S3Store:     s3Store,
		Publisher:   publisher,
		Analytics:   pageviews,
		JWTProvider: jwtProvider,
		Log:         log,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.AppPort).WithField("env", cfg.AppEnv).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("forced shutdown")
	}
	log.Info("server stopped")
}
