package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"uniform-service/config"
	"uniform-service/internal/api"
	"uniform-service/internal/broker"
	"uniform-service/internal/imagestore"
	"uniform-service/internal/mailer"
	"uniform-service/internal/models"
	"uniform-service/internal/redisclient"
	"uniform-service/internal/service"
	"uniform-service/internal/store"
	"uniform-service/internal/util"
	"uniform-service/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting uniform service",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("email_mode", cfg.Mail.Mode))

	tp, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Database connected")

	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}
	bootstrapAdministrator(ctx, db, cfg.Bootstrap, logger)

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	eventProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
	defer eventProducer.Close()
	eventPublisher := broker.NewEventPublisher(eventProducer)
	logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicEvents))

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	smtpMailer := mailer.NewSMTP(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort, cfg.Mail.SMTPUsername, cfg.Mail.SMTPPassword, cfg.Mail.SMTPFrom)

	var outbound service.Mailer
	var mailWorker *worker.MailWorker
	switch cfg.Mail.Mode {
	case config.EmailModeSMTP:
		outbound = smtpMailer
	case config.EmailModeQueue:
		mailProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicMail)
		defer mailProducer.Close()
		outbound = broker.NewMailQueue(mailProducer)

		mailConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicMail, cfg.Kafka.ConsumerGroup)
		mailWorker = worker.NewMailWorker(mailConsumer, smtpMailer)
		go func() {
			if err := mailWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
				logger.Error("Mail worker error", zap.Error(err))
			}
		}()
	default:
		outbound = mailer.NewLog()
	}

	notificationService := service.NewNotificationService(db, cfg.Business.Retention())
	emails := service.NewEmailDispatcher(outbound, cfg.Mail.Timeout())
	requestService := service.NewRequestService(db, notificationService, emails, eventPublisher, redisClient, cfg.Business.IdempotencyTTL())
	catalogService := service.NewCatalogService(db, notificationService, eventPublisher, imagestore.NewDir(cfg.Storage.ImageRoot))

	retentionWorker := worker.NewRetentionWorker(notificationService, redisClient, cfg.Business.SweepInterval())
	go func() {
		if err := retentionWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
			logger.Error("Retention worker error", zap.Error(err))
		}
	}()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	api.NewHandler(requestService, catalogService, notificationService, cfg.Auth.JWTSecret).
		WithCORSOrigins(cfg.Server.CORSOrigins).
		WithReadinessCheck("postgres", db.Ping).
		WithReadinessCheck("redis", redisClient.Ping).
		SetupRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	_ = retentionWorker.Stop()
	if mailWorker != nil {
		_ = mailWorker.Stop()
	}
	emails.Wait()

	logger.Info("Server exited")
}

// bootstrapAdministrator makes sure the configured administrator exists
func bootstrapAdministrator(ctx context.Context, db *store.Store, cfg config.BootstrapConfig, logger *zap.Logger) {
	email := strings.TrimSpace(cfg.AdminEmail)
	if email == "" {
		return
	}

	admin := &models.Requester{
		FirstName: cfg.AdminFirstName,
		LastName:  cfg.AdminLastName,
		Email:     email,
		Gender:    models.Gender(cfg.AdminGender),
	}
	if !admin.Gender.ValidForRequester() {
		logger.Warn("Invalid bootstrap administrator gender, using Female", zap.String("gender", cfg.AdminGender))
		admin.Gender = models.GenderFemale
	}
	if err := db.UpsertAdministrator(ctx, admin); err != nil {
		logger.Error("Failed to bootstrap administrator", zap.String("email", email), zap.Error(err))
		return
	}
	logger.Info("Administrator ready", zap.Int64("requester_id", admin.ID), zap.String("email", email))
}
