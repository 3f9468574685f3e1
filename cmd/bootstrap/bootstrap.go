package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"healthcare-crm-backend/config"
	deliveryHttp "healthcare-crm-backend/internal/delivery/http"
	"healthcare-crm-backend/internal/delivery/http/handler"
	"healthcare-crm-backend/internal/delivery/http/middleware"
	"healthcare-crm-backend/internal/infrastructure/cache"
	"healthcare-crm-backend/internal/infrastructure/database"
	"healthcare-crm-backend/internal/infrastructure/sheets"
	"healthcare-crm-backend/internal/infrastructure/storage"
	"healthcare-crm-backend/internal/infrastructure/whatsapp"
	"healthcare-crm-backend/internal/repository"
	"healthcare-crm-backend/internal/service"
	"healthcare-crm-backend/internal/usecase"
	"healthcare-crm-backend/pkg/jwt"
	"healthcare-crm-backend/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server
	Log         *logrus.Logger

	// Used by the import commands as well as the HTTP handlers.
	MeetingUsecase usecase.DoctorMeetingUsecase
	BookingImport  usecase.OpdBookingImportUsecase

	notifier   service.NotificationService
	sheetQueue *service.SheetQueueService
	cancel     context.CancelFunc
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Setup logger
	setupLogger()
	app.Log = logrus.StandardLogger()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg
	logrus.Info("Configuration loaded successfully")

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	logrus.Info("Database connected successfully")

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient
	logrus.Info("Redis connected successfully")

	// Initialize all layers
	app.initialize()

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)
}

// initialize wires repositories, services, usecases and the HTTP server
func (app *App) initialize() {
	cfg := app.Config
	log := app.Log

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize repositories
	agentRepo := repository.NewAgentRepository()
	doctorRepo := repository.NewDoctorRepository()
	meetingRepo := repository.NewDoctorMeetingRepository()
	hospitalRepo := repository.NewHospitalRepository()
	bookingRepo := repository.NewOpdBookingRepository()
	dispositionLogRepo := repository.NewDispositionLogRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	transactor := database.NewTransactor(app.DB)

	// External collaborators; unset configuration disables each one.
	var sender service.MessageSender
	if client := whatsapp.NewClient(cfg.WhatsApp, log); client != nil {
		sender = client
	} else {
		log.Warn("WhatsApp gateway not configured, messages are disabled")
	}

	var sheetEnqueuer service.SheetEnqueuer
	if client := sheets.NewClient(cfg.Sheets); client != nil {
		app.sheetQueue = service.NewSheetQueueService(app.RedisClient, client, log, service.SheetQueueOptions{
			Key:      cfg.Sheets.QueueKey,
			Interval: cfg.Sheets.PollInterval,
			Rate:     cfg.Sheets.Rate,
		})
		sheetEnqueuer = app.sheetQueue
	} else {
		log.Warn("Sheets webhook not configured, spreadsheet sync is disabled")
	}

	var uploader usecase.DocumentUploader
	if minioUploader, err := storage.NewMinIOUploader(cfg.Storage, log); err != nil {
		log.Warnf("Document storage disabled: %v", err)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := minioUploader.EnsureBucketExists(ctx); err != nil {
			log.Warnf("Failed to ensure document bucket: %+v", err)
		}
		cancel()
		uploader = minioUploader
	}

	// Initialize services
	auditService := service.NewAuditService(log, auditLogRepo)
	app.notifier = service.NewNotificationService(transactor, log, auditService, sender, sheetEnqueuer)
	resolver := service.NewIdentityResolver(doctorRepo, agentRepo, hospitalRepo)
	engine := service.NewBulkUpsertService(log, resolver, doctorRepo, meetingRepo, cfg.Import.ChunkSize)

	// Initialize usecases
	authUsecase := usecase.NewAuthUsecase(transactor, log, agentRepo, jwtService, app.RedisClient, sender, app.notifier, cfg.OTP)
	app.MeetingUsecase = usecase.NewDoctorMeetingUsecase(transactor, log, resolver, engine, app.notifier, doctorRepo, meetingRepo)
	app.BookingImport = usecase.NewOpdBookingImportUsecase(transactor, log, resolver, app.notifier, bookingRepo, cfg.Import.ChunkSize)
	bookingUsecase := usecase.NewOpdBookingUsecase(transactor, log, resolver, app.notifier, uploader, bookingRepo, dispositionLogRepo, hospitalRepo)
	hospitalUsecase := usecase.NewHospitalUsecase(transactor, log, hospitalRepo)
	auditLogUsecase := usecase.NewAuditLogUsecase(transactor, log, auditLogRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authUsecase, customValidator, jwtService)
	meetingHandler := handler.NewMeetingHandler(app.MeetingUsecase, customValidator)
	importHandler := handler.NewImportHandler(app.MeetingUsecase, app.BookingImport, cfg.Import.MaxUploadMB)
	bookingHandler := handler.NewBookingHandler(bookingUsecase, customValidator)
	hospitalHandler := handler.NewHospitalHandler(hospitalUsecase)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, app.RedisClient)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSOrigin)

	// Initialize router
	router := deliveryHttp.NewRouter(
		authHandler, meetingHandler, importHandler, bookingHandler,
		hospitalHandler, auditLogHandler, authMiddleware, corsMiddleware,
	)

	// Create server
	app.Server = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// StartWorkers starts background workers. Import commands call it too so
// rows queued during the import are delivered before exit.
func (app *App) StartWorkers() {
	if app.sheetQueue == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel
	app.sheetQueue.Start(ctx)
	logrus.Info("Sheet queue worker started")
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	app.StartWorkers()

	// Start server in goroutine
	go func() {
		logrus.Infof("Server starting on port %s", app.Config.App.Port)
		logrus.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	logrus.Info("Server shutdown complete")
}

// Close drains in-flight notifications, stops workers and closes connections.
func (app *App) Close() {
	if app.notifier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := app.notifier.Wait(ctx); err != nil {
			logrus.Warnf("Notifications still in flight at shutdown: %v", err)
		}
		cancel()
	}

	if app.sheetQueue != nil {
		app.sheetQueue.Stop()
	}
	if app.cancel != nil {
		app.cancel()
	}

	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
