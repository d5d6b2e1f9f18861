package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hackathon_portal/internal/api"
	"hackathon_portal/internal/app/service"
	"hackathon_portal/internal/app/worker"
	"hackathon_portal/internal/common/security"
	"hackathon_portal/internal/domain/repository"
	"hackathon_portal/internal/platform/cache"
	"hackathon_portal/internal/platform/config"
	"hackathon_portal/internal/platform/database"
	"hackathon_portal/internal/platform/logger"
	"hackathon_portal/internal/platform/storage"

	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	config.Load()
	if err := logger.Init(config.AppConfig.AppEnv); err != nil {
		log.Fatalf("Could not initialise logger: %v", err)
	}
	defer logger.Sync()
	logger.L().Info("Configuration loaded", zap.String("env", config.AppConfig.AppEnv))

	// 2. Initialize JWT
	security.InitJWT()

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	schemaCtx, schemaCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(schemaCtx, database.DB); err != nil {
		schemaCancel()
		logger.L().Fatal("Could not apply schema", zap.Error(err))
	}
	schemaCancel()

	// 4. Initialize Redis
	cache.ConnectRedis()
	defer cache.CloseRedis()
	locker := cache.NewLocker(cache.RDB)

	var limiter cache.LoginLimiter
	switch config.AppConfig.LoginLimiter {
	case "memory":
		limiter = cache.NewMemoryLoginLimiter(config.MaxLoginAttempts, config.LockoutDuration, nil)
	default:
		limiter = cache.NewRedisLoginLimiter(cache.RDB, config.MaxLoginAttempts, config.LockoutDuration)
	}

	store, err := storage.NewLocalStore(config.AppConfig.UploadDir, config.AppConfig.PublicBaseURL, api.UploadsURLPrefix)
	if err != nil {
		logger.L().Fatal("Could not prepare upload directory", zap.String("dir", config.AppConfig.UploadDir), zap.Error(err))
	}

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	profileRepo := repository.NewPgProfileRepository(database.DB)
	teamSubRepo := repository.NewPgTeamSubmissionRepository(database.DB)
	applicationRepo := repository.NewPgApplicationRepository(database.DB)
	notificationRepo := repository.NewPgNotificationRepository(database.DB)

	// 6. Initialize Services
	selectionService := service.NewSelectionService(profileRepo, teamSubRepo, notificationRepo, locker, database.DB, service.SelectionOptions{
		Deadline:           config.AppConfig.SubmissionDeadline,
		OpenProblemFormURL: config.AppConfig.OpenProblemFormURL,
		TeamLockTTL:        config.AppConfig.TeamLockTTL,
	})
	services := api.Services{
		Auth:        service.NewAuthService(userRepo, profileRepo, limiter, database.DB),
		Selection:   selectionService,
		Application: service.NewApplicationService(applicationRepo, profileRepo, notificationRepo, database.DB),
		Upload:      service.NewUploadService(store, config.AppConfig.UploadMaxBytes),
	}

	// 7. Initialize Reconcile Worker (as a goroutine)
	reconcileWorker := worker.NewReconcileWorker(profileRepo, locker, config.AppConfig.ReconcileInterval, config.AppConfig.ReconcileLockKey)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go reconcileWorker.Start(workerCtx)

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(services, profileRepo, api.RouterOptions{
		UploadDir:      config.AppConfig.UploadDir,
		UploadMaxBytes: config.AppConfig.UploadMaxBytes,
		TrustedProxies: config.AppConfig.TrustedProxies,
	})

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.L().Info("Server starting", zap.String("port", config.AppConfig.APIPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal("Could not listen", zap.String("port", config.AppConfig.APIPort), zap.Error(err))
		}
	}()

	<-stop

	logger.L().Info("Shutting down server")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Error("Server shutdown failed", zap.Error(err))
		return
	}

	logger.L().Info("Server and worker stopped gracefully")
}
