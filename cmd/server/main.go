package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hustlehub/backend/internal/config"
	"github.com/hustlehub/backend/internal/db"
	"github.com/hustlehub/backend/internal/goroutine"
	httpHandlers "github.com/hustlehub/backend/internal/http/handlers"
	httpRouter "github.com/hustlehub/backend/internal/http/router"
	"github.com/hustlehub/backend/internal/logger"
	"github.com/hustlehub/backend/internal/repository"
	"github.com/hustlehub/backend/internal/service"
	"github.com/hustlehub/backend/internal/storage"
	"github.com/hustlehub/backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	fileStorage, err := storage.NewFileStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	taskRepo := repository.NewTaskRepository(dbConn)
	chatRepo := repository.NewChatRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)
	reviewRepo := repository.NewReviewRepository(dbConn)
	verificationRepo := repository.NewVerificationRepository(dbConn)

	// Вебсокеты: хаб и сервис чатов зависят друг от друга, поэтому
	// проверка членства передаётся замыканием с поздним связыванием.
	var chatService *service.ChatService
	hub := ws.NewHub(ctx, membershipFunc(func(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
		return chatService.IsMember(ctx, chatID, userID)
	}))

	// Сервисы.
	notificationService := service.NewNotificationService(notificationRepo, hub)
	chatService = service.NewChatService(chatRepo, userRepo, notificationService, hub, cfg.MaxMessageLength)
	taskService := service.NewTaskService(taskRepo, userRepo, notificationService, hub, cfg.MinTaskBudget)
	reviewService := service.NewReviewService(reviewRepo, taskRepo, notificationService)
	authService := service.NewAuthService(userRepo, tokenManager, cfg.RefreshTokenTTL)
	userService := service.NewUserService(userRepo)
	verificationService := service.NewVerificationService(verificationRepo, userRepo, cfg.CodeTTL, cfg.CodeMaxAttempts)

	go hub.Run()

	// Фоновая очистка просроченных кодов подтверждения.
	goroutine.SafeGo("verification-cleanup", func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := verificationService.CleanupExpired(ctx); err != nil {
					logger.Log.WithError(err).Warn("verification cleanup failed")
				}
			}
		}
	})

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	taskHandler := httpHandlers.NewTaskHandler(taskService)
	chatHandler := httpHandlers.NewChatHandler(chatService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	reviewHandler := httpHandlers.NewReviewHandler(reviewService)
	profileHandler := httpHandlers.NewProfileHandler(userService)
	verificationHandler := httpHandlers.NewVerificationHandler(verificationService)
	mediaHandler := httpHandlers.NewMediaHandler(fileStorage)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(
		cfg,
		authHandler,
		taskHandler,
		chatHandler,
		notificationHandler,
		reviewHandler,
		profileHandler,
		verificationHandler,
		mediaHandler,
		wsHandler,
		healthHandler,
		tokenManager,
	)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// membershipFunc адаптирует функцию к интерфейсу ws.MembershipChecker.
type membershipFunc func(ctx context.Context, chatID, userID uuid.UUID) (bool, error)

func (f membershipFunc) IsMember(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	return f(ctx, chatID, userID)
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
