// Package quizaccess собирает приложение: хранилище, кеш, брокер,
// сервисы и HTTP-сервер.
package quizaccess

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/quiz-access-service/internal/cache"
	"github.com/magabrotheeeer/quiz-access-service/internal/config"
	"github.com/magabrotheeeer/quiz-access-service/internal/lib/jwt"
	"github.com/magabrotheeeer/quiz-access-service/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/quiz-access-service/internal/migrations"
	"github.com/magabrotheeeer/quiz-access-service/internal/questionprovider"
	adminservice "github.com/magabrotheeeer/quiz-access-service/internal/services/admin"
	authservice "github.com/magabrotheeeer/quiz-access-service/internal/services/auth"
	paymentservice "github.com/magabrotheeeer/quiz-access-service/internal/services/payment"
	quizservice "github.com/magabrotheeeer/quiz-access-service/internal/services/quiz"
	"github.com/magabrotheeeer/quiz-access-service/internal/storage/repository"
)

// App объединяет все зависимости сервиса доступа к викторинам.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	quiz   *quizservice.QuizService
}

// New инициализирует зависимости и строит маршруты приложения.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitConnectionString, cfg.RabbitMaxRetries, cfg.RabbitRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(ch)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	provider := questionprovider.NewFallback(
		questionprovider.NewClient(cfg.ProviderAddress, cfg.ProviderTimeout),
		questionprovider.NewBank(time.Now().UnixNano()),
		logger,
	)

	authService := authservice.NewAuthService(db, jwtMaker, logger)
	paymentService := paymentservice.NewPaymentService(db, db, db, publisher, logger)
	adminService := adminservice.NewAdminService(db, db, cacheRedis, authservice.SentinelUsername, logger)
	quizService := quizservice.NewQuizService(provider, db, publisher, cfg.GuardInterval, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, db, authService, paymentService, adminService, quizService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		quiz:   quizService,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.quiz.StopAll()
		a.db.DB.Close()
		return err
	}
}
