package quizaccess

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/quiz-access-service/internal/http/handlers/admin/freetoggle"
	"github.com/magabrotheeeer/quiz-access-service/internal/http/handlers/admin/freeusercreate"
	"github.com/magabrotheeeer/quiz-access-service/internal/http/handlers/admin/paymentapprove"
	"github.com/magabrotheeeer/quiz-access-service/internal/http/handlers/admin/paymentlist"
	"github.com/magabrotheeeer/quiz-access-service/internal/http/handlers/admin/paymentreject"
	"github.com/magabrotheeeer/quiz-access-service/internal/http/handlers/admin/plansreplace"
	"github.com/magabrotheeeer/quiz-access-service/internal/http/handlers/admin/userlist"
	"github.com/magabrotheeeer/quiz-access-service/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/quiz-access-service/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/quiz-access-service/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/quiz-access-service/internal/http/handlers/health"
	"github.com/magabrotheeeer/quiz-access-service/internal/http/handlers/payment/submit"
	planslist "github.com/magabrotheeeer/quiz-access-service/internal/http/handlers/plans/list"
	"github.com/magabrotheeeer/quiz-access-service/internal/http/handlers/quiz/answer"
	"github.com/magabrotheeeer/quiz-access-service/internal/http/handlers/quiz/next"
	"github.com/magabrotheeeer/quiz-access-service/internal/http/handlers/quiz/prev"
	"github.com/magabrotheeeer/quiz-access-service/internal/http/handlers/quiz/start"
	"github.com/magabrotheeeer/quiz-access-service/internal/http/handlers/quiz/stop"
	"github.com/magabrotheeeer/quiz-access-service/internal/http/handlers/session"
	"github.com/magabrotheeeer/quiz-access-service/internal/http/middlewarectx"
	adminservice "github.com/magabrotheeeer/quiz-access-service/internal/services/admin"
	authservice "github.com/magabrotheeeer/quiz-access-service/internal/services/auth"
	paymentservice "github.com/magabrotheeeer/quiz-access-service/internal/services/payment"
	quizservice "github.com/magabrotheeeer/quiz-access-service/internal/services/quiz"
	"github.com/magabrotheeeer/quiz-access-service/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, db *repository.Storage,
	authService *authservice.AuthService, paymentService *paymentservice.PaymentService,
	adminService *adminservice.AdminService, quizService *quizservice.QuizService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	limiter := rate.NewLimiter(rate.Limit(10), 20)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)

		// Группа с JWT аутентификацией и проверкой живости сессии
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, db, logger))
			r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))
			r.Post("/logout", logout.New(logger, authService, quizService).ServeHTTP)
			r.Get("/session", session.New(logger, db).ServeHTTP)
			r.Get("/plans", planslist.New(logger, adminService).ServeHTTP)
			r.Post("/payments", submit.New(logger, paymentService).ServeHTTP)
			r.Post("/quiz/start", start.New(logger, quizService, db).ServeHTTP)
			r.Post("/quiz/next", next.New(logger, quizService).ServeHTTP)
			r.Post("/quiz/prev", prev.New(logger, quizService).ServeHTTP)
			r.Post("/quiz/answer", answer.New(logger, quizService).ServeHTTP)
			r.Post("/quiz/stop", stop.New(logger, quizService).ServeHTTP)

			// Административная группа
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnlyMiddleware(logger))
				r.Get("/admin/users", userlist.New(logger, adminService).ServeHTTP)
				r.Get("/admin/payments", paymentlist.New(logger, paymentService).ServeHTTP)
				r.Post("/admin/payments/{id}/approve", paymentapprove.New(logger, paymentService).ServeHTTP)
				r.Post("/admin/payments/{id}/reject", paymentreject.New(logger, paymentService).ServeHTTP)
				r.Put("/admin/plans", plansreplace.New(logger, adminService).ServeHTTP)
				r.Post("/admin/users/free", freeusercreate.New(logger, adminService).ServeHTTP)
				r.Post("/admin/users/{username}/free-toggle", freetoggle.New(logger, adminService).ServeHTTP)
			})
		})
	})

	r.Get("/health", health.New(logger, db).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
