package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"toex-backend/internal/handlers"
	"toex-backend/internal/middleware"
	"toex-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	sessionHandler *handlers.SessionHandler,
	statsHandler *handlers.StatsHandler,
	questionHandler *handlers.QuestionHandler,
	vocabHandler *handlers.VocabHandler,
	progressHandler *handlers.ProgressHandler,
	resultHandler *handlers.ResultHandler,
	dashboardHandler *handlers.DashboardHandler,
	userHandler *handlers.UserHandler,
	jobHandler *handlers.JobHandler,
	adminHandler *handlers.AdminHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/google", authHandler.GoogleLogin)
			r.Post("/refresh", authHandler.Refresh)
			r.Get("/verify-email", authHandler.VerifyEmail)
			r.Post("/resend-verification", authHandler.ResendVerification)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── Session / Streak Routes ────
		r.Route("/sessions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/sync", sessionHandler.Sync)
			r.Get("/recent", sessionHandler.Recent)
		})

		// ──── Study Stats Routes ────
		r.Route("/stats", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", statsHandler.Get)
			r.Put("/", statsHandler.Update)
		})

		// ──── Question Routes ────
		r.Route("/questions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", questionHandler.List)
			r.Get("/counts", questionHandler.Counts)
		})

		// ──── Vocabulary Routes ────
		r.Route("/vocabulary", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", vocabHandler.ListSets)
			r.Get("/{id}", vocabHandler.GetSet)
		})

		// ──── Saved Progress Routes ────
		r.Route("/progress", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", progressHandler.List)
			r.Put("/", progressHandler.Save)
			r.Get("/entry", progressHandler.Get)
			r.Delete("/entry", progressHandler.Delete)
		})

		// ──── Test Result Routes ────
		r.Route("/results", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", resultHandler.Submit)
			r.Get("/recent", resultHandler.Recent)
			r.Get("/aggregates", resultHandler.Aggregates)
		})

		// ──── Dashboard ────
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/dashboard", dashboardHandler.Overview)
		})

		// ──── User Routes ────
		r.Route("/users", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/me", userHandler.Me)
			r.Put("/me", userHandler.UpdateProfile)
			r.Put("/me/password", userHandler.ChangePassword)
			r.Get("/me/notifications", userHandler.GetNotificationSettings)
			r.Put("/me/notifications", userHandler.UpdateNotificationSettings)
			r.Get("/me/login-history", userHandler.LoginHistory)
			r.Delete("/me", userHandler.DeleteAccount)
		})

		// ──── Job Routes ────
		r.Route("/jobs", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", jobHandler.GetStatus)
		})

		// ──── Admin / Maintenance Routes ────
		r.Route("/admin", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(jwtAuth.RequireAdmin)
			r.Get("/health", adminHandler.Health)
			r.Get("/tables", adminHandler.Tables)
			r.Get("/tables/{table}", adminHandler.TableData)
			r.Post("/questions/import", jobHandler.ImportQuestions)
			r.Put("/maintenance/streaks", sessionHandler.SweepStreaks)
		})
	})

	// WebSocket endpoint (auth via query param)
	r.Get("/ws", wsHub.HandleWebSocket)

	return r
}
