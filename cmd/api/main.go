package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/propernest/lettings/internal/handlers"
	"github.com/propernest/lettings/internal/mailer"
	"github.com/propernest/lettings/internal/repository"
	"github.com/propernest/lettings/internal/service"
	"github.com/propernest/lettings/pkg/cache"
	"github.com/propernest/lettings/pkg/config"
	"github.com/propernest/lettings/pkg/database"
	"github.com/propernest/lettings/pkg/events"
	"github.com/propernest/lettings/pkg/logger"
	mw "github.com/propernest/lettings/pkg/middleware"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database.URL, database.Options{
		MinConns:    cfg.Database.MinConns,
		MaxConns:    cfg.Database.MaxConns,
		MaxLifetime: cfg.Database.MaxLifetime,
	})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.Connect(ctx, cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	redisCache := cache.NewRedisCache(redisClient)

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	mailService := selectMailer(cfg)

	// Repositories
	userRepo := repository.NewUserRepository(pool)
	propertyRepo := repository.NewPropertyRepository(pool)
	viewingRepo := repository.NewViewingRepository(pool)
	favoriteRepo := repository.NewFavoriteRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	sessionRepo := repository.NewSessionRepository(redisCache)

	// Services
	authService := service.NewAuthService(userRepo, sessionRepo, mailService, eventBus, cfg)
	propertyService := service.NewPropertyService(propertyRepo, notificationRepo, redisCache, mailService, eventBus)
	viewingService := service.NewViewingService(viewingRepo, propertyRepo, userRepo, notificationRepo, mailService, eventBus)
	favoriteService := service.NewFavoriteService(favoriteRepo, propertyRepo)
	notificationService := service.NewNotificationService(notificationRepo)

	h := handlers.New(authService, propertyService, viewingService, favoriteService, notificationService, sessionRepo, cfg)

	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("lettings"))
	r.Use(mw.Logging)
	r.Use(mw.Health)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/v1", func(r chi.Router) {
		// Public auth surface
		r.Post("/auth/register", h.Register)
		r.Post("/auth/activate", h.Activate)
		r.Post("/auth/resend-activation", h.ResendActivation)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/refresh", h.Refresh)
		r.Post("/auth/forgot-password", h.ForgotPassword)
		r.Post("/auth/reset-password", h.ResetPassword)

		// Public catalogue
		r.Get("/properties", h.ListProperties)
		r.Get("/properties/{id}", h.GetProperty)

		// Authenticated surface
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)

			r.Post("/auth/logout", h.Logout)
			r.Get("/users/me", h.Me)

			r.Get("/properties/{id}/viewing-requests", h.ListPropertyViewingRequests)
			r.Post("/properties/{id}/favorite", h.ToggleFavorite)
			r.Get("/favorites", h.ListFavorites)

			r.Post("/viewing-requests", h.CreateViewingRequest)
			r.Get("/viewing-requests", h.ListOwnViewingRequests)
			r.Delete("/viewing-requests/{id}", h.WithdrawViewingRequest)
			r.Post("/viewing-requests/{id}/accept", h.AcceptViewingRequest)
			r.Post("/viewing-requests/{id}/reject", h.RejectViewingRequest)

			r.Get("/notifications", h.ListNotifications)
			r.Patch("/notifications/{id}/read", h.MarkNotificationRead)

			// Landlord surface
			r.Group(func(r chi.Router) {
				r.Use(h.RequireRoles("landlord", "admin"))
				r.Post("/properties", h.AddProperty)
				r.Get("/properties/mine", h.ListOwnProperties)
				r.Get("/viewing-requests/incoming", h.ListIncomingViewingRequests)
				r.Get("/viewing-requests/decided", h.ListDecidedViewingRequests)
			})

			// Admin surface
			r.Route("/admin", func(r chi.Router) {
				r.Use(h.RequireRoles("admin"))
				r.Get("/users", h.ListUsers)
				r.Patch("/users/{id}/role", h.UpdateUserRole)
				r.Get("/notifications", h.ListAllNotifications)
			})
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down lettings service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Lettings service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting lettings service", "port", cfg.Server.Port, "env", cfg.Server.Env)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Lettings service error", "error", err)
		os.Exit(1)
	}
}

// selectMailer picks the delivery backend: dev logging, MailerSend when
// an API key is configured, SMTP otherwise.
func selectMailer(cfg *config.Config) mailer.Service {
	if cfg.Email.DevMode {
		return mailer.NewDevMailer()
	}
	if cfg.Email.MailerSendKey != "" {
		return mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.SMTPFrom)
	}
	return mailer.NewSMTPMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPFrom, cfg.Email.SMTPUser, cfg.Email.SMTPPass, cfg.Email.SMTPUseTLS)
}
