package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"renthunt-state/internal/handlers"
	"renthunt-state/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the state service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return Run(configPath)
	},
}

// Run serves the state API until SIGINT or SIGTERM
func Run(path string) error {
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	if cfg.Auth.Secret == "" {
		log.Warn().Msg("auth.secret is empty, tokens are signed with an empty key")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	go a.hub.Run(ctx)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      newRouter(a),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	// Stopping the hub closes the change feed connections
	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
	return nil
}

func newRouter(a *app) http.Handler {
	sessionHandler := handlers.NewSessionHandler(a.sessions)
	preferencesHandler := handlers.NewPreferencesHandler(a.preferences)
	apartmentHandler := handlers.NewApartmentHandler(a.apartments, a.preferences)
	shortlistHandler := handlers.NewShortlistHandler(a.shortlist, a.apartments, a.apartments)
	viewingHandler := handlers.NewViewingHandler(a.viewings, a.apartments)
	feedbackHandler := handlers.NewFeedbackHandler(a.feedback)
	wsHandler := handlers.NewWebSocketHandler(a.hub, a.sessions)

	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/session", sessionHandler.CreateSession)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(a.sessions))
			r.Route("/preferences", preferencesHandler.Routes)
			r.Route("/apartments", apartmentHandler.Routes)
			r.Route("/shortlist", shortlistHandler.Routes)
			r.Route("/viewings", viewingHandler.Routes)
			r.Route("/feedback", feedbackHandler.Routes)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	return r
}
