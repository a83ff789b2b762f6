package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"renthunt-state/internal/config"
	"renthunt-state/internal/models"
	"renthunt-state/internal/repository"
	"renthunt-state/internal/services"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "renthunt",
	Short: "RentHunt on-device state service",
	Long: `RentHunt keeps the apartment hunting state of one device: onboarding preferences,
the swipe deck, the shortlist, scheduled viewings and post-viewing feedback.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		setupLogger(cfg.Log.Level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML configuration file")
	rootCmd.AddCommand(serveCmd, exportCmd, seedCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads path, falling back to defaults when the file does not exist
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// app holds the opened database and every store built on it
type app struct {
	cfg  *config.Config
	db   *badger.DB
	repo *repository.SnapshotRepository
	hub  *services.WSHub

	sessions    *services.SessionService
	preferences *services.PreferencesService
	apartments  *services.ApartmentService
	shortlist   *services.ShortlistService
	viewings    *services.ViewingService
	feedback    *services.FeedbackService
}

// openApp opens local storage and restores each store from its own namespace
func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	db, err := repository.Open(repository.Options{
		Path:       cfg.Storage.Path,
		InMemory:   cfg.Storage.InMemory,
		SyncWrites: cfg.Storage.SyncWrites,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", cfg.Storage.Path).Bool("in_memory", cfg.Storage.InMemory).Msg("Local storage opened")

	a := &app{
		cfg:  cfg,
		db:   db,
		repo: repository.NewSnapshotRepository(db),
		hub:  services.NewWSHub(),
	}

	var source services.ApartmentSource
	if cfg.Catalog.Path != "" {
		catalog, err := services.LoadCatalog(cfg.Catalog.Path, cfg.Catalog.PageSize)
		if err != nil {
			db.Close()
			return nil, err
		}
		log.Info().Str("path", cfg.Catalog.Path).Int("apartments", catalog.Len()).Msg("Catalog loaded")
		source = catalog
	}

	notify := services.WithNotifier(a.hub)
	a.sessions = services.NewSessionService(a.repo, cfg.Auth.Secret, cfg.Auth.TokenTTLDays)
	a.preferences = services.NewPreferencesService(a.repo, notify)
	a.apartments = services.NewApartmentService(a.repo, source,
		services.NewCompatibilityScorer(compatibilityWeights(cfg.Compatibility.Weights)), notify)
	a.shortlist = services.NewShortlistService(a.repo, notify)
	a.feedback = services.NewFeedbackService(a.repo, time.Duration(cfg.Feedback.DueAfterHours)*time.Hour, notify)
	a.viewings, err = services.NewViewingService(a.repo, businessHours(cfg.Viewings.BusinessHours), cfg.Viewings.SlotMinutes, notify)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create viewing service: %w", err)
	}

	loaders := []struct {
		name string
		load func(context.Context) error
	}{
		{repository.NamespaceDevices, a.sessions.Load},
		{repository.NamespacePreferences, a.preferences.Load},
		{repository.NamespaceApartments, a.apartments.Load},
		{repository.NamespaceShortlist, a.shortlist.Load},
		{repository.NamespaceViewings, a.viewings.Load},
		{repository.NamespaceFeedback, a.feedback.Load},
	}
	for _, l := range loaders {
		if err := l.load(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to load %s: %w", l.name, err)
		}
	}

	return a, nil
}

// Close releases local storage
func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close local storage")
	}
}

func businessHours(c config.BusinessHoursConfig) models.BusinessHours {
	return models.BusinessHours{
		MondayToThursday: models.OpeningHours{Start: c.MondayToThursday.Start, End: c.MondayToThursday.End},
		Friday:           models.OpeningHours{Start: c.Friday.Start, End: c.Friday.End},
		Weekend:          c.Weekend,
	}
}

func compatibilityWeights(c config.WeightsConfig) services.CompatibilityWeights {
	w := services.DefaultCompatibilityWeights()
	for _, f := range []struct {
		src *float64
		dst *float64
	}{
		{c.Budget, &w.Budget},
		{c.Size, &w.Size},
		{c.Amenities, &w.Amenities},
		{c.Location, &w.Location},
		{c.Roommates, &w.Roommates},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return w
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
