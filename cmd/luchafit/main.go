package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lucasromanh/lucha-fit/internal/calendar"
	"github.com/lucasromanh/lucha-fit/internal/clients"
	"github.com/lucasromanh/lucha-fit/internal/config"
	"github.com/lucasromanh/lucha-fit/internal/constants"
	"github.com/lucasromanh/lucha-fit/internal/database"
	"github.com/lucasromanh/lucha-fit/internal/handlers"
	"github.com/lucasromanh/lucha-fit/internal/logging"
	"github.com/lucasromanh/lucha-fit/internal/notify"
	"github.com/lucasromanh/lucha-fit/internal/schedule"
	appSignals "github.com/lucasromanh/lucha-fit/internal/signals"
	"github.com/lucasromanh/lucha-fit/internal/token"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Determine if we're in development mode
	isDev := os.Getenv("ENV") != "production"

	// Initialize logging
	logging.Initialize(isDev)

	logger := logging.GetLogger("main")

	logger.Info().
		Str("app", constants.LuchaFitIdentifier).
		Str("version", version).
		Str("commit", commit).
		Str("build_date", date).
		Msg("Starting weekly scheduler")

	// Create context that's canceled on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("Received signal, initiating shutdown")
		cancel()
	}()

	if err := run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Application run failed")
	}
}

func run(ctx context.Context) error {
	logger := logging.GetLogger("main")

	// Get config file path from environment or use default. The default is
	// optional; an explicitly set CONFIG_FILE must exist.
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "configs/luchafit.toml"
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			logger.Info().Str("config_path", configPath).Msg("No config file found, using defaults and environment")
			configPath = ""
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error().Err(err).Str("config_path", configPath).Msg("Failed to load configuration")
		return err
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(cfg.Service.DatabasePath), 0755); err != nil {
		logger.Error().Err(err).Str("path", filepath.Dir(cfg.Service.DatabasePath)).Msg("Failed to create data directory")
		return err
	}

	// Initialize database and run migrations
	db, err := database.New(cfg.Service.DatabasePath)
	if err != nil {
		wrappedErr := fmt.Errorf("failed to initialize database: %w", err)
		logger.Error().Err(wrappedErr).Str("db_path", cfg.Service.DatabasePath).Msg("Database initialization failed")
		return wrappedErr
	}
	defer db.Close()

	clientStore := database.NewClientStore(db)
	appointmentStore := database.NewAppointmentStore(db)
	tokenStore := database.NewTokenStore(db)

	// Load the client roster used to label appointments
	directory := clients.NewDirectory(clientStore)
	if err := directory.Refresh(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to load client directory, names will fall back")
	}

	notifier := notify.New(cfg.Service.NotificationExpiry)

	// Build the consent flow and session manager. Both provider clients are
	// configured in-process here, so readiness is reported immediately; the
	// session still refuses authorization until both marks have landed.
	flow := token.NewGoogleConsentFlow(cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, cfg.OAuth.RedirectURL, cfg.OAuth.Scopes)
	session := token.NewSessionManager(flow, notifier)
	session.MarkDataClientReady(ctx, nil)
	session.MarkIdentityClientReady(ctx, nil)

	// Calendar service over the provider lister, anchored on the current week
	lister := calendar.NewGoogleLister(flow.Config(), session, cfg.Schedule.CalendarID)
	calSvc := calendar.New(lister, session, notifier, time.Now().In(cfg.Location()))
	calSvc.RegisterTriggers()

	// Local appointments are loaded per displayed week and handed to the
	// calendar service, which keeps them through external reconciliation.
	hydrateWeek := func(ctx context.Context, weekStart time.Time) {
		hydrateLogger := logging.GetLogger("local-events")
		window := schedule.NewWeekWindow(weekStart)
		appointments, err := appointmentStore.ListAppointmentsBetween(ctx, window.Start, window.End())
		if err != nil {
			hydrateLogger.Error().Err(err).Time("week_start", window.Start).Msg("Failed to load appointments for week")
			return
		}
		events := make([]schedule.Event, 0, len(appointments))
		for _, a := range appointments {
			events = append(events, a.Event(directory.Name(a.ClientID)))
		}
		calSvc.SetLocalEvents(events)
		hydrateLogger.Debug().Int("count", len(events)).Time("week_start", window.Start).Msg("Local appointments loaded")
	}

	appSignals.OnWeekSelected(func(ctx context.Context, data appSignals.WeekSelectedData) {
		hydrateWeek(ctx, data.WeekStart)
	}, "main-week-selected-handler")

	// Persist the session token across restarts
	appSignals.OnSessionStateChanged(func(ctx context.Context, data appSignals.SessionStateData) {
		persistLogger := logging.GetLogger("token-persistence")
		switch data.State {
		case string(token.StateAuthorized):
			if tok := session.Token(); tok != nil {
				if err := tokenStore.SaveToken(tok); err != nil {
					persistLogger.Error().Err(err).Msg("Failed to persist token")
				}
			}
		case string(token.StateReady):
			// The session dropped its token; clear the persisted copy so a
			// restart does not resurrect revoked credentials.
			if err := tokenStore.ClearToken(); err != nil {
				persistLogger.Error().Err(err).Msg("Failed to clear persisted token")
			}
		}
	}, "main-token-persistence-handler")

	// Seed the initial week before any navigation happens
	hydrateWeek(ctx, calSvc.Window().Start)

	// Restore a persisted token so a restart skips the consent round trip.
	// The authorized transition triggers the initial external fetch.
	if tok, err := tokenStore.GetToken(); err != nil {
		logger.Warn().Err(err).Msg("Failed to read persisted token")
	} else if tok != nil {
		if err := session.Restore(ctx, tok); err != nil {
			logger.Warn().Err(err).Msg("Failed to restore persisted token")
		} else {
			logger.Info().Msg("Persisted token restored")
		}
	} else {
		logger.Info().Msg("No persisted token found, waiting for OAuth flow")
	}

	// Initialize base handler first, as other handlers depend on it
	baseHandler := handlers.NewBaseHandler(cfg)
	calendarHandler := handlers.NewCalendarHandler(baseHandler, calSvc, session, notifier)
	oauthHandler := handlers.NewOAuthHandler(baseHandler, flow, session)
	syncHandler := handlers.NewSyncHandler(baseHandler, calSvc, session)
	clientsHandler := handlers.NewClientsHandler(baseHandler, directory)

	mux := http.NewServeMux()
	calendarHandler.RegisterRoutes(mux)
	oauthHandler.RegisterRoutes(mux)
	syncHandler.RegisterRoutes(mux)
	clientsHandler.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Service.Port),
		Handler: mux,
	}

	go func() {
		logger.Info().Int("port", cfg.Service.Port).Msg("Starting web server")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Context cancelled, initiating shutdown sequence")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
		return err
	}

	logger.Info().Msg("Shutdown complete")
	return nil
}
