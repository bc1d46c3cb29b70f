package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fivestack-gg/fivestack/internal/announcement"
	"github.com/fivestack-gg/fivestack/internal/auth"
	"github.com/fivestack-gg/fivestack/internal/composition"
	"github.com/fivestack-gg/fivestack/internal/config"
	"github.com/fivestack-gg/fivestack/internal/database"
	"github.com/fivestack-gg/fivestack/internal/httphelper"
	"github.com/fivestack-gg/fivestack/internal/notes"
	"github.com/fivestack-gg/fivestack/internal/player"
	"github.com/fivestack-gg/fivestack/internal/practice"
	"github.com/fivestack-gg/fivestack/internal/riot"
	"github.com/fivestack-gg/fivestack/pkg/log"
	"github.com/getsentry/sentry-go"
)

var (
	BuildVersion = "master" //nolint:gochecknoglobals
	BuildCommit  = ""       //nolint:gochecknoglobals
	BuildDate    = ""       //nolint:gochecknoglobals
	SentryDSN    = ""       //nolint:gochecknoglobals
)

type App struct {
	staticConfig   config.Static
	database       database.Database
	sentry         *sentry.Client
	authentication *auth.Authentication
	authRepo       auth.Repository
	riotClient     *riot.Client
	players        player.Players
	tracker        *practice.Tracker
	notes          notes.Notes
	announcements  announcement.Announcements
	compositions   composition.Compositions

	logCloser func()
}

func NewApp() (*App, error) {
	staticConfig, errStatic := config.ReadStatic(cfgFile)
	if errStatic != nil {
		slog.Error("Failed to read static config", log.ErrAttr(errStatic))

		return nil, errStatic
	}

	return &App{staticConfig: staticConfig}, nil
}

func (a *App) Init(ctx context.Context) error {
	// Build time value, overridable from the environment.
	if SentryDSN == "" {
		if value, found := os.LookupEnv("SENTRY_DSN"); found && value != "" {
			SentryDSN = value
		}
	}

	if SentryDSN == "" {
		SentryDSN = a.staticConfig.SentryDSN
	}

	a.setupSentry()

	a.logCloser = log.MustCreateLogger(ctx, a.staticConfig.LogFile, a.staticConfig.SlogLevel(),
		SentryDSN != "", BuildVersion)

	slog.Info("Starting fivestack...",
		slog.String("version", BuildVersion),
		slog.String("commit", BuildCommit),
		slog.String("date", BuildDate))

	dbConn := database.New(a.staticConfig.DatabaseDSN, a.staticConfig.DatabaseAutoMigrate,
		a.staticConfig.DatabaseLogQueries)
	if errConnect := dbConn.Connect(ctx); errConnect != nil {
		slog.Error("Cannot initialize database", log.ErrAttr(errConnect))

		return errConnect
	}

	a.database = dbConn

	scanSince, errSince := a.staticConfig.ScanSinceTime()
	if errSince != nil {
		return errSince
	}

	a.riotClient = riot.NewClient(a.staticConfig.RiotAPIKey, a.staticConfig.RiotRatePerSec,
		httphelper.NewClient())

	a.authRepo = auth.NewRepository(a.database)
	a.authentication = auth.NewAuthentication(a.authRepo, a.staticConfig.HTTPCookieKey)
	a.players = player.NewPlayers(player.NewRepository(a.database), a.riotClient)
	a.tracker = practice.NewTracker(practice.NewRepository(a.database), a.riotClient,
		a.players, a.staticConfig.ScanWindowSize, scanSince)
	a.notes = notes.NewNotes(notes.NewRepository(a.database))
	a.announcements = announcement.NewAnnouncements(announcement.NewRepository(a.database))
	a.compositions = composition.NewCompositions(composition.NewRepository(a.database), a.players)

	if !a.riotClient.HasKey() {
		slog.Warn("No riot api key configured, practice scans are disabled")
	}

	return nil
}

func (a *App) setupSentry() {
	if SentryDSN == "" {
		slog.Info("Sentry.io support is disabled. To enable at runtime, set SENTRY_DSN.")

		return
	}

	sentryClient, err := log.NewSentryClient(SentryDSN, a.staticConfig.SentryTrace,
		a.staticConfig.SentrySampleRate, BuildVersion, a.staticConfig.HTTPMode)
	if err != nil {
		slog.Error("Failed to setup sentry client")

		return
	}

	slog.Info("Sentry.io support is enabled.")
	a.sentry = sentryClient
}

func (a *App) Serve(rootCtx context.Context) error {
	ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	conf := a.staticConfig

	router, errRouter := httphelper.CreateRouter(httphelper.RouterOpts{
		HTTPLogEnabled:    conf.HTTPLogEnabled,
		LogLevel:          conf.SlogLevel(),
		Mode:              conf.HTTPMode,
		SentryDSN:         SentryDSN,
		Version:           BuildVersion,
		PProfEnabled:      conf.PProfEnabled,
		PrometheusEnabled: conf.PrometheusEnabled,
		HTTPCORSEnabled:   len(conf.HTTPCorsOrigins) > 0,
		CORSOrigins:       conf.HTTPCorsOrigins,
	})
	if errRouter != nil {
		slog.Error("Could not setup router", log.ErrAttr(errRouter))

		return errRouter
	}

	// Register all our handlers with router
	auth.NewHandler(router, a.authentication, a.authRepo)
	player.NewHandler(router, a.players, a.authentication)
	practice.NewHandler(router, a.tracker, a.players, conf.ScanCronSecret, a.authentication)
	notes.NewHandler(router, a.notes, a.authentication)
	announcement.NewHandler(router, a.announcements, a.authentication)
	composition.NewHandler(router, a.compositions, a.authentication)

	httpServer := httphelper.NewServer(conf.Addr(), router)

	go func() {
		<-ctx.Done()

		slog.Info("Shutting down HTTP service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		if errShutdown := httpServer.Shutdown(shutdownCtx); errShutdown != nil { //nolint:contextcheck
			slog.Error("Error shutting down http service", log.ErrAttr(errShutdown))
		}
	}()

	slog.Info("Starting HTTP server",
		slog.String("address", conf.Addr()),
		slog.String("url", conf.ExternalURL))

	errServe := httpServer.ListenAndServe()
	if errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
		slog.Error("HTTP server returned error", log.ErrAttr(errServe))
	}

	<-ctx.Done()

	slog.Info("Exiting...")

	return nil
}

func (a *App) Close(_ context.Context) error {
	if a.database != nil {
		if errClose := a.database.Close(); errClose != nil {
			slog.Error("Failed to close database cleanly", log.ErrAttr(errClose))
		}
	}

	if a.sentry != nil {
		a.sentry.Flush(2 * time.Second)
	}

	if a.logCloser != nil {
		a.logCloser()
	}

	return nil
}
