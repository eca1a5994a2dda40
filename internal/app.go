package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cinnarito/internal/chronicle"
	"cinnarito/internal/chronicle/interfaces"
	"cinnarito/internal/controllers"
	"cinnarito/internal/providers"
	"cinnarito/internal/services"
	"cinnarito/internal/structures"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type App struct {
	WebServer *http.Server

	scheduler interfaces.SchedulerInterface
	actions   *services.ActionService
	archive   *chronicle.Archive
	conf      *structures.Config
	logger    providers.Logger
}

// NewHandler assembles the HTTP surface: infrastructure endpoints on the
// outer mux, API routes behind identity and metrics middleware.
func NewHandler(healthController *controllers.HealthController, conf *structures.Config, router providers.RouterProviderInterface, metrics providers.MetricsProviderInterface) http.Handler {
	// Inner mux: API routes
	apiMux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		apiMux.Handle(providers.Pattern(route), route.Handler)
	}

	// Metrics sit inside identity so r.Pattern is set when they record
	api := providers.IdentityMiddleware(conf, providers.MetricsMiddleware(metrics, apiMux))

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", api)
	return mux
}

func NewApp(
	healthController *controllers.HealthController,
	scheduler interfaces.SchedulerInterface,
	actions *services.ActionService,
	archive *chronicle.Archive,
	conf *structures.Config,
	logger providers.Logger,
	router providers.RouterProviderInterface,
	metrics providers.MetricsProviderInterface,
) *App {
	return &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      NewHandler(healthController, conf, router, metrics),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		scheduler: scheduler,
		actions:   actions,
		archive:   archive,
		conf:      conf,
		logger:    logger,
	}
}

// Run serves until SIGINT/SIGTERM, then stops the scheduler, drains the
// server and pending milestone posts, and writes the final archive.
func (app *App) Run() error {
	logger := app.logger
	logger.Infof(providers.TypeApp, "Starting %s", app.conf.AppName)

	if err := app.scheduler.Restore(); err != nil {
		logger.Errorf(providers.TypeApp, "Restore error: %s", err)
	}

	if app.conf.Chronicle.Enabled {
		if err := app.scheduler.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	} else {
		logger.Infof(providers.TypeApp, "Chronicle scheduler disabled")
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof(providers.TypeApp, "Listening HTTP clients on %s", app.WebServer.Addr)
		if err := app.WebServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		logger.Infof(providers.TypeApp, "Shutdown signal received")
	case err := <-serverErr:
		_ = app.scheduler.Stop()
		return fmt.Errorf("server error: %w", err)
	}

	return app.Shutdown()
}

func (app *App) Shutdown() error {
	defer app.logger.Close()

	if err := app.scheduler.Stop(); err != nil {
		app.logger.Warnf(providers.TypeApp, "Scheduler stop error: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.WebServer.Shutdown(ctx); err != nil {
		return err
	}
	app.actions.Drain()

	err := app.scheduler.Persist()
	app.archive.Close()
	if err != nil {
		return err
	}
	app.logger.Infof(providers.TypeApp, "gracefully stopped")
	return nil
}
