package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	_ "soak_console/docs"
	"soak_console/internal/backend"
	"soak_console/internal/config"
	"soak_console/internal/countdown"
	"soak_console/internal/handlers"
	"soak_console/internal/logger"
	"soak_console/internal/poller"
	"soak_console/internal/reconcile"
	"soak_console/internal/repository"
	"soak_console/internal/repository/db"
	"soak_console/internal/server"
	"soak_console/internal/service"
	"soak_console/internal/tasks"
	"soak_console/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:   "soak-console",
		Short: "Operator console for a networked soak vessel controller",
		Long: `soak-console mirrors the controller's state, applies operator commands
optimistically and serves the reconciled view over HTTP and WebSocket.`,
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start polling the controller and serve the operator API",
		RunE:  runServe,
	}
)

// @title        Soak Console API
// @version      1.0
// @description  Reconciled state and operator commands for a soak vessel controller.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in           header
// @name         Authorization
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default configs/config.yml)")
	rootCmd.AddCommand(serveCmd, userCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// init logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	shutdownTracing, err := telemetry.Init(cfg.Telemetry.TraceStdout, os.Stdout)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	// open DB
	conn, err := openDB(cfg, log)
	if err != nil {
		return fmt.Errorf("init sqlite: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// context for background tasks
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// wire dependencies
	clock := clockwork.NewRealClock()
	repos := repository.NewRepository(conn)
	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.AdminKey, cfg.Backend.Timeout)
	group := tasks.NewGroup(clock, log.Named("tasks"))

	engine := reconcile.NewEngine(clock, reconcile.Config{
		Window:          cfg.Reconcile.Window,
		DispatchTimeout: cfg.Reconcile.DispatchTimeout,
		EditIdle:        cfg.Reconcile.EditIdle,
	}, log.Named("reconcile"))
	keeper := service.NewSnapshotKeeper(engine, repos.Snapshots, clock, service.DefaultCacheEvery, log.Named("cache"))
	poll := poller.New(client, keeper, group, poller.Config{
		Interval:     cfg.Poll.Interval,
		HistoryLimit: cfg.Poll.HistoryLimit,
	}, log.Named("poller"))
	engine.SetResync(poll.Trigger)

	cd := countdown.New(ctx, group, log.Named("countdown"))
	engine.OnChange(cd.Sync)

	if ok, err := keeper.Restore(ctx); err != nil {
		log.Warnw("snapshot_cache_unavailable", "err", err)
	} else if !ok {
		log.Infow("snapshot_cache_empty")
	}

	services := service.NewService(repos, service.Deps{
		Backend:    client,
		Engine:     engine,
		Countdown:  cd,
		Clock:      clock,
		SigningKey: cfg.Auth.SigningKey,
		TokenTTL:   cfg.Auth.TokenTTL,
		Resync:     poll.Trigger,
		Log:        log.Named("console"),
	})
	apiHandler := handlers.NewHandler(services, log.Named("http"))

	poll.Start(ctx)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Server.Port, apiHandler, log)
	log.Infow("console_started", "port", cfg.Server.Port, "backend", cfg.Backend.URL)

	// graceful shutdown
	waitForShutdown(cancel, srv, group, engine, shutdownTracing, log)
	return nil
}

// openDB initializes the SQLite database using configuration.
func openDB(cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	log.Infow("opening sqlite", "path", cfg.DB.Path)
	return db.InitDB(cfg.DB.Path)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, group *tasks.Group, engine *reconcile.Engine, shutdownTracing telemetry.ShutdownFunc, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	shutdown(ctx, cancel, srv, group, engine, shutdownTracing, log)
}

type httpStopper interface {
	Shutdown(ctx context.Context) error
}

type taskStopper interface {
	StopAll()
}

type dispatchWaiter interface {
	Wait()
}

// shutdown stops the HTTP server before anything else so no command can be
// issued while queued dispatches drain.
func shutdown(ctx context.Context, cancel context.CancelFunc, srv httpStopper, group taskStopper, engine dispatchWaiter, shutdownTracing telemetry.ShutdownFunc, log *logger.Logger) {
	// allow in-flight requests to complete
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}

	// stop polling and the countdown, then let queued dispatches land
	cancel()
	group.StopAll()
	engine.Wait()

	if err := shutdownTracing(ctx); err != nil {
		log.Errorw("telemetry shutdown failed", "err", err)
	}
}
