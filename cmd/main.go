package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"skull_controller/internal/commands"
	"skull_controller/internal/config"
	"skull_controller/internal/console"
	"skull_controller/internal/handlers"
	"skull_controller/internal/hardware"
	"skull_controller/internal/logger"
	"skull_controller/internal/repository"
	"skull_controller/internal/repository/db"
	"skull_controller/internal/server"
	"skull_controller/internal/service"
	"skull_controller/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Init(cfg.LoggerOptions())
	defer func() { _ = log.Sync() }()

	// open DB
	conn := openDB(cfg.DB.Path, log)
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	driver := hardware.Open(cfg.HardwareOptions(), log)
	defer func() {
		if cerr := driver.Close(); cerr != nil {
			log.Errorw("failed to close pwm driver", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(conn)
	services := service.NewService(repos, service.Deps{
		Driver: driver,
		Auth:   service.AuthConfig{SigningKey: cfg.Auth.SigningKey, TokenTTL: cfg.Auth.TokenTTL},
		Logger: log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loadCalibration(ctx, services, cfg.ResetCalibration, log)

	table := console.NewTable()
	commands.Register(table, services, commands.Options{StoreTimeout: cfg.Console.StoreTimeout, Logger: log})
	disp := console.NewDispatcher(table, log)

	var wg sync.WaitGroup
	startConsoles(ctx, &wg, cfg, disp, log)

	var srv *server.Server
	if cfg.HTTP.Enabled {
		apiHandler := handlers.NewHandler(services, disp, log, handlers.Options{
			ConsoleCapacity: cfg.Console.Capacity,
			ConsoleVerbose:  cfg.Console.Verbose,
		})
		srv = server.New(cfg.HTTP.Port, apiHandler.InitRoutes())
		runHTTPServer(srv, cfg.HTTP.Port, cancel, log)
	}

	// graceful shutdown
	waitForShutdown(ctx, cancel, srv, log)
	wg.Wait()
}

// openDB opens the configured database. If that fails the controller keeps
// running on an in-memory store so the console stays usable; nothing
// committed in that mode survives a restart.
func openDB(path string, log *logger.Logger) *sql.DB {
	conn, err := db.InitDB(path)
	if err == nil {
		return conn
	}
	log.Errorw("failed to init sqlite, calibration will not persist", "path", path, "err", err)
	conn, err = db.InitDB(db.MemoryPath)
	if err != nil {
		log.Fatalw("failed to init in-memory sqlite", "err", err)
	}
	return conn
}

func loadCalibration(ctx context.Context, services *service.Service, force bool, log *logger.Logger) {
	if _, err := services.Calibration.LoadAll(ctx, force); err != nil {
		log.Errorw("calibration_load_failed", "err", err)
	}
}

// startConsoles attaches the stdin and serial consoles to the shared dispatcher.
func startConsoles(ctx context.Context, wg *sync.WaitGroup, cfg *config.Config, disp *console.Dispatcher, log *logger.Logger) {
	// not waited for: a read on stdin cannot be interrupted
	if cfg.Console.Stdin {
		go func() {
			sess := console.NewSession(disp, os.Stdout, console.SessionOptions{
				Capacity: cfg.Console.Capacity,
				Verbose:  cfg.Console.Verbose,
			})
			// a terminal echoes for us
			if err := transport.Serve(ctx, "stdin", os.Stdin, sess, log); err != nil && ctx.Err() == nil {
				log.Errorw("stdin console stopped", "err", err)
			}
		}()
	}

	if cfg.Serial.Device != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			transport.RunSerial(ctx, transport.SerialConfig{
				Device:   cfg.Serial.Device,
				BaudRate: cfg.Serial.BaudRate,
				Echo:     cfg.Serial.Echo,
				Verbose:  cfg.Console.Verbose,
				Capacity: cfg.Console.Capacity,
			}, disp, log)
		}()
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, cancel context.CancelFunc, log *logger.Logger) {
	go func() {
		log.Infow("http_listening", "port", port)
		if err := srv.Run(); err != nil {
			log.Errorw("error starting server", "err", err)
			cancel()
		}
	}()
}

// waitForShutdown blocks until a termination signal or ctx ends, then stops
// background goroutines and the HTTP server.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Infow("shutting down...")

	// stop background goroutines
	cancel()

	if srv == nil {
		return
	}
	// allow in-flight requests to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
