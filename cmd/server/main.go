package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	_ "github.com/joho/godotenv/autoload"
	"github.com/jrsteele09/claims-web/apiclient"
	"github.com/jrsteele09/claims-web/gateway"
	"github.com/jrsteele09/claims-web/internal/config"
	"github.com/jrsteele09/claims-web/notify"
	"github.com/jrsteele09/claims-web/server"
	"github.com/jrsteele09/claims-web/session"
	"github.com/jrsteele09/claims-web/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	configureLogging(c)
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, closeBackend, err := openStorage(ctx, c)
	if err != nil {
		return err
	}
	defer closeBackend()

	sessions := session.NewManager(backend)
	notifications := notify.NewCenter(c.GetNotificationTTL())
	api := apiclient.New(c.GetAPIBaseURL(), gateway.New(nil, sessions, sessions, server.RouteLogin), c.GetAPITimeout())

	handler, err := server.New(c, sessions, notifications, api)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	go sweep(ctx, sessions, notifications, c.GetSessionIdleTimeout())

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(httpServer) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

func configureLogging(c config.Config) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// openStorage opens the durable store the bearer tokens live in
func openStorage(ctx context.Context, c config.Config) (storage.Store, func(), error) {
	noop := func() {}

	switch driver := c.GetStorageDriver(); driver {
	case config.StorageDriverMemory:
		log.Warn().Msg("Using in-memory session storage, sessions are lost on restart")
		return storage.NewMemory(), noop, nil

	case config.StorageDriverFile:
		key, err := c.GetStorageKey()
		if err != nil {
			return nil, noop, fmt.Errorf("storage key: %w", err)
		}
		file, err := storage.OpenFile(c.GetStoragePath(), key)
		if err != nil {
			return nil, noop, fmt.Errorf("storage.OpenFile: %w", err)
		}
		log.Info().Str("path", c.GetStoragePath()).Bool("sealed", key != nil).Msg("Using file session storage")
		return file, noop, nil

	case config.StorageDriverRedis:
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		rdb, err := storage.DialRedis(dialCtx, c.GetRedisAddr(), c.GetRedisPassword(), c.GetRedisDB(), c.GetRedisTTL())
		if err != nil {
			return nil, noop, fmt.Errorf("storage.DialRedis: %w", err)
		}
		log.Info().Str("addr", c.GetRedisAddr()).Msg("Using redis session storage")
		return rdb, func() {
			if err := rdb.Close(); err != nil {
				log.Err(err).Msg("Failed to close redis")
			}
		}, nil

	default:
		return nil, noop, fmt.Errorf("unknown STORAGE_DRIVER %q", driver)
	}
}

// sweep unloads idle browser sessions and expired notifications
func sweep(ctx context.Context, sessions *session.Manager, notifications *notify.Center, idle time.Duration) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(idle); n > 0 {
				log.Debug().Int("sessions", n).Msg("Unloaded idle sessions")
			}
			notifications.Sweep()
		}
	}
}

func listenAndServe(srv *http.Server) error {
	log.Info().Msgf("Server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
