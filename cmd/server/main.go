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
	"github.com/jrsteele09/go-auth-session/internal/config"
	"github.com/jrsteele09/go-auth-session/oidcclient"
	"github.com/jrsteele09/go-auth-session/server"
	"github.com/jrsteele09/go-auth-session/webstorage"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	c := config.New()
	setupLogging(c.GetEnv())

	for {
		if err := run(c); err != nil {
			log.Error().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func setupLogging(env string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if env == "DEV" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func run(c config.Config) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("panic", fmt.Sprint(r)).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	displayAppname(c.GetAppName())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	scopes, closeStorage, err := openStorage(ctx, c)
	if err != nil {
		return err
	}
	defer closeStorage()

	provider, err := oidcclient.NewProvider(ctx, oidcclient.Config{
		Issuer:        c.GetIssuer(),
		ClientID:      c.GetClientID(),
		ClientSecret:  c.GetClientSecret(),
		RedirectURL:   c.GetBaseURL() + server.RouteSigninCallback,
		Scopes:        c.GetScopes(),
		FlowTimeout:   c.GetFlowTimeout(),
		TokenLifetime: c.GetDefaultTokenLifetime(),
	})
	if err != nil {
		return fmt.Errorf("oidc discovery: %w", err)
	}

	handler, err := server.New(c, provider, scopes, &http.Client{Timeout: 15 * time.Second})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- listenAndServe(srv)
	}()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(srv)
}

// openStorage selects Redis when REDIS_ADDR is set and in-memory storage otherwise
func openStorage(ctx context.Context, c config.StorageConfig) (webstorage.Factory, func(), error) {
	if c.GetRedisAddr() == "" {
		log.Warn().Dur("ttl", c.GetStorageTTL()).Msg("REDIS_ADDR not set, browser storage is in-memory and lost on restart")
		return webstorage.NewMemoryFactory(webstorage.WithTTL(c.GetStorageTTL())), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     c.GetRedisAddr(),
		Password: c.GetRedisPassword(),
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", c.GetRedisAddr(), err)
	}
	log.Info().Str("addr", c.GetRedisAddr()).Dur("ttl", c.GetStorageTTL()).Msg("Using Redis browser storage")

	return webstorage.NewRedisFactory(client, c.GetStorageTTL()), func() { _ = client.Close() }, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
