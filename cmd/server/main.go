// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lexprep/arena/internal/auth"
	"github.com/lexprep/arena/internal/bus"
	"github.com/lexprep/arena/internal/database"
	"github.com/lexprep/arena/internal/engine"
	"github.com/lexprep/arena/internal/handlers"
)

const releaseVersion = "0.1.0"

func main() {
	cfg := &Config{}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cobra.CheckErr(newCmd(cfg).ExecuteContext(ctx))
}

func serve(ctx context.Context, cfg *Config) error {
	logger := logrus.New()
	if cfg.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	auth.Init()

	pool, err := database.Connect(ctx, cfg.postgresDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	rdb, err := bus.Connect(ctx, cfg.redisAddr, cfg.redisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	changeBus := bus.New(rdb, logger)
	store := database.NewStore(pool, changeBus, logger)

	server := &handlers.Server{
		Store: store,
		Bus:   changeBus,
		Log:   logger,
		Clock: clockwork.NewRealClock(),
		RoundClock: engine.RoundClock{
			QuestionDuration: cfg.questionDuration,
			RevealDuration:   cfg.revealDuration,
		},
		LeaseTTL:       cfg.leaseTTL,
		LeaseHeartbeat: cfg.leaseHeartbeat,
		Rand:           engine.SystemRand{},
	}

	addr := fmt.Sprintf("%s:%d", cfg.bind, cfg.port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Running on %s", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return nil
	}
}
