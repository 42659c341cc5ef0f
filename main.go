package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labelcheck/labelcheck-api/catalog"
	"github.com/labelcheck/labelcheck-api/config"
	"github.com/labelcheck/labelcheck-api/data"
	"github.com/labelcheck/labelcheck-api/logging"
	"github.com/labelcheck/labelcheck-api/scheduler"
	"github.com/labelcheck/labelcheck-api/server"
	"github.com/labelcheck/labelcheck-api/validation"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		logging.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLogger("logs")

	db, err := catalog.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logging.Error("Failed to connect to the catalog database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	dataContainer := data.NewDataContainer()
	dataContainer.SetServerStartTime(time.Now())

	// Initial load happens inside Start; the server only comes up with a
	// catalog in place.
	sched := scheduler.NewScheduler(dataContainer, catalog.NewLoader(db), cfg.CatalogRefreshHours)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start the catalog scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	srv := server.NewServer(cfg, dataContainer, validation.NewLabelValidator())

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logging.Error("Server failed", "error", err)
		os.Exit(1)
	case sig := <-stop:
		logging.Info("Received shutdown signal", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown failed", "error", err)
		os.Exit(1)
	}
}
