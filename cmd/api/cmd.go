package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GregMSThompson/finance-dashboard/internal/bootstrap"
	"github.com/GregMSThompson/finance-dashboard/internal/config"
	"github.com/GregMSThompson/finance-dashboard/internal/handlers"
	"github.com/GregMSThompson/finance-dashboard/internal/response"
	"github.com/GregMSThompson/finance-dashboard/internal/router"
	"github.com/GregMSThompson/finance-dashboard/internal/services"
	"github.com/GregMSThompson/finance-dashboard/internal/store"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	// stores
	dstore := store.NewDashboardStore(bs.Firestore)

	// services
	dserv := services.NewDashboardService(dstore, bs.Poller, bs.Fetcher, cfg.RefreshConcurrency)
	dserv.SetLocation(cfg.Location())
	fserv := services.NewFieldsService(bs.Fetcher)

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.Firebase = bs.Firebase
	deps.DashboardSvc = dserv
	deps.FieldsSvc = fserv
	deps.Cache = bs.Cache

	// router
	r := router.NewRouter(deps)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			bs.Log.Error("server shutdown failed", "error", err)
		}
	}()

	bs.Log.Info("server starting", "port", cfg.Port)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		exitOnError("server start failed", err, bs.Log)
	}
}
