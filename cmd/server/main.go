package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SohamSachinDhore/bet-v2/internal/api"
	"github.com/SohamSachinDhore/bet-v2/internal/approval"
	"github.com/SohamSachinDhore/bet-v2/internal/calc"
	"github.com/SohamSachinDhore/bet-v2/internal/config"
	"github.com/SohamSachinDhore/bet-v2/internal/lookup"
	"github.com/SohamSachinDhore/bet-v2/internal/queue"
	"github.com/SohamSachinDhore/bet-v2/internal/repository"
)

func main() {
	configPath := flag.String("config", "", "path to config file (TOML)")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}

	log.WithField("path", cfg.Database.Path).Info("initializing database")
	db, err := repository.InitDB(cfg.Database.Path)
	if err != nil {
		log.WithError(err).Fatal("init db")
	}
	defer db.Close()

	// Repositories.
	custRepo := repository.NewCustomerRepo(db)
	bazarRepo := repository.NewBazarRepo(db)
	ledgerRepo := repository.NewLedgerRepo(db)

	// Core pipeline: lookup tables feed the calculation engine, the
	// approval coordinator commits what the queue decides.
	engine := calc.NewEngine(lookup.New())
	coordinator := approval.NewCoordinator(engine, ledgerRepo, custRepo, bazarRepo, log)
	q := queue.New(engine, coordinator, log, queue.Options{
		DedupWindow: cfg.Dedup.Window,
		DedupSize:   cfg.Dedup.Size,
	})

	router := api.NewRouter(q, custRepo, bazarRepo, ledgerRepo, cfg.Server.AllowedGroups, log)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithFields(logrus.Fields{
			"addr":           srv.Addr,
			"allowed_groups": cfg.Server.AllowedGroups,
			"dedup_window":   cfg.Dedup.Window.String(),
		}).Info("stake slip server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}
