package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"debtflow.io/internal/authz"
	"debtflow.io/internal/config"
	"debtflow.io/internal/database"
	"debtflow.io/internal/httpapi"
	"debtflow.io/internal/obs"
	"debtflow.io/internal/store/pg"
)

var version = "0.3.1"

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		obs.Logger().Fatal().Err(err).Msg("load config")
	}
	obs.InitLogger(obs.LogOptions{Level: cfg.LogLevel, Pretty: cfg.Pretty()})
	obs.Init()
	log := obs.Logger()

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	dir := pg.NewDirectory(db)
	svc, err := authz.NewService(pg.New(db), dir,
		authz.WithSessionTTL(cfg.SessionTTL),
		authz.WithOrganizationDirectory(dir),
		authz.WithAgencyDirectory(dir),
		authz.WithPortfolioDirectory(dir),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("init authz service")
	}

	api := httpapi.New(svc, version, httpapi.Options{
		JWTSecret:      []byte(cfg.JWTSecret),
		DB:             db,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Fallback sweep for deployments without an external scheduler hitting
	// the purge endpoint.
	if cfg.PurgeInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.PurgeInterval)
			defer ticker.Stop()
			for range ticker.C {
				purged, err := svc.PurgeExpired(context.Background())
				if err != nil {
					log.Error().Err(err).Msg("purge expired sessions")
					continue
				}
				obs.ObservePurge(purged)
			}
		}()
	}

	log.Info().Str("version", version).Str("addr", srv.Addr).Msg("starting debtflow-authz")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info().Msg("stopped")
}
