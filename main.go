package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/guygir/RifTrade-sub001/internal/analytics"
	"github.com/guygir/RifTrade-sub001/internal/cards"
	"github.com/guygir/RifTrade-sub001/internal/config"
	"github.com/guygir/RifTrade-sub001/internal/database"
	"github.com/guygir/RifTrade-sub001/internal/guess"
	"github.com/guygir/RifTrade-sub001/internal/httpserver"
	"github.com/guygir/RifTrade-sub001/internal/meta"
	"github.com/guygir/RifTrade-sub001/internal/puzzle"
	"github.com/guygir/RifTrade-sub001/internal/riftle"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	catalog := cards.NewCatalog(db)
	puzzles := puzzle.NewStore(db)
	guesses := guess.NewStore(db)
	metaStore := meta.NewStore(db)

	sessions := riftle.NewService(puzzles, guesses, catalog, cfg.MaxGuesses)
	agg := analytics.NewAggregator(puzzles, guesses, cfg.AnalyticsCacheTTL)
	assigner := puzzle.NewAssigner(puzzles, catalog, cfg.PuzzleSalt)

	srv := httpserver.New(cfg, db, sessions, agg, metaStore)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Router()}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("starting riftle server")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down http server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	// Daily puzzle assignment: once at startup, then hourly so the date
	// rollover is picked up without a restart.
	g.Go(func() error {
		ensure := func() {
			if _, err := assigner.EnsureToday(gctx, time.Now()); err != nil {
				log.Warn().Err(err).Msg("daily puzzle assignment failed")
			}
		}
		ensure()
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				ensure()
			}
		}
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
