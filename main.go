package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/justone/assets"
	"github.com/robalobadob/justone/internal/clue"
	"github.com/robalobadob/justone/internal/db"
	"github.com/robalobadob/justone/internal/engine"
	"github.com/robalobadob/justone/internal/httpserver"
	"github.com/robalobadob/justone/internal/results"
	"github.com/robalobadob/justone/internal/store"
	"github.com/robalobadob/justone/internal/words"
)

func main() {
	_ = godotenv.Load()
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogger(cfg)

	pool, err := words.Load(cfg.WordsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word pool")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer conn.Close()
	if err := db.Migrate(ctx, conn, assets.Migrations()); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	board := results.NewStore(conn)
	eng := engine.New(newRepository(cfg, conn), pool, clue.New(),
		engine.WithRetries(cfg.SaveRetries),
		engine.WithFinishHook(board.Record),
	)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: httpserver.New(eng, board, httpserver.Config{
			JWTSecret:     cfg.JWTSecret,
			TokenTTL:      cfg.tokenTTL(),
			CookieName:    cfg.CookieName,
			SecureCookies: cfg.SecureCookies,
			ClientOrigin:  cfg.ClientOrigin,
		}).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store).Int("words", pool.Len()).Msg("starting justone server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		sweep(ctx, eng, cfg.SweepInterval, cfg.SweepIdleAfter)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func setupLogger(cfg Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogFormat == "console" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}
}

func newRepository(cfg Config, conn *sql.DB) store.Repository {
	if cfg.Store == "memory" {
		return store.NewMemoryStore()
	}
	return store.NewSQLiteStore(conn)
}

// sweep periodically finishes abandoned games until ctx is done.
func sweep(ctx context.Context, eng *engine.Engine, every, idle time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := eng.Sweep(ctx, idle)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Warn().Err(err).Msg("sweep failed")
				continue
			}
			if n > 0 {
				log.Info().Int("finished", n).Msg("swept idle games")
			}
		}
	}
}
