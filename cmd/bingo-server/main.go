package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"career-bingo/internal/broadcast"
	"career-bingo/internal/config"
	"career-bingo/internal/game"
	"career-bingo/internal/logging"
	"career-bingo/internal/match"
	"career-bingo/internal/mcpserver"
	"career-bingo/internal/oracle"
	"career-bingo/internal/selector"
	"career-bingo/internal/store"
	httptransport "career-bingo/internal/transport/http"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// repository is what the server needs from either storage backend.
type repository interface {
	match.Repository
	store.Seeder
	Ping(ctx context.Context) error
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	if cfg.Log.Service == "" {
		cfg.Log.Service = "bingo-server"
	}
	logging.Init(cfg.Log)

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg config.AppConfig) error {
	repo, closeRepo, err := openRepository(ctx, cfg.Server)
	if err != nil {
		return err
	}
	defer closeRepo()

	if cfg.Server.SeedDefaults {
		roomID, err := store.EnsureDefaults(ctx, repo, defaultRoom(cfg.Game))
		if err != nil {
			return fmt.Errorf("seed defaults: %w", err)
		}
		log.Info().Str("room_id", roomID).Msg("default room ready")
	}

	hub := broadcast.NewHub(cfg.Server.EventBufferSz)
	var (
		pub       broadcast.Publisher = hub
		rdb       *redis.Client
		redisPing httptransport.Pinger
	)
	if cfg.Server.RedisURL != "" {
		rdb, err = openRedis(ctx, cfg.Server.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		pub = broadcast.NewRedisPublisher(rdb)
		redisPing = httptransport.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		log.Info().Msg("connected to redis; events fan out through pub/sub")
	}

	seed := cfg.Game.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	orc, err := oracle.New(cfg.Oracle, rand.New(rand.NewSource(seed+1)))
	if err != nil {
		return fmt.Errorf("oracle init: %w", err)
	}
	sel := selector.New(repo, cfg.Game.SelectorTopCategories, cfg.Game.SelectorTopQuestions, rand.New(rand.NewSource(seed+2)))
	reg := match.NewRegistry(repo, pub, match.Options{
		Selector: sel,
		Oracle:   orc,
		Rand:     rand.New(rand.NewSource(seed)),

		RetainFinished: cfg.Game.RetainFinished,
		OnForget:       hub.Forget,
	})

	deps := httptransport.Deps{
		Config:   cfg.Server,
		Registry: reg,
		Hub:      hub,
		Rooms:    repo,
		Store:    repo,
		Redis:    redisPing,
	}
	if cfg.Server.MCPEnabled {
		deps.MCP = mcpserver.New(reg, repo).Handler()
	}
	router := httptransport.NewRouter(deps)
	httptransport.LogRoutes(router)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if rdb != nil {
		g.Go(func() error {
			return broadcast.Relay(gctx, rdb, hub)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := reg.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("sessions did not stop in time")
		}
		return server.Shutdown(sctx)
	})
	return g.Wait()
}

func openRepository(ctx context.Context, cfg config.ServerConfig) (repository, func(), error) {
	if cfg.PostgresDSN == "" {
		log.Warn().Msg("POSTGRES_DSN not set; using in-memory store")
		return store.NewMemory(), func() {}, nil
	}
	st, err := store.New(cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("store init: %w", err)
	}
	if err := st.Ping(ctx); err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("db ping: %w", err)
	}
	return st, st.Close, nil
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

func defaultRoom(cfg config.GameConfig) game.Room {
	return game.Room{
		Name:              "Career Bingo",
		QuestionTimeLimit: cfg.QuestionTimeLimit,
		Intermission:      cfg.Intermission,
		TotalQuestions:    cfg.TotalQuestions,
		BingoSlots:        cfg.BingoSlots,
		CornersEnabled:    cfg.CornersEnabled,
		CategoryScope:     cfg.CategoryScope,
	}
}
