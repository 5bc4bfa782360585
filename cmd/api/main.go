package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mindhaven/backend/internal/config"
	"github.com/mindhaven/backend/internal/handler"
	"github.com/mindhaven/backend/internal/realtime"
	"github.com/mindhaven/backend/internal/repo"
	"github.com/mindhaven/backend/internal/service/ai"
	authservice "github.com/mindhaven/backend/internal/service/auth"
	"github.com/mindhaven/backend/internal/service/cooldown"
	moodservice "github.com/mindhaven/backend/internal/service/mood"
	"github.com/mindhaven/backend/internal/service/moodlog"
	pledgeservice "github.com/mindhaven/backend/internal/service/pledge"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = ephemeralSecret()
		log.Println("warning: JWT_SECRET not set, using an ephemeral secret; sessions will not survive a restart")
	}

	store, err := repo.Open(cfg.DB.Path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer store.Close()

	// Initialize mood analyzer when gateway credentials are present.
	var analyzer *moodservice.Analyzer
	if cfg.AI.Enabled() {
		analyzer = moodservice.NewAnalyzer(ai.NewClient(cfg.AI), cfg.AI.Timeout)
		log.Println("mood analyzer initialized successfully")
	} else {
		log.Println("MODEL_API_KEY 未配置，跳过情绪分析功能初始化")
	}

	hub := realtime.NewHub()
	go hub.Run(ctx)

	throttle := cooldown.NewPolicy(cooldown.NewMemoryStore())

	deps := handler.Deps{
		Repo:      store,
		Hub:       hub,
		JWTSecret: cfg.Auth.JWTSecret,
		Throttle:  throttle,
		Auth:      authservice.NewService(store, cfg.Auth),
		MoodLogs:  moodlog.NewService(store),
		Pledges:   pledgeservice.NewService(store, hub),
	}
	if analyzer != nil {
		deps.Analyzer = analyzer
	}

	router := handler.NewRouter(deps)

	startServer(ctx, cfg.Server, router)
}

func ephemeralSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("failed to generate ephemeral secret: %v", err)
	}
	return hex.EncodeToString(buf)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("MindHaven backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
