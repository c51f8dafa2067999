package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"alamedalearn/internal/app"
	"alamedalearn/internal/config"
	"alamedalearn/internal/ratelimit"
	"alamedalearn/internal/server"
	"alamedalearn/internal/session"
	"alamedalearn/internal/util"
	"alamedalearn/pkg/changefeed"
	"alamedalearn/pkg/content"
	"alamedalearn/pkg/persist"
	"alamedalearn/pkg/storage"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	adapter, err := newAdapter(cfg)
	if err != nil {
		log.Fatalf("failed to init persistence adapter: %v", err)
	}

	store := content.New(adapter)
	if err := store.Initialize(ctx); err != nil {
		log.Fatalf("failed to load content state: %v", err)
	}

	var media storage.MediaStore
	if cfg.MinioEndpoint != "" {
		media, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("failed to init media store: %v", err)
		}
	}

	appCore, err := app.New(app.Config{Store: store, Media: media})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	tokenVerifier, err := session.NewVerifier(session.Config{
		Secret:   cfg.SessionSecret,
		Issuer:   cfg.SessionIssuer,
		Audience: cfg.SessionAudience,
	})
	if err != nil {
		log.Fatalf("failed to init session verifier: %v", err)
	}

	srvCfg := server.Config{
		App:            appCore,
		TokenVerifier:  tokenVerifier,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
	if cfg.RedisAddr != "" && cfg.CommentRateLimitPerMinute > 0 {
		srvCfg.CommentLimiter, err = ratelimit.NewRedisFixedWindowLimiter(
			cfg.RedisAddr, cfg.RedisPassword, "alameda:ratelimit:comment", cfg.CommentRateLimitPerMinute, time.Minute)
		if err != nil {
			log.Fatalf("failed to init comment rate limiter: %v", err)
		}
	}
	if cfg.RedisAddr != "" && cfg.UploadRateLimitPerMinute > 0 {
		srvCfg.UploadLimiter, err = ratelimit.NewRedisFixedWindowLimiter(
			cfg.RedisAddr, cfg.RedisPassword, "alameda:ratelimit:upload", cfg.UploadRateLimitPerMinute, time.Minute)
		if err != nil {
			log.Fatalf("failed to init upload rate limiter: %v", err)
		}
	}

	httpServer, err := server.New(srvCfg)
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	group, ctx := errgroup.WithContext(ctx)

	feed, err := newChangefeed(cfg)
	if err != nil {
		log.Fatalf("failed to init changefeed: %v", err)
	}
	if feed != nil {
		store.OnChange(feed.Notify)
		group.Go(func() error { return feed.Run(ctx) })
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	group.Go(func() error {
		slog.Info("content server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", "err", err)
	}
}

func newAdapter(cfg config.FileConfig) (persist.Adapter, error) {
	switch cfg.PersistBackend {
	case config.BackendFile:
		return persist.NewFileAdapter(cfg.DataDir)
	case config.BackendRedis:
		return persist.NewRedisAdapter(cfg.RedisAddr, cfg.RedisPassword, "")
	case config.BackendPostgres:
		return persist.NewGormAdapter(cfg.DatabaseURL)
	case config.BackendMemory:
		return persist.NewMemoryAdapter(), nil
	default:
		return nil, errors.New("unknown persistence backend " + cfg.PersistBackend)
	}
}

func newChangefeed(cfg config.FileConfig) (*changefeed.Feed, error) {
	switch cfg.ChangefeedBackend {
	case config.ChangefeedOff:
		return nil, nil
	case config.ChangefeedRedis:
		pub, err := changefeed.NewRedisPublisher(cfg.RedisAddr, cfg.RedisPassword, cfg.ChangefeedStream, 0)
		if err != nil {
			return nil, err
		}
		return changefeed.New(pub, 0), nil
	case config.ChangefeedAMQP:
		pub, err := changefeed.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, err
		}
		return changefeed.New(pub, 0), nil
	default:
		return nil, errors.New("unknown changefeed backend " + cfg.ChangefeedBackend)
	}
}
