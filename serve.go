package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storybot/config"
	"storybot/dao"
	"storybot/internal/wsclient"
	"storybot/model"
	"storybot/route"
	"storybot/service"
	"storybot/service/stories"
)

func serveCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer turns over the webhook or the websocket transport",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if mode != "" {
				cfg.Mode = mode
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			logger, err := newLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			storage, closeStorage, err := openStorage(ctx, cfg.Storage, logger)
			if err != nil {
				return err
			}
			defer closeStorage()

			bot := newBot(cfg, storage, logger)
			logger.Info("storybot starting",
				zap.String("mode", cfg.Mode),
				zap.String("storage", cfg.Storage.Backend),
				zap.Int("stories", bot.Stories().Len()))

			if cfg.Mode == config.ModeWebsocket {
				return runWebsocket(ctx, cfg.Websocket, bot, logger)
			}
			return runWebhook(ctx, cfg.Webhook, bot, logger)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "transport override: webhook or websocket")
	return cmd
}

func storiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stories",
		Short: "Print the client configuration of every registered story",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			bot := newBot(cfg, dao.NewMemoryStore(), zap.NewNop())

			yes := true
			env, err := bot.HandleTurn(cmd.Context(), &model.Envelope{Configuration: &yes})
			if err != nil {
				return err
			}
			out, err := model.EncodeEnvelope(env)
			if err != nil {
				return err
			}
			cmd.Println(string(out))
			return nil
		},
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zcfg.Level = level
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func openStorage(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (dao.Storage, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case config.StorageMemory:
		return dao.NewMemoryStore(), noop, nil
	case config.StorageFile:
		return dao.NewFileStore(cfg.File.Dir), noop, nil
	case config.StorageRedis:
		store := dao.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if cfg.Redis.Prefix != "" {
			store = store.WithKeyPrefix(cfg.Redis.Prefix)
		}
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		return store, store.Close, nil
	case config.StorageSQLite:
		store, err := dao.NewSQLiteStore(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	logger.Error("unknown storage backend", zap.String("backend", cfg.Backend))
	return nil, nil, fmt.Errorf("%w: storage backend %q", config.ErrInvalidConfig, cfg.Backend)
}

func newBot(cfg *config.Config, storage dao.Storage, logger *zap.Logger) *service.BotService {
	policy := service.EntityPolicy{Mode: service.EntityMode(cfg.Entities.Policy)}
	if cfg.Entities.Max != nil {
		policy.MaxEntities = *cfg.Entities.Max
	}
	bot := service.NewBotService(service.Config{
		Storage:      storage,
		Logger:       logger,
		EntityPolicy: policy,
	})
	if cfg.ErrorMessage != "" {
		message := cfg.ErrorMessage
		bot.SetErrorHandler(func(ctx context.Context, bus service.Bus) error {
			bus.Send(message)
			return nil
		})
	}
	bot.RegisterStories(stories.All()...)
	bot.RegisterStories(service.NewCannedStories(cfg.Stories, logger)...)
	return bot
}

func runWebhook(ctx context.Context, cfg config.WebhookConfig, bot *service.BotService, logger *zap.Logger) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	route.Register(r, bot, cfg.Path, logger.Named("webhook"))

	srv := &http.Server{Addr: cfg.Addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("webhook listening", zap.String("addr", cfg.Addr), zap.String("path", "/"+cfg.Path+"/webhook"))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runWebsocket(ctx context.Context, cfg config.WebsocketConfig, bot *service.BotService, logger *zap.Logger) error {
	client := wsclient.NewClient(wsclient.Config{
		Protocol:   cfg.Protocol,
		Host:       cfg.Host,
		Port:       cfg.Port,
		APIKey:     cfg.APIKey,
		MaxBackoff: cfg.MaxBackoff,
	}, bot.HandleRaw, logger)

	err := client.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
