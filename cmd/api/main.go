package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/matthewgaim/groupify/internal/api"
	"github.com/matthewgaim/groupify/internal/config"
	"github.com/matthewgaim/groupify/internal/db"
	"github.com/matthewgaim/groupify/internal/discord"
	"github.com/matthewgaim/groupify/internal/guildconfig"
	"github.com/matthewgaim/groupify/internal/logger"
	"github.com/matthewgaim/groupify/internal/session"
	"github.com/matthewgaim/groupify/internal/setup"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Println("No .env file loaded:", err)
	}
	cfg, err := config.Parse()
	if err != nil {
		log.Fatalf("Error reading config: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level, cfg.LogFormat())
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer zl.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		if cfg.SessionSecret == "changeme" {
			zl.Warn("SESSION_SECRET is the default value")
		}
	}
	if !cfg.OAuthConfigured() {
		zl.Warn("Discord OAuth not configured: set DISCORD_CLIENT_ID and DISCORD_REDIRECT_URI")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := db.Open(ctx, cfg.DatabaseURL(), cfg.Database.MongoDatabase, zl)
	defer store.Close()
	configs := guildconfig.NewRepository(store, zl)

	var provisioner setup.Provisioner
	if cfg.BotConfigured() {
		provisioner = discord.NewBot(cfg.Discord.BotToken, nil, cfg.Discord.UpstreamTimeout)
	} else {
		zl.Warn("DISCORD_TOKEN not set: auto-setup disabled")
	}

	router := api.NewRouter(api.Deps{
		Config: cfg,
		Log:    zl,
		OAuth:  discord.NewOAuth(cfg.Discord, nil, zl),
		Sessions: session.NewManager(sessionStore(ctx, cfg, zl), session.Options{
			Secret: cfg.SessionSecret,
			Secure: cfg.IsProduction(),
		}),
		Configs: configs,
		Setup:   setup.New(provisioner, configs, cfg.Setup, zl, discord.ErrorDetail),
	})

	if err := api.StartAPIServer(ctx, cfg.Addr(), router, zl); err != nil {
		zl.Fatal("API server stopped", zap.Error(err))
	}
	zl.Info("Gracefully shut down")
}

// sessionStore uses Redis when REDIS_URL is set and reachable, otherwise an
// in-process store.
func sessionStore(ctx context.Context, cfg *config.Config, zl *zap.Logger) session.Store {
	if cfg.Redis.URL == "" {
		zl.Warn("REDIS_URL not set: sessions are kept in memory")
		return session.NewMemoryStore(session.DefaultTTL)
	}
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		zl.Error("invalid REDIS_URL, sessions are kept in memory", zap.Error(err))
		return session.NewMemoryStore(session.DefaultTTL)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		zl.Error("redis unreachable, sessions are kept in memory", zap.Error(err))
		client.Close()
		return session.NewMemoryStore(session.DefaultTTL)
	}
	return session.NewRedisStore(client, session.DefaultTTL)
}
