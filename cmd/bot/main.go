package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/matthewgaim/groupify/internal/config"
	"github.com/matthewgaim/groupify/internal/db"
	"github.com/matthewgaim/groupify/internal/discord"
	"github.com/matthewgaim/groupify/internal/guildconfig"
	"github.com/matthewgaim/groupify/internal/guilds"
	"github.com/matthewgaim/groupify/internal/handlers"
	"github.com/matthewgaim/groupify/internal/logger"
	"github.com/matthewgaim/groupify/internal/setup"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Println("Error loading .env file")
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

	if !cfg.BotConfigured() {
		zl.Fatal("DISCORD_TOKEN is required to run the bot")
	}

	dg, err := discordgo.New("Bot " + cfg.Discord.BotToken)
	if err != nil {
		zl.Fatal("Error creating Discord session", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := db.Open(ctx, cfg.DatabaseURL(), cfg.Database.MongoDatabase, zl)
	defer store.Close()
	configs := guildconfig.NewRepository(store, zl)
	orchestrator := setup.New(discord.NewBotFromSession(dg, cfg.Discord.UpstreamTimeout), configs, cfg.Setup, zl, discord.ErrorDetail)

	h := handlers.New(configs, orchestrator, zl)
	dg.AddHandler(h.CommandLookupHandler())
	dg.AddHandler(h.BotReadyRegisterCommandsHandler())
	dg.AddHandler(h.BotAddedToServerHandler())
	dg.AddHandler(h.BotRemovedFromServerHandler())

	dg.Identify.Intents = discordgo.IntentsGuilds
	if err := dg.Open(); err != nil {
		zl.Fatal("Error opening connection", zap.Error(err))
	}
	if dg.State.User == nil {
		zl.Fatal("Bot user is not initialized")
	}
	zl.Info("Bot running", zap.String("user", dg.State.User.Username))

	<-ctx.Done()

	for _, g := range dg.State.Guilds {
		guilds.DeleteCommandsForGuild(dg, g.ID, zl)
	}
	if err := dg.Close(); err != nil {
		zl.Warn("Error closing gateway", zap.Error(err))
	}
	zl.Info("Gracefully shutting down")
}
