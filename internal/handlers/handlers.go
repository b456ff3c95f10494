// Package handlers wires the gateway bot's event handlers.
package handlers

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/matthewgaim/groupify/internal/guildconfig"
	"github.com/matthewgaim/groupify/internal/guilds"
	"github.com/matthewgaim/groupify/internal/setup"
)

const (
	setupTimeout = 30 * time.Second
	storeTimeout = 10 * time.Second
)

type Handlers struct {
	configs         *guildconfig.Repository
	setup           *setup.Orchestrator
	log             *zap.Logger
	now             func() time.Time
	commandHandlers map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)
}

func New(configs *guildconfig.Repository, orchestrator *setup.Orchestrator, log *zap.Logger) *Handlers {
	h := &Handlers{configs: configs, setup: orchestrator, log: log, now: time.Now}
	h.initCommands()
	return h
}

func (h *Handlers) CommandLookupHandler() func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}
		if handler, ok := h.commandHandlers[i.ApplicationCommandData().Name]; ok {
			handler(s, i)
		}
	}
}

func (h *Handlers) BotReadyRegisterCommandsHandler() func(s *discordgo.Session, r *discordgo.Ready) {
	return func(s *discordgo.Session, r *discordgo.Ready) {
		h.log.Info("bot ready", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
		for _, g := range r.Guilds {
			guilds.SyncCommands(s, g.ID, h.Commands(), h.log)
		}
		s.UpdateCustomStatus("Type /setup to get started with Groupify")
	}
}

// BotAddedToServerHandler records the install time for guilds the bot just
// joined. GUILD_CREATE also fires for every guild on startup; those are
// recognized by their older join time and skipped.
func (h *Handlers) BotAddedToServerHandler() func(s *discordgo.Session, g *discordgo.GuildCreate) {
	return func(s *discordgo.Session, g *discordgo.GuildCreate) {
		if !freshJoin(g.JoinedAt, h.now()) {
			return
		}
		log := h.log.With(zap.String("guild_id", g.ID))
		log.Info("joined a new server", zap.String("name", g.Name), zap.String("owner_id", g.OwnerID))

		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if _, err := h.configs.MarkBotInstalled(ctx, g.ID, installSeed(g.Guild)); err != nil {
			log.Error("record bot install", zap.Error(err))
		}
		guilds.SyncCommands(s, g.ID, h.Commands(), h.log)
	}
}

// BotRemovedFromServerHandler drops the guild's commands. The stored config is
// kept so a reinstall picks it back up.
func (h *Handlers) BotRemovedFromServerHandler() func(s *discordgo.Session, g *discordgo.GuildDelete) {
	return func(s *discordgo.Session, g *discordgo.GuildDelete) {
		if g.Unavailable {
			return
		}
		h.log.Info("removed from server", zap.String("guild_id", g.ID))
		guilds.DeleteCommandsForGuild(s, g.ID, h.log)
	}
}
