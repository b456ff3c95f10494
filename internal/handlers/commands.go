package handlers

import (
	"context"
	"math/big"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/matthewgaim/groupify/internal/guildaccess"
)

var (
	manageGuild int64 = guildaccess.PermissionManageGuild
	guildOnly         = false

	commands = []*discordgo.ApplicationCommand{
		{
			Name:        "ping",
			Description: "Replies with pong!",
		},
		{
			Name:                     "setup",
			Description:              "Create the Groupify manager role, group-buy channel and log channel",
			DefaultMemberPermissions: &manageGuild,
			DMPermission:             &guildOnly,
		},
	}
)

// Commands returns the slash commands the bot registers in every guild.
func (h *Handlers) Commands() []*discordgo.ApplicationCommand {
	return commands
}

func (h *Handlers) initCommands() {
	h.commandHandlers = map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate){
		"ping":  pingCommand(),
		"setup": h.setupCommand(),
	}
}

func pingCommand() func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: "Pong!",
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
	}
}

// setupCommand runs auto-setup for the invoking guild and answers only to
// the invoking member.
func (h *Handlers) setupCommand() func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		log := h.log.With(zap.String("guild_id", i.GuildID))

		if i.GuildID == "" || i.Member == nil {
			respondEphemeral(s, i, "Run /setup inside a server.", log)
			return
		}
		if !guildaccess.CanAdminister(new(big.Int).SetInt64(i.Member.Permissions)) {
			respondEphemeral(s, i, "You need the Manage Server permission to run /setup.", log)
			return
		}

		// Provisioning can take longer than the interaction deadline.
		err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
		})
		if err != nil {
			log.Error("defer setup response", zap.Error(err))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
		defer cancel()
		cfg, err := h.setup.Run(ctx, i.GuildID)
		if err != nil {
			log.Warn("setup command failed", zap.Error(err))
		}

		content := setupReply(cfg, err)
		if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content}); err != nil {
			log.Error("edit setup response", zap.Error(err))
		}
	}
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string, log *zap.Logger) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Error("respond to interaction", zap.Error(err))
	}
}
