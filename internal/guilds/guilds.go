// Package guilds manages the bot's per-guild slash command registrations.
package guilds

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// SyncCommands replaces the guild's command set with commands. Running it
// again on every start is safe; unchanged commands keep their ids.
func SyncCommands(s *discordgo.Session, guildID string, commands []*discordgo.ApplicationCommand, log *zap.Logger) error {
	created, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, guildID, commands)
	if err != nil {
		log.Warn("cannot sync commands", zap.String("guild_id", guildID), zap.Error(err))
		return err
	}
	log.Debug("synced commands", zap.String("guild_id", guildID), zap.Int("count", len(created)))
	return nil
}

func DeleteCommandsForGuild(s *discordgo.Session, guildID string, log *zap.Logger) {
	botID := s.State.User.ID
	commands, err := s.ApplicationCommands(botID, guildID)
	if err != nil {
		log.Warn("failed to fetch commands", zap.String("guild_id", guildID), zap.Error(err))
		return
	}

	for _, cmd := range commands {
		err := s.ApplicationCommandDelete(botID, guildID, cmd.ID)
		if err != nil {
			log.Warn("failed to delete command", zap.String("command", cmd.Name), zap.String("guild_id", guildID), zap.Error(err))
		} else {
			log.Debug("deleted command", zap.String("command", cmd.Name), zap.String("guild_id", guildID))
		}
	}
}
