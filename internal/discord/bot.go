package discord

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Bot creates guild resources with the bot credential. It only uses the REST
// half of discordgo; no gateway connection is opened.
type Bot struct {
	s       *discordgo.Session
	timeout time.Duration
}

// NewBot returns a provisioning client for token. A nil httpClient keeps
// discordgo's default.
func NewBot(token string, httpClient *http.Client, timeout time.Duration) *Bot {
	s, _ := discordgo.New("Bot " + token)
	if httpClient != nil {
		s.Client = httpClient
	}
	s.MaxRestRetries = 0
	s.ShouldRetryOnRateLimit = false
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Bot{s: s, timeout: timeout}
}

// NewBotFromSession reuses an already connected gateway session.
func NewBotFromSession(s *discordgo.Session, timeout time.Duration) *Bot {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Bot{s: s, timeout: timeout}
}

func (b *Bot) CreateRole(ctx context.Context, guildID, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	mentionable := true
	role, err := b.s.GuildRoleCreate(guildID, &discordgo.RoleParams{
		Name:        name,
		Mentionable: &mentionable,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return role.ID, nil
}

// CreateTextChannel creates a text channel. When privateTo is non-empty the
// channel is hidden from @everyone and visible to that role only.
func (b *Bot) CreateTextChannel(ctx context.Context, guildID, name, privateTo string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	data := discordgo.GuildChannelCreateData{
		Name: name,
		Type: discordgo.ChannelTypeGuildText,
	}
	if privateTo != "" {
		data.PermissionOverwrites = privateOverwrites(guildID, privateTo)
	}
	ch, err := b.s.GuildChannelCreateComplex(guildID, data, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return ch.ID, nil
}

// ErrorDetail returns the upstream response body behind a failed call.
func ErrorDetail(err error) string {
	if err == nil {
		return ""
	}
	return restDetail(err)
}

// The @everyone role shares the guild's id.
func privateOverwrites(guildID, roleID string) []*discordgo.PermissionOverwrite {
	return []*discordgo.PermissionOverwrite{
		{
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    roleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		},
	}
}
