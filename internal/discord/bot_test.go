package discord

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewgaim/groupify/internal/discord/discordtest"
)

func TestBotCreatesRoleAndChannels(t *testing.T) {
	fake := discordtest.NewServer()
	t.Cleanup(fake.Close)
	bot := NewBot("bot-token", fake.HTTPClient(), time.Second)
	ctx := context.Background()

	roleID, err := bot.CreateRole(ctx, "G1", "Groupify Manager")
	require.NoError(t, err)
	assert.NotEmpty(t, roleID)

	publicID, err := bot.CreateTextChannel(ctx, "G1", "group-buys", "")
	require.NoError(t, err)
	assert.Empty(t, fake.Channel(publicID).PermissionOverwrites)

	privateID, err := bot.CreateTextChannel(ctx, "G1", "groupify-logs", roleID)
	require.NoError(t, err)

	created := fake.Channel(privateID)
	assert.Equal(t, "G1", created.GuildID)
	require.Len(t, created.PermissionOverwrites, 2)
	everyone := created.PermissionOverwrites[0]
	assert.Equal(t, "G1", everyone.ID)
	assert.Equal(t, strconv.FormatInt(discordgo.PermissionViewChannel, 10), everyone.Deny)
	assert.Equal(t, roleID, created.PermissionOverwrites[1].ID)
}

func TestBotChannelFailureCarriesDetail(t *testing.T) {
	fake := discordtest.NewServer()
	t.Cleanup(fake.Close)
	fake.FailChannel("groupify-logs", true)
	bot := NewBot("bot-token", fake.HTTPClient(), time.Second)

	_, err := bot.CreateTextChannel(context.Background(), "G1", "groupify-logs", "R1")
	require.Error(t, err)
	assert.Contains(t, ErrorDetail(err), "Missing Permissions")
	assert.Contains(t, ErrorDetail(err), "403")
}
