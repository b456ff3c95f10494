package handlers

import (
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/matthewgaim/groupify/internal/apperr"
	"github.com/matthewgaim/groupify/internal/guildconfig"
)

func TestFreshJoin(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, freshJoin(now.Add(-10*time.Second), now))
	assert.False(t, freshJoin(now.Add(-2*time.Hour), now), "startup replay of an old guild")
	assert.False(t, freshJoin(time.Time{}, now))
}

func TestInstallSeed(t *testing.T) {
	seed := installSeed(&discordgo.Guild{ID: "G1", Name: " Deals ", Icon: "abc"})
	cfg := guildconfig.Defaults("G1")
	seed.Apply(&cfg)
	assert.Equal(t, "Deals", cfg.Name)
	assert.Equal(t, "abc", cfg.Icon)

	assert.True(t, installSeed(nil).Empty())
}

func TestSetupReply(t *testing.T) {
	cfg := guildconfig.Defaults("G1")
	cfg.ManagerRoleID, cfg.GroupBuyChannelID, cfg.LogChannelID = "R1", "C1", "C2"

	reply := setupReply(&cfg, nil)
	assert.Contains(t, reply, "<@&R1>")
	assert.Contains(t, reply, "<#C1>")
	assert.Contains(t, reply, "<#C2>")

	err := apperr.UpstreamProvision("setup.log_channel", "Failed to create log channel", "403", errors.New("forbidden"))
	assert.Contains(t, setupReply(nil, err), "Failed to create log channel")
	assert.Contains(t, setupReply(nil, apperr.NotConfigured("setup", "x")), "missing its credentials")
	assert.Contains(t, setupReply(nil, apperr.Store("guildconfig.get", "Failed to fetch guild config", errors.New("down"))), "Failed to fetch guild config")
}

func TestCommandsRegistered(t *testing.T) {
	h := New(nil, nil, zap.NewNop())

	names := map[string]bool{}
	for _, cmd := range h.Commands() {
		names[cmd.Name] = true
		_, ok := h.commandHandlers[cmd.Name]
		assert.True(t, ok, cmd.Name)
	}
	require.True(t, names["setup"])

	for _, cmd := range h.Commands() {
		if cmd.Name == "setup" {
			require.NotNil(t, cmd.DefaultMemberPermissions)
			assert.EqualValues(t, 1<<5, *cmd.DefaultMemberPermissions)
		}
	}
}
