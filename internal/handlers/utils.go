package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/matthewgaim/groupify/internal/apperr"
	"github.com/matthewgaim/groupify/internal/guildconfig"
)

const freshJoinWindow = time.Minute

func freshJoin(joinedAt, now time.Time) bool {
	return !joinedAt.IsZero() && now.Sub(joinedAt) < freshJoinWindow
}

// installSeed carries the guild's display info into a newly created config.
func installSeed(g *discordgo.Guild) guildconfig.Patch {
	seed := map[string]any{}
	if g == nil {
		return guildconfig.ParseSeed(seed)
	}
	if g.Name != "" {
		seed["name"] = g.Name
	}
	if g.Icon != "" {
		seed["icon"] = g.Icon
	}
	return guildconfig.ParseSeed(seed)
}

// setupReply renders the ephemeral /setup answer.
func setupReply(cfg *guildconfig.Config, err error) string {
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindNotConfigured:
			return "Setup is not available: the bot is missing its credentials."
		case apperr.KindUpstreamProvision:
			return fmt.Sprintf("Setup stopped: %s. Check the bot's permissions and run /setup again; finished steps are kept.", apperr.Message(err))
		default:
			return "Setup failed: " + apperr.Message(err) + ". Try again shortly."
		}
	}

	var b strings.Builder
	b.WriteString("Groupify is set up.\n")
	fmt.Fprintf(&b, "Manager role: <@&%s>\n", cfg.ManagerRoleID)
	fmt.Fprintf(&b, "Group buys: <#%s>\n", cfg.GroupBuyChannelID)
	fmt.Fprintf(&b, "Logs: <#%s>", cfg.LogChannelID)
	return b.String()
}
