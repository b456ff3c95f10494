package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/matthewgaim/groupify/internal/guildaccess"
	"github.com/matthewgaim/groupify/internal/logger"
	"github.com/matthewgaim/groupify/internal/session"
)

func me(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		cred, _ := credential(c)
		if !cred.HasProfile() {
			if err := refreshProfile(c, d, cred); err != nil {
				abortWithError(c, d, err)
				return
			}
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", cred.Identity)
	}
}

// listGuilds returns the session's guilds the user can manage. ?refresh=1
// refetches them from Discord first.
func listGuilds(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		cred, _ := credential(c)
		if !cred.HasProfile() || c.Query("refresh") == "1" {
			if err := refreshProfile(c, d, cred); err != nil {
				abortWithError(c, d, err)
				return
			}
		}
		c.JSON(http.StatusOK, guildaccess.Filter(cred.Guilds))
	}
}

func invite(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		url, err := d.OAuth.InviteURL(c.Param("guildId"))
		if err != nil {
			abortWithError(c, d, err)
			return
		}
		c.JSON(http.StatusOK, URLResponse{URL: url})
	}
}

// refreshProfile refetches identity and guilds with the session token and
// caches them back into the session.
func refreshProfile(c *gin.Context, d Deps, cred *session.Credential) error {
	identity, guilds, err := d.OAuth.FetchProfile(c.Request.Context(), cred.Token.AccessToken)
	if err != nil {
		return err
	}
	cred.Identity = identity
	cred.Guilds = guilds
	if err := d.Sessions.Save(c.Request, cred); err != nil {
		logger.FromContext(c.Request.Context(), d.Log).Warn("cache refreshed profile", zap.Error(err))
	}
	return nil
}
