package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/matthewgaim/groupify/internal/apperr"
	"github.com/matthewgaim/groupify/internal/logger"
)

func authPing() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, OKResponse{OK: true, Message: "discord auth router live"})
	}
}

func login(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		url, err := d.OAuth.LoginURL()
		if err != nil {
			abortWithError(c, d, err)
			return
		}
		c.JSON(http.StatusOK, URLResponse{URL: url})
	}
}

// callback finishes the OAuth handshake. Failures answer in plain text since
// the browser lands here directly from Discord.
func callback(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.FromContext(c.Request.Context(), d.Log)
		code := c.Query("code")
		if code == "" {
			code = c.PostForm("code")
		}

		cred, err := d.OAuth.Authenticate(c.Request.Context(), code)
		if err != nil {
			log.Warn("discord callback failed",
				zap.String("kind", apperr.KindOf(err).String()),
				zap.String("detail", apperr.Detail(err)),
				zap.Error(err))
			c.String(apperr.StatusOf(err), callbackText(err))
			return
		}

		if err := d.Sessions.Start(c.Writer, c.Request, cred); err != nil {
			log.Error("session save failed", zap.Error(err))
			c.String(http.StatusInternalServerError, "Internal error handling Discord callback")
			return
		}
		log.Info("discord callback ok", zap.Bool("profile_cached", cred.HasProfile()))
		c.Redirect(http.StatusFound, d.Config.FrontendOrigin+"/")
	}
}

func callbackText(err error) string {
	msg := apperr.Message(err)
	if apperr.Is(err, apperr.KindUpstreamAuth) {
		if detail := apperr.Detail(err); detail != "" {
			return fmt.Sprintf("%s: %s", msg, detail)
		}
	}
	return msg
}

func logout(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := d.Sessions.Destroy(c.Writer, c.Request); err != nil {
			abortWithError(c, d, apperr.Store("logout", "Failed to destroy session", err))
			return
		}
		c.JSON(http.StatusOK, OKResponse{OK: true})
	}
}
