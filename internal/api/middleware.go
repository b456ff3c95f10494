package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/matthewgaim/groupify/internal/apperr"
	"github.com/matthewgaim/groupify/internal/logger"
	"github.com/matthewgaim/groupify/internal/session"
)

const credentialKey = "credential"

func sessionMiddleware(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		cred, err := d.Sessions.Load(c.Writer, c.Request)
		if err != nil {
			if errors.Is(err, session.ErrNoSession) {
				err = apperr.Unauthorized("session", "Not logged in with Discord")
			} else {
				err = apperr.Store("session", "Failed to load session", err)
			}
			abortWithError(c, d, err)
			return
		}
		c.Set(credentialKey, cred)
		c.Next()
	}
}

// credential returns the session credential set by sessionMiddleware, if any.
func credential(c *gin.Context) (*session.Credential, bool) {
	v, ok := c.Get(credentialKey)
	if !ok {
		return nil, false
	}
	cred, ok := v.(*session.Credential)
	return cred, ok
}

// abortWithError logs err with its diagnostics and renders the client-safe
// envelope for its kind.
func abortWithError(c *gin.Context, d Deps, err error, extra ...gin.H) {
	status := apperr.StatusOf(err)
	log := logger.FromContext(c.Request.Context(), d.Log)
	fields := []zap.Field{
		zap.String("kind", apperr.KindOf(err).String()),
		zap.Error(err),
	}
	if detail := apperr.Detail(err); detail != "" {
		fields = append(fields, zap.String("detail", detail))
	}
	if status >= 500 {
		log.Error("request failed", fields...)
	} else {
		log.Debug("request rejected", fields...)
	}
	_ = c.Error(err)

	body := gin.H{"error": apperr.Message(err)}
	for _, h := range extra {
		for k, v := range h {
			body[k] = v
		}
	}
	c.AbortWithStatusJSON(status, body)
}
