// Package api serves the Groupify panel's HTTP API.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/matthewgaim/groupify/internal/config"
	"github.com/matthewgaim/groupify/internal/discord"
	"github.com/matthewgaim/groupify/internal/guildconfig"
	"github.com/matthewgaim/groupify/internal/logger"
	"github.com/matthewgaim/groupify/internal/session"
	"github.com/matthewgaim/groupify/internal/setup"
)

// Deps are the components the handlers call into.
type Deps struct {
	Config   *config.Config
	Log      *zap.Logger
	OAuth    *discord.OAuth
	Sessions *session.Manager
	Configs  *guildconfig.Repository
	Setup    *setup.Orchestrator
}

func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logger.Middleware(d.Log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{d.Config.FrontendOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", logger.RequestIDHeader},
		ExposeHeaders:    []string{logger.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	requireSession := sessionMiddleware(d)

	apiRoutes := router.Group("/api")
	{
		apiRoutes.GET("/health", health())

		auth := apiRoutes.Group("/auth/discord")
		auth.GET("/ping", authPing())
		auth.GET("/login", login(d))
		auth.GET("/callback", callback(d))
		auth.POST("/callback", callback(d))
		auth.POST("/logout", logout(d))

		apiRoutes.GET("/me", requireSession, me(d))
		apiRoutes.GET("/guilds", requireSession, listGuilds(d))
		apiRoutes.GET("/guilds/:guildId/invite", invite(d))

		dbRoutes := apiRoutes.Group("/db/guilds/:guildId")
		if d.Config.DBRoutesRequireSession {
			dbRoutes.Use(requireSession)
		}
		dbRoutes.GET("", getGuildConfig(d))
		dbRoutes.PATCH("", updateGuildConfig(d))
		dbRoutes.PUT("", updateGuildConfig(d))
		dbRoutes.GET("/config", getGuildConfig(d))
		dbRoutes.PUT("/config", updateGuildConfig(d))
		dbRoutes.POST("/setup", runSetup(d))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	return router
}

// StartAPIServer serves handler on addr until ctx is cancelled, then drains
// in-flight requests.
func StartAPIServer(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting API", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down API")
	return srv.Shutdown(shutdownCtx)
}

func health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, OKResponse{OK: true})
	}
}
