package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matthewgaim/groupify/internal/apperr"
	"github.com/matthewgaim/groupify/internal/guildconfig"
)

var notOK = gin.H{"ok": false}

// getGuildConfig reads the guild's config, creating the default document on
// first use. ?name= and ?icon= only seed a newly created document.
func getGuildConfig(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		seed := map[string]any{}
		for _, k := range []string{"name", "icon"} {
			if v, ok := c.GetQuery(k); ok {
				seed[k] = v
			}
		}

		cfg, err := d.Configs.Get(c.Request.Context(), c.Param("guildId"), guildconfig.ParseSeed(seed))
		if err != nil {
			abortWithError(c, d, err, notOK)
			return
		}
		c.JSON(http.StatusOK, ConfigResponse{OK: true, Config: guildconfig.NewView(*cfg)})
	}
}

// updateGuildConfig applies the whitelisted fields of the JSON body. Unknown
// keys and invalid values are dropped without failing the request.
func updateGuildConfig(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		input := map[string]any{}
		if err := json.NewDecoder(c.Request.Body).Decode(&input); err != nil && !errors.Is(err, io.EOF) {
			abortWithError(c, d, apperr.BadRequest("guildconfig.update", "Invalid JSON body"), notOK)
			return
		}

		cfg, err := d.Configs.Update(c.Request.Context(), c.Param("guildId"), guildconfig.ParsePatch(input))
		if err != nil {
			abortWithError(c, d, err, notOK)
			return
		}
		c.JSON(http.StatusOK, ConfigResponse{OK: true, Config: guildconfig.NewView(*cfg)})
	}
}

func runSetup(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg, err := d.Setup.Run(c.Request.Context(), c.Param("guildId"))
		if err != nil {
			abortWithError(c, d, err, notOK)
			return
		}
		c.JSON(http.StatusOK, ConfigResponse{OK: true, Config: guildconfig.NewView(*cfg)})
	}
}
