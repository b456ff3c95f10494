package api

import "github.com/matthewgaim/groupify/internal/guildconfig"

type URLResponse struct {
	URL string `json:"url"`
}

type OKResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

type ConfigResponse struct {
	OK     bool             `json:"ok"`
	Config guildconfig.View `json:"config"`
}
