// Package discord talks to the Discord OAuth2 and REST APIs on behalf of the
// panel: the login handshake, the user's profile, and bot provisioning.
package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/matthewgaim/groupify/internal/apperr"
	"github.com/matthewgaim/groupify/internal/config"
	"github.com/matthewgaim/groupify/internal/session"
)

const (
	AuthorizeURL = "https://discord.com/api/oauth2/authorize"
	TokenURL     = "https://discord.com/api/oauth2/token"

	// InvitePermissions is the permission integer requested for the bot.
	InvitePermissions = "8"
)

var loginScopes = []string{"identify", "guilds"}

// OAuth runs the authorization-code flow for panel logins.
type OAuth struct {
	conf    *oauth2.Config
	client  *http.Client
	timeout time.Duration
	strict  bool
	log     *zap.Logger
}

// NewOAuth builds the login client. A nil httpClient uses the default
// transport.
func NewOAuth(cfg config.DiscordConfig, httpClient *http.Client, log *zap.Logger) *OAuth {
	timeout := cfg.UpstreamTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &OAuth{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       loginScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   AuthorizeURL,
				TokenURL:  TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		client:  httpClient,
		timeout: timeout,
		strict:  cfg.StrictProfile,
		log:     log,
	}
}

func (o *OAuth) Configured() bool {
	return o.conf.ClientID != "" && o.conf.RedirectURL != ""
}

// LoginURL returns the authorize link the panel sends the browser to.
// No state parameter is attached.
func (o *OAuth) LoginURL() (string, error) {
	if !o.Configured() {
		return "", apperr.NotConfigured("discord.login", "Discord OAuth not configured on server")
	}
	return o.conf.AuthCodeURL("", oauth2.SetAuthURLParam("prompt", "consent")), nil
}

// InviteURL returns the bot install link preselecting guildID.
func (o *OAuth) InviteURL(guildID string) (string, error) {
	if o.conf.ClientID == "" {
		return "", apperr.NotConfigured("discord.invite", "DISCORD_CLIENT_ID not configured")
	}
	params := url.Values{
		"client_id":     {o.conf.ClientID},
		"scope":         {"bot applications.commands"},
		"permissions":   {InvitePermissions},
		"guild_id":      {guildID},
		"response_type": {"code"},
		"redirect_uri":  {o.conf.RedirectURL},
	}
	return AuthorizeURL + "?" + params.Encode(), nil
}

// Authenticate exchanges code for a token and, depending on the strict
// setting, requires or merely attempts the profile fetch.
func (o *OAuth) Authenticate(ctx context.Context, code string) (*session.Credential, error) {
	tok, err := o.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	cred := &session.Credential{Token: *tok}
	identity, guilds, err := o.FetchProfile(ctx, tok.AccessToken)
	if err != nil {
		if o.strict {
			return nil, err
		}
		o.log.Warn("discord profile fetch failed, session created without cache",
			zap.String("detail", apperr.Detail(err)), zap.Error(err))
		return cred, nil
	}
	cred.Identity = identity
	cred.Guilds = guilds
	return cred, nil
}

// Exchange trades an authorization code for a token bundle. An empty code
// fails before any request is made.
func (o *OAuth) Exchange(ctx context.Context, code string) (*session.Token, error) {
	if code == "" {
		return nil, apperr.BadRequest("discord.exchange", "Missing ?code from Discord")
	}
	if !o.Configured() {
		return nil, apperr.NotConfigured("discord.exchange", "Discord OAuth not configured on server")
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	if o.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.client)
	}

	tok, err := o.conf.Exchange(ctx, code)
	if err != nil {
		detail := err.Error()
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			detail = string(re.Body)
		}
		return nil, apperr.UpstreamAuth("discord.exchange", "Token exchange failed", detail, err)
	}

	t := &session.Token{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
		RefreshToken: tok.RefreshToken,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		t.Scope = scope
	}
	return t, nil
}

// FetchProfile loads /users/@me and then /users/@me/guilds with the user's
// bearer token. Each endpoint is called at most once.
func (o *OAuth) FetchProfile(ctx context.Context, accessToken string) (json.RawMessage, []json.RawMessage, error) {
	if accessToken == "" {
		return nil, nil, apperr.Unauthorized("discord.profile", "Not logged in with Discord")
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	s := o.userSession(accessToken)

	identity, err := s.Request(http.MethodGet, discordgo.EndpointUser("@me"), nil, discordgo.WithContext(ctx))
	if err != nil {
		return nil, nil, upstreamAuth("discord.identity", "Failed to fetch user from Discord", err)
	}
	if !json.Valid(identity) {
		return nil, nil, apperr.UpstreamAuth("discord.identity", "Failed to fetch user from Discord", string(identity), nil)
	}

	body, err := s.Request(http.MethodGet, discordgo.EndpointUserGuilds("@me"), nil, discordgo.WithContext(ctx))
	if err != nil {
		return nil, nil, upstreamAuth("discord.guilds", "Failed to fetch guilds from Discord", err)
	}
	var guilds []json.RawMessage
	if err := json.Unmarshal(body, &guilds); err != nil {
		return nil, nil, apperr.UpstreamAuth("discord.guilds", "Failed to fetch guilds from Discord", string(body), err)
	}
	if guilds == nil {
		guilds = []json.RawMessage{}
	}
	return json.RawMessage(identity), guilds, nil
}

// userSession is a REST-only discordgo session authenticated as the user.
func (o *OAuth) userSession(accessToken string) *discordgo.Session {
	s, _ := discordgo.New("Bearer " + accessToken)
	if o.client != nil {
		s.Client = o.client
	}
	s.MaxRestRetries = 0
	s.ShouldRetryOnRateLimit = false
	return s
}

func upstreamAuth(op, msg string, err error) error {
	return apperr.UpstreamAuth(op, msg, restDetail(err), err)
}

// restDetail extracts the response body of a failed discordgo call.
func restDetail(err error) string {
	var re *discordgo.RESTError
	if errors.As(err, &re) {
		if re.Response != nil {
			return fmt.Sprintf("%d %s", re.Response.StatusCode, re.ResponseBody)
		}
		return string(re.ResponseBody)
	}
	return err.Error()
}
