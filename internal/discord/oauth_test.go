package discord

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/matthewgaim/groupify/internal/apperr"
	"github.com/matthewgaim/groupify/internal/config"
	"github.com/matthewgaim/groupify/internal/discord/discordtest"
)

const (
	testIdentity = `{"id":"42","username":"gopher"}`
	testGuilds   = `[{"id":"1","name":"Admins","permissions":"8"},{"id":"2","name":"Members","permissions":"0"}]`
)

func testDiscordConfig(strict bool) config.DiscordConfig {
	return config.DiscordConfig{
		ClientID:        "client",
		ClientSecret:    "secret",
		RedirectURI:     "https://panel.example/api/auth/discord/callback",
		StrictProfile:   strict,
		UpstreamTimeout: 2 * time.Second,
	}
}

func newTestOAuth(t *testing.T, strict bool) (*OAuth, *discordtest.Server) {
	t.Helper()
	fake := discordtest.NewServer()
	t.Cleanup(fake.Close)
	fake.AddUser("good-code", "tok-1", testIdentity, testGuilds)
	return NewOAuth(testDiscordConfig(strict), fake.HTTPClient(), zap.NewNop()), fake
}

func TestLoginURL(t *testing.T) {
	o, _ := newTestOAuth(t, true)

	raw, err := o.LoginURL()
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "discord.com", u.Host)
	assert.Equal(t, "/api/oauth2/authorize", u.Path)

	q := u.Query()
	assert.Equal(t, "client", q.Get("client_id"))
	assert.Equal(t, "https://panel.example/api/auth/discord/callback", q.Get("redirect_uri"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "identify guilds", q.Get("scope"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Empty(t, q.Get("state"))
}

func TestLoginURLNotConfigured(t *testing.T) {
	o := NewOAuth(config.DiscordConfig{ClientID: "client"}, nil, zap.NewNop())
	_, err := o.LoginURL()
	assert.True(t, apperr.Is(err, apperr.KindNotConfigured))
}

func TestInviteURL(t *testing.T) {
	o, _ := newTestOAuth(t, true)

	raw, err := o.InviteURL("123")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "bot applications.commands", q.Get("scope"))
	assert.Equal(t, "8", q.Get("permissions"))
	assert.Equal(t, "123", q.Get("guild_id"))
	assert.Equal(t, "code", q.Get("response_type"))

	_, err = NewOAuth(config.DiscordConfig{}, nil, zap.NewNop()).InviteURL("123")
	assert.True(t, apperr.Is(err, apperr.KindNotConfigured))
}

func TestAuthenticate(t *testing.T) {
	o, fake := newTestOAuth(t, true)

	cred, err := o.Authenticate(context.Background(), "good-code")
	require.NoError(t, err)

	assert.Equal(t, "tok-1", cred.Token.AccessToken)
	assert.Equal(t, "Bearer", cred.Token.TokenType)
	assert.Equal(t, "identify guilds", cred.Token.Scope)
	assert.Equal(t, "refresh-tok-1", cred.Token.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), cred.Token.Expiry, time.Minute)
	assert.JSONEq(t, testIdentity, string(cred.Identity))
	require.Len(t, cred.Guilds, 2)

	assert.Equal(t, 1, fake.Count(discordtest.RouteToken))
	assert.Equal(t, 1, fake.Count(discordtest.RouteMe))
	assert.Equal(t, 1, fake.Count(discordtest.RouteGuilds))
}

func TestExchangeMissingCodeMakesNoCalls(t *testing.T) {
	o, fake := newTestOAuth(t, true)

	_, err := o.Authenticate(context.Background(), "")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
	assert.Zero(t, fake.Total())
}

func TestExchangeRejectedCode(t *testing.T) {
	o, fake := newTestOAuth(t, true)

	_, err := o.Authenticate(context.Background(), "bad-code")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpstreamAuth))
	assert.Contains(t, apperr.Detail(err), "invalid_grant")
	assert.Zero(t, fake.Count(discordtest.RouteMe), "identity is not fetched after a failed exchange")
}

func TestAuthenticateStrictProfileFailure(t *testing.T) {
	o, fake := newTestOAuth(t, true)
	fake.Fail(discordtest.RouteGuilds, http.StatusInternalServerError)

	_, err := o.Authenticate(context.Background(), "good-code")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpstreamAuth))
	assert.Equal(t, 1, fake.Count(discordtest.RouteGuilds))
}

func TestAuthenticateBestEffortProfileFailure(t *testing.T) {
	o, fake := newTestOAuth(t, false)
	fake.Fail(discordtest.RouteMe, http.StatusUnauthorized)

	cred, err := o.Authenticate(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", cred.Token.AccessToken)
	assert.False(t, cred.HasProfile())
	assert.Zero(t, fake.Count(discordtest.RouteGuilds))
}

func TestFetchProfileUnknownToken(t *testing.T) {
	o, _ := newTestOAuth(t, true)

	_, _, err := o.FetchProfile(context.Background(), "expired")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpstreamAuth))
	assert.Contains(t, apperr.Detail(err), "401")
}
