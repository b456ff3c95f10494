// Package discordtest fakes the slice of the Discord API the panel uses.
// Requests keep their real discord.com URLs; HTTPClient reroutes them.
package discordtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
)

// Route names used by Fail and Count.
const (
	RouteToken    = "token"
	RouteMe       = "me"
	RouteGuilds   = "guilds"
	RouteRoles    = "roles"
	RouteChannels = "channels"
)

type Server struct {
	*httptest.Server

	mu    sync.Mutex
	calls map[string]int
	fail  map[string]int
	// codes maps an authorization code to the access token it yields.
	codes    map[string]string
	users    map[string]string
	guilds   map[string]string
	failChan map[string]bool
	nextID   int
	channels map[string]ChannelRequest
}

type ChannelRequest struct {
	GuildID              string
	Name                 string
	PermissionOverwrites []Overwrite
}

type Overwrite struct {
	ID    string `json:"id"`
	Type  int    `json:"type"`
	Allow string `json:"allow"`
	Deny  string `json:"deny"`
}

func NewServer() *Server {
	s := &Server{
		calls:    map[string]int{},
		fail:     map[string]int{},
		codes:    map[string]string{},
		users:    map[string]string{},
		guilds:   map[string]string{},
		failChan: map[string]bool{},
		channels: map[string]ChannelRequest{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// AddUser registers code → token and the profile that token can read.
func (s *Server) AddUser(code, token, identity, guilds string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code] = token
	s.users[token] = identity
	s.guilds[token] = guilds
}

// Fail makes route answer with status until cleared with status 0.
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.fail, route)
		return
	}
	s.fail[route] = status
}

// FailChannel makes creation of the channel called name fail.
func (s *Server) FailChannel(name string, fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failChan[name] = fail
}

func (s *Server) Count(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// Channel returns the create request recorded for channel id.
func (s *Server) Channel(id string) ChannelRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels[id]
}

// ChannelCount is the number of channels created so far.
func (s *Server) ChannelCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.channels)
}

// Total is the number of requests served on any route.
func (s *Server) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// HTTPClient returns a client that sends discord.com traffic to the fake.
func (s *Server) HTTPClient() *http.Client {
	target, _ := url.Parse(s.URL)
	return &http.Client{Transport: rewriteTransport{target: target, base: s.Server.Client().Transport}}
}

type rewriteTransport struct {
	target *url.URL
	base   http.RoundTripper
}

func (t rewriteTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	r.Host = t.target.Host
	return t.base.RoundTrip(r)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	route, guildID := classify(r)
	s.mu.Lock()
	s.calls[route]++
	status := s.fail[route]
	s.mu.Unlock()

	if route == "" {
		writeJSON(w, http.StatusNotFound, `{"message":"404: Not Found","code":0}`)
		return
	}
	if status != 0 {
		writeJSON(w, status, fmt.Sprintf(`{"message":"forced failure","code":%d}`, status))
		return
	}

	switch route {
	case RouteToken:
		s.serveToken(w, r)
	case RouteMe:
		s.serveProfile(w, r, s.users)
	case RouteGuilds:
		s.serveProfile(w, r, s.guilds)
	case RouteRoles:
		var body struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		id := s.newID("role")
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"id":%q,"name":%q,"permissions":"0"}`, id, body.Name))
	case RouteChannels:
		s.serveChannel(w, r, guildID)
	}
}

func (s *Server) serveToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, `{"error":"invalid_request"}`)
		return
	}
	s.mu.Lock()
	token, ok := s.codes[r.PostForm.Get("code")]
	s.mu.Unlock()
	if !ok || r.PostForm.Get("grant_type") != "authorization_code" || r.PostForm.Get("client_secret") == "" {
		writeJSON(w, http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Invalid \"code\" in request."}`)
		return
	}
	writeJSON(w, http.StatusOK, fmt.Sprintf(
		`{"access_token":%q,"token_type":"Bearer","expires_in":604800,"refresh_token":"refresh-%s","scope":"identify guilds"}`,
		token, token))
}

func (s *Server) serveProfile(w http.ResponseWriter, r *http.Request, by map[string]string) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	body, ok := by[token]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusUnauthorized, `{"message":"401: Unauthorized","code":0}`)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) serveChannel(w http.ResponseWriter, r *http.Request, guildID string) {
	var body struct {
		Name                 string      `json:"name"`
		PermissionOverwrites []Overwrite `json:"permission_overwrites"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	fail := s.failChan[body.Name]
	s.mu.Unlock()
	if fail {
		writeJSON(w, http.StatusForbidden, `{"message":"Missing Permissions","code":50013}`)
		return
	}

	id := s.newID("chan")
	s.mu.Lock()
	s.channels[id] = ChannelRequest{GuildID: guildID, Name: body.Name, PermissionOverwrites: body.PermissionOverwrites}
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, fmt.Sprintf(`{"id":%q,"guild_id":%q,"name":%q,"type":0}`, id, guildID, body.Name))
}

func (s *Server) newID(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

// classify maps a request to a route name and, for guild routes, the guild.
func classify(r *http.Request) (string, string) {
	p := r.URL.Path
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(p, "/oauth2/token"):
		return RouteToken, ""
	case r.Method == http.MethodGet && strings.HasSuffix(p, "/users/@me"):
		return RouteMe, ""
	case r.Method == http.MethodGet && strings.HasSuffix(p, "/users/@me/guilds"):
		return RouteGuilds, ""
	case r.Method == http.MethodPost && strings.HasSuffix(p, "/roles"):
		return RouteRoles, guildFromPath(p)
	case r.Method == http.MethodPost && strings.HasSuffix(p, "/channels"):
		return RouteChannels, guildFromPath(p)
	}
	return "", ""
}

func guildFromPath(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "guilds" {
			return parts[i+1]
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
