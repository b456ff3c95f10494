package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env  string `env:"APP_ENV" envDefault:"development"`
	Port int    `env:"PORT" envDefault:"4005"`

	FrontendOrigin string `env:"FRONTEND_ORIGIN" envDefault:"https://panel.groupify.gg"`
	SessionSecret  string `env:"SESSION_SECRET" envDefault:"changeme"`

	Discord  DiscordConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Setup    SetupConfig
	Log      LogConfig

	// DBRoutesRequireSession gates the /db routes behind a panel session.
	DBRoutesRequireSession bool `env:"DB_ROUTES_REQUIRE_SESSION" envDefault:"true"`
}

type DiscordConfig struct {
	ClientID     string `env:"DISCORD_CLIENT_ID"`
	ClientSecret string `env:"DISCORD_CLIENT_SECRET"`
	RedirectURI  string `env:"DISCORD_REDIRECT_URI"`
	BotToken     string `env:"DISCORD_TOKEN"`

	// StrictProfile aborts login when /users/@me or /users/@me/guilds fails.
	StrictProfile   bool          `env:"OAUTH_STRICT_PROFILE" envDefault:"true"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"5s"`
}

type DatabaseConfig struct {
	URL      string `env:"DATABASE_URL"`
	MongoURI string `env:"MONGO_URI"`
	// MONGODB_URI is what the bot deployment used.
	MongoDBURI    string `env:"MONGODB_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"groupify"`
}

type RedisConfig struct {
	URL string `env:"REDIS_URL"`
}

type SetupConfig struct {
	RoleName            string `env:"SETUP_ROLE_NAME" envDefault:"Groupify Manager"`
	GroupBuyChannelName string `env:"SETUP_GROUP_BUY_CHANNEL" envDefault:"group-buys"`
	LogChannelName      string `env:"SETUP_LOG_CHANNEL" envDefault:"groupify-logs"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT"`
}

// LoadDotEnv loads variables from .env style files into the process
// environment. Variables that are already set are left alone.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	return godotenv.Load(files...)
}

// Parse builds a Config from the process environment.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// DatabaseURL returns the first configured document-store connection string.
func (c *Config) DatabaseURL() string {
	for _, u := range []string{c.Database.URL, c.Database.MongoURI, c.Database.MongoDBURI} {
		if u != "" {
			return u
		}
	}
	return ""
}

// OAuthConfigured reports whether the login flow can build an authorize URL.
func (c *Config) OAuthConfigured() bool {
	return c.Discord.ClientID != "" && c.Discord.RedirectURI != ""
}

func (c *Config) BotConfigured() bool {
	return c.Discord.BotToken != ""
}

func (c *Config) LogFormat() string {
	if c.Log.Format != "" {
		return c.Log.Format
	}
	if c.IsProduction() {
		return "json"
	}
	return "console"
}
