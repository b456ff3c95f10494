// Package guildconfig holds the per-guild configuration document and the
// read-or-create / partial-update rules around it.
package guildconfig

import (
	"time"
)

const (
	DefaultPrefix          = "!"
	DefaultMinParticipants = 5
	DefaultCurrency        = "GBP"
)

// SetupStage records how far auto-setup got for a guild.
type SetupStage string

const (
	StageNone                SetupStage = ""
	StageRoleCreated         SetupStage = "role_created"
	StageGroupChannelCreated SetupStage = "group_channel_created"
	StageLogChannelCreated   SetupStage = "log_channel_created"
	StagePersisted           SetupStage = "persisted"
)

// IdentityProfile is the panel-facing guild identity and contact info.
type IdentityProfile struct {
	Name             string     `json:"name" bson:"name"`
	Icon             string     `json:"icon" bson:"icon"`
	AdminRoleID      string     `json:"adminRoleId" bson:"admin_role_id"`
	PaymentText      string     `json:"paymentText" bson:"payment_text"`
	ListingChannelID string     `json:"listingChannelId" bson:"listing_channel_id"`
	OrdersChannelID  string     `json:"ordersChannelId" bson:"orders_channel_id"`
	SplitsChannelID  string     `json:"splitsChannelId" bson:"splits_channel_id"`
	OpsChannelID     string     `json:"opsChannelId" bson:"ops_channel_id"`
	CategoryID       string     `json:"categoryId" bson:"category_id"`
	BotInstalledAt   *time.Time `json:"botInstalledAt" bson:"bot_installed_at"`
}

// BotProfile drives the bot's behaviour inside the guild.
type BotProfile struct {
	Enabled             bool     `json:"enabled" bson:"enabled"`
	Prefix              string   `json:"prefix" bson:"prefix"`
	GroupBuyChannelID   string   `json:"groupBuyChannelId" bson:"group_buy_channel_id"`
	LogChannelID        string   `json:"logChannelId" bson:"log_channel_id"`
	ManagerRoleID       string   `json:"managerRoleId" bson:"manager_role_id"`
	MinParticipants     int      `json:"minParticipants" bson:"min_participants"`
	DefaultCurrency     string   `json:"defaultCurrency" bson:"default_currency"`
	IsMainServer        bool     `json:"isMainServer" bson:"is_main_server"`
	IsBackupServer      bool     `json:"isBackupServer" bson:"is_backup_server"`
	DefaultCategoryID   string   `json:"defaultCategoryId" bson:"default_category_id"`
	DefaultLogChannelID string   `json:"defaultLogChannelId" bson:"default_log_channel_id"`
	AllowedRoleIDs      []string `json:"allowedRoleIds" bson:"allowed_role_ids"`
}

// Config is the stored document. There is at most one per GuildID.
type Config struct {
	GuildID string `json:"guildId" bson:"guild_id"`

	IdentityProfile `bson:",inline"`
	BotProfile      `bson:",inline"`

	SetupStage SetupStage `json:"setupStage" bson:"setup_stage"`
	// Customized is false until a panel update or auto-setup touches the
	// document.
	Customized bool `json:"customized" bson:"customized"`

	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// Defaults returns the document materialized for a never-seen guild.
func Defaults(guildID string) Config {
	return Config{
		GuildID: guildID,
		BotProfile: BotProfile{
			Enabled:         true,
			Prefix:          DefaultPrefix,
			MinParticipants: DefaultMinParticipants,
			DefaultCurrency: DefaultCurrency,
			AllowedRoleIDs:  []string{},
		},
	}
}

// View is the fully-populated response shape.
type View struct {
	Config
	IsDefault bool `json:"isDefault"`
}

// NewView fills gaps left by sparse stored documents with defaults.
func NewView(c Config) View {
	d := Defaults(c.GuildID)
	if c.Prefix == "" {
		c.Prefix = d.Prefix
	}
	if c.MinParticipants < 1 {
		c.MinParticipants = d.MinParticipants
	}
	if c.DefaultCurrency == "" {
		c.DefaultCurrency = d.DefaultCurrency
	}
	if c.AllowedRoleIDs == nil {
		c.AllowedRoleIDs = []string{}
	}
	return View{Config: c, IsDefault: !c.Customized}
}

// Provisioned reports whether auto-setup has recorded all three resources.
func (c *Config) Provisioned() bool {
	return c.ManagerRoleID != "" && c.GroupBuyChannelID != "" && c.LogChannelID != ""
}
