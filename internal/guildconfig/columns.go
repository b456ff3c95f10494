package guildconfig

// Column names shared by every store backend. They match the bson tags on
// Config, so Mongo documents and Postgres rows use the same keys.
const (
	ColGuildID             = "guild_id"
	ColName                = "name"
	ColIcon                = "icon"
	ColAdminRoleID         = "admin_role_id"
	ColPaymentText         = "payment_text"
	ColListingChannelID    = "listing_channel_id"
	ColOrdersChannelID     = "orders_channel_id"
	ColSplitsChannelID     = "splits_channel_id"
	ColOpsChannelID        = "ops_channel_id"
	ColCategoryID          = "category_id"
	ColBotInstalledAt      = "bot_installed_at"
	ColEnabled             = "enabled"
	ColPrefix              = "prefix"
	ColGroupBuyChannelID   = "group_buy_channel_id"
	ColLogChannelID        = "log_channel_id"
	ColManagerRoleID       = "manager_role_id"
	ColMinParticipants     = "min_participants"
	ColDefaultCurrency     = "default_currency"
	ColIsMainServer        = "is_main_server"
	ColIsBackupServer      = "is_backup_server"
	ColDefaultCategoryID   = "default_category_id"
	ColDefaultLogChannelID = "default_log_channel_id"
	ColAllowedRoleIDs      = "allowed_role_ids"
	ColSetupStage          = "setup_stage"
	ColCustomized          = "customized"
	ColCreatedAt           = "created_at"
	ColUpdatedAt           = "updated_at"
)

// Columns lists every column in the order used by ColumnValues and
// ColumnPointers.
var Columns = []string{
	ColGuildID,
	ColName, ColIcon, ColAdminRoleID, ColPaymentText,
	ColListingChannelID, ColOrdersChannelID, ColSplitsChannelID, ColOpsChannelID,
	ColCategoryID, ColBotInstalledAt,
	ColEnabled, ColPrefix, ColGroupBuyChannelID, ColLogChannelID, ColManagerRoleID,
	ColMinParticipants, ColDefaultCurrency, ColIsMainServer, ColIsBackupServer,
	ColDefaultCategoryID, ColDefaultLogChannelID, ColAllowedRoleIDs,
	ColSetupStage, ColCustomized, ColCreatedAt, ColUpdatedAt,
}

func (c *Config) ColumnValues() []any {
	roles := c.AllowedRoleIDs
	if roles == nil {
		roles = []string{}
	}
	return []any{
		c.GuildID,
		c.Name, c.Icon, c.AdminRoleID, c.PaymentText,
		c.ListingChannelID, c.OrdersChannelID, c.SplitsChannelID, c.OpsChannelID,
		c.CategoryID, c.BotInstalledAt,
		c.Enabled, c.Prefix, c.GroupBuyChannelID, c.LogChannelID, c.ManagerRoleID,
		c.MinParticipants, c.DefaultCurrency, c.IsMainServer, c.IsBackupServer,
		c.DefaultCategoryID, c.DefaultLogChannelID, roles,
		string(c.SetupStage), c.Customized, c.CreatedAt, c.UpdatedAt,
	}
}

func (c *Config) ColumnPointers() []any {
	return []any{
		&c.GuildID,
		&c.Name, &c.Icon, &c.AdminRoleID, &c.PaymentText,
		&c.ListingChannelID, &c.OrdersChannelID, &c.SplitsChannelID, &c.OpsChannelID,
		&c.CategoryID, &c.BotInstalledAt,
		&c.Enabled, &c.Prefix, &c.GroupBuyChannelID, &c.LogChannelID, &c.ManagerRoleID,
		&c.MinParticipants, &c.DefaultCurrency, &c.IsMainServer, &c.IsBackupServer,
		&c.DefaultCategoryID, &c.DefaultLogChannelID, &c.AllowedRoleIDs,
		&c.SetupStage, &c.Customized, &c.CreatedAt, &c.UpdatedAt,
	}
}

// ColumnMap returns the document as column name to value.
func (c *Config) ColumnMap() map[string]any {
	values := c.ColumnValues()
	m := make(map[string]any, len(Columns))
	for i, col := range Columns {
		m[col] = values[i]
	}
	return m
}

// Columns returns the columns p sets, keyed by column name.
func (p Patch) Columns() map[string]any {
	m := map[string]any{}
	put := func(col string, v *string) {
		if v != nil {
			m[col] = *v
		}
	}
	put(ColName, p.Name)
	put(ColIcon, p.Icon)
	put(ColAdminRoleID, p.AdminRoleID)
	put(ColPaymentText, p.PaymentText)
	put(ColListingChannelID, p.ListingChannelID)
	put(ColOrdersChannelID, p.OrdersChannelID)
	put(ColSplitsChannelID, p.SplitsChannelID)
	put(ColOpsChannelID, p.OpsChannelID)
	put(ColCategoryID, p.CategoryID)
	if p.Enabled != nil {
		m[ColEnabled] = *p.Enabled
	}
	put(ColPrefix, p.Prefix)
	put(ColGroupBuyChannelID, p.GroupBuyChannelID)
	put(ColLogChannelID, p.LogChannelID)
	put(ColManagerRoleID, p.ManagerRoleID)
	if p.MinParticipants != nil {
		m[ColMinParticipants] = *p.MinParticipants
	}
	put(ColDefaultCurrency, p.DefaultCurrency)
	if p.IsMainServer != nil {
		m[ColIsMainServer] = *p.IsMainServer
	}
	if p.IsBackupServer != nil {
		m[ColIsBackupServer] = *p.IsBackupServer
	}
	put(ColDefaultCategoryID, p.DefaultCategoryID)
	put(ColDefaultLogChannelID, p.DefaultLogChannelID)
	if p.AllowedRoleIDs != nil {
		m[ColAllowedRoleIDs] = append([]string{}, (*p.AllowedRoleIDs)...)
	}
	if p.SetupStage != nil {
		m[ColSetupStage] = string(*p.SetupStage)
	}
	return m
}
