// Package setup provisions the Groupify role and channels in a guild and
// records them in the guild config. Every finished step is persisted before
// the next one starts, so a retry after a failure resumes instead of
// duplicating what already exists. Nothing is rolled back.
package setup

import (
	"context"

	"go.uber.org/zap"

	"github.com/matthewgaim/groupify/internal/apperr"
	"github.com/matthewgaim/groupify/internal/config"
	"github.com/matthewgaim/groupify/internal/guildconfig"
)

// Provisioner creates resources on the chat platform.
type Provisioner interface {
	CreateRole(ctx context.Context, guildID, name string) (string, error)
	// CreateTextChannel makes the channel visible only to privateTo when it
	// is non-empty.
	CreateTextChannel(ctx context.Context, guildID, name, privateTo string) (string, error)
}

// Configs is the slice of the config repository the orchestrator needs.
type Configs interface {
	Get(ctx context.Context, guildID string, seed guildconfig.Patch) (*guildconfig.Config, error)
	Update(ctx context.Context, guildID string, p guildconfig.Patch) (*guildconfig.Config, error)
	MarkBotInstalled(ctx context.Context, guildID string, seed guildconfig.Patch) (*guildconfig.Config, error)
}

type Orchestrator struct {
	provisioner Provisioner
	configs     Configs
	names       config.SetupConfig
	log         *zap.Logger
	// detail extracts upstream diagnostics from a provisioner error.
	detail func(error) string
}

// New returns an orchestrator. A nil provisioner means no bot credential is
// configured and every Run fails with NotConfigured.
func New(p Provisioner, configs Configs, names config.SetupConfig, log *zap.Logger, detail func(error) string) *Orchestrator {
	if detail == nil {
		detail = func(err error) string { return err.Error() }
	}
	return &Orchestrator{provisioner: p, configs: configs, names: names, log: log, detail: detail}
}

func (o *Orchestrator) Configured() bool {
	return o.provisioner != nil
}

type step struct {
	name  string
	stage guildconfig.SetupStage
	msg   string
	done  func(c *guildconfig.Config) bool
	run   func(ctx context.Context, c *guildconfig.Config) (guildconfig.Patch, error)
}

// Run provisions whatever guildID is still missing. A guild whose setup is
// already persisted is returned unchanged without any upstream call.
func (o *Orchestrator) Run(ctx context.Context, guildID string) (*guildconfig.Config, error) {
	if !o.Configured() {
		return nil, apperr.NotConfigured("setup", "Bot token not configured on server")
	}

	cfg, err := o.configs.Get(ctx, guildID, guildconfig.Patch{})
	if err != nil {
		return nil, err
	}
	if cfg.Provisioned() && cfg.SetupStage == guildconfig.StagePersisted {
		return cfg, nil
	}

	log := o.log.With(zap.String("guild_id", cfg.GuildID))
	for _, s := range o.steps() {
		if s.done(cfg) {
			continue
		}
		p, err := s.run(ctx, cfg)
		if err != nil {
			log.Error("auto-setup step failed",
				zap.String("step", s.name),
				zap.String("stage", string(cfg.SetupStage)),
				zap.String("detail", o.detail(err)),
				zap.Error(err))
			return nil, apperr.UpstreamProvision("setup."+s.name, s.msg, o.detail(err), err)
		}
		stage := s.stage
		p.SetupStage = &stage
		if cfg, err = o.configs.Update(ctx, cfg.GuildID, p); err != nil {
			return nil, err
		}
		log.Info("auto-setup step done", zap.String("step", s.name))
	}

	enabled := true
	stage := guildconfig.StagePersisted
	cfg, err = o.configs.Update(ctx, cfg.GuildID, guildconfig.Patch{Enabled: &enabled, SetupStage: &stage})
	if err != nil {
		return nil, err
	}
	if installed, err := o.configs.MarkBotInstalled(ctx, cfg.GuildID, guildconfig.Patch{}); err == nil {
		cfg = installed
	} else {
		log.Warn("record bot install after setup", zap.Error(err))
	}
	return cfg, nil
}

func (o *Orchestrator) steps() []step {
	return []step{
		{
			name:  "role",
			stage: guildconfig.StageRoleCreated,
			msg:   "Failed to create manager role",
			done:  func(c *guildconfig.Config) bool { return c.ManagerRoleID != "" },
			run: func(ctx context.Context, c *guildconfig.Config) (guildconfig.Patch, error) {
				id, err := o.provisioner.CreateRole(ctx, c.GuildID, o.names.RoleName)
				return guildconfig.Patch{ManagerRoleID: &id}, err
			},
		},
		{
			name:  "group_channel",
			stage: guildconfig.StageGroupChannelCreated,
			msg:   "Failed to create group-buy channel",
			done:  func(c *guildconfig.Config) bool { return c.GroupBuyChannelID != "" },
			run: func(ctx context.Context, c *guildconfig.Config) (guildconfig.Patch, error) {
				id, err := o.provisioner.CreateTextChannel(ctx, c.GuildID, o.names.GroupBuyChannelName, "")
				return guildconfig.Patch{GroupBuyChannelID: &id}, err
			},
		},
		{
			name:  "log_channel",
			stage: guildconfig.StageLogChannelCreated,
			msg:   "Failed to create log channel",
			done:  func(c *guildconfig.Config) bool { return c.LogChannelID != "" },
			run: func(ctx context.Context, c *guildconfig.Config) (guildconfig.Patch, error) {
				id, err := o.provisioner.CreateTextChannel(ctx, c.GuildID, o.names.LogChannelName, c.ManagerRoleID)
				return guildconfig.Patch{LogChannelID: &id}, err
			},
		},
	}
}
