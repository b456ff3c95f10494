package guildconfig

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matthewgaim/groupify/internal/apperr"
)

var ErrNotFound = errors.New("guild config not found")

// Store is the document-store primitive. Upsert must be atomic per GuildID:
// concurrent calls for the same guild never leave more than one document.
type Store interface {
	Find(ctx context.Context, guildID string) (*Config, error)
	Upsert(ctx context.Context, u Upsert) (*Config, error)
	// MarkInstalled sets bot_installed_at only if it is still unset.
	MarkInstalled(ctx context.Context, guildID string, at time.Time) (*Config, error)
}

type Repository struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func NewRepository(store Store, log *zap.Logger) *Repository {
	return &Repository{store: store, log: log, now: time.Now}
}

func normalizeID(guildID string) (string, error) {
	guildID = strings.TrimSpace(guildID)
	if guildID == "" {
		return "", apperr.BadRequest("guildconfig", "Missing guildId")
	}
	return guildID, nil
}

// Get returns the config for guildID, creating the default document when
// none exists. seed fields only apply to a freshly created document.
func (r *Repository) Get(ctx context.Context, guildID string, seed Patch) (*Config, error) {
	guildID, err := normalizeID(guildID)
	if err != nil {
		return nil, err
	}

	cfg, err := r.store.Find(ctx, guildID)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, ErrNotFound) {
		r.log.Error("find guild config", zap.String("guild_id", guildID), zap.Error(err))
		return nil, apperr.Store("guildconfig.get", "Failed to fetch guild config", err)
	}

	// Insert-if-absent. A concurrent creator wins silently and its document
	// is returned instead.
	onInsert := Defaults(guildID)
	seed.Apply(&onInsert)
	cfg, err = r.store.Upsert(ctx, Upsert{GuildID: guildID, OnInsert: onInsert, Now: r.now().UTC()})
	if err != nil {
		r.log.Error("create default guild config", zap.String("guild_id", guildID), zap.Error(err))
		return nil, apperr.Store("guildconfig.get", "Failed to fetch guild config", err)
	}
	r.log.Info("created default guild config", zap.String("guild_id", guildID))
	return cfg, nil
}

// Update applies p to the guild's config, creating it from defaults in the
// same atomic operation if needed. An empty patch behaves like Get.
func (r *Repository) Update(ctx context.Context, guildID string, p Patch) (*Config, error) {
	guildID, err := normalizeID(guildID)
	if err != nil {
		return nil, err
	}
	if p.Empty() {
		return r.Get(ctx, guildID, Patch{})
	}

	cfg, err := r.store.Upsert(ctx, Upsert{
		GuildID:   guildID,
		OnInsert:  Defaults(guildID),
		Set:       p,
		Customize: true,
		Now:       r.now().UTC(),
	})
	if err != nil {
		r.log.Error("update guild config", zap.String("guild_id", guildID), zap.Error(err))
		return nil, apperr.Store("guildconfig.update", "Failed to update guild config", err)
	}
	return cfg, nil
}

// MarkBotInstalled records the first time the bot was installed in a guild.
// Later calls leave the original timestamp in place.
func (r *Repository) MarkBotInstalled(ctx context.Context, guildID string, seed Patch) (*Config, error) {
	guildID, err := normalizeID(guildID)
	if err != nil {
		return nil, err
	}
	if _, err := r.Get(ctx, guildID, seed); err != nil {
		return nil, err
	}
	cfg, err := r.store.MarkInstalled(ctx, guildID, r.now().UTC())
	if err != nil {
		r.log.Error("mark bot installed", zap.String("guild_id", guildID), zap.Error(err))
		return nil, apperr.Store("guildconfig.install", "Failed to record bot install", err)
	}
	return cfg, nil
}
