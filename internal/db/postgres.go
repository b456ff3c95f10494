package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matthewgaim/groupify/internal/guildconfig"
)

const createGuildConfigsTable = `
CREATE TABLE IF NOT EXISTS guild_configs (
	guild_id               TEXT PRIMARY KEY,
	name                   TEXT NOT NULL DEFAULT '',
	icon                   TEXT NOT NULL DEFAULT '',
	admin_role_id          TEXT NOT NULL DEFAULT '',
	payment_text           TEXT NOT NULL DEFAULT '',
	listing_channel_id     TEXT NOT NULL DEFAULT '',
	orders_channel_id      TEXT NOT NULL DEFAULT '',
	splits_channel_id      TEXT NOT NULL DEFAULT '',
	ops_channel_id         TEXT NOT NULL DEFAULT '',
	category_id            TEXT NOT NULL DEFAULT '',
	bot_installed_at       TIMESTAMPTZ,
	enabled                BOOLEAN NOT NULL DEFAULT TRUE,
	prefix                 TEXT NOT NULL DEFAULT '!',
	group_buy_channel_id   TEXT NOT NULL DEFAULT '',
	log_channel_id         TEXT NOT NULL DEFAULT '',
	manager_role_id        TEXT NOT NULL DEFAULT '',
	min_participants       INTEGER NOT NULL DEFAULT 5 CHECK (min_participants > 0),
	default_currency       TEXT NOT NULL DEFAULT 'GBP',
	is_main_server         BOOLEAN NOT NULL DEFAULT FALSE,
	is_backup_server       BOOLEAN NOT NULL DEFAULT FALSE,
	default_category_id    TEXT NOT NULL DEFAULT '',
	default_log_channel_id TEXT NOT NULL DEFAULT '',
	allowed_role_ids       TEXT[] NOT NULL DEFAULT '{}',
	setup_stage            TEXT NOT NULL DEFAULT '',
	customized             BOOLEAN NOT NULL DEFAULT FALSE,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresStore keeps guild configs in one row per guild and relies on
// INSERT ... ON CONFLICT for atomic upserts.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createGuildConfigsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate guild_configs: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

var selectColumns = strings.Join(guildconfig.Columns, ", ")

func (s *PostgresStore) Find(ctx context.Context, guildID string) (*guildconfig.Config, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM guild_configs WHERE guild_id = $1`, guildID)
	return scanConfig(row)
}

func (s *PostgresStore) Upsert(ctx context.Context, u guildconfig.Upsert) (*guildconfig.Config, error) {
	doc := u.Document()
	values := doc.ColumnValues()

	placeholders := make([]string, len(guildconfig.Columns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	set := u.SetColumns()
	cols := make([]string, 0, len(set))
	for col := range set {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	var assignments []string
	for _, col := range cols {
		assignments = append(assignments, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	if len(assignments) > 0 {
		assignments = append(assignments, "updated_at = EXCLUDED.updated_at")
	} else {
		// No-op update so RETURNING yields the existing row.
		assignments = append(assignments, "guild_id = EXCLUDED.guild_id")
	}

	query := `INSERT INTO guild_configs (` + selectColumns + `)
		VALUES (` + strings.Join(placeholders, ", ") + `)
		ON CONFLICT (guild_id) DO UPDATE SET ` + strings.Join(assignments, ", ") + `
		RETURNING ` + selectColumns

	return scanConfig(s.pool.QueryRow(ctx, query, values...))
}

func (s *PostgresStore) MarkInstalled(ctx context.Context, guildID string, at time.Time) (*guildconfig.Config, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE guild_configs
		SET bot_installed_at = COALESCE(bot_installed_at, $2),
		    updated_at = CASE WHEN bot_installed_at IS NULL THEN $2 ELSE updated_at END
		WHERE guild_id = $1
		RETURNING `+selectColumns, guildID, at)
	return scanConfig(row)
}

func scanConfig(row pgx.Row) (*guildconfig.Config, error) {
	var cfg guildconfig.Config
	if err := row.Scan(cfg.ColumnPointers()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, guildconfig.ErrNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
