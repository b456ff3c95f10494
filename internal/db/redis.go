package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/matthewgaim/groupify/internal/guildconfig"
)

const maxTxRetries = 16

// RedisStore keeps each guild config as a JSON document under its own key.
// Writes use WATCH/MULTI so concurrent upserts for one guild serialize.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "guildconfig:"}
}

func (s *RedisStore) key(guildID string) string {
	return s.prefix + guildID
}

func (s *RedisStore) Find(ctx context.Context, guildID string) (*guildconfig.Config, error) {
	data, err := s.client.Get(ctx, s.key(guildID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, guildconfig.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get guild config %s: %w", guildID, err)
	}
	var cfg guildconfig.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode guild config %s: %w", guildID, err)
	}
	return &cfg, nil
}

func (s *RedisStore) Upsert(ctx context.Context, u guildconfig.Upsert) (*guildconfig.Config, error) {
	return s.update(ctx, u.GuildID, func(existing *guildconfig.Config) (guildconfig.Config, bool) {
		if existing == nil {
			return u.Document(), true
		}
		merged := u.Merge(*existing)
		return merged, !u.Set.Empty() || u.Customize
	})
}

func (s *RedisStore) MarkInstalled(ctx context.Context, guildID string, at time.Time) (*guildconfig.Config, error) {
	return s.update(ctx, guildID, func(existing *guildconfig.Config) (guildconfig.Config, bool) {
		if existing == nil {
			doc := guildconfig.Defaults(guildID)
			doc.CreatedAt, doc.UpdatedAt = at, at
			doc.BotInstalledAt = &at
			return doc, true
		}
		if existing.BotInstalledAt != nil {
			return *existing, false
		}
		doc := *existing
		doc.BotInstalledAt = &at
		doc.UpdatedAt = at
		return doc, true
	})
}

// update runs an optimistic read-modify-write on one key, retrying when
// another client changed it between WATCH and EXEC.
func (s *RedisStore) update(ctx context.Context, guildID string, fn func(*guildconfig.Config) (guildconfig.Config, bool)) (*guildconfig.Config, error) {
	key := s.key(guildID)
	var result guildconfig.Config

	txf := func(tx *redis.Tx) error {
		var existing *guildconfig.Config
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			existing = &guildconfig.Config{}
			if err := json.Unmarshal(data, existing); err != nil {
				return fmt.Errorf("decode guild config %s: %w", guildID, err)
			}
		}

		doc, changed := fn(existing)
		result = doc
		if !changed {
			return nil
		}
		encoded, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return &result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, fmt.Errorf("upsert guild config %s: %w", guildID, err)
	}
	return nil, fmt.Errorf("upsert guild config %s: too much contention", guildID)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
