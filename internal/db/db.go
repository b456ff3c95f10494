// Package db opens the document store that backs guild configs.
package db

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/matthewgaim/groupify/internal/guildconfig"
)

// ErrUnavailable is returned by every call on a store that could not be
// opened.
var ErrUnavailable = errors.New("document store unavailable")

// Store is a guild config store that owns a connection.
type Store interface {
	guildconfig.Store
	Close() error
}

type unavailableStore struct {
	reason string
}

func (s unavailableStore) err() error {
	return fmt.Errorf("%w: %s", ErrUnavailable, s.reason)
}

func (s unavailableStore) Find(context.Context, string) (*guildconfig.Config, error) {
	return nil, s.err()
}

func (s unavailableStore) Upsert(context.Context, guildconfig.Upsert) (*guildconfig.Config, error) {
	return nil, s.err()
}

func (s unavailableStore) MarkInstalled(context.Context, string, time.Time) (*guildconfig.Config, error) {
	return nil, s.err()
}

func (unavailableStore) Close() error { return nil }

// Unavailable returns a store that fails every operation with ErrUnavailable.
func Unavailable(reason string) Store {
	return unavailableStore{reason: reason}
}

// Open connects to the store named by rawURL. The scheme picks the backend:
// postgres(ql)://, mongodb(+srv)://, or redis(s)://. Open never fails: a
// missing or unreachable store is logged and replaced by Unavailable so the
// process keeps serving non-store routes.
func Open(ctx context.Context, rawURL, mongoDatabase string, log *zap.Logger) Store {
	if rawURL == "" {
		log.Error("document store not configured: set DATABASE_URL or MONGO_URI; DB routes will fail")
		return Unavailable("no connection string configured")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		log.Error("invalid document store URL", zap.Error(err))
		return Unavailable("invalid connection string")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var store Store
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		store, err = NewPostgresStore(ctx, rawURL)
	case "mongodb", "mongodb+srv":
		store, err = NewMongoStore(ctx, rawURL, mongoDatabase)
	case "redis", "rediss":
		store, err = openRedis(ctx, rawURL)
	default:
		err = fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if err != nil {
		log.Error("document store connect failed", zap.String("scheme", u.Scheme), zap.Error(err))
		return Unavailable(err.Error())
	}

	log.Info("document store connected", zap.String("scheme", u.Scheme))
	return store
}

func openRedis(ctx context.Context, rawURL string) (Store, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStore(client), nil
}
