package guildconfig

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/matthewgaim/groupify/internal/apperr"
)

type fakeStore struct {
	mu      sync.Mutex
	docs    map[string]Config
	upserts int
	failAll error
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: map[string]Config{}}
}

func (s *fakeStore) Find(_ context.Context, guildID string) (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	doc, ok := s.docs[guildID]
	if !ok {
		return nil, ErrNotFound
	}
	return &doc, nil
}

func (s *fakeStore) Upsert(_ context.Context, u Upsert) (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	s.upserts++
	doc, ok := s.docs[u.GuildID]
	if ok {
		doc = u.Merge(doc)
	} else {
		doc = u.Document()
	}
	s.docs[u.GuildID] = doc
	return &doc, nil
}

func (s *fakeStore) MarkInstalled(_ context.Context, guildID string, at time.Time) (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.docs[guildID]
	if doc.BotInstalledAt == nil {
		doc.BotInstalledAt = &at
	}
	s.docs[guildID] = doc
	return &doc, nil
}

func newTestRepo() (*Repository, *fakeStore) {
	store := newFakeStore()
	return NewRepository(store, zap.NewNop()), store
}

func TestGetCreatesDefaults(t *testing.T) {
	repo, store := newTestRepo()
	ctx := context.Background()

	first, err := repo.Get(ctx, "G1", Patch{})
	require.NoError(t, err)
	second, err := repo.Get(ctx, "G1", Patch{})
	require.NoError(t, err)

	want := Defaults("G1")
	assert.Equal(t, want.BotProfile, first.BotProfile)
	assert.False(t, first.Customized)
	assert.Equal(t, first, second)
	assert.Len(t, store.docs, 1)
	assert.Equal(t, 1, store.upserts)
}

func TestGetSeedOnlyOnCreate(t *testing.T) {
	repo, _ := newTestRepo()
	ctx := context.Background()

	name := "Original"
	cfg, err := repo.Get(ctx, "G1", Patch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Original", cfg.Name)

	other := "Renamed"
	cfg, err = repo.Get(ctx, "G1", Patch{Name: &other})
	require.NoError(t, err)
	assert.Equal(t, "Original", cfg.Name)
}

func TestUpdateUpsertsAndMarksCustomized(t *testing.T) {
	repo, store := newTestRepo()
	ctx := context.Background()

	p := ParsePatch(map[string]any{"foo": "bar", "prefix": "$"})
	cfg, err := repo.Update(ctx, "G2", p)
	require.NoError(t, err)

	assert.Equal(t, "$", cfg.Prefix)
	assert.True(t, cfg.Customized)
	assert.Equal(t, DefaultMinParticipants, cfg.MinParticipants)
	assert.Equal(t, 1, store.upserts)
}

func TestUpdateInvalidValueLeavesStoredValue(t *testing.T) {
	repo, _ := newTestRepo()
	ctx := context.Background()

	_, err := repo.Update(ctx, "G3", ParsePatch(map[string]any{"minParticipants": 7.0}))
	require.NoError(t, err)

	for _, bad := range []any{-1.0, "abc"} {
		cfg, err := repo.Update(ctx, "G3", ParsePatch(map[string]any{"minParticipants": bad}))
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.MinParticipants)
	}
}

func TestUpdateEmptyPatchDoesNotCustomize(t *testing.T) {
	repo, _ := newTestRepo()

	cfg, err := repo.Update(context.Background(), "G4", ParsePatch(map[string]any{"foo": 1}))
	require.NoError(t, err)
	assert.False(t, cfg.Customized)
	assert.True(t, NewView(*cfg).IsDefault)
}

func TestMissingGuildID(t *testing.T) {
	repo, _ := newTestRepo()

	_, err := repo.Get(context.Background(), "  ", Patch{})
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	_, err = repo.MarkBotInstalled(context.Background(), "  ", Patch{})
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestStoreFailureIsStoreError(t *testing.T) {
	repo, store := newTestRepo()
	store.failAll = errors.New("connection refused")

	_, err := repo.Get(context.Background(), "G5", Patch{})
	assert.True(t, apperr.Is(err, apperr.KindStore))

	_, err = repo.Update(context.Background(), "G5", ParsePatch(map[string]any{"prefix": "?"}))
	assert.True(t, apperr.Is(err, apperr.KindStore))
}

func TestMarkBotInstalledOnce(t *testing.T) {
	repo, _ := newTestRepo()
	ctx := context.Background()

	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return first }
	cfg, err := repo.MarkBotInstalled(ctx, "G6", Patch{})
	require.NoError(t, err)
	require.NotNil(t, cfg.BotInstalledAt)

	repo.now = func() time.Time { return first.Add(time.Hour) }
	cfg, err = repo.MarkBotInstalled(ctx, "G6", Patch{})
	require.NoError(t, err)
	assert.True(t, cfg.BotInstalledAt.Equal(first))
}

func TestMarkBotInstalledTrimsGuildID(t *testing.T) {
	repo, _ := newTestRepo()
	ctx := context.Background()

	cfg, err := repo.MarkBotInstalled(ctx, " G7 ", Patch{})
	require.NoError(t, err)
	assert.Equal(t, "G7", cfg.GuildID)
	require.NotNil(t, cfg.BotInstalledAt)

	got, err := repo.Get(ctx, "G7", Patch{})
	require.NoError(t, err)
	require.NotNil(t, got.BotInstalledAt)
	assert.True(t, got.BotInstalledAt.Equal(*cfg.BotInstalledAt))
}
