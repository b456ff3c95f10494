package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matthewgaim/groupify/internal/guildconfig"
)

const guildConfigsCollection = "guildconfigs"

// MongoStore keeps guild configs as documents with a unique index on
// guild_id and upserts through findOneAndUpdate.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	coll := client.Database(database).Collection(guildConfigsCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: guildconfig.ColGuildID, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create guild_id index: %w", err)
	}

	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Find(ctx context.Context, guildID string) (*guildconfig.Config, error) {
	var cfg guildconfig.Config
	err := s.coll.FindOne(ctx, bson.M{guildconfig.ColGuildID: guildID}).Decode(&cfg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, guildconfig.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *MongoStore) Upsert(ctx context.Context, u guildconfig.Upsert) (*guildconfig.Config, error) {
	set := bson.M{}
	for col, v := range u.SetColumns() {
		set[col] = v
	}

	onInsert := bson.M{}
	doc := u.Document()
	for col, v := range doc.ColumnMap() {
		if _, ok := set[col]; ok {
			continue
		}
		onInsert[col] = v
	}

	update := bson.M{}
	if len(set) > 0 {
		set[guildconfig.ColUpdatedAt] = u.Now
		delete(onInsert, guildconfig.ColUpdatedAt)
		update["$set"] = set
	}
	delete(onInsert, guildconfig.ColGuildID)
	update["$setOnInsert"] = onInsert

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	filter := bson.M{guildconfig.ColGuildID: u.GuildID}

	var cfg guildconfig.Config
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&cfg)
	if mongo.IsDuplicateKeyError(err) {
		// Lost an insert race against another upsert; the document exists now.
		err = s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&cfg)
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *MongoStore) MarkInstalled(ctx context.Context, guildID string, at time.Time) (*guildconfig.Config, error) {
	filter := bson.M{
		guildconfig.ColGuildID:        guildID,
		guildconfig.ColBotInstalledAt: nil,
	}
	update := bson.M{"$set": bson.M{
		guildconfig.ColBotInstalledAt: at,
		guildconfig.ColUpdatedAt:      at,
	}}
	if _, err := s.coll.UpdateOne(ctx, filter, update); err != nil {
		return nil, err
	}
	return s.Find(ctx, guildID)
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
