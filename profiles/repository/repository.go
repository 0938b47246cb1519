package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/structs"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/menosense/portal/profiles"
	"github.com/menosense/portal/store"
)

func NewRepository(db *mongo.Database, logger *zap.SugaredLogger, lifecycle fx.Lifecycle) (profiles.Repository, error) {
	repo := &Repository{
		collection: db.Collection(profiles.CollectionName),
		logger:     logger,
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return repo.Initialize(ctx)
		},
	})

	return repo, nil
}

type Repository struct {
	collection *mongo.Collection
	logger     *zap.SugaredLogger
}

func (r *Repository) Initialize(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "email", Value: 1},
			},
			Options: options.Index().
				SetBackground(true).
				SetName("ProfilesByEmail"),
		},
		{
			Keys: bson.D{
				{Key: "createdTime", Value: 1},
			},
			Options: options.Index().
				SetBackground(true).
				SetName("ProfilesByCreatedTime"),
		},
	})
	return err
}

func (r *Repository) Get(ctx context.Context, uid string) (*profiles.Profile, error) {
	profile := &profiles.Profile{}
	err := r.collection.FindOne(ctx, profileSelector(uid)).Decode(profile)
	if err == mongo.ErrNoDocuments {
		return nil, profiles.ErrNotFound
	} else if err != nil {
		return nil, err
	}

	return profile, nil
}

func (r *Repository) List(ctx context.Context, pagination store.Pagination) ([]*profiles.Profile, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdTime", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(pagination.Limit)).
		SetSkip(int64(pagination.Offset))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing profiles: %w", err)
	}

	list := make([]*profiles.Profile, 0)
	if err = cursor.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("error decoding profiles list: %w", err)
	}

	return list, nil
}

// Create inserts the registration fields of a profile. It's a no-op for fields of profiles
// which already exist.
func (r *Repository) Create(ctx context.Context, create profiles.Create) (*profiles.Profile, error) {
	if create.Uid == "" {
		return nil, fmt.Errorf("profile uid is required")
	}

	now := time.Now()
	setOnInsert := structMap(create)
	setOnInsert["createdTime"] = now
	setOnInsert["updatedTime"] = now

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, profileSelector(create.Uid), bson.M{"$setOnInsert": setOnInsert}, opts); err != nil {
		if store.IsDuplicateKeyError(err) {
			return nil, profiles.ErrDuplicate
		}
		return nil, fmt.Errorf("error creating profile: %w", err)
	}

	return r.Get(ctx, create.Uid)
}

// Update merge-writes the form fields of the profile. Other stored fields are preserved.
func (r *Repository) Update(ctx context.Context, uid string, update profiles.Update) (*profiles.Profile, error) {
	now := time.Now()
	set := structMap(update)
	set["updatedTime"] = now

	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, profileSelector(uid), bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"createdTime": now,
		},
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("error updating profile: %w", err)
	}

	return r.Get(ctx, uid)
}

func structMap(value interface{}) map[string]interface{} {
	s := structs.New(value)
	s.TagName = "bson"
	return s.Map()
}

func profileSelector(uid string) bson.M {
	return bson.M{
		"_id": uid,
	}
}
