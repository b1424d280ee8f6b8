package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
)

const activityEventsCollection = "activity_events"

type activityEvent struct {
	ActivityID uint                   `bson:"activity_id"`
	UserID     string                 `bson:"user_id"`
	Type       string                 `bson:"type"`
	Metadata   map[string]interface{} `bson:"metadata,omitempty"`
	CreatedAt  time.Time              `bson:"created_at"`
}

// MongoActivityMirror copies activities into a MongoDB collection for analytics.
type MongoActivityMirror struct {
	col *mongo.Collection
}

func NewMongoActivityMirror(db *mongo.Database) *MongoActivityMirror {
	return &MongoActivityMirror{col: db.Collection(activityEventsCollection)}
}

// EnsureIndexes creates the (user_id, created_at) and activity_id indexes.
func (m *MongoActivityMirror) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_user_created"),
		},
		{
			Keys:    bson.D{{Key: "activity_id", Value: 1}},
			Options: options.Index().SetName("idx_activity_id").SetUnique(true),
		},
	}
	_, err := m.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (m *MongoActivityMirror) Mirror(ctx context.Context, a *models.Activity) error {
	_, err := m.col.InsertOne(ctx, activityEvent{
		ActivityID: a.ID,
		UserID:     a.UserID,
		Type:       string(a.Type),
		Metadata:   a.Metadata,
		CreatedAt:  a.CreatedAt.UTC(),
	})
	return err
}
