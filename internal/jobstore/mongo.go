package jobstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"blogsmith/internal/domain"
)

// MongoCollection is the collection name used for blog jobs.
const MongoCollection = "blog_jobs"

// MongoStore keeps one document per job keyed by tracking id.
type MongoStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoStore wraps the blog job collection of db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(MongoCollection), now: time.Now}
}

// ConnectMongo establishes and verifies a client connection.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("create mongo client: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the createdAt index used by ListAll.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	return err
}

func (s *MongoStore) Create(ctx context.Context, job *domain.Job) error {
	if _, err := s.coll.InsertOne(ctx, job); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateKey
		}
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, trackingID string) (*domain.Job, error) {
	var job domain.Job
	err := s.coll.FindOne(ctx, bson.M{"_id": trackingID}).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find job: %w", err)
	}
	return &job, nil
}

// Merge applies the patch with a single conditional update so terminal
// documents are never modified.
func (s *MongoStore) Merge(ctx context.Context, trackingID string, patch domain.JobPatch) error {
	set := mongoPatch(patch, s.now())
	filter := bson.M{
		"_id":    trackingID,
		"status": bson.M{"$nin": bson.A{domain.JobStatusCompleted, domain.JobStatusFailed}},
	}
	if _, err := s.coll.UpdateOne(ctx, filter, bson.M{"$set": set}); err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func mongoPatch(p domain.JobPatch, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.Progress != nil {
		set["progress"] = *p.Progress
	}
	if p.Message != nil {
		set["message"] = *p.Message
	}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Content != nil {
		set["content"] = *p.Content
	}
	if p.WordCount != nil {
		set["wordCount"] = *p.WordCount
	}
	if p.Images != nil {
		set["images"] = p.Images
	}
	if p.Rating != nil {
		set["rating"] = *p.Rating
	}
	if p.Error != nil {
		set["error"] = *p.Error
	}
	return set
}

func (s *MongoStore) ListAll(ctx context.Context) ([]domain.Job, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	out := []domain.Job{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, trackingID string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": trackingID}); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

var _ domain.JobStore = (*MongoStore)(nil)
