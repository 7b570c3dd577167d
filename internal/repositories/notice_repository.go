package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anonto42/campus-notices/backend/internal/models"
)

var (
	ErrNoticeNotFound = errors.New("notice not found")
	ErrInvalidID      = errors.New("invalid notice ID format")
	// ErrStaleNotice is returned by Replace when the stored notice changed since it was loaded.
	ErrStaleNotice = errors.New("notice was modified concurrently")
)

// Counter is a statistics field incremented in place.
type Counter string

const (
	CounterShares    Counter = "statistics.shares"
	CounterDownloads Counter = "statistics.downloads"
)

// NoticeRepository defines the interface for notice data operations
type NoticeRepository interface {
	Create(ctx context.Context, notice *models.Notice) error
	GetByID(ctx context.Context, id string) (*models.Notice, error)
	// Replace writes the whole notice if its Seq still matches the stored one, then advances Seq.
	Replace(ctx context.Context, notice *models.Notice) error
	// RecordView counts a view without a read-modify-write and returns the updated notice.
	// The first view by viewerID also counts as a unique view.
	RecordView(ctx context.Context, id string, viewerID uint) (*models.Notice, error)
	// Increment adds one to counter in place and returns the updated notice.
	Increment(ctx context.Context, id string, counter Counter) (*models.Notice, error)
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, q NoticeQuery) ([]models.Notice, int64, error)
	EnsureIndexes(ctx context.Context) error
}

// MongoNoticeRepository implements NoticeRepository for MongoDB
type MongoNoticeRepository struct {
	collection *mongo.Collection
}

var _ NoticeRepository = (*MongoNoticeRepository)(nil)

// NewMongoNoticeRepository creates a new MongoNoticeRepository
func NewMongoNoticeRepository(db *mongo.Database) *MongoNoticeRepository {
	return &MongoNoticeRepository{collection: db.Collection("notices")}
}

// EnsureIndexes creates the text index used by search and the listing indexes
func (r *MongoNoticeRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "title", Value: "text"}, {Key: "summary", Value: "text"}, {Key: "content", Value: "text"}},
			Options: options.Index().
				SetName("notice_text").
				SetWeights(bson.D{{Key: "title", Value: 10}, {Key: "summary", Value: 5}, {Key: "content", Value: 1}}),
		},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "publish_date", Value: -1}}},
		{Keys: bson.D{{Key: "settings.is_pinned", Value: -1}, {Key: "publish_date", Value: -1}}},
		{Keys: bson.D{{Key: "author.id", Value: 1}}},
		{Keys: bson.D{{Key: "bookmarks.user_id", Value: 1}}},
	})
	return err
}

// Create inserts a new notice
func (r *MongoNoticeRepository) Create(ctx context.Context, notice *models.Notice) error {
	notice.ID = primitive.NewObjectID()
	notice.Seq = 1
	notice.PriorityRank = notice.Priority.Rank()
	_, err := r.collection.InsertOne(ctx, notice)
	return err
}

// GetByID retrieves a notice by its hex id
func (r *MongoNoticeRepository) GetByID(ctx context.Context, id string) (*models.Notice, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var notice models.Notice
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&notice)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoticeNotFound
		}
		return nil, err
	}
	return &notice, nil
}

// Replace swaps the stored document guarded by the _seq token
func (r *MongoNoticeRepository) Replace(ctx context.Context, notice *models.Notice) error {
	loaded := notice.Seq
	next := *notice
	next.Seq = loaded + 1
	next.PriorityRank = next.Priority.Rank()

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": notice.ID, "_seq": loaded}, &next)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": notice.ID})
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrNoticeNotFound
		}
		return ErrStaleNotice
	}
	notice.Seq = next.Seq
	notice.PriorityRank = next.PriorityRank
	return nil
}

// RecordView increments the view counters. Seq advances too, so a Replace built
// on an earlier read is rejected instead of dropping the view.
func (r *MongoNoticeRepository) RecordView(ctx context.Context, id string, viewerID uint) (*models.Notice, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var notice models.Notice
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objID, "statistics.viewers": bson.M{"$ne": viewerID}},
		bson.M{
			"$inc":  bson.M{"statistics.views": 1, "statistics.unique_views": 1, "_seq": 1},
			"$push": bson.M{"statistics.viewers": viewerID},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&notice)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return r.increment(ctx, objID, bson.M{"statistics.views": 1})
	}
	if err != nil {
		return nil, err
	}
	return &notice, nil
}

// Increment adds one to a statistics counter
func (r *MongoNoticeRepository) Increment(ctx context.Context, id string, counter Counter) (*models.Notice, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	return r.increment(ctx, objID, bson.M{string(counter): 1})
}

func (r *MongoNoticeRepository) increment(ctx context.Context, objID primitive.ObjectID, inc bson.M) (*models.Notice, error) {
	inc["_seq"] = 1
	var notice models.Notice
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objID},
		bson.M{"$inc": inc},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&notice)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoticeNotFound
		}
		return nil, err
	}
	return &notice, nil
}

// Delete removes a notice by its hex id
func (r *MongoNoticeRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNoticeNotFound
	}
	return nil
}

// Find returns one page of matching notices and the total match count
func (r *MongoNoticeRepository) Find(ctx context.Context, q NoticeQuery) ([]models.Notice, int64, error) {
	filter := q.filter()

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSkip(int64(q.skip())).
		SetLimit(int64(q.limit())).
		SetSort(q.sort())
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	notices := []models.Notice{}
	if err = cursor.All(ctx, &notices); err != nil {
		return nil, 0, err
	}
	return notices, total, nil
}
