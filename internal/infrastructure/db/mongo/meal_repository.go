package mongo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dinedorm/server/internal/core/domain"
)

const (
	mealsCollection    = "meals"
	upcomingCollection = "upcomingMeals"
)

// mongoMeal is the document shape shared by meals and upcomingMeals.
type mongoMeal struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Title        string             `bson:"title"`
	Category     string             `bson:"category"`
	Image        string             `bson:"image"`
	Price        float64            `bson:"price"`
	Description  string             `bson:"description"`
	Ingredients  []string           `bson:"ingredients"`
	Rating       float64            `bson:"rating"`
	Distributor  domain.Distributor `bson:"distributor"`
	PostedAt     time.Time          `bson:"postedAt"`
	Likes        int                `bson:"likes"`
	Likers       []string           `bson:"likers"`
	ReviewCount  int                `bson:"reviewCount"`
	PromotedFrom string             `bson:"promotedFrom,omitempty"`
	PromotedAt   *time.Time         `bson:"promotedAt,omitempty"`
}

func toMongoMeal(m *domain.Meal) mongoMeal {
	likers := m.Likers
	if likers == nil {
		likers = []string{}
	}
	return mongoMeal{
		Title:        m.Title,
		Category:     m.Category,
		Image:        m.Image,
		Price:        m.Price,
		Description:  m.Description,
		Ingredients:  m.Ingredients,
		Rating:       m.Rating,
		Distributor:  m.Distributor,
		PostedAt:     m.PostedAt,
		Likes:        len(likers),
		Likers:       likers,
		ReviewCount:  m.ReviewCount,
		PromotedFrom: m.PromotedFrom,
		PromotedAt:   optionalTime(m.PromotedAt),
	}
}

func (d mongoMeal) toDomain() *domain.Meal {
	out := &domain.Meal{
		ID:           d.ID.Hex(),
		Title:        d.Title,
		Category:     d.Category,
		Image:        d.Image,
		Price:        d.Price,
		Description:  d.Description,
		Ingredients:  d.Ingredients,
		Rating:       d.Rating,
		Distributor:  d.Distributor,
		PostedAt:     d.PostedAt,
		Likes:        d.Likes,
		Likers:       d.Likers,
		ReviewCount:  d.ReviewCount,
		PromotedFrom: d.PromotedFrom,
	}
	if d.PromotedAt != nil {
		out.PromotedAt = *d.PromotedAt
	}
	return out
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}

func decodeMeals(ctx context.Context, cur *mongo.Cursor) ([]*domain.Meal, error) {
	var docs []mongoMeal
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domain.Meal, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// MealRepository stores the active meals collection.
type MealRepository struct {
	collection
}

func NewMealRepository(db *mongo.Database, timeout time.Duration) *MealRepository {
	return &MealRepository{collection: newCollection(db, mealsCollection, timeout)}
}

// Create inserts the meal under a freshly generated ObjectID.
func (r *MealRepository) Create(ctx context.Context, m *domain.Meal) (string, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	doc := toMongoMeal(m)
	doc.ID = primitive.NewObjectID()

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) && m.PromotedFrom != "" {
			return "", domain.ErrAlreadyPromoted
		}
		return "", fmt.Errorf("insert meal: %w", err)
	}
	return doc.ID.Hex(), nil
}

func (r *MealRepository) FindByID(ctx context.Context, id string) (*domain.Meal, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var d mongoMeal
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrMealNotFound
		}
		return nil, fmt.Errorf("find meal: %w", err)
	}
	return d.toDomain(), nil
}

func (r *MealRepository) List(ctx context.Context, f domain.MealFilter) ([]*domain.Meal, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Search != "" {
		filter["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
	}

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "postedAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	meals, err := decodeMeals(ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	return meals, nil
}

// AddLike performs the duplicate check and the increment as one conditional
// update: the filter only matches while user is absent from likers.
func (r *MealRepository) AddLike(ctx context.Context, id, user string) (domain.WriteResult, error) {
	oid, err := parseID(id)
	if err != nil {
		return domain.WriteResult{}, err
	}

	ctx, cancel := r.bounded(ctx)
	defer cancel()

	filter := bson.M{"_id": oid, "likers": bson.M{"$ne": user}}
	update := bson.M{
		"$inc":  bson.M{"likes": 1},
		"$push": bson.M{"likers": user},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return domain.WriteResult{}, fmt.Errorf("add like: %w", err)
	}
	return domain.WriteResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

func (r *MealRepository) IncrementReviewCount(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	ctx, cancel := r.bounded(ctx)
	defer cancel()

	_, err = r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"reviewCount": 1}})
	return err
}

func (r *MealRepository) ListPromotedSince(ctx context.Context, since time.Time) ([]*domain.Meal, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"_id": 1, "promotedFrom": 1, "promotedAt": 1})
	cur, err := r.col.Find(ctx, bson.M{"promotedAt": bson.M{"$gte": since.UTC()}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list promoted meals: %w", err)
	}
	meals, err := decodeMeals(ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("list promoted meals: %w", err)
	}
	return meals, nil
}

// EnsureIndexes creates the indexes on the meals collection. The partial unique
// index on promotedFrom stops two concurrent promotions of the same upcoming
// meal from both inserting.
func (r *MealRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{
			Keys: bson.D{{Key: "promotedFrom", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"promotedFrom": bson.M{"$exists": true}}),
		},
		{
			Keys:    bson.D{{Key: "promotedAt", Value: -1}},
			Options: options.Index().SetPartialFilterExpression(bson.M{"promotedAt": bson.M{"$exists": true}}),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// UpcomingMealRepository stores meals announced but not yet served.
type UpcomingMealRepository struct {
	collection
}

func NewUpcomingMealRepository(db *mongo.Database, timeout time.Duration) *UpcomingMealRepository {
	return &UpcomingMealRepository{collection: newCollection(db, upcomingCollection, timeout)}
}

func (r *UpcomingMealRepository) Create(ctx context.Context, m *domain.Meal) (string, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	res, err := r.col.InsertOne(ctx, toMongoMeal(m))
	if err != nil {
		return "", fmt.Errorf("insert upcoming meal: %w", err)
	}
	return insertedHex(res), nil
}

func (r *UpcomingMealRepository) FindByID(ctx context.Context, id string) (*domain.Meal, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var d mongoMeal
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrUpcomingMealNotFound
		}
		return nil, fmt.Errorf("find upcoming meal: %w", err)
	}
	return d.toDomain(), nil
}

func (r *UpcomingMealRepository) List(ctx context.Context) ([]*domain.Meal, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "likes", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list upcoming meals: %w", err)
	}
	meals, err := decodeMeals(ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("list upcoming meals: %w", err)
	}
	return meals, nil
}

func (r *UpcomingMealRepository) Delete(ctx context.Context, id string) (int64, error) {
	oid, err := parseID(id)
	if err != nil {
		return 0, err
	}

	ctx, cancel := r.bounded(ctx)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return 0, fmt.Errorf("delete upcoming meal: %w", err)
	}
	return res.DeletedCount, nil
}
