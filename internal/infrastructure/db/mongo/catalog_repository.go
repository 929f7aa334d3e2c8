package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dinedorm/server/internal/core/domain"
)

const (
	packagesCollection = "packages"
	requestsCollection = "mealRequests"
	reviewsCollection  = "reviews"
)

// --- Packages ---

type PackageRepository struct {
	collection
}

func NewPackageRepository(db *mongo.Database, timeout time.Duration) *PackageRepository {
	return &PackageRepository{collection: newCollection(db, packagesCollection, timeout)}
}

type mongoPackage struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Name     string             `bson:"name"`
	Badge    string             `bson:"badge"`
	Price    float64            `bson:"price"`
	Benefits []string           `bson:"benefits"`
}

func (d mongoPackage) toDomain() *domain.Package {
	return &domain.Package{ID: d.ID.Hex(), Name: d.Name, Badge: d.Badge, Price: d.Price, Benefits: d.Benefits}
}

func (r *PackageRepository) List(ctx context.Context) ([]*domain.Package, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "price", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	var docs []mongoPackage
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}

	out := make([]*domain.Package, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *PackageRepository) FindByName(ctx context.Context, name string) (*domain.Package, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var d mongoPackage
	if err := r.col.FindOne(ctx, bson.M{"name": name}).Decode(&d); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrPackageNotFound
		}
		return nil, fmt.Errorf("find package: %w", err)
	}
	return d.toDomain(), nil
}

// --- Meal requests ---

type RequestRepository struct {
	collection
}

func NewRequestRepository(db *mongo.Database, timeout time.Duration) *RequestRepository {
	return &RequestRepository{collection: newCollection(db, requestsCollection, timeout)}
}

type mongoRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	MealID      string             `bson:"mealId"`
	MealTitle   string             `bson:"mealTitle"`
	Email       string             `bson:"email"`
	Name        string             `bson:"name"`
	Status      string             `bson:"status"`
	RequestedAt time.Time          `bson:"requestedAt"`
}

func (r *RequestRepository) Create(ctx context.Context, req *domain.MealRequest) (string, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	res, err := r.col.InsertOne(ctx, mongoRequest{
		MealID:      req.MealID,
		MealTitle:   req.MealTitle,
		Email:       req.Email,
		Name:        req.Name,
		Status:      req.Status,
		RequestedAt: req.RequestedAt,
	})
	if err != nil {
		return "", fmt.Errorf("insert meal request: %w", err)
	}
	return insertedHex(res), nil
}

func (r *RequestRepository) ListByEmail(ctx context.Context, email string) ([]*domain.MealRequest, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"email": email}, options.Find().SetSort(bson.D{{Key: "requestedAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list meal requests: %w", err)
	}
	var docs []mongoRequest
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list meal requests: %w", err)
	}

	out := make([]*domain.MealRequest, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.MealRequest{
			ID:          d.ID.Hex(),
			MealID:      d.MealID,
			MealTitle:   d.MealTitle,
			Email:       d.Email,
			Name:        d.Name,
			Status:      d.Status,
			RequestedAt: d.RequestedAt,
		})
	}
	return out, nil
}

func (r *RequestRepository) SetStatus(ctx context.Context, id, status string) (domain.WriteResult, error) {
	oid, err := parseID(id)
	if err != nil {
		return domain.WriteResult{}, err
	}

	ctx, cancel := r.bounded(ctx)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return domain.WriteResult{}, fmt.Errorf("set request status: %w", err)
	}
	return domain.WriteResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

// --- Reviews ---

type ReviewRepository struct {
	collection
}

func NewReviewRepository(db *mongo.Database, timeout time.Duration) *ReviewRepository {
	return &ReviewRepository{collection: newCollection(db, reviewsCollection, timeout)}
}

type mongoReview struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	MealID    string             `bson:"mealId"`
	Email     string             `bson:"email"`
	Name      string             `bson:"name"`
	Rating    int                `bson:"rating"`
	Comment   string             `bson:"comment"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) (string, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	res, err := r.col.InsertOne(ctx, mongoReview{
		MealID:    rv.MealID,
		Email:     rv.Email,
		Name:      rv.Name,
		Rating:    rv.Rating,
		Comment:   rv.Comment,
		CreatedAt: rv.CreatedAt,
	})
	if err != nil {
		return "", fmt.Errorf("insert review: %w", err)
	}
	return insertedHex(res), nil
}

func (r *ReviewRepository) ListByMeal(ctx context.Context, mealID string) ([]*domain.Review, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"mealId": mealID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	var docs []mongoReview
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	out := make([]*domain.Review, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.Review{
			ID:        d.ID.Hex(),
			MealID:    d.MealID,
			Email:     d.Email,
			Name:      d.Name,
			Rating:    d.Rating,
			Comment:   d.Comment,
			CreatedAt: d.CreatedAt,
		})
	}
	return out, nil
}
