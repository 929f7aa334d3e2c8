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

const usersCollection = "users"

type UserRepository struct {
	collection
}

func NewUserRepository(db *mongo.Database, timeout time.Duration) *UserRepository {
	return &UserRepository{collection: newCollection(db, usersCollection, timeout)}
}

type mongoUser struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Email       string             `bson:"email"`
	Photo       string             `bson:"photo,omitempty"`
	Role        string             `bson:"role"`
	Badge       string             `bson:"badge"`
	BadgePaidAt *time.Time         `bson:"badgePaidAt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func (u mongoUser) toDomain() *domain.User {
	out := &domain.User{
		ID:        u.ID.Hex(),
		Name:      u.Name,
		Email:     u.Email,
		Photo:     u.Photo,
		Role:      u.Role,
		Badge:     u.Badge,
		CreatedAt: u.CreatedAt,
	}
	if u.BadgePaidAt != nil {
		out.BadgePaidAt = *u.BadgePaidAt
	}
	return out
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (string, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	doc := mongoUser{
		Name:      user.Name,
		Email:     user.Email,
		Photo:     user.Photo,
		Role:      user.Role,
		Badge:     user.Badge,
		CreatedAt: user.CreatedAt,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", domain.ErrUserExists
		}
		return "", fmt.Errorf("insert user: %w", err)
	}
	return insertedHex(res), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var mu mongoUser
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&mu); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) List(ctx context.Context, search string) ([]*domain.User, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	filter := bson.M{}
	if search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		filter["$or"] = bson.A{bson.M{"name": rx}, bson.M{"email": rx}}
	}

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]*domain.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *UserRepository) SetRole(ctx context.Context, id, role string) (domain.WriteResult, error) {
	oid, err := parseID(id)
	if err != nil {
		return domain.WriteResult{}, err
	}

	ctx, cancel := r.bounded(ctx)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"role": role}})
	if err != nil {
		return domain.WriteResult{}, fmt.Errorf("set role: %w", err)
	}
	return domain.WriteResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

// SetBadge only matches a user whose badge predates paidAt, so an older
// payment settled late cannot overwrite a newer badge.
func (r *UserRepository) SetBadge(ctx context.Context, email, badge string, paidAt time.Time) (bool, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	paidAt = paidAt.UTC()
	filter := bson.M{
		"email": email,
		"$or": bson.A{
			bson.M{"badgePaidAt": bson.M{"$lt": paidAt}},
			bson.M{"badgePaidAt": bson.M{"$exists": false}},
		},
	}
	update := bson.M{"$set": bson.M{"badge": badge, "badgePaidAt": paidAt}}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("set badge: %w", err)
	}
	if res.MatchedCount > 0 {
		return true, nil
	}

	n, err := r.col.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("set badge: %w", err)
	}
	if n == 0 {
		return false, domain.ErrUserNotFound
	}
	return false, nil
}

// EnsureIndexes creates the unique email index that backs idempotent signup.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
