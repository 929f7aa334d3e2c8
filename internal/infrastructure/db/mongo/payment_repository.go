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

const paymentsCollection = "payments"

// PaymentRepository stores completed payments. Only badgeApplied and
// badgeOutcome are ever updated after insert.
type PaymentRepository struct {
	collection
}

func NewPaymentRepository(db *mongo.Database, timeout time.Duration) *PaymentRepository {
	return &PaymentRepository{collection: newCollection(db, paymentsCollection, timeout)}
}

type mongoPayment struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Email          string             `bson:"email"`
	Amount         float64            `bson:"amount"`
	Badge          string             `bson:"badge"`
	TransactionID  string             `bson:"transactionId"`
	IdempotencyKey string             `bson:"idempotencyKey,omitempty"`
	PaidAt         time.Time          `bson:"paidAt"`
	BadgeApplied   bool               `bson:"badgeApplied"`
	BadgeOutcome   string             `bson:"badgeOutcome,omitempty"`
}

func (d mongoPayment) toDomain() *domain.Payment {
	return &domain.Payment{
		ID:             d.ID.Hex(),
		Email:          d.Email,
		Amount:         d.Amount,
		Badge:          d.Badge,
		TransactionID:  d.TransactionID,
		IdempotencyKey: d.IdempotencyKey,
		PaidAt:         d.PaidAt,
		BadgeApplied:   d.BadgeApplied,
		BadgeOutcome:   d.BadgeOutcome,
	}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) (string, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	doc := mongoPayment{
		Email:          p.Email,
		Amount:         p.Amount,
		Badge:          p.Badge,
		TransactionID:  p.TransactionID,
		IdempotencyKey: p.IdempotencyKey,
		PaidAt:         p.PaidAt.UTC(),
		BadgeApplied:   p.BadgeApplied,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", domain.ErrDuplicateKey
		}
		return "", fmt.Errorf("insert payment: %w", err)
	}
	return insertedHex(res), nil
}

func (r *PaymentRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var d mongoPayment
	if err := r.col.FindOne(ctx, bson.M{"idempotencyKey": key}).Decode(&d); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return d.toDomain(), nil
}

func (r *PaymentRepository) ListByEmail(ctx context.Context, email string) ([]*domain.Payment, error) {
	return r.list(ctx, bson.M{"email": email}, -1)
}

func (r *PaymentRepository) ListBadgePending(ctx context.Context, before time.Time) ([]*domain.Payment, error) {
	return r.list(ctx, bson.M{"badgeOutcome": bson.M{"$exists": false}, "paidAt": bson.M{"$lt": before.UTC()}}, 1)
}

func (r *PaymentRepository) SettleBadge(ctx context.Context, id, outcome string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	ctx, cancel := r.bounded(ctx)
	defer cancel()

	set := bson.M{"badgeApplied": outcome == domain.BadgeOutcomeApplied, "badgeOutcome": outcome}
	_, err = r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("settle badge: %w", err)
	}
	return nil
}

func (r *PaymentRepository) list(ctx context.Context, filter bson.M, order int) ([]*domain.Payment, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "paidAt", Value: order}}))
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	var docs []mongoPayment
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	out := make([]*domain.Payment, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// EnsureIndexes creates indexes on the payments collection.
func (r *PaymentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}, {Key: "paidAt", Value: -1}}},
		{Keys: bson.D{{Key: "badgeOutcome", Value: 1}, {Key: "paidAt", Value: 1}}},
		{
			Keys: bson.D{{Key: "idempotencyKey", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"idempotencyKey": bson.M{"$exists": true}}),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
