// Package mongo stores trainer ledgers as MongoDB documents.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"example.com/trainerworkload/internal/domain"
	"example.com/trainerworkload/internal/persistence"
)

// CollectionName is the collection holding one document per trainer.
const CollectionName = "trainer_workloads"

type record struct {
	persistence.Document `bson:",inline"`
	UpdatedAt            time.Time `bson:"updatedAt"`
}

// Repository provides MongoDB-backed persistence for trainer ledgers.
type Repository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewRepository constructs a Repository over db.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{coll: db.Collection(CollectionName), now: time.Now}
}

// EnsureIndexes creates the unique username index.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create trainer workload index: %w", err)
	}
	return nil
}

// LoadByUsername fetches the ledger for username.
func (r *Repository) LoadByUsername(ctx context.Context, username string) (*domain.Ledger, error) {
	var rec record
	err := r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrLedgerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load trainer workload %q: %w", username, err)
	}
	return rec.Document.Ledger(), nil
}

// Save inserts a new ledger (version zero) or replaces the stored document when
// the versions still match. On success ledger.Version holds the stored version.
func (r *Repository) Save(ctx context.Context, ledger *domain.Ledger) error {
	rec := record{Document: persistence.ToDocument(ledger), UpdatedAt: r.now().UTC()}
	rec.Version = ledger.Version + 1

	if ledger.Version == 0 {
		_, err := r.coll.InsertOne(ctx, rec)
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrVersionConflict
		}
		if err != nil {
			return fmt.Errorf("save trainer workload %q: %w", ledger.Username, err)
		}
		ledger.Version = rec.Version
		return nil
	}

	res, err := r.coll.ReplaceOne(ctx, bson.M{"username": ledger.Username, "version": ledger.Version}, rec)
	if err != nil {
		return fmt.Errorf("save trainer workload %q: %w", ledger.Username, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrVersionConflict
	}
	ledger.Version = rec.Version
	return nil
}
