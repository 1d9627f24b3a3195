package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bankapp-ledger-engine/internal/domain/ledger"
)

const (
	// LedgerCollectionName is the name of the ledger collection in MongoDB
	LedgerCollectionName = "ledger_entries"
)

// LedgerRepository implements the ledger.Repository interface for MongoDB
type LedgerRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewLedgerRepository creates a new MongoDB ledger repository
func NewLedgerRepository(logger *slog.Logger, db *mongo.Database) *LedgerRepository {
	return &LedgerRepository{
		collection: db.Collection(LedgerCollectionName),
		logger:     logger,
	}
}

// EnsureIndexes creates the unique (transaction_id, kind) index that makes
// projection idempotent, and the index serving per-account listings.
func (r *LedgerRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "transaction_id", Value: 1}, {Key: "kind", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("transaction_kind_unique"),
		},
		{
			Keys:    bson.D{{Key: "account_ids", Value: 1}, {Key: "recorded_at", Value: -1}},
			Options: options.Index().SetName("account_recorded_at"),
		},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, models); err != nil {
		r.logger.Error("Failed to create ledger indexes", "error", err)
		return fmt.Errorf("failed to create ledger indexes: %w", err)
	}
	return nil
}

// Create stores a new ledger entry. Returns ErrDuplicateEntry if the
// transaction already has an entry of the same kind.
func (r *LedgerRepository) Create(ctx context.Context, entry *ledger.Entry) error {
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrDuplicateEntry{TransactionID: entry.TransactionID, Kind: entry.Kind}
		}
		r.logger.Error("Failed to create ledger entry",
			"transaction_id", entry.TransactionID,
			"kind", entry.Kind,
			"error", err)
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}

	return nil
}

// GetByTransactionID returns every entry recorded for a transaction, oldest first.
// Returns ErrEntryNotFound if there is none.
func (r *LedgerRepository) GetByTransactionID(ctx context.Context, transactionID int64) ([]*ledger.Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "recorded_at", Value: 1}})

	entries, err := r.find(ctx, bson.M{"transaction_id": transactionID}, opts)
	if err != nil {
		r.logger.Error("Failed to get ledger entries",
			"transaction_id", transactionID,
			"error", err)
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ledger.ErrEntryNotFound{TransactionID: transactionID}
	}

	return entries, nil
}

// GetByAccountID retrieves paginated ledger entries touching an account, newest first.
func (r *LedgerRepository) GetByAccountID(ctx context.Context, accountID int64, limit, offset int) ([]*ledger.Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "recorded_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	entries, err := r.find(ctx, bson.M{"account_ids": accountID}, opts)
	if err != nil {
		r.logger.Error("Failed to get ledger entries",
			"account_id", accountID,
			"error", err)
		return nil, err
	}

	return entries, nil
}

// CountByAccountID counts the total number of ledger entries for an account
func (r *LedgerRepository) CountByAccountID(ctx context.Context, accountID int64) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"account_ids": accountID})
	if err != nil {
		r.logger.Error("Failed to count ledger entries",
			"account_id", accountID,
			"error", err)
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	return count, nil
}

func (r *LedgerRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*ledger.Entry, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []*ledger.Entry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode ledger entries: %w", err)
	}

	return entries, nil
}
