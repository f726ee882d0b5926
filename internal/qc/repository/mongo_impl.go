package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const chainHeadID = "head"

// Collections used by MongoRepository
const (
	CollBatches        = "batches"
	CollTestRecords    = "test_records"
	CollCounters       = "counters"
	CollAuditLogs      = "audit_logs"
	CollAuditChain     = "audit_chain"
	CollUsers          = "users"
	CollSpecifications = "specifications"
	CollEquipment      = "equipment"
)

// MongoRepository implements Store on MongoDB. Units of work are multi-document
// transactions, so the deployment must be a replica set.
type MongoRepository struct {
	Batches        *mongo.Collection
	TestRecords    *mongo.Collection
	Counters       *mongo.Collection
	AuditLogs      *mongo.Collection
	AuditChain     *mongo.Collection
	Users          *mongo.Collection
	Specifications *mongo.Collection
	Equipment      *mongo.Collection
	Client         *mongo.Client
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		Batches:        db.Collection(CollBatches),
		TestRecords:    db.Collection(CollTestRecords),
		Counters:       db.Collection(CollCounters),
		AuditLogs:      db.Collection(CollAuditLogs),
		AuditChain:     db.Collection(CollAuditChain),
		Users:          db.Collection(CollUsers),
		Specifications: db.Collection(CollSpecifications),
		Equipment:      db.Collection(CollEquipment),
		Client:         db.Client(),
	}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	// 1. Batch numbers are unique: concurrent find-or-create converges on one batch
	_, err := r.Batches.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "batch_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_batch_number"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_created_at"),
		},
	})
	if err != nil {
		return err
	}

	// 2. Test record list queries
	_, err = r.TestRecords.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_created_at"),
		},
		{
			Keys:    bson.D{{Key: "batch_id", Value: 1}},
			Options: options.Index().SetName("idx_batch_id"),
		},
		{
			Keys:    bson.D{{Key: "pass_fail_status", Value: 1}, {Key: "test_date", Value: -1}},
			Options: options.Index().SetName("idx_status_test_date"),
		},
	})
	if err != nil {
		return err
	}

	// 3. Audit chain: seq is the insertion order and must never repeat
	_, err = r.AuditLogs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "seq", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_seq"),
		},
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}, {Key: "seq", Value: -1}},
			Options: options.Index().SetName("idx_timestamp_seq"),
		},
		{
			Keys:    bson.D{{Key: "entity_type", Value: 1}, {Key: "entity_id", Value: 1}},
			Options: options.Index().SetName("idx_entity"),
		},
	})
	if err != nil {
		return err
	}

	// 4. Users: unique username, unique email when present
	_, err = r.Users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_username"),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_email").
				SetPartialFilterExpression(bson.M{"email": bson.M{"$type": "string"}}),
		},
	})
	if err != nil {
		return err
	}

	// 5. Equipment tags are unique
	_, err = r.Equipment.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "equipment_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_equipment_id"),
	})
	if err != nil {
		return err
	}

	// 6. Seed the audit chain head
	_, err = r.AuditChain.UpdateOne(ctx,
		bson.M{"_id": chainHeadID},
		bson.M{"$setOnInsert": bson.M{"seq": int64(0), "hash": ""}},
		options.Update().SetUpsert(true),
	)
	return err
}

// WithTx runs fn inside a MongoDB transaction. A ctx that already carries a session
// joins it. The driver retries fn on transient transaction errors, so fn must derive
// all writes from state it reads through ctx.
func (r *MongoRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := r.Client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	callback := func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	}

	_, err = session.WithTransaction(ctx, callback)
	return err
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx, nil)
}

func isMongoTimeout(err error) bool {
	return err != nil && mongo.IsTimeout(err)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
