package repository

import (
	"context"
	"errors"
	"regexp"

	"qcportal/internal/qc/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoRepository) EnsureBatch(ctx context.Context, batch *model.Batch) (*model.Batch, bool, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored model.Batch
	err := r.Batches.FindOneAndUpdate(ctx,
		bson.M{"batch_number": batch.BatchNumber},
		bson.M{"$setOnInsert": batch},
		opts,
	).Decode(&stored)
	if err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			return nil, false, err
		}
		// Lost the upsert race: the winner's batch is now visible
		existing, err := r.GetBatchByNumber(ctx, batch.BatchNumber)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	return &stored, stored.ID == batch.ID, nil
}

func (r *MongoRepository) CreateBatch(ctx context.Context, batch *model.Batch) error {
	_, err := r.Batches.InsertOne(ctx, batch)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *MongoRepository) GetBatch(ctx context.Context, id string) (*model.Batch, error) {
	var b model.Batch
	if err := r.Batches.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r *MongoRepository) GetBatchByNumber(ctx context.Context, batchNumber string) (*model.Batch, error) {
	var b model.Batch
	if err := r.Batches.FindOne(ctx, bson.M{"batch_number": batchNumber}).Decode(&b); err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r *MongoRepository) FindBatches(ctx context.Context, filter model.BatchFilter) ([]*model.Batch, error) {
	q := bson.M{}
	if filter.BatchNumber != "" {
		q["batch_number"] = containsRegex(filter.BatchNumber)
	}
	if filter.ProductName != "" {
		q["product_name"] = containsRegex(filter.ProductName)
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "batch_number", Value: -1}})
	cursor, err := r.Batches.Find(ctx, q, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*model.Batch
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *MongoRepository) NextSequence(ctx context.Context, key string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.Counters.FindOneAndUpdate(ctx,
		bson.M{"_id": key},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}

func (r *MongoRepository) CreateTestRecord(ctx context.Context, rec *model.TestRecord) error {
	_, err := r.TestRecords.InsertOne(ctx, rec)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *MongoRepository) GetTestRecord(ctx context.Context, id string) (*model.TestRecord, error) {
	var rec model.TestRecord
	if err := r.TestRecords.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

func (r *MongoRepository) FindTestRecords(ctx context.Context, filter model.TestRecordFilter) ([]*model.TestRecord, error) {
	q := bson.M{}
	if filter.BatchNumber != "" {
		q["batch_number"] = containsRegex(filter.BatchNumber)
	}
	if filter.ProductName != "" {
		q["product_name"] = containsRegex(filter.ProductName)
	}
	if filter.TestType != "" {
		q["test_type"] = filter.TestType
	}
	if filter.Status != "" {
		q["pass_fail_status"] = filter.Status
	}
	// YYYY-MM-DD strings compare in calendar order
	if filter.DateFrom != "" || filter.DateTo != "" {
		dateFilter := bson.M{}
		if filter.DateFrom != "" {
			dateFilter["$gte"] = filter.DateFrom
		}
		if filter.DateTo != "" {
			dateFilter["$lte"] = filter.DateTo
			if filter.DateFrom == "" {
				dateFilter["$gt"] = ""
			}
		}
		q["test_date"] = dateFilter
	}

	dir := -1
	if filter.Ascending {
		dir = 1
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(int64(filter.Skip))
	if filter.Limit > 0 {
		findOptions.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.TestRecords.Find(ctx, q, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*model.TestRecord
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *MongoRepository) UpdateTestRecord(ctx context.Context, rec *model.TestRecord, expectedVersion int64) error {
	res, err := r.TestRecords.ReplaceOne(ctx,
		bson.M{"_id": rec.ID, "signature": nil, "version": expectedVersion},
		rec,
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	return r.explainMiss(ctx, rec.ID, ErrVersionConflict)
}

func (r *MongoRepository) SignTestRecord(ctx context.Context, id string, sig *model.Signature) (*model.TestRecord, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec model.TestRecord
	err := r.TestRecords.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "signature": nil},
		bson.M{
			"$set": bson.M{"signature": sig, "updated_at": sig.SignedAt},
			"$inc": bson.M{"version": int64(1)},
		},
		opts,
	).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.explainMiss(ctx, id, ErrSigned)
		}
		return nil, err
	}
	return &rec, nil
}

// explainMiss tells apart the reasons a conditional write matched nothing
func (r *MongoRepository) explainMiss(ctx context.Context, id string, fallback error) error {
	current, err := r.GetTestRecord(ctx, id)
	if err != nil {
		return err
	}
	if current.IsSigned() {
		return ErrSigned
	}
	return fallback
}

func containsRegex(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}
