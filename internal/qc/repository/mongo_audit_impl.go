package repository

import (
	"context"
	"errors"
	"fmt"

	"qcportal/internal/qc/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var errChainHeadMoved = errors.New("audit chain head moved")

type chainHead struct {
	ID   string `bson:"_id"`
	Seq  int64  `bson:"seq"`
	Hash string `bson:"hash"`
}

// AppendAudit reads the chain head, inserts the sealed entry and advances the head.
// Callers run it inside WithTx so the three steps commit or abort together and
// concurrent appenders surface as transient write conflicts.
func (r *MongoRepository) AppendAudit(ctx context.Context, entry *model.AuditLogEntry) error {
	var head chainHead
	err := r.AuditChain.FindOne(ctx, bson.M{"_id": chainHeadID}).Decode(&head)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return err
		}
		head = chainHead{ID: chainHeadID}
	}

	entry.Seal(head.Seq+1, head.Hash)
	if _, err := r.AuditLogs.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: seq %d already taken", errChainHeadMoved, entry.Seq)
		}
		return err
	}

	res, err := r.AuditChain.UpdateOne(ctx,
		bson.M{"_id": chainHeadID, "seq": head.Seq},
		bson.M{"$set": bson.M{"seq": entry.Seq, "hash": entry.Hash}},
		options.Update().SetUpsert(head.Seq == 0),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errChainHeadMoved
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return errChainHeadMoved
	}
	return nil
}

func (r *MongoRepository) FindAuditLogs(ctx context.Context, filter model.AuditLogFilter) ([]*model.AuditLogEntry, error) {
	q := bson.M{}
	if filter.Username != "" {
		q["username"] = containsRegex(filter.Username)
	}
	if filter.Action != "" {
		q["action"] = filter.Action
	}
	if filter.EntityType != "" {
		q["entity_type"] = filter.EntityType
	}
	if filter.EntityID != "" {
		q["entity_id"] = filter.EntityID
	}
	if filter.From != nil || filter.Until != nil {
		timeFilter := bson.M{}
		if filter.From != nil {
			timeFilter["$gte"] = *filter.From
		}
		if filter.Until != nil {
			timeFilter["$lt"] = *filter.Until
		}
		q["timestamp"] = timeFilter
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "seq", Value: -1}}).
		SetSkip(int64(filter.Skip))
	if filter.Limit > 0 {
		findOptions.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.AuditLogs.Find(ctx, q, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*model.AuditLogEntry
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *MongoRepository) IterateAudit(ctx context.Context, fn func(*model.AuditLogEntry) error) error {
	cursor, err := r.AuditLogs.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var e model.AuditLogEntry
		if err := cursor.Decode(&e); err != nil {
			return err
		}
		if err := fn(&e); err != nil {
			return err
		}
	}
	return cursor.Err()
}
