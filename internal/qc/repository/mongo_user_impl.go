package repository

import (
	"context"

	"qcportal/internal/qc/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoRepository) CreateUser(ctx context.Context, user *model.User) error {
	_, err := r.Users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *MongoRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.Users.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *MongoRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := r.Users.FindOne(ctx, bson.M{"username": username}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *MongoRepository) CreateSpecification(ctx context.Context, spec *model.Specification) error {
	_, err := r.Specifications.InsertOne(ctx, spec)
	return err
}

func (r *MongoRepository) FindSpecifications(ctx context.Context, filter model.SpecificationFilter) ([]*model.Specification, error) {
	q := bson.M{}
	if filter.ProductName != "" {
		q["product_name"] = containsRegex(filter.ProductName)
	}
	if filter.TestType != "" {
		q["test_type"] = filter.TestType
	}

	cursor, err := r.Specifications.Find(ctx, q,
		options.Find().SetSort(bson.D{{Key: "product_name", Value: 1}, {Key: "test_type", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*model.Specification
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *MongoRepository) CreateEquipment(ctx context.Context, eq *model.Equipment) error {
	_, err := r.Equipment.InsertOne(ctx, eq)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *MongoRepository) FindEquipment(ctx context.Context) ([]*model.Equipment, error) {
	cursor, err := r.Equipment.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "equipment_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*model.Equipment
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}
