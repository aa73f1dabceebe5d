package patient

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists patient records as flat documents, one per patient,
// keyed by the record's _id.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("patients")}
}

func (s *MongoStore) Insert(ctx context.Context, rec Record) error {
	if _, err := s.col.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert patient record: %w", err)
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (Record, error) {
	var rec Record
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return Record{}, ErrPatientNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to find patient record: %w", err)
	}
	return rec, nil
}

func (s *MongoStore) Replace(ctx context.Context, rec Record) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.col.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, opts); err != nil {
		return fmt.Errorf("failed to replace patient record: %w", err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.col.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete patient record: %w", err)
	}
	return nil
}

func (s *MongoStore) ListAll(ctx context.Context) ([]Record, error) {
	cursor, err := s.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list patient records: %w", err)
	}
	defer cursor.Close(ctx)

	records := []Record{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode patient records: %w", err)
	}
	return records, nil
}
