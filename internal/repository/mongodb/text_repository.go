package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"dashboard-api/internal/domain"
	"dashboard-api/internal/repository"
)

const textsCollection = "texts"

type textDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Content   string             `bson:"content"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d textDocument) toDomain() domain.Text {
	return domain.Text{
		ID:        d.ID.Hex(),
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
	}
}

type TextRepository struct {
	store *Store
}

func NewTextRepository(store *Store) repository.TextRepository {
	return &TextRepository{store: store}
}

// Init only verifies connectivity; texts need no secondary indexes.
func (r *TextRepository) Init(ctx context.Context) error {
	_, err := r.store.collection(ctx, textsCollection)
	return err
}

func (r *TextRepository) Create(ctx context.Context, text *domain.Text) (string, error) {
	coll, err := r.store.collection(ctx, textsCollection)
	if err != nil {
		return "", err
	}

	doc := textDocument{
		ID:        primitive.NewObjectID(),
		Content:   text.Content,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert text: %w", err)
	}

	text.ID = doc.ID.Hex()
	text.CreatedAt = doc.CreatedAt
	return text.ID, nil
}

func (r *TextRepository) List(ctx context.Context) ([]domain.Text, error) {
	coll, err := r.store.collection(ctx, textsCollection)
	if err != nil {
		return nil, err
	}

	// ObjectIDs are monotonic per process, so _id order is insertion order.
	cursor, err := coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find texts: %w", err)
	}
	var docs []textDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode texts: %w", err)
	}

	texts := make([]domain.Text, 0, len(docs))
	for _, doc := range docs {
		texts = append(texts, doc.toDomain())
	}
	return texts, nil
}

func (r *TextRepository) Delete(ctx context.Context, id string) (*domain.Text, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("text %q: %w", id, repository.ErrNotFound)
	}
	coll, err := r.store.collection(ctx, textsCollection)
	if err != nil {
		return nil, err
	}

	var doc textDocument
	if err := coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("text %s: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("delete text: %w", err)
	}
	text := doc.toDomain()
	return &text, nil
}
