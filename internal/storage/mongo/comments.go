package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/talas-dev/talas/internal/models"
	"github.com/talas-dev/talas/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// commentDoc — документ коллекции: доменная модель плюс _id.
type commentDoc struct {
	OID            primitive.ObjectID `bson:"_id,omitempty"`
	models.Comment `bson:",inline"`
}

func (d commentDoc) model() *models.Comment {
	c := d.Comment
	c.ID = d.OID.Hex()
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()

	return &c
}

// MongoDB DateTime хранит миллисекунды.
func toMS(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

func parseOID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	return oid, err == nil
}

// CreateComment создаёт комментарий (корневой или ответ).
//   - Для корня Level=0.
//   - Для ответа родитель ищется в том же проекте, Level = parent.Level + 1.
func (m *Mongo) CreateComment(ctx context.Context, c models.Comment, maxDepth int32) (*models.Comment, error) {
	const op = "storage/mongo/CreateComment"

	now := toMS(time.Now())
	c.ID = ""
	c.CreatedAt = now
	c.UpdatedAt = now
	c.IsDeleted = false
	c.ParentID = strings.TrimSpace(c.ParentID)

	if c.ParentID == "" {
		c.Level = 0
	} else {
		parentOID, ok := parseOID(c.ParentID)
		if !ok {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrParentNotFound)
		}

		var parent commentDoc
		err := m.comments.FindOne(ctx, bson.D{
			{Key: "_id", Value: parentOID},
			{Key: "project_id", Value: c.ProjectID},
		}).Decode(&parent)
		if err != nil {
			if errors.Is(err, mongodriver.ErrNoDocuments) {
				return nil, fmt.Errorf("%s: %w", op, storage.ErrParentNotFound)
			}

			return nil, fmt.Errorf("%s: find parent: %w", op, err)
		}

		if parent.Level+1 > maxDepth {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrMaxDepthExceeded)
		}

		c.ParentID = parentOID.Hex()
		c.Level = parent.Level + 1
	}

	res, err := m.comments.InsertOne(ctx, commentDoc{Comment: c})
	if err != nil {
		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("%s: inserted id type", op)
	}

	c.ID = oid.Hex()

	return &c, nil
}

// CommentByID возвращает комментарий по идентификатору.
// Некорректный формат id трактуется как «нет такой записи».
func (m *Mongo) CommentByID(ctx context.Context, id string) (*models.Comment, error) {
	const op = "storage/mongo/CommentByID"

	oid, ok := parseOID(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var doc commentDoc
	if err := m.comments.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc.model(), nil
}

// UpdateContent меняет текст неудалённого комментария и возвращает новую версию.
func (m *Mongo) UpdateContent(ctx context.Context, id, content string) (*models.Comment, error) {
	const op = "storage/mongo/UpdateContent"

	oid, ok := parseOID(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var doc commentDoc
	err := m.comments.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}, {Key: "is_deleted", Value: false}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "content", Value: content},
			{Key: "updated_at", Value: toMS(time.Now())},
		}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc.model(), nil
}

// SoftDelete помечает комментарий удалённым и очищает текст.
// Дети остаются привязанными к нему.
func (m *Mongo) SoftDelete(ctx context.Context, id string) error {
	const op = "storage/mongo/SoftDelete"

	oid, ok := parseOID(id)
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	res, err := m.comments.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}, {Key: "is_deleted", Value: false}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "is_deleted", Value: true},
			{Key: "content", Value: ""},
			{Key: "updated_at", Value: toMS(time.Now())},
		}}},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// ListByProject возвращает все комментарии проекта плоским списком.
// Сортировка: created_at DESC, _id DESC. Дерево собирает клиент.
func (m *Mongo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Comment, error) {
	const op = "storage/mongo/ListByProject"

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := m.comments.Find(ctx, bson.D{{Key: "project_id", Value: projectID}}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	items := make([]models.Comment, 0)
	for cur.Next(ctx) {
		var doc commentDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		items = append(items, *doc.model())
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return items, nil
}
