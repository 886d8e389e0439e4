package mongo

import (
	"context"
	"errors"

	"alumni-portal/internal/services/mentorship"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MessagesRepo implements mentorship.MessagesRepo for MongoDB
type MessagesRepo struct {
	collection *mongo.Collection
}

// translateMessageNotFound maps ErrNoDocuments to mentorship.ErrMessageNotFound.
func translateMessageNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return mentorship.ErrMessageNotFound
	}
	return err
}

// NewMessagesRepo creates a new messages repository
func NewMessagesRepo(ctx context.Context, db *mongo.Database) (*MessagesRepo, error) {
	collection := db.Collection("messages")

	indexes := []mongo.IndexModel{
		// Conversation history in send order
		{
			Keys: bson.D{
				{Key: "alumni_id", Value: 1},
				{Key: "student_id", Value: 1},
				{Key: "created_at", Value: 1},
				{Key: "_id", Value: 1},
			},
		},
		// Attachment download lookup
		{
			Keys:    bson.D{{Key: "file.id", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	if err := ensureIndexes(ctx, collection, indexes); err != nil {
		return nil, err
	}

	return &MessagesRepo{collection: collection}, nil
}

// Create inserts a new message
func (r *MessagesRepo) Create(ctx context.Context, m *mentorship.Message) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	if m.ID.IsZero() {
		m.ID = bson.NewObjectID()
	}
	if m.Reactions == nil {
		m.Reactions = []mentorship.Reaction{}
	}
	_, err := r.collection.InsertOne(ctx, m)
	return err
}

// ListByPair returns the conversation of one pair, oldest first.
func (r *MessagesRepo) ListByPair(ctx context.Context, alumniID, studentID bson.ObjectID) ([]*mentorship.Message, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.collection.Find(ctx, bson.M{"alumni_id": alumniID, "student_id": studentID}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[mentorship.Message](ctx, cur)
}

// FindByID returns one message
func (r *MessagesRepo) FindByID(ctx context.Context, id bson.ObjectID) (*mentorship.Message, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByFileID returns the message an attachment belongs to.
func (r *MessagesRepo) FindByFileID(ctx context.Context, fileID bson.ObjectID) (*mentorship.Message, error) {
	return r.findOne(ctx, bson.M{"file.id": fileID})
}

func (r *MessagesRepo) findOne(ctx context.Context, filter bson.M) (*mentorship.Message, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var m mentorship.Message
	if err := r.collection.FindOne(ctx, filter).Decode(&m); err != nil {
		return nil, translateMessageNotFound(err)
	}
	return &m, nil
}

// AddReaction appends a reaction and returns the updated message.
func (r *MessagesRepo) AddReaction(ctx context.Context, id bson.ObjectID, reaction mentorship.Reaction) (*mentorship.Message, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var m mentorship.Message
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$push": bson.M{"reactions": reaction}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err != nil {
		return nil, translateMessageNotFound(err)
	}
	return &m, nil
}

// Delete removes a message
func (r *MessagesRepo) Delete(ctx context.Context, id bson.ObjectID) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mentorship.ErrMessageNotFound
	}
	return nil
}
