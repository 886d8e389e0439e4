package mentorship

import (
	"context"

	"alumni-portal/internal/services/auth"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Directory is the read side of the user store used by mentorship.
// Lookups that match nothing return auth.ErrUserNotFound.
type Directory interface {
	FindByID(ctx context.Context, id bson.ObjectID) (*auth.User, error)
	FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]*auth.User, error)
	ListStudentsByStatus(ctx context.Context, status auth.MentorshipStatus) ([]*auth.User, error)
	ListMentees(ctx context.Context, alumniID bson.ObjectID) ([]*auth.User, error)
	ListActiveMentors(ctx context.Context) ([]*auth.User, error)
}

// AssignmentStore maintains both sides of the mentor/student reference pair.
// Assign never lets a mentor exceed capacity or a student hold two mentors.
type AssignmentStore interface {
	Assign(ctx context.Context, alumniID, studentID bson.ObjectID, capacity int) error
	Unassign(ctx context.Context, alumniID, studentID bson.ObjectID) error
}

// MessagesRepo persists conversation messages.
type MessagesRepo interface {
	Create(ctx context.Context, m *Message) error
	ListByPair(ctx context.Context, alumniID, studentID bson.ObjectID) ([]*Message, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*Message, error)
	FindByFileID(ctx context.Context, fileID bson.ObjectID) (*Message, error)
	AddReaction(ctx context.Context, id bson.ObjectID, r Reaction) (*Message, error)
	Delete(ctx context.Context, id bson.ObjectID) error
}

// BlobStore keeps attachment bytes outside the message documents.
type BlobStore interface {
	Upload(ctx context.Context, f FileUpload) (bson.ObjectID, int64, error)
	Open(ctx context.Context, id bson.ObjectID) (*Blob, error)
	Delete(ctx context.Context, id bson.ObjectID) error
}

// Bus defines the interface for event broadcasting
type Bus interface {
	Broadcast(ctx context.Context, ev MessageEvent)
}
