package admin

import (
	"context"
	"time"

	"alumni-portal/internal/services/auth"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// UsersRepo is the user store as seen by the admin console.
// Lookups and deletes that match nothing return auth.ErrUserNotFound.
type UsersRepo interface {
	FindByID(ctx context.Context, id bson.ObjectID) (*auth.User, error)
	CountByRole(ctx context.Context, role auth.Role) (int64, error)
	// ListByRole returns users newest first; limit <= 0 means no limit.
	ListByRole(ctx context.Context, role auth.Role, limit int64) ([]*auth.User, error)
	ListPendingAlumni(ctx context.Context) ([]*auth.User, error)
	CountStudentsInStatus(ctx context.Context, statuses ...auth.MentorshipStatus) (int64, error)
	CountActiveMentors(ctx context.Context) (int64, error)
	// ApproveAlumni flips is_approved once; a second call returns ErrAlreadyApproved.
	ApproveAlumni(ctx context.Context, id bson.ObjectID, at time.Time) error
	DeleteByID(ctx context.Context, id bson.ObjectID, role auth.Role) error
	UpdateAdminUsername(ctx context.Context, id bson.ObjectID, username string) (*auth.User, error)
}

// MentorshipReleaser drops references to a deleted user from the other side
// of any mentorship pair.
type MentorshipReleaser interface {
	ReleaseStudent(ctx context.Context, studentID bson.ObjectID) error
	ReleaseMentor(ctx context.Context, alumniID bson.ObjectID) error
}

// EventsRepo is the read side of the events collection.
type EventsRepo interface {
	Count(ctx context.Context) (int64, error)
	ListUpcoming(ctx context.Context, from time.Time, limit int64) ([]*Event, error)
}

// Mailer sends approval outcome notices.
type Mailer interface {
	SendApproval(ctx context.Context, to, name string) error
	SendRejection(ctx context.Context, to, name string) error
}
