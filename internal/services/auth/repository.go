package auth

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ErrDuplicate is returned when trying to create a user with an email that already exists
var ErrDuplicate = errors.New("user with this email already exists")

// UsersRepo defines the interface for user repository operations.
// Lookups that match nothing return ErrUserNotFound.
type UsersRepo interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*User, error)
	SetResetOTP(ctx context.Context, id bson.ObjectID, otpHash string, expires time.Time) error
	ResetPassword(ctx context.Context, id bson.ObjectID, passwordHash string) error
	UpdateStudentProfile(ctx context.Context, id bson.ObjectID, patch StudentProfileUpdate) (*User, error)
	UpdateAlumniProfile(ctx context.Context, id bson.ObjectID, patch AlumniProfileUpdate) (*User, error)
}

// Mailer delivers password reset codes.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string, ttl time.Duration) error
}
