package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alumni-portal/internal/logger"
	"alumni-portal/internal/services/auth"
	"alumni-portal/internal/services/mentorship"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// AssignmentsRepo keeps student.assigned_alumni and alumni.assigned_students
// in step. Each side is changed with a single conditional update so the
// capacity and single-mentor rules hold under concurrency; on a replica set
// both updates also share a transaction.
type AssignmentsRepo struct {
	client *mongo.Client
	users  *mongo.Collection
}

// NewAssignmentsRepo creates a new assignments repository over the users collection.
func NewAssignmentsRepo(client *mongo.Client, db *mongo.Database) *AssignmentsRepo {
	return &AssignmentsRepo{client: client, users: db.Collection("users")}
}

// Assign claims studentID for alumniID. The student is claimed first; if no
// mentor slot can be taken afterwards the claim is undone.
func (r *AssignmentsRepo) Assign(ctx context.Context, alumniID, studentID bson.ObjectID, capacity int) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	return withTxn(ctx, r.client, func(ctx context.Context) error {
		now := time.Now().UTC()

		res, err := r.users.UpdateOne(ctx,
			bson.M{"_id": studentID, "role": auth.RoleStudent, "student.assigned_alumni": fieldUnset},
			bson.M{"$set": bson.M{
				"student.assigned_alumni":   alumniID,
				"student.mentorship_status": auth.MentorshipMentored,
				"updated_at":                now,
			}},
		)
		if err != nil {
			return fmt.Errorf("claim student: %w", err)
		}
		if res.MatchedCount == 0 {
			return r.whyStudentUnavailable(ctx, alumniID, studentID)
		}

		slotFilter := bson.M{
			"_id":                      alumniID,
			"role":                     auth.RoleAlumni,
			"alumni.is_approved":       true,
			"alumni.assigned_students": bson.M{"$ne": studentID},
		}
		slotFilter[slotKey(capacity)] = fieldUnset

		res, err = r.users.UpdateOne(ctx, slotFilter,
			bson.M{
				"$push": bson.M{"alumni.assigned_students": studentID},
				"$inc":  bson.M{"alumni.current_students": 1},
				"$set":  bson.M{"updated_at": now},
			},
		)
		if err != nil || res.MatchedCount == 0 {
			if rerr := r.releaseStudent(ctx, alumniID, studentID); rerr != nil {
				logger.L().Error("failed to undo student claim", "student_id", studentID.Hex(), "alumni_id", alumniID.Hex(), "error", rerr)
			}
			if err != nil {
				return fmt.Errorf("claim mentor slot: %w", err)
			}
			return r.whyMentorUnavailable(ctx, alumniID)
		}
		return nil
	})
}

// slotKey addresses the last allowed position of assigned_students; when it
// exists the mentor is full.
func slotKey(capacity int) string {
	return fmt.Sprintf("alumni.assigned_students.%d", max(capacity, 1)-1)
}

// Unassign releases a current pair.
func (r *AssignmentsRepo) Unassign(ctx context.Context, alumniID, studentID bson.ObjectID) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	return withTxn(ctx, r.client, func(ctx context.Context) error {
		res, err := r.users.UpdateOne(ctx,
			bson.M{"_id": alumniID, "role": auth.RoleAlumni, "alumni.assigned_students": studentID},
			bson.M{
				"$pull": bson.M{"alumni.assigned_students": studentID},
				"$inc":  bson.M{"alumni.current_students": -1},
				"$set":  bson.M{"updated_at": time.Now().UTC()},
			},
		)
		if err != nil {
			return fmt.Errorf("release mentor slot: %w", err)
		}
		if res.MatchedCount == 0 {
			return mentorship.ErrNotAssigned
		}
		return r.releaseStudent(ctx, alumniID, studentID)
	})
}

// ReleaseStudent removes a deleted student from whichever mentor held them.
func (r *AssignmentsRepo) ReleaseStudent(ctx context.Context, studentID bson.ObjectID) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	_, err := r.users.UpdateMany(ctx,
		bson.M{"role": auth.RoleAlumni, "alumni.assigned_students": studentID},
		bson.M{
			"$pull": bson.M{"alumni.assigned_students": studentID},
			"$inc":  bson.M{"alumni.current_students": -1},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	return err
}

// ReleaseMentor makes every mentee of a deleted alumni available again.
func (r *AssignmentsRepo) ReleaseMentor(ctx context.Context, alumniID bson.ObjectID) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	_, err := r.users.UpdateMany(ctx,
		bson.M{"role": auth.RoleStudent, "student.assigned_alumni": alumniID},
		releaseStudentUpdate(),
	)
	return err
}

func (r *AssignmentsRepo) releaseStudent(ctx context.Context, alumniID, studentID bson.ObjectID) error {
	_, err := r.users.UpdateOne(ctx,
		bson.M{"_id": studentID, "student.assigned_alumni": alumniID},
		releaseStudentUpdate(),
	)
	if err != nil {
		return fmt.Errorf("release student: %w", err)
	}
	return nil
}

func releaseStudentUpdate() bson.M {
	return bson.M{
		"$set":   bson.M{"student.mentorship_status": auth.MentorshipAvailable, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"student.assigned_alumni": ""},
	}
}

func (r *AssignmentsRepo) whyStudentUnavailable(ctx context.Context, alumniID, studentID bson.ObjectID) error {
	var doc auth.User
	err := r.users.FindOne(ctx, bson.M{"_id": studentID},
		options.FindOne().SetProjection(bson.M{"role": 1, "student.assigned_alumni": 1}),
	).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return mentorship.ErrStudentNotFound
	case err != nil:
		return err
	case doc.Role != auth.RoleStudent || doc.Student == nil:
		return mentorship.ErrStudentNotFound
	case doc.Student.AssignedAlumni != nil && *doc.Student.AssignedAlumni == alumniID:
		return mentorship.ErrAlreadyAssigned
	default:
		return mentorship.ErrStudentTaken
	}
}

func (r *AssignmentsRepo) whyMentorUnavailable(ctx context.Context, alumniID bson.ObjectID) error {
	var doc auth.User
	err := r.users.FindOne(ctx, bson.M{"_id": alumniID},
		options.FindOne().SetProjection(bson.M{"role": 1, "alumni.is_approved": 1}),
	).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return mentorship.ErrMentorNotFound
	case err != nil:
		return err
	case doc.Role != auth.RoleAlumni || doc.Alumni == nil:
		return mentorship.ErrMentorNotFound
	case !doc.Alumni.IsApproved:
		return mentorship.ErrMentorNotApproved
	default:
		return mentorship.ErrMentorFull
	}
}
