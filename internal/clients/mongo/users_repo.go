package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alumni-portal/internal/services/admin"
	"alumni-portal/internal/services/auth"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// UsersRepo stores every account in one collection keyed by role. It serves
// auth.UsersRepo, mentorship.Directory and admin.UsersRepo.
type UsersRepo struct {
	collection *mongo.Collection
}

// secretFields never leave the repository on list queries.
var secretFields = bson.M{"password_hash": 0, "reset_otp_hash": 0, "reset_otp_expires": 0}

// NewUsersRepo creates a new users repository
func NewUsersRepo(ctx context.Context, db *mongo.Database) (*UsersRepo, error) {
	collection := db.Collection("users")

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}, {Key: "student.mentorship_status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "student.assigned_alumni", Value: 1}},
		},
	}
	if err := ensureIndexes(ctx, collection, indexes); err != nil {
		return nil, err
	}

	return &UsersRepo{collection: collection}, nil
}

func translateUserNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return auth.ErrUserNotFound
	}
	return err
}

// Create creates a new user in the database
func (r *UsersRepo) Create(ctx context.Context, user *auth.User) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return auth.ErrDuplicate
		}
		return err
	}
	return nil
}

// FindByEmail finds a user by email address
func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByID finds a user by id
func (r *UsersRepo) FindByID(ctx context.Context, id bson.ObjectID) (*auth.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UsersRepo) findOne(ctx context.Context, filter bson.M) (*auth.User, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var user auth.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translateUserNotFound(err)
	}
	return &user, nil
}

// FindByIDs returns the users among ids that exist, in no particular order.
func (r *UsersRepo) FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]*auth.User, error) {
	if len(ids) == 0 {
		return []*auth.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(secretFields))
}

func (r *UsersRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]*auth.User, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[auth.User](ctx, cur)
}

func newestFirst() *options.FindOptionsBuilder {
	return options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetProjection(secretFields)
}

// SetResetOTP stores a hashed reset code and its expiry.
func (r *UsersRepo) SetResetOTP(ctx context.Context, id bson.ObjectID, otpHash string, expires time.Time) error {
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"reset_otp_hash":    otpHash,
			"reset_otp_expires": expires,
			"updated_at":        time.Now().UTC(),
		},
	})
}

// ResetPassword replaces the password hash and clears any reset code.
func (r *UsersRepo) ResetPassword(ctx context.Context, id bson.ObjectID, passwordHash string) error {
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":   bson.M{"password_hash": passwordHash, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"reset_otp_hash": "", "reset_otp_expires": ""},
	})
}

func (r *UsersRepo) updateOne(ctx context.Context, filter, update bson.M) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

// UpdateStudentProfile applies the non-nil fields of patch and marks the
// profile complete.
func (r *UsersRepo) UpdateStudentProfile(ctx context.Context, id bson.ObjectID, patch auth.StudentProfileUpdate) (*auth.User, error) {
	set := bson.M{}
	setIf(set, "student.first_name", patch.FirstName)
	setIf(set, "student.middle_name", patch.MiddleName)
	setIf(set, "student.last_name", patch.LastName)
	setIf(set, "student.phone", patch.Phone)
	setIf(set, "student.alt_phone", patch.AltPhone)
	setIf(set, "student.gender", patch.Gender)
	setIf(set, "student.dob", patch.DOB)
	setIf(set, "student.current_address", patch.CurrentAddress)
	setIf(set, "student.permanent_address", patch.PermanentAddress)
	setIf(set, "student.student_id", patch.StudentID)
	setIf(set, "student.department", patch.Department)
	setIf(set, "student.course", patch.Course)
	setIf(set, "student.current_year", patch.CurrentYear)
	setIf(set, "student.skills", patch.Skills)
	return r.updateProfile(ctx, id, auth.RoleStudent, set)
}

// UpdateAlumniProfile applies the non-nil fields of patch and marks the
// profile complete.
func (r *UsersRepo) UpdateAlumniProfile(ctx context.Context, id bson.ObjectID, patch auth.AlumniProfileUpdate) (*auth.User, error) {
	set := bson.M{}
	setIf(set, "alumni.first_name", patch.FirstName)
	setIf(set, "alumni.middle_name", patch.MiddleName)
	setIf(set, "alumni.last_name", patch.LastName)
	setIf(set, "alumni.phone", patch.Phone)
	setIf(set, "alumni.gender", patch.Gender)
	setIf(set, "alumni.dob", patch.DOB)
	setIf(set, "alumni.current_address", patch.CurrentAddress)
	setIf(set, "alumni.permanent_address", patch.PermanentAddress)
	setIf(set, "alumni.department", patch.Department)
	setIf(set, "alumni.course", patch.Course)
	setIf(set, "alumni.graduation_year", patch.GraduationYear)
	setIf(set, "alumni.current_company", patch.CurrentCompany)
	setIf(set, "alumni.designation", patch.Designation)
	return r.updateProfile(ctx, id, auth.RoleAlumni, set)
}

func setIf[T any](set bson.M, key string, v *T) {
	if v != nil {
		set[key] = *v
	}
}

func (r *UsersRepo) updateProfile(ctx context.Context, id bson.ObjectID, role auth.Role, set bson.M) (*auth.User, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	set["profile_completed"] = true
	set["updated_at"] = time.Now().UTC()

	var user auth.User
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "role": role},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		return nil, translateUserNotFound(err)
	}
	return &user, nil
}

// ListStudentsByStatus returns students in status, newest first.
func (r *UsersRepo) ListStudentsByStatus(ctx context.Context, status auth.MentorshipStatus) ([]*auth.User, error) {
	return r.find(ctx, bson.M{"role": auth.RoleStudent, "student.mentorship_status": status}, newestFirst())
}

// ListMentees returns the students whose assigned_alumni is alumniID.
func (r *UsersRepo) ListMentees(ctx context.Context, alumniID bson.ObjectID) ([]*auth.User, error) {
	return r.find(ctx, bson.M{"role": auth.RoleStudent, "student.assigned_alumni": alumniID}, newestFirst())
}

// ListActiveMentors returns alumni with at least one mentee.
func (r *UsersRepo) ListActiveMentors(ctx context.Context) ([]*auth.User, error) {
	return r.find(ctx, activeMentorsFilter(), newestFirst())
}

func activeMentorsFilter() bson.M {
	return bson.M{"role": auth.RoleAlumni, "alumni.current_students": bson.M{"$gt": 0}}
}

// CountByRole counts users with role.
func (r *UsersRepo) CountByRole(ctx context.Context, role auth.Role) (int64, error) {
	return r.count(ctx, bson.M{"role": role})
}

// CountStudentsInStatus counts students whose mentorship status is any of statuses.
func (r *UsersRepo) CountStudentsInStatus(ctx context.Context, statuses ...auth.MentorshipStatus) (int64, error) {
	return r.count(ctx, bson.M{"role": auth.RoleStudent, "student.mentorship_status": bson.M{"$in": statuses}})
}

// CountActiveMentors counts alumni with at least one mentee.
func (r *UsersRepo) CountActiveMentors(ctx context.Context) (int64, error) {
	return r.count(ctx, activeMentorsFilter())
}

func (r *UsersRepo) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()
	return r.collection.CountDocuments(ctx, filter)
}

// ListByRole returns users with role, newest first. limit <= 0 means all.
func (r *UsersRepo) ListByRole(ctx context.Context, role auth.Role, limit int64) ([]*auth.User, error) {
	opts := newestFirst()
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return r.find(ctx, bson.M{"role": role}, opts)
}

// ListPendingAlumni returns alumni an admin has not approved yet.
func (r *UsersRepo) ListPendingAlumni(ctx context.Context) ([]*auth.User, error) {
	return r.find(ctx, bson.M{"role": auth.RoleAlumni, "alumni.is_approved": bson.M{"$ne": true}}, newestFirst())
}

// ApproveAlumni sets is_approved and approval_date once.
func (r *UsersRepo) ApproveAlumni(ctx context.Context, id bson.ObjectID, at time.Time) error {
	err := r.updateOne(ctx,
		bson.M{"_id": id, "role": auth.RoleAlumni, "alumni.is_approved": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"alumni.is_approved": true, "alumni.approval_date": at, "updated_at": at}},
	)
	if !errors.Is(err, auth.ErrUserNotFound) {
		return err
	}
	n, cerr := r.count(ctx, bson.M{"_id": id, "role": auth.RoleAlumni})
	if cerr != nil {
		return fmt.Errorf("approve alumni: %w", cerr)
	}
	if n > 0 {
		return admin.ErrAlreadyApproved
	}
	return auth.ErrUserNotFound
}

// DeleteByID removes the user id if it has role.
func (r *UsersRepo) DeleteByID(ctx context.Context, id bson.ObjectID, role auth.Role) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "role": role})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

// UpdateAdminUsername renames an admin account.
func (r *UsersRepo) UpdateAdminUsername(ctx context.Context, id bson.ObjectID, username string) (*auth.User, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var user auth.User
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "role": auth.RoleAdmin},
		bson.M{"$set": bson.M{"admin.username": username, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		return nil, translateUserNotFound(err)
	}
	return &user, nil
}
