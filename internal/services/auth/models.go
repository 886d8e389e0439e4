package auth

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Role is the discriminant of the User tagged union.
type Role string

const (
	RoleStudent Role = "student"
	RoleAlumni  Role = "alumni"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleAlumni, RoleAdmin:
		return true
	}
	return false
}

// MentorshipStatus tracks where a student is in the mentorship lifecycle.
type MentorshipStatus string

const (
	MentorshipAvailable MentorshipStatus = "Available"
	MentorshipMentored  MentorshipStatus = "Mentored"
	MentorshipCompleted MentorshipStatus = "Completed"
)

// Profile holds the personal fields shared by students and alumni.
type Profile struct {
	FirstName        string `bson:"first_name,omitempty" json:"first_name,omitempty" example:"Asha"`
	MiddleName       string `bson:"middle_name,omitempty" json:"middle_name,omitempty"`
	LastName         string `bson:"last_name,omitempty" json:"last_name,omitempty" example:"Patil"`
	Phone            string `bson:"phone,omitempty" json:"phone,omitempty" example:"9876543210"`
	Gender           string `bson:"gender" json:"gender" example:"Other"`
	DOB              string `bson:"dob,omitempty" json:"dob,omitempty" example:"2003-04-12"`
	CurrentAddress   string `bson:"current_address,omitempty" json:"current_address,omitempty"`
	PermanentAddress string `bson:"permanent_address,omitempty" json:"permanent_address,omitempty"`
}

// StudentProfile is the role payload of a student user.
type StudentProfile struct {
	Profile          `bson:",inline"`
	StudentID        string           `bson:"student_id,omitempty" json:"student_id,omitempty" example:"MGM2023IT042"`
	AltPhone         string           `bson:"alt_phone,omitempty" json:"alt_phone,omitempty"`
	Department       string           `bson:"department" json:"department" example:"Information Technology"`
	Course           string           `bson:"course" json:"course" example:"B. Tech. Information Technology"`
	CurrentYear      string           `bson:"current_year" json:"current_year" example:"1st Year"`
	MentorshipStatus MentorshipStatus `bson:"mentorship_status" json:"mentorship_status" example:"Available"`
	Skills           []string         `bson:"skills" json:"skills"`
	AssignedAlumni   *bson.ObjectID   `bson:"assigned_alumni,omitempty" json:"assigned_alumni,omitempty"`
}

// AlumniProfile is the role payload of an alumni user.
type AlumniProfile struct {
	Profile          `bson:",inline"`
	Department       string          `bson:"department,omitempty" json:"department,omitempty"`
	Course           string          `bson:"course,omitempty" json:"course,omitempty"`
	GraduationYear   int             `bson:"graduation_year,omitempty" json:"graduation_year,omitempty" example:"2018"`
	CurrentCompany   string          `bson:"current_company,omitempty" json:"current_company,omitempty"`
	Designation      string          `bson:"designation,omitempty" json:"designation,omitempty"`
	IsApproved       bool            `bson:"is_approved" json:"is_approved"`
	ApprovalDate     *time.Time      `bson:"approval_date,omitempty" json:"approval_date,omitempty"`
	CurrentStudents  int             `bson:"current_students" json:"current_students"`
	AssignedStudents []bson.ObjectID `bson:"assigned_students" json:"assigned_students"`
}

// AdminProfile is the role payload of an admin user.
type AdminProfile struct {
	Username string `bson:"username" json:"username" example:"admin"`
}

// User is a single account of any role. Exactly one of Student, Alumni and
// Admin is set, matching Role.
type User struct {
	ID               bson.ObjectID   `bson:"_id,omitempty" json:"id,omitempty" example:"683cdb8aa96ad71e8e075bd1"`
	Email            string          `bson:"email" json:"email" example:"student@mgmcen.ac.in"`
	PasswordHash     string          `bson:"password_hash" json:"-"`
	Role             Role            `bson:"role" json:"role" example:"student"`
	ProfileCompleted bool            `bson:"profile_completed" json:"profile_completed"`
	Student          *StudentProfile `bson:"student,omitempty" json:"student,omitempty"`
	Alumni           *AlumniProfile  `bson:"alumni,omitempty" json:"alumni,omitempty"`
	Admin            *AdminProfile   `bson:"admin,omitempty" json:"admin,omitempty"`
	ResetOTPHash     string          `bson:"reset_otp_hash,omitempty" json:"-"`
	ResetOTPExpires  *time.Time      `bson:"reset_otp_expires,omitempty" json:"-"`
	CreatedAt        time.Time       `bson:"created_at" json:"created_at" example:"2025-06-01T23:00:26.005703677Z"`
	UpdatedAt        time.Time       `bson:"updated_at" json:"updated_at" example:"2025-06-01T23:00:26.005703677Z"`
}

// IsApprovedAlumni reports whether u is an alumni account an admin has approved.
func (u *User) IsApprovedAlumni() bool {
	return u.Role == RoleAlumni && u.Alumni != nil && u.Alumni.IsApproved
}

// newStudent returns the default student payload created on registration.
func newStudent() *StudentProfile {
	return &StudentProfile{
		Profile:          Profile{Gender: "Other"},
		Department:       "Information Technology",
		Course:           "B. Tech. Information Technology",
		CurrentYear:      "1st Year",
		MentorshipStatus: MentorshipAvailable,
		Skills:           []string{},
	}
}

// newAlumni returns the default alumni payload created on registration.
func newAlumni() *AlumniProfile {
	return &AlumniProfile{
		Profile:          Profile{Gender: "Other"},
		AssignedStudents: []bson.ObjectID{},
	}
}

// UserSummary is the compact user view returned with tokens.
type UserSummary struct {
	ID               string `json:"id" example:"683cdb8aa96ad71e8e075bd1"`
	Email            string `json:"email" example:"student@mgmcen.ac.in"`
	Role             Role   `json:"role" example:"student"`
	ProfileCompleted bool   `json:"profile_completed"`
	IsApproved       *bool  `json:"is_approved,omitempty"`
}

// Summary builds the compact view of u.
func (u *User) Summary() UserSummary {
	s := UserSummary{
		ID:               u.ID.Hex(),
		Email:            u.Email,
		Role:             u.Role,
		ProfileCompleted: u.ProfileCompleted,
	}
	if u.Role == RoleAlumni {
		approved := u.IsApprovedAlumni()
		s.IsApproved = &approved
	}
	return s
}
