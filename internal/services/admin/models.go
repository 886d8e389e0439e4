package admin

import (
	"time"

	"alumni-portal/internal/services/auth"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Event is an association event. The admin console only counts and lists them.
type Event struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id,omitempty" example:"683cdb8aa96ad71e8e075be0"`
	Title       string        `bson:"title" json:"title" example:"Annual Alumni Meet"`
	Description string        `bson:"description,omitempty" json:"description,omitempty"`
	Date        time.Time     `bson:"date" json:"date" example:"2025-12-20T10:00:00Z"`
	Location    string        `bson:"location,omitempty" json:"location,omitempty" example:"Main Auditorium"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
}

// Counts are the headline numbers of the dashboard.
type Counts struct {
	Students int64 `json:"students" example:"120"`
	Alumni   int64 `json:"alumni" example:"45"`
	Events   int64 `json:"events" example:"6"`
}

// Dashboard is the admin landing view.
type Dashboard struct {
	Counts         Counts       `json:"counts"`
	RecentStudents []*auth.User `json:"recent_students"`
	RecentAlumni   []*auth.User `json:"recent_alumni"`
	UpcomingEvents []*Event     `json:"upcoming_events"`
}

// MentorshipStats summarizes the mentorship programme.
type MentorshipStats struct {
	TotalMentorships     int64 `json:"total_mentorships" example:"30"`
	ActiveMentorships    int64 `json:"active_mentorships" example:"24"`
	CompletedMentorships int64 `json:"completed_mentorships" example:"6"`
	AvailableStudents    int64 `json:"available_students" example:"90"`
	ActiveAlumniMentors  int64 `json:"active_alumni_mentors" example:"11"`
}

// ActionResponse reports an admin action. EmailError is set when the
// follow-up notification could not be sent; the action itself succeeded.
type ActionResponse struct {
	Message    string     `json:"message" example:"Alumni approved successfully"`
	User       *auth.User `json:"user,omitempty"`
	EmailError string     `json:"emailError,omitempty"`
}

// UpdateProfileRequest changes the admin display name.
type UpdateProfileRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50" example:"portal-admin"`
}
