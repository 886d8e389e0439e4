package mentorship

import (
	"io"
	"time"

	"alumni-portal/internal/services/auth"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Caller is the authenticated principal of a request.
type Caller struct {
	ID   bson.ObjectID
	Role auth.Role
}

// Attachment references a stored file blob.
type Attachment struct {
	ID          bson.ObjectID `bson:"id" json:"id" example:"683cdb8aa96ad71e8e075bd9"`
	Name        string        `bson:"name" json:"name" example:"resume.pdf"`
	ContentType string        `bson:"content_type" json:"content_type" example:"application/pdf"`
	Size        int64         `bson:"size" json:"size" example:"18233"`
}

// Reaction is one emoji left on a message. The same user may react more
// than once with the same emoji.
type Reaction struct {
	Emoji     string        `bson:"emoji" json:"emoji" example:"👍"`
	UserID    bson.ObjectID `bson:"user_id" json:"user_id"`
	Role      auth.Role     `bson:"role" json:"role" example:"student"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
}

// Message is one entry of the conversation between an alumni mentor and a student.
type Message struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"id,omitempty" example:"683cdb8aa96ad71e8e075bd1"`
	AlumniID   bson.ObjectID `bson:"alumni_id" json:"alumni_id"`
	StudentID  bson.ObjectID `bson:"student_id" json:"student_id"`
	SenderID   bson.ObjectID `bson:"sender_id" json:"sender_id"`
	SenderRole auth.Role     `bson:"sender_role" json:"sender_role" example:"alumni"`
	Text       string        `bson:"text,omitempty" json:"text,omitempty" example:"How is the project going?"`
	File       *Attachment   `bson:"file,omitempty" json:"file,omitempty"`
	Reactions  []Reaction    `bson:"reactions" json:"reactions"`
	CreatedAt  time.Time     `bson:"created_at" json:"created_at" example:"2025-06-01T23:00:26.005703677Z"`
}

// Participants returns the two user ids allowed to see m.
func (m *Message) Participants() [2]bson.ObjectID {
	return [2]bson.ObjectID{m.AlumniID, m.StudentID}
}

// HasParticipant reports whether id is one side of the conversation.
func (m *Message) HasParticipant(id bson.ObjectID) bool {
	return m.AlumniID == id || m.StudentID == id
}

// FileUpload is an attachment received with a new message.
type FileUpload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Blob is a downloaded attachment. The caller owns Body and must close it.
// Size is -1 when the length is not known up front.
type Blob struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// StudentCard is the public view of a student in mentorship listings.
type StudentCard struct {
	ID               string                `json:"id" example:"683cdb8aa96ad71e8e075bd1"`
	Email            string                `json:"email" example:"student@mgmcen.ac.in"`
	FirstName        string                `json:"first_name,omitempty"`
	LastName         string                `json:"last_name,omitempty"`
	Department       string                `json:"department"`
	Course           string                `json:"course"`
	CurrentYear      string                `json:"current_year"`
	Skills           []string              `json:"skills"`
	MentorshipStatus auth.MentorshipStatus `json:"mentorship_status" example:"Mentored"`
}

// MentorCard is the public view of an alumni mentor.
type MentorCard struct {
	ID              string `json:"id" example:"683cdb8aa96ad71e8e075bd0"`
	Email           string `json:"email" example:"a@x.com"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	CurrentCompany  string `json:"current_company,omitempty"`
	Designation     string `json:"designation,omitempty"`
	CurrentStudents int    `json:"current_students"`
}

func studentCard(u *auth.User) StudentCard {
	c := StudentCard{ID: u.ID.Hex(), Email: u.Email, Skills: []string{}}
	if s := u.Student; s != nil {
		c.FirstName, c.LastName = s.FirstName, s.LastName
		c.Department, c.Course, c.CurrentYear = s.Department, s.Course, s.CurrentYear
		c.MentorshipStatus = s.MentorshipStatus
		if s.Skills != nil {
			c.Skills = s.Skills
		}
	}
	return c
}

func mentorCard(u *auth.User) MentorCard {
	c := MentorCard{ID: u.ID.Hex(), Email: u.Email}
	if a := u.Alumni; a != nil {
		c.FirstName, c.LastName = a.FirstName, a.LastName
		c.CurrentCompany, c.Designation = a.CurrentCompany, a.Designation
		c.CurrentStudents = a.CurrentStudents
	}
	return c
}

func studentCards(users []*auth.User) []StudentCard {
	out := make([]StudentCard, 0, len(users))
	for _, u := range users {
		out = append(out, studentCard(u))
	}
	return out
}

// Skipped explains why a requested student was not assigned.
type Skipped struct {
	StudentID string `json:"student_id" example:"683cdb8aa96ad71e8e075bd1"`
	Reason    string `json:"reason" example:"student already has a mentor"`
}

// StartResult is the outcome of StartMentorship.
type StartResult struct {
	Message  string        `json:"message" example:"Mentorship started"`
	Assigned []string      `json:"assigned"`
	Skipped  []Skipped     `json:"skipped"`
	Mentees  []StudentCard `json:"mentees"`
}

// Assignment is one mentor with the students currently assigned to them.
type Assignment struct {
	Mentor  MentorCard    `json:"mentor"`
	Mentees []StudentCard `json:"mentees"`
}

// EventType names a change pushed to live subscribers.
type EventType string

const (
	EventCreated EventType = "created"
	EventReacted EventType = "reacted"
	EventDeleted EventType = "deleted"
)

// MessageEvent is a change to a conversation, delivered to both participants.
type MessageEvent struct {
	Type    EventType `json:"type"`
	Message *Message  `json:"message"`
}
