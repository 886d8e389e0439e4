package mentorship

import (
	"context"
	"errors"
	"fmt"

	"alumni-portal/internal/services/auth"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// StartRequest lists the students an alumni wants to mentor.
type StartRequest struct {
	StudentIDs []string `json:"studentIds" validate:"required,min=1,max=50,dive,mongodb" example:"683cdb8aa96ad71e8e075bd1"`
}

// PairRequest names a student/alumni pair for admin overrides.
type PairRequest struct {
	StudentID string `json:"studentId" validate:"required,mongodb" example:"683cdb8aa96ad71e8e075bd1"`
	AlumniID  string `json:"alumniId" validate:"required,mongodb" example:"683cdb8aa96ad71e8e075bd0"`
}

// ListAvailableStudents returns students with no mentor.
func (s *Service) ListAvailableStudents(ctx context.Context) ([]StudentCard, error) {
	users, err := s.users.ListStudentsByStatus(ctx, auth.MentorshipAvailable)
	if err != nil {
		return nil, fmt.Errorf("list available students: %w", err)
	}
	return studentCards(users), nil
}

// ListMentees returns the students currently assigned to alumniID.
func (s *Service) ListMentees(ctx context.Context, alumniID bson.ObjectID) ([]StudentCard, error) {
	users, err := s.users.ListMentees(ctx, alumniID)
	if err != nil {
		return nil, fmt.Errorf("list mentees: %w", err)
	}
	return studentCards(users), nil
}

// GetMentor returns the alumni assigned to studentID.
func (s *Service) GetMentor(ctx context.Context, studentID bson.ObjectID) (*MentorCard, error) {
	mentorID, err := s.mentorOf(ctx, studentID)
	if err != nil {
		return nil, err
	}
	mentor, err := s.users.FindByID(ctx, mentorID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, ErrNoMentor
		}
		return nil, err
	}
	card := mentorCard(mentor)
	return &card, nil
}

// StartMentorship assigns each listed student to alumniID until the mentor
// is full. Duplicate ids are ignored; students that cannot be assigned are
// reported in Skipped. ErrMentorFull is returned only when nothing could be
// assigned because the mentor had no free slot.
func (s *Service) StartMentorship(ctx context.Context, alumniID bson.ObjectID, studentIDs []bson.ObjectID) (*StartResult, error) {
	res := &StartResult{Assigned: []string{}, Skipped: []Skipped{}}
	seen := make(map[bson.ObjectID]struct{}, len(studentIDs))
	full := false

	for _, sid := range studentIDs {
		if _, dup := seen[sid]; dup {
			continue
		}
		seen[sid] = struct{}{}

		if full {
			res.Skipped = append(res.Skipped, Skipped{StudentID: sid.Hex(), Reason: ErrMentorFull.Error()})
			continue
		}

		err := s.assignments.Assign(ctx, alumniID, sid, s.capacity)
		switch {
		case err == nil:
			res.Assigned = append(res.Assigned, sid.Hex())
		case errors.Is(err, ErrMentorFull):
			full = true
			res.Skipped = append(res.Skipped, Skipped{StudentID: sid.Hex(), Reason: err.Error()})
		case errors.Is(err, ErrStudentTaken), errors.Is(err, ErrAlreadyAssigned), errors.Is(err, ErrStudentNotFound):
			res.Skipped = append(res.Skipped, Skipped{StudentID: sid.Hex(), Reason: err.Error()})
		default:
			return nil, err
		}
	}

	if len(res.Assigned) == 0 && full {
		return nil, ErrMentorFull
	}

	mentees, err := s.ListMentees(ctx, alumniID)
	if err != nil {
		return nil, err
	}
	res.Mentees = mentees
	res.Message = fmt.Sprintf("Mentorship started with %d student(s)", len(res.Assigned))

	s.log.Info("mentorship started", "alumni_id", alumniID.Hex(), "assigned", len(res.Assigned), "skipped", len(res.Skipped))
	return res, nil
}

// AdminAssign pairs one student with one alumni.
func (s *Service) AdminAssign(ctx context.Context, studentID, alumniID bson.ObjectID) error {
	if err := s.assignments.Assign(ctx, alumniID, studentID, s.capacity); err != nil {
		return err
	}
	s.log.Info("admin assigned mentorship", "alumni_id", alumniID.Hex(), "student_id", studentID.Hex())
	return nil
}

// AdminUnassign releases both sides of an existing pair.
func (s *Service) AdminUnassign(ctx context.Context, studentID, alumniID bson.ObjectID) error {
	if err := s.assignments.Unassign(ctx, alumniID, studentID); err != nil {
		return err
	}
	s.log.Info("admin unassigned mentorship", "alumni_id", alumniID.Hex(), "student_id", studentID.Hex())
	return nil
}

// ListAssignments returns every mentor with at least one mentee.
func (s *Service) ListAssignments(ctx context.Context) ([]Assignment, error) {
	mentors, err := s.users.ListActiveMentors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mentors: %w", err)
	}

	var ids []bson.ObjectID
	for _, m := range mentors {
		if m.Alumni != nil {
			ids = append(ids, m.Alumni.AssignedStudents...)
		}
	}
	students, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load mentees: %w", err)
	}
	byID := make(map[bson.ObjectID]*auth.User, len(students))
	for _, st := range students {
		byID[st.ID] = st
	}

	out := make([]Assignment, 0, len(mentors))
	for _, m := range mentors {
		a := Assignment{Mentor: mentorCard(m), Mentees: []StudentCard{}}
		for _, sid := range m.Alumni.AssignedStudents {
			if st, ok := byID[sid]; ok {
				a.Mentees = append(a.Mentees, studentCard(st))
			}
		}
		out = append(out, a)
	}
	return out, nil
}

// mentorOf returns the alumni id a student is assigned to.
func (s *Service) mentorOf(ctx context.Context, studentID bson.ObjectID) (bson.ObjectID, error) {
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return bson.ObjectID{}, ErrStudentNotFound
		}
		return bson.ObjectID{}, err
	}
	if student.Role != auth.RoleStudent || student.Student == nil {
		return bson.ObjectID{}, ErrStudentNotFound
	}
	if student.Student.AssignedAlumni == nil {
		return bson.ObjectID{}, ErrNoMentor
	}
	return *student.Student.AssignedAlumni, nil
}
