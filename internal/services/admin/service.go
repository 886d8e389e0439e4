package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"alumni-portal/internal/services/auth"
	"alumni-portal/internal/utils/sanitize"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/sync/errgroup"
)

const dashboardListSize = 5

// Service implements the admin console.
type Service struct {
	users   UsersRepo
	release MentorshipReleaser
	events  EventsRepo
	mailer  Mailer
	log     *slog.Logger
	now     func() time.Time
}

// NewService creates a new admin service
func NewService(users UsersRepo, release MentorshipReleaser, events EventsRepo, mailer Mailer, log *slog.Logger) *Service {
	return &Service{
		users:   users,
		release: release,
		events:  events,
		mailer:  mailer,
		log:     log,
		now:     time.Now,
	}
}

// Dashboard gathers counts and the most recent records in parallel.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		d.Counts.Students, err = s.users.CountByRole(gctx, auth.RoleStudent)
		return err
	})
	g.Go(func() (err error) {
		d.Counts.Alumni, err = s.users.CountByRole(gctx, auth.RoleAlumni)
		return err
	})
	g.Go(func() (err error) {
		d.Counts.Events, err = s.events.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.RecentStudents, err = s.users.ListByRole(gctx, auth.RoleStudent, dashboardListSize)
		return err
	})
	g.Go(func() (err error) {
		d.RecentAlumni, err = s.users.ListByRole(gctx, auth.RoleAlumni, dashboardListSize)
		return err
	})
	g.Go(func() (err error) {
		d.UpcomingEvents, err = s.events.ListUpcoming(gctx, s.now().UTC(), dashboardListSize)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	if d.RecentStudents == nil {
		d.RecentStudents = []*auth.User{}
	}
	if d.RecentAlumni == nil {
		d.RecentAlumni = []*auth.User{}
	}
	if d.UpcomingEvents == nil {
		d.UpcomingEvents = []*Event{}
	}
	return &d, nil
}

// MentorshipStats counts students per mentorship status and active mentors.
func (s *Service) MentorshipStats(ctx context.Context) (*MentorshipStats, error) {
	var st MentorshipStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		st.ActiveMentorships, err = s.users.CountStudentsInStatus(gctx, auth.MentorshipMentored)
		return err
	})
	g.Go(func() (err error) {
		st.CompletedMentorships, err = s.users.CountStudentsInStatus(gctx, auth.MentorshipCompleted)
		return err
	})
	g.Go(func() (err error) {
		st.AvailableStudents, err = s.users.CountStudentsInStatus(gctx, auth.MentorshipAvailable)
		return err
	})
	g.Go(func() (err error) {
		st.ActiveAlumniMentors, err = s.users.CountActiveMentors(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("mentorship stats: %w", err)
	}
	st.TotalMentorships = st.ActiveMentorships + st.CompletedMentorships
	return &st, nil
}

// ListStudents returns every student, newest first.
func (s *Service) ListStudents(ctx context.Context) ([]*auth.User, error) {
	return s.listByRole(ctx, auth.RoleStudent)
}

// ListAlumni returns every alumni, newest first.
func (s *Service) ListAlumni(ctx context.Context) ([]*auth.User, error) {
	return s.listByRole(ctx, auth.RoleAlumni)
}

func (s *Service) listByRole(ctx context.Context, role auth.Role) ([]*auth.User, error) {
	users, err := s.users.ListByRole(ctx, role, 0)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", role, err)
	}
	if users == nil {
		users = []*auth.User{}
	}
	return users, nil
}

// ListPendingAlumni returns alumni waiting for approval.
func (s *Service) ListPendingAlumni(ctx context.Context) ([]*auth.User, error) {
	users, err := s.users.ListPendingAlumni(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending alumni: %w", err)
	}
	if users == nil {
		users = []*auth.User{}
	}
	return users, nil
}

// msgEmailNotDelivered is what clients see when a notification mail fails.
// Provider details stay in the log.
const msgEmailNotDelivered = "notification email could not be delivered"

// ApproveAlumni lets an alumni log in and notifies them by mail.
func (s *Service) ApproveAlumni(ctx context.Context, id bson.ObjectID) (*ActionResponse, error) {
	user, err := s.findRole(ctx, id, auth.RoleAlumni, ErrAlumniNotFound)
	if err != nil {
		return nil, err
	}
	if user.IsApprovedAlumni() {
		return nil, ErrAlreadyApproved
	}
	if strings.TrimSpace(user.Email) == "" {
		return nil, ErrMissingEmail
	}

	at := s.now().UTC()
	if err := s.users.ApproveAlumni(ctx, id, at); err != nil {
		if errors.Is(err, ErrAlreadyApproved) || errors.Is(err, auth.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("approve alumni: %w", err)
	}
	if user.Alumni == nil {
		user.Alumni = &auth.AlumniProfile{AssignedStudents: []bson.ObjectID{}}
	}
	user.Alumni.IsApproved = true
	user.Alumni.ApprovalDate = &at
	user.UpdatedAt = at

	resp := &ActionResponse{Message: "Alumni approved successfully", User: user}
	if err := s.mailer.SendApproval(ctx, user.Email, displayName(user)); err != nil {
		s.log.Warn("approval email failed", "user_id", id.Hex(), "error", err)
		resp.EmailError = msgEmailNotDelivered
	}
	s.log.Info("alumni approved", "user_id", id.Hex())
	return resp, nil
}

// RejectAlumni removes an alumni registration and notifies the applicant.
func (s *Service) RejectAlumni(ctx context.Context, id bson.ObjectID) (*ActionResponse, error) {
	user, err := s.findRole(ctx, id, auth.RoleAlumni, ErrAlumniNotFound)
	if err != nil {
		return nil, err
	}
	if err := s.deleteAlumni(ctx, id); err != nil {
		return nil, err
	}

	resp := &ActionResponse{Message: "Alumni rejected and removed"}
	if user.Email != "" {
		if err := s.mailer.SendRejection(ctx, user.Email, displayName(user)); err != nil {
			s.log.Warn("rejection email failed", "user_id", id.Hex(), "error", err)
			resp.EmailError = msgEmailNotDelivered
		}
	}
	s.log.Info("alumni rejected", "user_id", id.Hex())
	return resp, nil
}

// DeleteAlumni removes an alumni and frees their mentees.
func (s *Service) DeleteAlumni(ctx context.Context, id bson.ObjectID) error {
	if _, err := s.findRole(ctx, id, auth.RoleAlumni, ErrAlumniNotFound); err != nil {
		return err
	}
	if err := s.deleteAlumni(ctx, id); err != nil {
		return err
	}
	s.log.Info("alumni deleted", "user_id", id.Hex())
	return nil
}

func (s *Service) deleteAlumni(ctx context.Context, id bson.ObjectID) error {
	if err := s.users.DeleteByID(ctx, id, auth.RoleAlumni); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return ErrAlumniNotFound
		}
		return fmt.Errorf("delete alumni: %w", err)
	}
	if err := s.release.ReleaseMentor(ctx, id); err != nil {
		return fmt.Errorf("release mentees: %w", err)
	}
	return nil
}

// DeleteStudent removes a student and frees their mentor's slot.
func (s *Service) DeleteStudent(ctx context.Context, id bson.ObjectID) error {
	if _, err := s.findRole(ctx, id, auth.RoleStudent, ErrStudentNotFound); err != nil {
		return err
	}
	if err := s.users.DeleteByID(ctx, id, auth.RoleStudent); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("delete student: %w", err)
	}
	if err := s.release.ReleaseStudent(ctx, id); err != nil {
		return fmt.Errorf("release mentor slot: %w", err)
	}
	s.log.Info("student deleted", "user_id", id.Hex())
	return nil
}

// GetProfile returns the calling admin.
func (s *Service) GetProfile(ctx context.Context, adminID bson.ObjectID) (*auth.User, error) {
	return s.findRole(ctx, adminID, auth.RoleAdmin, ErrAdminNotFound)
}

// UpdateProfile changes the calling admin's username.
func (s *Service) UpdateProfile(ctx context.Context, adminID bson.ObjectID, req UpdateProfileRequest) (*auth.User, error) {
	username := sanitize.Clean(req.Username)
	if username == "" {
		return nil, ErrInvalidUsername
	}
	user, err := s.users.UpdateAdminUsername(ctx, adminID, username)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("update admin profile: %w", err)
	}
	return user, nil
}

// findRole loads id and maps a missing user or a role mismatch to notFound.
func (s *Service) findRole(ctx context.Context, id bson.ObjectID, role auth.Role, notFound error) (*auth.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, notFound
		}
		return nil, err
	}
	if user.Role != role {
		return nil, notFound
	}
	return user, nil
}

func displayName(u *auth.User) string {
	if u.Alumni != nil {
		if name := strings.TrimSpace(u.Alumni.FirstName + " " + u.Alumni.LastName); name != "" {
			return name
		}
	}
	if i := strings.IndexByte(u.Email, '@'); i > 0 {
		return u.Email[:i]
	}
	return u.Email
}
