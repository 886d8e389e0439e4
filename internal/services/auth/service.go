package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"alumni-portal/internal/config"
	"alumni-portal/internal/utils/crypto"
	"alumni-portal/internal/utils/sanitize"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = crypto.MinPasswordLength

// Service handles authentication business logic
type Service struct {
	repo   UsersRepo
	mailer Mailer
	config config.Config
	log    *slog.Logger
	now    func() time.Time
}

// NewService creates a new auth service
func NewService(repo UsersRepo, mailer Mailer, cfg config.Config, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		mailer: mailer,
		config: cfg,
		log:    log,
		now:    time.Now,
	}
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email" example:"student@mgmcen.ac.in"`
	Password string `json:"password" validate:"required" example:"secret1"`
	Role     Role   `json:"role" validate:"required" example:"student"`
}

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"student@mgmcen.ac.in"`
	Password string `json:"password" validate:"required" example:"secret1"`
}

// AuthResponse represents the response for successful authentication
type AuthResponse struct {
	Message string      `json:"message,omitempty" example:"Login successful"`
	Token   string      `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	User    UserSummary `json:"user"`
}

// Register creates a student or alumni account and signs the caller in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)

	if req.Role != RoleStudent && req.Role != RoleAlumni {
		return nil, ErrInvalidRole
	}
	if len(req.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if req.Role == RoleStudent && !s.isInstitutionalEmail(email) {
		return nil, ErrInvalidEmailFormat
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		s.log.Error("failed to look up user by email", "error", err)
		return nil, fmt.Errorf("find user: %w", err)
	}

	hashedPassword, err := crypto.HashPassword(req.Password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &User{
		ID:           bson.NewObjectID(),
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         req.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	switch req.Role {
	case RoleStudent:
		user.Student = newStudent()
	case RoleAlumni:
		user.Alumni = newAlumni()
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", "user_id", user.ID.Hex(), "role", user.Role)

	return &AuthResponse{
		Message: "Registration successful",
		Token:   token,
		User:    user.Summary(),
	}, nil
}

// Login authenticates a user of any role with a single indexed lookup.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.log.Error("failed to find user by email", "error", err)
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := crypto.CheckPassword(req.Password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.Role == RoleAlumni && !user.IsApprovedAlumni() {
		return nil, ErrPendingApproval
	}

	token, err := s.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Message: "Login successful",
		Token:   token,
		User:    user.Summary(),
	}, nil
}

// Me returns the full document of the authenticated caller.
func (s *Service) Me(ctx context.Context, userID bson.ObjectID) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

// StudentProfileUpdate carries the student-editable profile fields.
// Nil fields are left untouched.
type StudentProfileUpdate struct {
	FirstName        *string   `json:"first_name,omitempty" validate:"omitempty,max=100"`
	MiddleName       *string   `json:"middle_name,omitempty" validate:"omitempty,max=100"`
	LastName         *string   `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Phone            *string   `json:"phone,omitempty" validate:"omitempty,max=20"`
	AltPhone         *string   `json:"alt_phone,omitempty" validate:"omitempty,max=20"`
	Gender           *string   `json:"gender,omitempty" validate:"omitempty,oneof=Male Female Other"`
	DOB              *string   `json:"dob,omitempty" validate:"omitempty,max=20"`
	CurrentAddress   *string   `json:"current_address,omitempty" validate:"omitempty,max=500"`
	PermanentAddress *string   `json:"permanent_address,omitempty" validate:"omitempty,max=500"`
	StudentID        *string   `json:"student_id,omitempty" validate:"omitempty,max=50"`
	Department       *string   `json:"department,omitempty" validate:"omitempty,max=100"`
	Course           *string   `json:"course,omitempty" validate:"omitempty,max=100"`
	CurrentYear      *string   `json:"current_year,omitempty" validate:"omitempty,max=20"`
	Skills           *[]string `json:"skills,omitempty" validate:"omitempty,max=50,dive,max=50"`
}

// AlumniProfileUpdate carries the alumni-editable profile fields.
// Nil fields are left untouched.
type AlumniProfileUpdate struct {
	FirstName        *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	MiddleName       *string `json:"middle_name,omitempty" validate:"omitempty,max=100"`
	LastName         *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Phone            *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Gender           *string `json:"gender,omitempty" validate:"omitempty,oneof=Male Female Other"`
	DOB              *string `json:"dob,omitempty" validate:"omitempty,max=20"`
	CurrentAddress   *string `json:"current_address,omitempty" validate:"omitempty,max=500"`
	PermanentAddress *string `json:"permanent_address,omitempty" validate:"omitempty,max=500"`
	Department       *string `json:"department,omitempty" validate:"omitempty,max=100"`
	Course           *string `json:"course,omitempty" validate:"omitempty,max=100"`
	GraduationYear   *int    `json:"graduation_year,omitempty" validate:"omitempty,min=1950,max=2100"`
	CurrentCompany   *string `json:"current_company,omitempty" validate:"omitempty,max=200"`
	Designation      *string `json:"designation,omitempty" validate:"omitempty,max=200"`
}

// UpdateStudentProfile patches the caller's student profile and marks it complete.
func (s *Service) UpdateStudentProfile(ctx context.Context, userID bson.ObjectID, patch StudentProfileUpdate) (*User, error) {
	cleanStrings(patch.FirstName, patch.MiddleName, patch.LastName, patch.Phone, patch.AltPhone,
		patch.DOB, patch.CurrentAddress, patch.PermanentAddress, patch.StudentID,
		patch.Department, patch.Course, patch.CurrentYear)
	if patch.Skills != nil {
		skills := make([]string, 0, len(*patch.Skills))
		for _, sk := range *patch.Skills {
			if sk = sanitize.Clean(sk); sk != "" {
				skills = append(skills, sk)
			}
		}
		patch.Skills = &skills
	}
	return s.repo.UpdateStudentProfile(ctx, userID, patch)
}

// UpdateAlumniProfile patches the caller's alumni profile and marks it complete.
func (s *Service) UpdateAlumniProfile(ctx context.Context, userID bson.ObjectID, patch AlumniProfileUpdate) (*User, error) {
	cleanStrings(patch.FirstName, patch.MiddleName, patch.LastName, patch.Phone,
		patch.DOB, patch.CurrentAddress, patch.PermanentAddress, patch.Department,
		patch.Course, patch.CurrentCompany, patch.Designation)
	return s.repo.UpdateAlumniProfile(ctx, userID, patch)
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
// An existing admin is left untouched; an existing non-admin with the same
// email is an error.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)

	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil && existing.Role == RoleAdmin:
		return nil
	case err == nil:
		return fmt.Errorf("bootstrap admin %s: %w", email, ErrUserExists)
	case !errors.Is(err, ErrUserNotFound):
		return fmt.Errorf("find admin: %w", err)
	}

	hashedPassword, err := crypto.HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &User{
		ID:               bson.NewObjectID(),
		Email:            email,
		PasswordHash:     hashedPassword,
		Role:             RoleAdmin,
		ProfileCompleted: true,
		Admin:            &AdminProfile{Username: strings.SplitN(email, "@", 2)[0]},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Create(ctx, user); err != nil && !errors.Is(err, ErrDuplicate) {
		return fmt.Errorf("create admin: %w", err)
	}

	s.log.Info("bootstrap admin ensured", "email", email)
	return nil
}

// GenerateAccessToken signs an HS256 token carrying userId, email and role.
func (s *Service) GenerateAccessToken(user *User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"userId": user.ID.Hex(),
		"email":  user.Email,
		"role":   string(user.Role),
		"iat":    now.Unix(),
		"exp":    now.Add(time.Duration(s.config.TokenTTLHours) * time.Hour).Unix(),
	}

	if !strings.EqualFold(s.config.JWTAlgorithm, "HS256") {
		return "", ErrGenAccessToken
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		s.log.Error("failed to sign token", "error", err)
		return "", ErrGenAccessToken
	}
	return token, nil
}

func (s *Service) isInstitutionalEmail(email string) bool {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return false
	}
	return email[at+1:] == strings.ToLower(s.config.StudentEmailDomain)
}

func cleanStrings(fields ...*string) {
	for _, f := range fields {
		if f != nil {
			*f = sanitize.Clean(*f)
		}
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
