package admin

import (
	"context"

	"alumni-portal/cmd/server/handlers/handlerutil"
	"alumni-portal/internal/services/admin"
	"alumni-portal/internal/services/auth"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// AdminService is the admin console used by the handlers.
type AdminService interface {
	Dashboard(ctx context.Context) (*admin.Dashboard, error)
	MentorshipStats(ctx context.Context) (*admin.MentorshipStats, error)
	ListStudents(ctx context.Context) ([]*auth.User, error)
	ListAlumni(ctx context.Context) ([]*auth.User, error)
	ListPendingAlumni(ctx context.Context) ([]*auth.User, error)
	ApproveAlumni(ctx context.Context, id bson.ObjectID) (*admin.ActionResponse, error)
	RejectAlumni(ctx context.Context, id bson.ObjectID) (*admin.ActionResponse, error)
	DeleteAlumni(ctx context.Context, id bson.ObjectID) error
	DeleteStudent(ctx context.Context, id bson.ObjectID) error
	GetProfile(ctx context.Context, adminID bson.ObjectID) (*auth.User, error)
	UpdateProfile(ctx context.Context, adminID bson.ObjectID, req admin.UpdateProfileRequest) (*auth.User, error)
}

// Handlers serves /api/admin.
type Handlers struct {
	svc       AdminService
	validator *validator.Validate
}

// NewHandlers creates new admin handlers
func NewHandlers(svc AdminService, validator *validator.Validate) *Handlers {
	return &Handlers{svc: svc, validator: validator}
}

type messageResponse struct {
	Message string `json:"message" example:"Student deleted"`
}

// Dashboard godoc
// @Summary Admin dashboard
// @Description Counts plus the most recent students, alumni and upcoming events.
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} admin.Dashboard
// @Failure 403 {object} httperr.E
// @Router /admin/dashboard [get]
func (h *Handlers) Dashboard(c *fiber.Ctx) error {
	d, err := h.svc.Dashboard(c.UserContext())
	if err != nil {
		return h.fail(c, err, "Dashboard")
	}
	return c.JSON(d)
}

// MentorshipStats godoc
// @Summary Mentorship statistics
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} admin.MentorshipStats
// @Failure 403 {object} httperr.E
// @Router /admin/mentorship-stats [get]
func (h *Handlers) MentorshipStats(c *fiber.Ctx) error {
	st, err := h.svc.MentorshipStats(c.UserContext())
	if err != nil {
		return h.fail(c, err, "MentorshipStats")
	}
	return c.JSON(st)
}

// ListStudents godoc
// @Summary List students
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {array} auth.User
// @Router /admin/students [get]
func (h *Handlers) ListStudents(c *fiber.Ctx) error {
	users, err := h.svc.ListStudents(c.UserContext())
	if err != nil {
		return h.fail(c, err, "ListStudents")
	}
	return c.JSON(users)
}

// ListAlumni godoc
// @Summary List alumni
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {array} auth.User
// @Router /admin/alumni [get]
func (h *Handlers) ListAlumni(c *fiber.Ctx) error {
	users, err := h.svc.ListAlumni(c.UserContext())
	if err != nil {
		return h.fail(c, err, "ListAlumni")
	}
	return c.JSON(users)
}

// ListPendingAlumni godoc
// @Summary List alumni waiting for approval
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {array} auth.User
// @Router /admin/pending-alumni [get]
func (h *Handlers) ListPendingAlumni(c *fiber.Ctx) error {
	users, err := h.svc.ListPendingAlumni(c.UserContext())
	if err != nil {
		return h.fail(c, err, "ListPendingAlumni")
	}
	return c.JSON(users)
}

// ApproveAlumni godoc
// @Summary Approve an alumni registration
// @Description Mail delivery is best effort; a failure is reported in emailError.
// @Tags admin
// @Produce json
// @Security Bearer
// @Param id path string true "Alumni ID"
// @Success 200 {object} admin.ActionResponse
// @Failure 400 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /admin/alumni/{id}/approve [post]
func (h *Handlers) ApproveAlumni(c *fiber.Ctx) error {
	id, err := handlerutil.ExtractObjectID(c, "id", "ApproveAlumni")
	if err != nil {
		return err
	}
	resp, err := h.svc.ApproveAlumni(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, "ApproveAlumni")
	}
	return c.JSON(resp)
}

// RejectAlumni godoc
// @Summary Reject and remove an alumni registration
// @Tags admin
// @Produce json
// @Security Bearer
// @Param id path string true "Alumni ID"
// @Success 200 {object} admin.ActionResponse
// @Failure 404 {object} httperr.E
// @Router /admin/alumni/{id}/reject [post]
func (h *Handlers) RejectAlumni(c *fiber.Ctx) error {
	id, err := handlerutil.ExtractObjectID(c, "id", "RejectAlumni")
	if err != nil {
		return err
	}
	resp, err := h.svc.RejectAlumni(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, "RejectAlumni")
	}
	return c.JSON(resp)
}

// DeleteAlumni godoc
// @Summary Delete an alumni
// @Tags admin
// @Produce json
// @Security Bearer
// @Param id path string true "Alumni ID"
// @Success 200 {object} messageResponse
// @Failure 404 {object} httperr.E
// @Router /admin/alumni/{id} [delete]
func (h *Handlers) DeleteAlumni(c *fiber.Ctx) error {
	id, err := handlerutil.ExtractObjectID(c, "id", "DeleteAlumni")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteAlumni(c.UserContext(), id); err != nil {
		return h.fail(c, err, "DeleteAlumni")
	}
	return c.JSON(messageResponse{Message: "Alumni deleted"})
}

// DeleteStudent godoc
// @Summary Delete a student
// @Tags admin
// @Produce json
// @Security Bearer
// @Param id path string true "Student ID"
// @Success 200 {object} messageResponse
// @Failure 404 {object} httperr.E
// @Router /admin/students/{id} [delete]
func (h *Handlers) DeleteStudent(c *fiber.Ctx) error {
	id, err := handlerutil.ExtractObjectID(c, "id", "DeleteStudent")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteStudent(c.UserContext(), id); err != nil {
		return h.fail(c, err, "DeleteStudent")
	}
	return c.JSON(messageResponse{Message: "Student deleted"})
}

// GetProfile godoc
// @Summary Get the calling admin
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} auth.User
// @Router /admin/profile [get]
func (h *Handlers) GetProfile(c *fiber.Ctx) error {
	adminID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}
	user, err := h.svc.GetProfile(c.UserContext(), adminID)
	if err != nil {
		return handlerutil.HandleServiceError(err, "GetProfile", adminID)
	}
	return c.JSON(user)
}

// UpdateProfile godoc
// @Summary Change the calling admin's username
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body admin.UpdateProfileRequest true "New username"
// @Success 200 {object} auth.User
// @Failure 400 {object} httperr.E
// @Router /admin/profile [put]
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	adminID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}
	var req admin.UpdateProfileRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "UpdateProfile"); err != nil {
		return err
	}
	user, err := h.svc.UpdateProfile(c.UserContext(), adminID, req)
	if err != nil {
		return handlerutil.HandleServiceError(err, "UpdateProfile", adminID)
	}
	return c.JSON(user)
}

func (h *Handlers) fail(c *fiber.Ctx, err error, handlerName string) error {
	adminID, _ := handlerutil.GetUserID(c)
	return handlerutil.HandleServiceError(err, handlerName, adminID)
}
