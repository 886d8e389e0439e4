package mentorship

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"alumni-portal/cmd/server/handlers/handlerutil"
	"alumni-portal/cmd/server/handlers/httperr"
	"alumni-portal/internal/logger"
	"alumni-portal/internal/services/mentorship"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// MentorshipService is the mentorship component used by the handlers.
type MentorshipService interface {
	ListAvailableStudents(ctx context.Context) ([]mentorship.StudentCard, error)
	ListMentees(ctx context.Context, alumniID bson.ObjectID) ([]mentorship.StudentCard, error)
	GetMentor(ctx context.Context, studentID bson.ObjectID) (*mentorship.MentorCard, error)
	StartMentorship(ctx context.Context, alumniID bson.ObjectID, studentIDs []bson.ObjectID) (*mentorship.StartResult, error)
	AdminAssign(ctx context.Context, studentID, alumniID bson.ObjectID) error
	AdminUnassign(ctx context.Context, studentID, alumniID bson.ObjectID) error
	ListAssignments(ctx context.Context) ([]mentorship.Assignment, error)

	SendMessage(ctx context.Context, in mentorship.SendInput) (*mentorship.Message, error)
	ListMessages(ctx context.Context, caller mentorship.Caller, counterpart bson.ObjectID) ([]*mentorship.Message, error)
	AddReaction(ctx context.Context, caller mentorship.Caller, messageID bson.ObjectID, emoji string) (*mentorship.Message, error)
	DeleteMessage(ctx context.Context, caller mentorship.Caller, messageID bson.ObjectID) error
	DownloadFile(ctx context.Context, caller mentorship.Caller, fileID bson.ObjectID) (*mentorship.Blob, error)
}

// Handlers serves /api/mentorship.
type Handlers struct {
	svc       MentorshipService
	validator *validator.Validate
}

// NewHandlers creates new mentorship handlers
func NewHandlers(svc MentorshipService, validator *validator.Validate) *Handlers {
	return &Handlers{svc: svc, validator: validator}
}

// SendMessageRequest is the JSON form of a text-only message. Attachments
// are sent as multipart/form-data with the same field names plus "file".
type SendMessageRequest struct {
	Message   string `json:"message" form:"message" validate:"max=5000" example:"How is the project going?"`
	StudentID string `json:"studentId" form:"studentId" validate:"omitempty,mongodb" example:"683cdb8aa96ad71e8e075bd1"`
	AlumniID  string `json:"alumniId" form:"alumniId" validate:"omitempty,mongodb" example:"683cdb8aa96ad71e8e075bd0"`
}

// counterpart picks the id of the other side of the conversation.
func (r SendMessageRequest) counterpart() string {
	if r.StudentID != "" {
		return r.StudentID
	}
	return r.AlumniID
}

type messageResponse struct {
	Message string `json:"message" example:"Assignment updated"`
}

// AvailableStudents godoc
// @Summary Students without a mentor
// @Tags mentorship
// @Produce json
// @Security Bearer
// @Success 200 {array} mentorship.StudentCard
// @Failure 403 {object} httperr.E
// @Router /mentorship/available-students [get]
func (h *Handlers) AvailableStudents(c *fiber.Ctx) error {
	cards, err := h.svc.ListAvailableStudents(c.UserContext())
	if err != nil {
		return h.fail(c, err, "AvailableStudents")
	}
	return c.JSON(cards)
}

// Mentees godoc
// @Summary Students mentored by the caller
// @Tags mentorship
// @Produce json
// @Security Bearer
// @Success 200 {array} mentorship.StudentCard
// @Router /mentorship/mentees [get]
func (h *Handlers) Mentees(c *fiber.Ctx) error {
	caller, err := handlerutil.GetCaller(c)
	if err != nil {
		return err
	}
	cards, err := h.svc.ListMentees(c.UserContext(), caller.ID)
	if err != nil {
		return h.fail(c, err, "Mentees")
	}
	return c.JSON(cards)
}

// Mentor godoc
// @Summary The caller's assigned mentor
// @Tags mentorship
// @Produce json
// @Security Bearer
// @Success 200 {object} mentorship.MentorCard
// @Failure 404 {object} httperr.E
// @Router /mentorship/mentor [get]
func (h *Handlers) Mentor(c *fiber.Ctx) error {
	caller, err := handlerutil.GetCaller(c)
	if err != nil {
		return err
	}
	card, err := h.svc.GetMentor(c.UserContext(), caller.ID)
	if err != nil {
		return h.fail(c, err, "Mentor")
	}
	return c.JSON(card)
}

// Start godoc
// @Summary Start mentoring students
// @Description Assigns each listed student until the caller reaches the mentor capacity. Students that cannot be assigned are reported in skipped.
// @Tags mentorship
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body mentorship.StartRequest true "Students to mentor"
// @Success 200 {object} mentorship.StartResult
// @Failure 400 {object} httperr.E
// @Failure 409 {object} httperr.E
// @Router /mentorship/start [post]
func (h *Handlers) Start(c *fiber.Ctx) error {
	caller, err := handlerutil.GetCaller(c)
	if err != nil {
		return err
	}
	var req mentorship.StartRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "Start"); err != nil {
		return err
	}

	ids := make([]bson.ObjectID, 0, len(req.StudentIDs))
	for _, raw := range req.StudentIDs {
		id, err := handlerutil.ParseObjectID(raw, "studentIds", "Start")
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	res, err := h.svc.StartMentorship(c.UserContext(), caller.ID, ids)
	if err != nil {
		return h.fail(c, err, "Start")
	}
	return c.JSON(res)
}

// SendMessage godoc
// @Summary Send a message
// @Description Text, attachment or both. Alumni name the student with studentId; students always write to their mentor.
// @Tags mentorship
// @Accept json,mpfd
// @Produce json
// @Security Bearer
// @Param message formData string false "Message text"
// @Param studentId formData string false "Student ID (alumni callers)"
// @Param file formData file false "Attachment"
// @Success 201 {object} mentorship.Message
// @Failure 400 {object} httperr.E
// @Failure 403 {object} httperr.E
// @Failure 413 {object} httperr.E
// @Router /mentorship/messages [post]
func (h *Handlers) SendMessage(c *fiber.Ctx) error {
	caller, err := handlerutil.GetCaller(c)
	if err != nil {
		return err
	}

	var req SendMessageRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "SendMessage"); err != nil {
		return err
	}
	counterpart, err := handlerutil.ParseObjectID(req.counterpart(), "studentId", "SendMessage")
	if err != nil {
		return err
	}

	in := mentorship.SendInput{Caller: caller, Counterpart: counterpart, Text: req.Message}

	fh, err := formFile(c)
	if err != nil {
		logger.L().Warn("failed to read attachment", "handler", "SendMessage", "userID", caller.ID.Hex(), "error", err)
		return httperr.Fail(httperr.ErrBadRequest)
	}
	if fh != nil {
		f, err := fh.Open()
		if err != nil {
			logger.L().Error("failed to open attachment", "handler", "SendMessage", "userID", caller.ID.Hex(), "error", err)
			return httperr.Fail(httperr.ErrInternal)
		}
		defer f.Close()
		in.File = &mentorship.FileUpload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Size:        fh.Size,
			Body:        f,
		}
	}

	msg, err := h.svc.SendMessage(c.UserContext(), in)
	if err != nil {
		return h.fail(c, err, "SendMessage")
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// formFile returns the optional "file" part of a multipart request.
func formFile(c *fiber.Ctx) (*multipart.FileHeader, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	fh, err := c.FormFile("file")
	if errors.Is(err, fasthttp.ErrMissingFile) {
		return nil, nil
	}
	return fh, err
}

// ListMessages godoc
// @Summary Conversation with a mentee or the mentor
// @Tags mentorship
// @Produce json
// @Security Bearer
// @Param studentId query string false "Student ID (alumni callers)"
// @Success 200 {array} mentorship.Message
// @Failure 403 {object} httperr.E
// @Router /mentorship/messages [get]
func (h *Handlers) ListMessages(c *fiber.Ctx) error {
	caller, err := handlerutil.GetCaller(c)
	if err != nil {
		return err
	}
	raw := c.Query("studentId")
	if raw == "" {
		raw = c.Query("alumniId")
	}
	counterpart, err := handlerutil.ParseObjectID(raw, "studentId", "ListMessages")
	if err != nil {
		return err
	}

	msgs, err := h.svc.ListMessages(c.UserContext(), caller, counterpart)
	if err != nil {
		return h.fail(c, err, "ListMessages")
	}
	if msgs == nil {
		msgs = []*mentorship.Message{}
	}
	return c.JSON(msgs)
}

// AddReaction godoc
// @Summary React to a message
// @Tags mentorship
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Message ID"
// @Param request body mentorship.ReactionRequest true "Emoji"
// @Success 200 {object} mentorship.Message
// @Failure 400 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /mentorship/messages/{id}/reactions [post]
func (h *Handlers) AddReaction(c *fiber.Ctx) error {
	caller, err := handlerutil.GetCaller(c)
	if err != nil {
		return err
	}
	id, err := handlerutil.ExtractObjectID(c, "id", "AddReaction")
	if err != nil {
		return err
	}
	var req mentorship.ReactionRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "AddReaction"); err != nil {
		return err
	}

	msg, err := h.svc.AddReaction(c.UserContext(), caller, id, req.Emoji)
	if err != nil {
		return h.fail(c, err, "AddReaction")
	}
	return c.JSON(msg)
}

// DeleteMessage godoc
// @Summary Delete a message
// @Description Only the alumni side of the conversation may delete.
// @Tags mentorship
// @Produce json
// @Security Bearer
// @Param id path string true "Message ID"
// @Success 200 {object} messageResponse
// @Failure 403 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /mentorship/messages/{id} [delete]
func (h *Handlers) DeleteMessage(c *fiber.Ctx) error {
	caller, err := handlerutil.GetCaller(c)
	if err != nil {
		return err
	}
	id, err := handlerutil.ExtractObjectID(c, "id", "DeleteMessage")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteMessage(c.UserContext(), caller, id); err != nil {
		return h.fail(c, err, "DeleteMessage")
	}
	return c.JSON(messageResponse{Message: "Message deleted"})
}

// DownloadFile godoc
// @Summary Download an attachment
// @Tags mentorship
// @Produce octet-stream
// @Security Bearer
// @Param id path string true "File ID"
// @Success 200 {file} file
// @Failure 403 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /mentorship/files/{id} [get]
func (h *Handlers) DownloadFile(c *fiber.Ctx) error {
	caller, err := handlerutil.GetCaller(c)
	if err != nil {
		return err
	}
	id, err := handlerutil.ExtractObjectID(c, "id", "DownloadFile")
	if err != nil {
		return err
	}

	blob, err := h.svc.DownloadFile(c.UserContext(), caller, id)
	if err != nil {
		return h.fail(c, err, "DownloadFile")
	}

	c.Attachment(blob.Name)
	if blob.ContentType != "" {
		c.Set(fiber.HeaderContentType, blob.ContentType)
	}
	// fasthttp closes Body once the response has been written.
	return c.SendStream(blob.Body, int(blob.Size))
}

// Assign godoc
// @Summary Assign a student to an alumni
// @Tags mentorship-admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body mentorship.PairRequest true "Pair"
// @Success 200 {object} messageResponse
// @Failure 404 {object} httperr.E
// @Failure 409 {object} httperr.E
// @Router /mentorship/admin/assign [post]
func (h *Handlers) Assign(c *fiber.Ctx) error {
	studentID, alumniID, err := h.parsePair(c, "Assign")
	if err != nil {
		return err
	}
	if err := h.svc.AdminAssign(c.UserContext(), studentID, alumniID); err != nil {
		return h.fail(c, err, "Assign")
	}
	return c.JSON(messageResponse{Message: "Student assigned"})
}

// Unassign godoc
// @Summary Remove a student from an alumni
// @Tags mentorship-admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body mentorship.PairRequest true "Pair"
// @Success 200 {object} messageResponse
// @Failure 404 {object} httperr.E
// @Router /mentorship/admin/unassign [post]
func (h *Handlers) Unassign(c *fiber.Ctx) error {
	studentID, alumniID, err := h.parsePair(c, "Unassign")
	if err != nil {
		return err
	}
	if err := h.svc.AdminUnassign(c.UserContext(), studentID, alumniID); err != nil {
		return h.fail(c, err, "Unassign")
	}
	return c.JSON(messageResponse{Message: "Student unassigned"})
}

// Assignments godoc
// @Summary Mentors with their current mentees
// @Tags mentorship-admin
// @Produce json
// @Security Bearer
// @Success 200 {array} mentorship.Assignment
// @Router /mentorship/admin/assignments [get]
func (h *Handlers) Assignments(c *fiber.Ctx) error {
	list, err := h.svc.ListAssignments(c.UserContext())
	if err != nil {
		return h.fail(c, err, "Assignments")
	}
	return c.JSON(list)
}

func (h *Handlers) parsePair(c *fiber.Ctx, handlerName string) (studentID, alumniID bson.ObjectID, err error) {
	var req mentorship.PairRequest
	if err = handlerutil.ParseAndValidateBody(c, &req, h.validator, handlerName); err != nil {
		return
	}
	if studentID, err = handlerutil.ParseObjectID(req.StudentID, "studentId", handlerName); err != nil {
		return
	}
	alumniID, err = handlerutil.ParseObjectID(req.AlumniID, "alumniId", handlerName)
	return
}

func (h *Handlers) fail(c *fiber.Ctx, err error, handlerName string) error {
	userID, _ := handlerutil.GetUserID(c)
	return handlerutil.HandleServiceError(err, handlerName, userID)
}
