package main

import (
	"context"
	"fmt"
	"time"

	"alumni-portal/cmd/server/handlers"
	adminHandlers "alumni-portal/cmd/server/handlers/admin"
	authHandlers "alumni-portal/cmd/server/handlers/auth"
	"alumni-portal/cmd/server/handlers/httperr"
	mentorshipHandlers "alumni-portal/cmd/server/handlers/mentorship"
	"alumni-portal/cmd/server/middlewares"
	"alumni-portal/internal/clients/mail"
	"alumni-portal/internal/clients/mongo"
	"alumni-portal/internal/config"
	"alumni-portal/internal/logger"
	adminServices "alumni-portal/internal/services/admin"
	authServices "alumni-portal/internal/services/auth"
	mentorshipServices "alumni-portal/internal/services/mentorship"
	util "alumni-portal/internal/utils"

	_ "alumni-portal/docs" // Load swagger docs

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
)

const (
	RateLimitExpiration = 1 * time.Minute

	// multipart envelope on top of the attachment itself
	bodyLimitSlack = 1 << 20
)

// services is the wired domain layer behind the HTTP surface.
type services struct {
	auth       *authServices.Service
	admin      *adminServices.Service
	mentorship *mentorshipServices.Service
	hub        *mentorshipServices.Hub
}

// newServices builds repositories on the connected mongo client and the
// services on top of them.
func newServices(ctx context.Context, cfg config.Config) (*services, error) {
	db := mongo.DB()

	usersRepo, err := mongo.NewUsersRepo(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("users repo: %w", err)
	}
	messagesRepo, err := mongo.NewMessagesRepo(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("messages repo: %w", err)
	}
	eventsRepo, err := mongo.NewEventsRepo(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("events repo: %w", err)
	}
	assignmentsRepo := mongo.NewAssignmentsRepo(mongo.Client(), db)
	attachmentsRepo := mongo.NewAttachmentsRepo(db)

	mailer := mail.New(cfg, logger.L())
	hub := mentorshipServices.NewHub(cfg.WSOutboxBuffer)

	return &services{
		auth:       authServices.NewService(usersRepo, mailer, cfg, logger.L()),
		admin:      adminServices.NewService(usersRepo, assignmentsRepo, eventsRepo, mailer, logger.L()),
		mentorship: mentorshipServices.NewService(usersRepo, assignmentsRepo, messagesRepo, attachmentsRepo, hub, cfg, logger.L()),
		hub:        hub,
	}, nil
}

// routeHandlers groups the HTTP handlers mounted by newApp.
type routeHandlers struct {
	auth       *authHandlers.Handlers
	admin      *adminHandlers.Handlers
	mentorship *mentorshipHandlers.Handlers
	ws         *mentorshipHandlers.WebSocketHandlers
	hub        middlewares.HubStats
}

// setupRouter configures and returns a Fiber app with all routes
func setupRouter(cfg config.Config, svcs *services) *fiber.App {
	v := util.NewValidator()

	return newApp(cfg, routeHandlers{
		auth:       authHandlers.NewHandlers(svcs.auth, v),
		admin:      adminHandlers.NewHandlers(svcs.admin, v),
		mentorship: mentorshipHandlers.NewHandlers(svcs.mentorship, v),
		ws:         mentorshipHandlers.NewWebSocketHandlers(svcs.hub, cfg.JWTSecret, cfg.WSMaxSessionSec),
		hub:        svcs.hub,
	})
}

func newApp(cfg config.Config, h routeHandlers) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: httperr.Handler,
		Immutable:    true, // make Fiber copy all request-derived strings
		BodyLimit:    int(cfg.MaxAttachmentBytes()) + bodyLimitSlack,
	})

	// Global middlewares
	app.Use(recover.New())
	if origins := allowedOrigins(cfg); origins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: origins,
			AllowHeaders: "Content-Type, Authorization",
		}))
	}

	if cfg.RouteMetricsEnabled {
		middlewares.AttachMetrics(app, h.hub)
	}

	// Health check endpoint, outside versioned API to appease scanners and to avoid logging
	app.Get("/healthz", handlers.Healthz)

	app.Get("/docs/*", swagger.HandlerDefault)

	var api fiber.Router
	if cfg.RequestLoggingEnabled {
		api = app.Group("/api", fiberlogger.New())
		logger.L().Info("request logging enabled")
	} else {
		api = app.Group("/api")
		logger.L().Info("request logging disabled")
	}

	jwtMiddleware := middlewares.JWT(cfg)
	student := middlewares.RequireRole(authServices.RoleStudent)
	alumni := middlewares.RequireRole(authServices.RoleAlumni)
	participant := middlewares.RequireRole(authServices.RoleAlumni, authServices.RoleStudent)
	admin := middlewares.RequireRole(authServices.RoleAdmin)

	authGrp := api.Group("/auth", middlewares.BuildRateLimiter(cfg.SignInRatePerMin, RateLimitExpiration))
	authGrp.Post("/register", h.auth.Register)
	authGrp.Post("/login", h.auth.Login)
	authGrp.Post("/forgot-password", h.auth.ForgotPassword)
	authGrp.Post("/verify-otp", h.auth.VerifyOTP)
	authGrp.Post("/reset-password", h.auth.ResetPassword)

	api.Get("/me", jwtMiddleware, h.auth.Me)
	api.Put("/student/profile", jwtMiddleware, student, h.auth.UpdateStudentProfile)
	api.Put("/alumni/profile", jwtMiddleware, alumni, h.auth.UpdateAlumniProfile)

	adminGrp := api.Group("/admin", jwtMiddleware, admin)
	adminGrp.Get("/dashboard", h.admin.Dashboard)
	adminGrp.Get("/mentorship-stats", h.admin.MentorshipStats)
	adminGrp.Get("/students", h.admin.ListStudents)
	adminGrp.Delete("/students/:id", h.admin.DeleteStudent)
	adminGrp.Get("/alumni", h.admin.ListAlumni)
	adminGrp.Get("/pending-alumni", h.admin.ListPendingAlumni)
	adminGrp.Post("/alumni/:id/approve", h.admin.ApproveAlumni)
	adminGrp.Post("/alumni/:id/reject", h.admin.RejectAlumni)
	adminGrp.Delete("/alumni/:id", h.admin.DeleteAlumni)
	adminGrp.Get("/profile", h.admin.GetProfile)
	adminGrp.Put("/profile", h.admin.UpdateProfile)

	mGrp := api.Group("/mentorship", jwtMiddleware)
	mGrp.Get("/available-students", alumni, h.mentorship.AvailableStudents)
	mGrp.Get("/mentees", alumni, h.mentorship.Mentees)
	mGrp.Post("/start", alumni, h.mentorship.Start)
	mGrp.Get("/mentor", student, h.mentorship.Mentor)
	mGrp.Post("/messages", participant, h.mentorship.SendMessage)
	mGrp.Get("/messages", participant, h.mentorship.ListMessages)
	mGrp.Post("/messages/:id/reactions", participant, h.mentorship.AddReaction)
	mGrp.Delete("/messages/:id", alumni, h.mentorship.DeleteMessage)
	mGrp.Get("/files/:id", participant, h.mentorship.DownloadFile)
	mGrp.Post("/admin/assign", admin, h.mentorship.Assign)
	mGrp.Post("/admin/unassign", admin, h.mentorship.Unassign)
	mGrp.Get("/admin/assignments", admin, h.mentorship.Assignments)

	// WebSocket routes
	app.Use("/ws", mentorshipHandlers.LogWSConnections(cfg.JWTSecret))
	app.Get("/ws/mentorship/stream", h.ws.WSUpgrade, participant, websocket.New(h.ws.WSMessagesStream))

	return app
}

// allowedOrigins returns the configured CORS origins, or "*" outside
// production when none are set. An empty result disables CORS headers.
func allowedOrigins(cfg config.Config) string {
	if cfg.CORSOrigins != "" {
		return cfg.CORSOrigins
	}
	if cfg.IsProduction() {
		logger.L().Warn("CORS_ORIGINS is empty in production, cross-origin requests will be refused")
		return ""
	}
	return "*"
}
