package admin

import (
	"context"
	"testing"

	"alumni-portal/cmd/server/testutil"
	"alumni-portal/internal/services/admin"
	"alumni-portal/internal/services/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type MockAdminService struct {
	mock.Mock
}

func usersOrNil(args mock.Arguments) ([]*auth.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auth.User), args.Error(1)
}

func userOrNil(args mock.Arguments) (*auth.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func actionOrNil(args mock.Arguments) (*admin.ActionResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*admin.ActionResponse), args.Error(1)
}

func (m *MockAdminService) Dashboard(ctx context.Context) (*admin.Dashboard, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*admin.Dashboard), args.Error(1)
}

func (m *MockAdminService) MentorshipStats(ctx context.Context) (*admin.MentorshipStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*admin.MentorshipStats), args.Error(1)
}

func (m *MockAdminService) ListStudents(ctx context.Context) ([]*auth.User, error) {
	return usersOrNil(m.Called(ctx))
}

func (m *MockAdminService) ListAlumni(ctx context.Context) ([]*auth.User, error) {
	return usersOrNil(m.Called(ctx))
}

func (m *MockAdminService) ListPendingAlumni(ctx context.Context) ([]*auth.User, error) {
	return usersOrNil(m.Called(ctx))
}

func (m *MockAdminService) ApproveAlumni(ctx context.Context, id bson.ObjectID) (*admin.ActionResponse, error) {
	return actionOrNil(m.Called(ctx, id))
}

func (m *MockAdminService) RejectAlumni(ctx context.Context, id bson.ObjectID) (*admin.ActionResponse, error) {
	return actionOrNil(m.Called(ctx, id))
}

func (m *MockAdminService) DeleteAlumni(ctx context.Context, id bson.ObjectID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAdminService) DeleteStudent(ctx context.Context, id bson.ObjectID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAdminService) GetProfile(ctx context.Context, adminID bson.ObjectID) (*auth.User, error) {
	return userOrNil(m.Called(ctx, adminID))
}

func (m *MockAdminService) UpdateProfile(ctx context.Context, adminID bson.ObjectID, req admin.UpdateProfileRequest) (*auth.User, error) {
	return userOrNil(m.Called(ctx, adminID, req))
}

func setupAdminTest(t *testing.T) (*fiber.App, *MockAdminService, bson.ObjectID) {
	t.Helper()

	svc := &MockAdminService{}
	app := testutil.CreateTestApp(t)
	h := NewHandlers(svc, testutil.CreateTestValidator(t))

	adminID := bson.NewObjectID()
	grp := app.Group("/api/admin", testutil.AsUser(adminID, auth.RoleAdmin))
	grp.Get("/dashboard", h.Dashboard)
	grp.Get("/mentorship-stats", h.MentorshipStats)
	grp.Get("/students", h.ListStudents)
	grp.Get("/alumni", h.ListAlumni)
	grp.Get("/pending-alumni", h.ListPendingAlumni)
	grp.Post("/alumni/:id/approve", h.ApproveAlumni)
	grp.Post("/alumni/:id/reject", h.RejectAlumni)
	grp.Delete("/alumni/:id", h.DeleteAlumni)
	grp.Delete("/students/:id", h.DeleteStudent)
	grp.Get("/profile", h.GetProfile)
	grp.Put("/profile", h.UpdateProfile)

	return app, svc, adminID
}

func TestApproveAlumniHandler(t *testing.T) {
	id := bson.NewObjectID()

	tests := []struct {
		name       string
		path       string
		setup      func(*MockAdminService)
		wantStatus int
		wantBody   map[string]any
	}{
		{
			name: "approved with mail warning",
			path: "/api/admin/alumni/" + id.Hex() + "/approve",
			setup: func(m *MockAdminService) {
				m.On("ApproveAlumni", mock.Anything, id).Return(&admin.ActionResponse{
					Message:    "Alumni approved successfully",
					EmailError: "notification email could not be delivered",
				}, nil).Once()
			},
			wantStatus: 200,
			wantBody:   map[string]any{"message": "Alumni approved successfully", "emailError": "notification email could not be delivered"},
		},
		{
			name: "already approved",
			path: "/api/admin/alumni/" + id.Hex() + "/approve",
			setup: func(m *MockAdminService) {
				m.On("ApproveAlumni", mock.Anything, id).Return(nil, admin.ErrAlreadyApproved).Once()
			},
			wantStatus: 400,
			wantBody:   map[string]any{"error": admin.ErrAlreadyApproved.Error()},
		},
		{
			name: "unknown alumni",
			path: "/api/admin/alumni/" + id.Hex() + "/approve",
			setup: func(m *MockAdminService) {
				m.On("ApproveAlumni", mock.Anything, id).Return(nil, admin.ErrAlumniNotFound).Once()
			},
			wantStatus: 404,
			wantBody:   map[string]any{"error": admin.ErrAlumniNotFound.Error()},
		},
		{
			name:       "malformed id",
			path:       "/api/admin/alumni/not-an-id/approve",
			setup:      func(*MockAdminService) {},
			wantStatus: 400,
			wantBody:   map[string]any{"error": "Invalid id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, svc, _ := setupAdminTest(t)
			tt.setup(svc)

			resp, err := app.Test(testutil.CreateJSONRequest("POST", tt.path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			got := testutil.DecodeJSON[map[string]any](t, resp)
			for k, v := range tt.wantBody {
				assert.Equal(t, v, got[k], k)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardAndStatsHandlers(t *testing.T) {
	app, svc, _ := setupAdminTest(t)
	svc.On("Dashboard", mock.Anything).Return(&admin.Dashboard{
		Counts:         admin.Counts{Students: 2, Alumni: 1, Events: 0},
		RecentStudents: []*auth.User{},
		RecentAlumni:   []*auth.User{},
		UpcomingEvents: []*admin.Event{},
	}, nil).Once()
	svc.On("MentorshipStats", mock.Anything).Return(&admin.MentorshipStats{TotalMentorships: 3, ActiveMentorships: 3}, nil).Once()

	resp, err := app.Test(testutil.CreateJSONRequest("GET", "/api/admin/dashboard", nil), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	dash := testutil.DecodeJSON[map[string]any](t, resp)
	assert.Equal(t, map[string]any{"students": 2.0, "alumni": 1.0, "events": 0.0}, dash["counts"])
	assert.Equal(t, []any{}, dash["upcoming_events"])

	resp, err = app.Test(testutil.CreateJSONRequest("GET", "/api/admin/mentorship-stats", nil), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	stats := testutil.DecodeJSON[admin.MentorshipStats](t, resp)
	assert.EqualValues(t, 3, stats.TotalMentorships)
}

func TestDashboardHandler_HidesInternalErrors(t *testing.T) {
	app, svc, _ := setupAdminTest(t)
	svc.On("Dashboard", mock.Anything).Return(nil, assert.AnError).Once()

	resp, err := app.Test(testutil.CreateJSONRequest("GET", "/api/admin/dashboard", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	got := testutil.DecodeJSON[map[string]any](t, resp)
	assert.Equal(t, "Internal Server Error", got["error"])
}

func TestDeleteHandlers(t *testing.T) {
	app, svc, _ := setupAdminTest(t)
	student, alumni := bson.NewObjectID(), bson.NewObjectID()
	svc.On("DeleteStudent", mock.Anything, student).Return(nil).Once()
	svc.On("DeleteAlumni", mock.Anything, alumni).Return(admin.ErrAlumniNotFound).Once()

	resp, err := app.Test(testutil.CreateJSONRequest("DELETE", "/api/admin/students/"+student.Hex(), nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(testutil.CreateJSONRequest("DELETE", "/api/admin/alumni/"+alumni.Hex(), nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	svc.AssertExpectations(t)
}

func TestProfileHandlers(t *testing.T) {
	app, svc, adminID := setupAdminTest(t)
	updated := &auth.User{ID: adminID, Role: auth.RoleAdmin, Admin: &auth.AdminProfile{Username: "portal-admin"}}
	svc.On("UpdateProfile", mock.Anything, adminID, admin.UpdateProfileRequest{Username: "portal-admin"}).Return(updated, nil).Once()
	svc.On("GetProfile", mock.Anything, adminID).Return(updated, nil).Once()

	resp, err := app.Test(testutil.CreateJSONRequest("PUT", "/api/admin/profile", map[string]string{"username": "portal-admin"}), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(testutil.CreateJSONRequest("PUT", "/api/admin/profile", map[string]string{"username": "ab"}), -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	resp, err = app.Test(testutil.CreateJSONRequest("GET", "/api/admin/profile", nil), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	got := testutil.DecodeJSON[auth.User](t, resp)
	assert.Equal(t, "portal-admin", got.Admin.Username)
	svc.AssertExpectations(t)
}

func TestListHandlers(t *testing.T) {
	app, svc, _ := setupAdminTest(t)
	pending := []*auth.User{{ID: bson.NewObjectID(), Email: "a@x.com", Role: auth.RoleAlumni}}
	svc.On("ListPendingAlumni", mock.Anything).Return(pending, nil).Once()
	svc.On("ListStudents", mock.Anything).Return([]*auth.User{}, nil).Once()

	resp, err := app.Test(testutil.CreateJSONRequest("GET", "/api/admin/pending-alumni", nil), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	got := testutil.DecodeJSON[[]map[string]any](t, resp)
	require.Len(t, got, 1)
	assert.Equal(t, "a@x.com", got[0]["email"])

	resp, err = app.Test(testutil.CreateJSONRequest("GET", "/api/admin/students", nil), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	assert.Empty(t, testutil.DecodeJSON[[]map[string]any](t, resp))
}
