package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"alumni-portal/cmd/server/middlewares"
	"alumni-portal/cmd/server/testutil"
	"alumni-portal/internal/services/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	registerEndpoint = "/api/auth/register"
	loginEndpoint    = "/api/auth/login"
	forgotEndpoint   = "/api/auth/forgot-password"
	verifyEndpoint   = "/api/auth/verify-otp"
	resetEndpoint    = "/api/auth/reset-password"
	rateLimitIP      = "192.168.1.1"
	testEmail        = "student@mgmcen.ac.in"
	testPassword     = "secret1"
)

// MockAuthService mocks the auth service
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.AuthResponse), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.AuthResponse), args.Error(1)
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, req auth.ForgotPasswordRequest) (*auth.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.MessageResponse), args.Error(1)
}

func (m *MockAuthService) VerifyOTP(ctx context.Context, req auth.VerifyOTPRequest) (*auth.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.MessageResponse), args.Error(1)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, req auth.ResetPasswordRequest) (*auth.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.MessageResponse), args.Error(1)
}

func (m *MockAuthService) Me(ctx context.Context, userID bson.ObjectID) (*auth.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockAuthService) UpdateStudentProfile(ctx context.Context, userID bson.ObjectID, patch auth.StudentProfileUpdate) (*auth.User, error) {
	args := m.Called(ctx, userID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockAuthService) UpdateAlumniProfile(ctx context.Context, userID bson.ObjectID, patch auth.AlumniProfileUpdate) (*auth.User, error) {
	args := m.Called(ctx, userID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

// AuthTestSetup contains common test setup data
type AuthTestSetup struct {
	MockService *MockAuthService
	App         *fiber.App
	TestUser    *auth.User
	TestToken   string
}

// SetupAuthTest creates a common auth test setup. Protected routes run as
// TestUser with the student role.
func SetupAuthTest(t *testing.T) *AuthTestSetup {
	t.Helper()

	mockService := &MockAuthService{}
	app := testutil.CreateTestApp(t)
	validator := testutil.CreateTestValidator(t)

	h := NewHandlers(mockService, validator)

	now := time.Now().UTC()
	testUser := &auth.User{
		ID:        bson.NewObjectID(),
		Email:     testEmail,
		Role:      auth.RoleStudent,
		CreatedAt: now,
		UpdatedAt: now,
	}

	api := app.Group("/api")
	authGrp := api.Group("/auth")

	rateLimiter := middlewares.BuildRateLimiter(2, time.Minute)

	authGrp.Post("/register", h.Register)
	authGrp.Post("/login", rateLimiter, h.Login)
	authGrp.Post("/forgot-password", h.ForgotPassword)
	authGrp.Post("/verify-otp", h.VerifyOTP)
	authGrp.Post("/reset-password", h.ResetPassword)

	as := testutil.AsUser(testUser.ID, testUser.Role)
	api.Get("/me", as, h.Me)
	api.Put("/student/profile", as, h.UpdateStudentProfile)
	api.Put("/alumni/profile", as, h.UpdateAlumniProfile)

	return &AuthTestSetup{
		MockService: mockService,
		App:         app,
		TestUser:    testUser,
		TestToken:   "mock-jwt-token",
	}
}

func TestAuthHandlersTableDriven(t *testing.T) {
	testCases := []struct {
		name           string
		endpoint       string
		body           map[string]any
		setupMock      func(*MockAuthService, *auth.User, string)
		expectedStatus int
		expectedError  string
	}{
		{
			name:     "Register_Success",
			endpoint: registerEndpoint,
			body:     map[string]any{"email": testEmail, "password": testPassword, "role": "student"},
			setupMock: func(m *MockAuthService, user *auth.User, token string) {
				m.On("Register", mock.Anything, auth.RegisterRequest{
					Email:    testEmail,
					Password: testPassword,
					Role:     auth.RoleStudent,
				}).Return(&auth.AuthResponse{Token: token, User: user.Summary()}, nil).Once()
			},
			expectedStatus: 201,
		},
		{
			name:     "Register_Duplicate",
			endpoint: registerEndpoint,
			body:     map[string]any{"email": testEmail, "password": testPassword, "role": "student"},
			setupMock: func(m *MockAuthService, _ *auth.User, _ string) {
				m.On("Register", mock.Anything, mock.Anything).Return(nil, auth.ErrUserExists).Once()
			},
			expectedStatus: 400,
			expectedError:  auth.ErrUserExists.Error(),
		},
		{
			name:     "Register_OutsideDomain",
			endpoint: registerEndpoint,
			body:     map[string]any{"email": "someone@gmail.com", "password": testPassword, "role": "student"},
			setupMock: func(m *MockAuthService, _ *auth.User, _ string) {
				m.On("Register", mock.Anything, mock.Anything).Return(nil, auth.ErrInvalidEmailFormat).Once()
			},
			expectedStatus: 400,
			expectedError:  auth.ErrInvalidEmailFormat.Error(),
		},
		{
			name:           "Register_MissingFields",
			endpoint:       registerEndpoint,
			body:           map[string]any{"password": testPassword},
			setupMock:      func(*MockAuthService, *auth.User, string) {},
			expectedStatus: 400,
			expectedError:  "Invalid input",
		},
		{
			name:     "Login_Success",
			endpoint: loginEndpoint,
			body:     map[string]any{"email": testEmail, "password": testPassword},
			setupMock: func(m *MockAuthService, user *auth.User, token string) {
				m.On("Login", mock.Anything, auth.LoginRequest{
					Email:    testEmail,
					Password: testPassword,
				}).Return(&auth.AuthResponse{Message: "Login successful", Token: token, User: user.Summary()}, nil).Once()
			},
			expectedStatus: 200,
		},
		{
			name:     "Login_BadCredentials",
			endpoint: loginEndpoint,
			body:     map[string]any{"email": testEmail, "password": testPassword},
			setupMock: func(m *MockAuthService, _ *auth.User, _ string) {
				m.On("Login", mock.Anything, mock.Anything).Return(nil, auth.ErrInvalidCredentials).Once()
			},
			expectedStatus: 401,
			expectedError:  auth.ErrInvalidCredentials.Error(),
		},
		{
			name:     "Login_PendingApproval",
			endpoint: loginEndpoint,
			body:     map[string]any{"email": "a@x.com", "password": testPassword},
			setupMock: func(m *MockAuthService, _ *auth.User, _ string) {
				m.On("Login", mock.Anything, mock.Anything).Return(nil, auth.ErrPendingApproval).Once()
			},
			expectedStatus: 403,
			expectedError:  auth.ErrPendingApproval.Error(),
		},
		{
			name:     "Login_InternalErrorIsOpaque",
			endpoint: loginEndpoint,
			body:     map[string]any{"email": testEmail, "password": testPassword},
			setupMock: func(m *MockAuthService, _ *auth.User, _ string) {
				m.On("Login", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()
			},
			expectedStatus: 500,
			expectedError:  "Internal Server Error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setup := SetupAuthTest(t)
			tc.setupMock(setup.MockService, setup.TestUser, setup.TestToken)

			req := testutil.CreateJSONRequest("POST", tc.endpoint, tc.body)
			resp, err := setup.App.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedStatus, resp.StatusCode)

			if tc.expectedStatus < 400 {
				got := testutil.DecodeJSON[auth.AuthResponse](t, resp)
				assert.Equal(t, setup.TestUser.Email, got.User.Email)
				assert.Equal(t, setup.TestToken, got.Token)
			} else {
				got := testutil.DecodeJSON[map[string]any](t, resp)
				assert.Equal(t, tc.expectedError, got["error"])
			}

			setup.MockService.AssertExpectations(t)
		})
	}
}

func TestRegister_ValidationDetails(t *testing.T) {
	setup := SetupAuthTest(t)

	req := testutil.CreateJSONRequest("POST", registerEndpoint, map[string]any{"email": "not-an-email", "password": testPassword})
	resp, err := setup.App.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 400, resp.StatusCode)

	got := testutil.DecodeJSON[struct {
		Error   string `json:"error"`
		Details []struct {
			Field string `json:"field"`
			Rule  string `json:"rule"`
		} `json:"details"`
	}](t, resp)

	rules := map[string]string{}
	for _, d := range got.Details {
		rules[d.Field] = d.Rule
	}
	assert.Equal(t, "email", rules["email"])
	assert.Equal(t, "required", rules["role"])
	setup.MockService.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestPasswordResetHandlers(t *testing.T) {
	t.Run("forgot password returns warning on mail failure", func(t *testing.T) {
		setup := SetupAuthTest(t)
		setup.MockService.On("ForgotPassword", mock.Anything, auth.ForgotPasswordRequest{Email: testEmail}).
			Return(&auth.MessageResponse{Message: "OTP sent to your email", Warning: "email delivery failed"}, nil).Once()

		resp, err := setup.App.Test(testutil.CreateJSONRequest("POST", forgotEndpoint, map[string]string{"email": testEmail}), -1)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)

		got := testutil.DecodeJSON[auth.MessageResponse](t, resp)
		assert.Equal(t, "email delivery failed", got.Warning)
	})

	t.Run("forgot password for unknown email", func(t *testing.T) {
		setup := SetupAuthTest(t)
		setup.MockService.On("ForgotPassword", mock.Anything, mock.Anything).Return(nil, auth.ErrUserNotFound).Once()

		resp, err := setup.App.Test(testutil.CreateJSONRequest("POST", forgotEndpoint, map[string]string{"email": "x@mgmcen.ac.in"}), -1)
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})

	t.Run("expired otp", func(t *testing.T) {
		setup := SetupAuthTest(t)
		setup.MockService.On("VerifyOTP", mock.Anything, auth.VerifyOTPRequest{Email: testEmail, OTP: "123456"}).
			Return(nil, auth.ErrOTPExpired).Once()

		resp, err := setup.App.Test(testutil.CreateJSONRequest("POST", verifyEndpoint,
			map[string]string{"email": testEmail, "otp": "123456"}), -1)
		require.NoError(t, err)
		require.Equal(t, 400, resp.StatusCode)
		got := testutil.DecodeJSON[map[string]any](t, resp)
		assert.Equal(t, auth.ErrOTPExpired.Error(), got["error"])
	})

	t.Run("malformed otp never reaches the service", func(t *testing.T) {
		setup := SetupAuthTest(t)

		resp, err := setup.App.Test(testutil.CreateJSONRequest("POST", verifyEndpoint,
			map[string]string{"email": testEmail, "otp": "12ab"}), -1)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
		setup.MockService.AssertNotCalled(t, "VerifyOTP", mock.Anything, mock.Anything)
	})

	t.Run("reset password", func(t *testing.T) {
		setup := SetupAuthTest(t)
		req := auth.ResetPasswordRequest{Email: testEmail, OTP: "123456", NewPassword: "newsecret"}
		setup.MockService.On("ResetPassword", mock.Anything, req).
			Return(&auth.MessageResponse{Message: "Password reset successful"}, nil).Once()

		resp, err := setup.App.Test(testutil.CreateJSONRequest("POST", resetEndpoint, req), -1)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		setup.MockService.AssertExpectations(t)
	})

	t.Run("reset password rejects weak password", func(t *testing.T) {
		setup := SetupAuthTest(t)

		resp, err := setup.App.Test(testutil.CreateJSONRequest("POST", resetEndpoint,
			auth.ResetPasswordRequest{Email: testEmail, OTP: "123456", NewPassword: "abc"}), -1)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
		setup.MockService.AssertNotCalled(t, "ResetPassword", mock.Anything, mock.Anything)
	})
}

func TestProfileHandlers(t *testing.T) {
	t.Run("me", func(t *testing.T) {
		setup := SetupAuthTest(t)
		setup.MockService.On("Me", mock.Anything, setup.TestUser.ID).Return(setup.TestUser, nil).Once()

		resp, err := setup.App.Test(testutil.CreateJSONRequest("GET", "/api/me", nil), -1)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)

		got := testutil.DecodeJSON[map[string]any](t, resp)
		assert.Equal(t, testEmail, got["email"])
		assert.NotContains(t, got, "password_hash")
	})

	t.Run("student profile update passes the patch through", func(t *testing.T) {
		setup := SetupAuthTest(t)
		first := "Asha"
		setup.MockService.On("UpdateStudentProfile", mock.Anything, setup.TestUser.ID,
			mock.MatchedBy(func(p auth.StudentProfileUpdate) bool {
				return p.FirstName != nil && *p.FirstName == first && p.LastName == nil
			})).Return(setup.TestUser, nil).Once()

		resp, err := setup.App.Test(testutil.CreateJSONRequest("PUT", "/api/student/profile",
			map[string]any{"first_name": first}), -1)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		setup.MockService.AssertExpectations(t)
	})

	t.Run("alumni profile rejects bad graduation year", func(t *testing.T) {
		setup := SetupAuthTest(t)

		resp, err := setup.App.Test(testutil.CreateJSONRequest("PUT", "/api/alumni/profile",
			map[string]any{"graduation_year": 1800}), -1)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})

	t.Run("wrong role from service", func(t *testing.T) {
		setup := SetupAuthTest(t)
		setup.MockService.On("UpdateAlumniProfile", mock.Anything, setup.TestUser.ID, mock.Anything).
			Return(nil, auth.ErrWrongRole).Once()

		resp, err := setup.App.Test(testutil.CreateJSONRequest("PUT", "/api/alumni/profile",
			map[string]any{"designation": "Engineer"}), -1)
		require.NoError(t, err)
		assert.Equal(t, 403, resp.StatusCode)
	})
}

func makeTestRequestForRateLimit(setup *AuthTestSetup, body map[string]any) (*http.Response, error) {
	req := testutil.CreateJSONRequest("POST", loginEndpoint, body)
	req.Header.Set("X-Forwarded-For", rateLimitIP) // fixed IP for rate limiter
	return setup.App.Test(req, -1)
}

func TestLoginRateLimit(t *testing.T) {
	setup := SetupAuthTest(t)

	expected := &auth.AuthResponse{Token: setup.TestToken, User: setup.TestUser.Summary()}
	setup.MockService.On("Login", mock.Anything, auth.LoginRequest{
		Email:    testEmail,
		Password: testPassword,
	}).Return(expected, nil).Times(2)

	body := map[string]any{"email": testEmail, "password": testPassword}

	for i, want := range []int{200, 200, 429} {
		resp, err := makeTestRequestForRateLimit(setup, body)
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, "request %d", i+1)
	}

	setup.MockService.AssertExpectations(t)
}
