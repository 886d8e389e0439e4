// Package docs Alumni Portal API
//
// @title  Alumni Portal API
// @version 0.1.0
// @description Student and alumni accounts, admin moderation and one-to-one mentorship messaging.
// @host      localhost:3001
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package docs

import (
	_ "alumni-portal/cmd/server/handlers/httperr"
	_ "alumni-portal/internal/services/admin"
	_ "alumni-portal/internal/services/auth"
	_ "alumni-portal/internal/services/mentorship"
)
