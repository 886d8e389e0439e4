package admin

import "errors"

var (
	ErrAlumniNotFound  = errors.New("Alumni not found")
	ErrStudentNotFound = errors.New("Student not found")
	ErrAdminNotFound   = errors.New("Admin not found")
	ErrAlreadyApproved = errors.New("Alumni already approved")
	ErrMissingEmail    = errors.New("Alumni email is missing")
	ErrInvalidUsername = errors.New("Username is required")
)
