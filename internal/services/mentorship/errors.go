package mentorship

import "errors"

// Assignment errors.
var (
	ErrStudentNotFound   = errors.New("Student not found")
	ErrMentorNotFound    = errors.New("Alumni not found")
	ErrMentorNotApproved = errors.New("Alumni is not approved")
	ErrMentorFull        = errors.New("Mentor already has the maximum number of students")
	ErrStudentTaken      = errors.New("Student already has a mentor")
	ErrAlreadyAssigned   = errors.New("Student is already assigned to this mentor")
	ErrNotAssigned       = errors.New("Assignment not found")
	ErrNoMentor          = errors.New("No mentor assigned")
)

// Messaging errors.
var (
	ErrEmptyMessage       = errors.New("Message text or file is required")
	ErrMissingCounterpart = errors.New("studentId is required")
	ErrNotParticipant     = errors.New("Not a participant of this mentorship")
	ErrMessageNotFound    = errors.New("Message not found")
	ErrFileNotFound       = errors.New("File not found")
	ErrAttachmentTooLarge = errors.New("Attachment exceeds the size limit")
	ErrInvalidEmoji       = errors.New("Invalid emoji")
)
