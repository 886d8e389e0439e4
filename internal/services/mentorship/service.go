package mentorship

import (
	"log/slog"
	"time"

	"alumni-portal/internal/config"
)

// Service implements mentorship assignment and messaging.
type Service struct {
	users       Directory
	assignments AssignmentStore
	messages    MessagesRepo
	blobs       BlobStore
	bus         Bus
	capacity    int
	maxFile     int64
	log         *slog.Logger
	now         func() time.Time
}

// NewService wires the mentorship service. capacity and the attachment
// limit come from MENTOR_CAPACITY and MAX_ATTACHMENT_MB.
func NewService(users Directory, assignments AssignmentStore, messages MessagesRepo, blobs BlobStore, bus Bus, cfg config.Config, log *slog.Logger) *Service {
	return &Service{
		users:       users,
		assignments: assignments,
		messages:    messages,
		blobs:       blobs,
		bus:         bus,
		capacity:    cfg.MentorCapacity,
		maxFile:     cfg.MaxAttachmentBytes(),
		log:         log,
		now:         time.Now,
	}
}
