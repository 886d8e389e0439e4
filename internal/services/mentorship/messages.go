package mentorship

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"alumni-portal/internal/services/auth"
	"alumni-portal/internal/utils/sanitize"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const maxEmojiBytes = 32

// SendInput is a new message from Caller. Counterpart is the student id when
// an alumni sends and may be left zero when a student writes to their mentor.
type SendInput struct {
	Caller      Caller
	Counterpart bson.ObjectID
	Text        string
	File        *FileUpload
}

// ReactionRequest is the body of an add-reaction call.
type ReactionRequest struct {
	Emoji string `json:"emoji" validate:"required" example:"👍"`
}

// resolvePair derives the (alumni, student) pair for caller and checks that
// the two are currently assigned to each other.
func (s *Service) resolvePair(ctx context.Context, caller Caller, counterpart bson.ObjectID) (alumniID, studentID bson.ObjectID, err error) {
	switch caller.Role {
	case auth.RoleAlumni:
		if counterpart.IsZero() {
			return alumniID, studentID, ErrMissingCounterpart
		}
		mentor, err := s.mentorOf(ctx, counterpart)
		if err != nil {
			if errors.Is(err, ErrNoMentor) {
				return alumniID, studentID, ErrNotParticipant
			}
			return alumniID, studentID, err
		}
		if mentor != caller.ID {
			return alumniID, studentID, ErrNotParticipant
		}
		return caller.ID, counterpart, nil

	case auth.RoleStudent:
		mentor, err := s.mentorOf(ctx, caller.ID)
		if err != nil {
			if errors.Is(err, ErrNoMentor) {
				return alumniID, studentID, ErrNotParticipant
			}
			return alumniID, studentID, err
		}
		if !counterpart.IsZero() && counterpart != mentor {
			return alumniID, studentID, ErrNotParticipant
		}
		return mentor, caller.ID, nil
	}
	return alumniID, studentID, ErrNotParticipant
}

// SendMessage stores a message with optional text and attachment. At least one
// of the two is required; the sender must be assigned to the counterpart.
func (s *Service) SendMessage(ctx context.Context, in SendInput) (*Message, error) {
	text := sanitize.Clean(in.Text)
	if text == "" && in.File == nil {
		return nil, ErrEmptyMessage
	}
	if in.File != nil && in.File.Size > s.maxFile {
		return nil, ErrAttachmentTooLarge
	}

	alumniID, studentID, err := s.resolvePair(ctx, in.Caller, in.Counterpart)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		ID:         bson.NewObjectID(),
		AlumniID:   alumniID,
		StudentID:  studentID,
		SenderID:   in.Caller.ID,
		SenderRole: in.Caller.Role,
		Text:       text,
		Reactions:  []Reaction{},
		CreatedAt:  s.now().UTC(),
	}

	if in.File != nil {
		f := *in.File
		f.Name = sanitizeFileName(f.Name)
		if f.ContentType == "" {
			f.ContentType = "application/octet-stream"
		}
		fileID, size, err := s.blobs.Upload(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("store attachment: %w", err)
		}
		if size > s.maxFile {
			s.dropBlob(ctx, fileID)
			return nil, ErrAttachmentTooLarge
		}
		msg.File = &Attachment{ID: fileID, Name: f.Name, ContentType: f.ContentType, Size: size}
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		if msg.File != nil {
			s.dropBlob(ctx, msg.File.ID)
		}
		return nil, fmt.Errorf("create message: %w", err)
	}

	s.bus.Broadcast(ctx, MessageEvent{Type: EventCreated, Message: msg})
	return msg, nil
}

// ListMessages returns the conversation between caller and counterpart,
// oldest first.
func (s *Service) ListMessages(ctx context.Context, caller Caller, counterpart bson.ObjectID) ([]*Message, error) {
	alumniID, studentID, err := s.resolvePair(ctx, caller, counterpart)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByPair(ctx, alumniID, studentID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// AddReaction appends an emoji reaction from caller to a message.
func (s *Service) AddReaction(ctx context.Context, caller Caller, messageID bson.ObjectID, emoji string) (*Message, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" || len(emoji) > maxEmojiBytes || !utf8.ValidString(emoji) {
		return nil, ErrInvalidEmoji
	}

	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if !msg.HasParticipant(caller.ID) {
		return nil, ErrNotParticipant
	}

	updated, err := s.messages.AddReaction(ctx, messageID, Reaction{
		Emoji:     emoji,
		UserID:    caller.ID,
		Role:      caller.Role,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.bus.Broadcast(ctx, MessageEvent{Type: EventReacted, Message: updated})
	return updated, nil
}

// DeleteMessage removes a message and its attachment. Only the alumni side of
// the conversation may delete.
func (s *Service) DeleteMessage(ctx context.Context, caller Caller, messageID bson.ObjectID) error {
	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if caller.Role != auth.RoleAlumni || msg.AlumniID != caller.ID {
		return ErrNotParticipant
	}

	if err := s.messages.Delete(ctx, messageID); err != nil {
		return err
	}
	if msg.File != nil {
		s.dropBlob(ctx, msg.File.ID)
	}

	s.bus.Broadcast(ctx, MessageEvent{Type: EventDeleted, Message: msg})
	return nil
}

// DownloadFile returns an attachment to one of the participants of the
// message it belongs to.
func (s *Service) DownloadFile(ctx context.Context, caller Caller, fileID bson.ObjectID) (*Blob, error) {
	msg, err := s.messages.FindByFileID(ctx, fileID)
	if err != nil {
		if errors.Is(err, ErrMessageNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	if !msg.HasParticipant(caller.ID) {
		return nil, ErrNotParticipant
	}

	blob, err := s.blobs.Open(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if blob.Name == "" {
		blob.Name = msg.File.Name
	}
	if blob.ContentType == "" {
		blob.ContentType = msg.File.ContentType
	}
	return blob, nil
}

func (s *Service) dropBlob(ctx context.Context, id bson.ObjectID) {
	if err := s.blobs.Delete(ctx, id); err != nil {
		s.log.Warn("failed to delete attachment", "file_id", id.Hex(), "error", err)
	}
}

// sanitizeFileName keeps the base name only and strips characters that would
// break a Content-Disposition header.
func sanitizeFileName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == '"' || r == 0x7f {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" {
		return "attachment"
	}
	return name
}
