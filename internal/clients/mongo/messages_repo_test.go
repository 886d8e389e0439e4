//go:build !short

package mongo

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"alumni-portal/internal/services/admin"
	"alumni-portal/internal/services/auth"
	"alumni-portal/internal/services/mentorship"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestMessagesRepo_Conversation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping MongoDB integration test")
	}

	ctx := context.Background()
	_, db, cleanup := setupTestDB(t)
	defer cleanup()

	repo, err := NewMessagesRepo(ctx, db)
	require.NoError(t, err)

	alumniID, studentID := bson.NewObjectID(), bson.NewObjectID()
	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, text := range []string{"first", "second"} {
		require.NoError(t, repo.Create(ctx, &mentorship.Message{
			AlumniID: alumniID, StudentID: studentID,
			SenderID: alumniID, SenderRole: auth.RoleAlumni,
			Text: text, CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	// Another pair must not leak into the conversation.
	require.NoError(t, repo.Create(ctx, &mentorship.Message{AlumniID: alumniID, StudentID: bson.NewObjectID(), Text: "other", CreatedAt: base}))

	list, err := repo.ListByPair(ctx, alumniID, studentID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Text)
	assert.Equal(t, "second", list[1].Text)

	r := mentorship.Reaction{Emoji: "👍", UserID: studentID, Role: auth.RoleStudent, CreatedAt: base}
	_, err = repo.AddReaction(ctx, list[0].ID, r)
	require.NoError(t, err)
	updated, err := repo.AddReaction(ctx, list[0].ID, r)
	require.NoError(t, err)
	assert.Len(t, updated.Reactions, 2)

	_, err = repo.AddReaction(ctx, bson.NewObjectID(), r)
	assert.ErrorIs(t, err, mentorship.ErrMessageNotFound)

	require.NoError(t, repo.Delete(ctx, list[0].ID))
	assert.ErrorIs(t, repo.Delete(ctx, list[0].ID), mentorship.ErrMessageNotFound)
	_, err = repo.FindByID(ctx, list[0].ID)
	assert.ErrorIs(t, err, mentorship.ErrMessageNotFound)
}

func TestAttachmentsRepo_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping MongoDB integration test")
	}

	ctx := context.Background()
	_, db, cleanup := setupTestDB(t)
	defer cleanup()

	blobs := NewAttachmentsRepo(db)
	messages, err := NewMessagesRepo(ctx, db)
	require.NoError(t, err)

	payload := []byte("%PDF-1.4 resume")
	id, size, err := blobs.Upload(ctx, mentorship.FileUpload{
		Name: "resume.pdf", ContentType: "application/pdf", Body: bytes.NewReader(payload),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), size)

	msg := &mentorship.Message{
		AlumniID: bson.NewObjectID(), StudentID: bson.NewObjectID(),
		File: &mentorship.Attachment{ID: id, Name: "resume.pdf", ContentType: "application/pdf", Size: size},
	}
	require.NoError(t, messages.Create(ctx, msg))
	byFile, err := messages.FindByFileID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, byFile.ID)

	blob, err := blobs.Open(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, size, blob.Size)
	got, err := io.ReadAll(blob.Body)
	require.NoError(t, err)
	require.NoError(t, blob.Body.Close())
	assert.Equal(t, payload, got)
	assert.Equal(t, "resume.pdf", blob.Name)
	assert.Equal(t, "application/pdf", blob.ContentType)

	require.NoError(t, blobs.Delete(ctx, id))
	_, err = blobs.Open(ctx, id)
	assert.ErrorIs(t, err, mentorship.ErrFileNotFound)
	assert.ErrorIs(t, blobs.Delete(ctx, id), mentorship.ErrFileNotFound)
}

func TestEventsRepo_Upcoming(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping MongoDB integration test")
	}

	ctx := context.Background()
	_, db, cleanup := setupTestDB(t)
	defer cleanup()

	repo, err := NewEventsRepo(ctx, db)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Millisecond)
	for i, title := range []string{"past", "soon", "later"} {
		require.NoError(t, repo.Insert(ctx, &admin.Event{Title: title, Date: now.Add(time.Duration(i-1) * 24 * time.Hour)}))
	}

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	upcoming, err := repo.ListUpcoming(ctx, now, 5)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "soon", upcoming[0].Title)
}
