package mongo

import (
	"context"
	"errors"
	"fmt"
	"io"

	"alumni-portal/internal/services/mentorship"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const attachmentsBucket = "attachments"

// AttachmentsRepo keeps message attachments in a GridFS bucket.
type AttachmentsRepo struct {
	bucket *mongo.GridFSBucket
}

// NewAttachmentsRepo opens the attachments bucket.
func NewAttachmentsRepo(db *mongo.Database) *AttachmentsRepo {
	return &AttachmentsRepo{
		bucket: db.GridFSBucket(options.GridFSBucket().SetName(attachmentsBucket)),
	}
}

// countingReader tracks how many bytes GridFS consumed.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Upload streams f into GridFS and returns the file id and stored size.
func (r *AttachmentsRepo) Upload(ctx context.Context, f mentorship.FileUpload) (bson.ObjectID, int64, error) {
	src := &countingReader{r: f.Body}
	opts := options.GridFSUpload().SetMetadata(bson.M{"content_type": f.ContentType})

	id, err := r.bucket.UploadFromStream(ctx, f.Name, src, opts)
	if err != nil {
		return bson.ObjectID{}, 0, fmt.Errorf("upload attachment: %w", err)
	}
	return id, src.n, nil
}

// Open returns a stored attachment whose Body streams chunks from GridFS.
// The caller must close Body.
func (r *AttachmentsRepo) Open(ctx context.Context, id bson.ObjectID) (*mentorship.Blob, error) {
	stream, err := r.bucket.OpenDownloadStream(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrFileNotFound) {
			return nil, mentorship.ErrFileNotFound
		}
		return nil, fmt.Errorf("open attachment: %w", err)
	}

	blob := &mentorship.Blob{Size: -1, Body: stream}
	if file := stream.GetFile(); file != nil {
		blob.Name = file.Name
		blob.Size = file.Length
		if len(file.Metadata) > 0 {
			if ct, ok := file.Metadata.Lookup("content_type").StringValueOK(); ok {
				blob.ContentType = ct
			}
		}
	}
	return blob, nil
}

// Delete removes an attachment and its chunks.
func (r *AttachmentsRepo) Delete(ctx context.Context, id bson.ObjectID) error {
	if err := r.bucket.Delete(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrFileNotFound) {
			return mentorship.ErrFileNotFound
		}
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}
