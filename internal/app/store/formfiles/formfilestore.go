// Package formfilestore persists uploaded files attached to form
// submissions. Bytes go to the configured storage backend; metadata is
// recorded here, linked to a submission by the compound key
// (submission id, submission type, field name).
package formfilestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
	"github.com/junctionhq/junction/internal/app/system/formschema"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var errBadSubmissionType = errors.New(`submission type must be "membership"|"hub"|"contact"`)

type Store struct {
	c       *mongo.Collection
	backing storage.Store
}

func New(db *mongo.Database, backing storage.Store) *Store {
	return &Store{c: db.Collection("form_files"), backing: backing}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "submission_id", Value: 1},
				{Key: "submission_type", Value: 1},
				{Key: "field_name", Value: 1},
			},
			Options: options.Index().SetName("idx_formfiles_submission"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Upload re-validates the file against the field's constraints, stores
// the bytes, and records the metadata. Client-side checks are
// bypassable, so constraints are always enforced here.
func (s *Store) Upload(ctx context.Context, submissionID primitive.ObjectID, submissionType, fieldName string, fc *models.FileConstraints, filename, contentType string, size int64, r io.Reader) (models.FormFile, error) {
	switch submissionType {
	case models.SubmissionTypeMembership, models.SubmissionTypeHub, models.SubmissionTypeContact:
	default:
		return models.FormFile{}, errBadSubmissionType
	}
	if err := formschema.CheckFile(fc, filename, contentType, size); err != nil {
		return models.FormFile{}, err
	}

	now := time.Now().UTC()
	dateDir := fmt.Sprintf("uploads/%04d/%02d", now.Year(), now.Month())
	uniqueName := fmt.Sprintf("%s-%s", uuid.New().String()[:8], sanitizeFilename(filename))
	path := filepath.ToSlash(filepath.Join(dateDir, uniqueName))

	opts := &storage.PutOptions{ContentType: contentType}
	if err := s.backing.Put(ctx, path, r, opts); err != nil {
		return models.FormFile{}, fmt.Errorf("store upload: %w", err)
	}

	file := models.FormFile{
		ID:             primitive.NewObjectID(),
		SubmissionID:   submissionID,
		SubmissionType: submissionType,
		FieldName:      fieldName,
		Path:           path,
		FileName:       filepath.Base(filename),
		Size:           size,
		ContentType:    contentType,
		UploadedAt:     now,
	}
	if _, err := s.c.InsertOne(ctx, file); err != nil {
		return models.FormFile{}, err
	}
	return file, nil
}

// GetByID loads file metadata.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.FormFile, error) {
	var f models.FormFile
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ListForSubmission returns the files attached to a submission,
// grouped by field through the compound key.
func (s *Store) ListForSubmission(ctx context.Context, submissionID primitive.ObjectID, submissionType string) ([]models.FormFile, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"submission_id":   submissionID,
		"submission_type": submissionType,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var files []models.FormFile
	if err := cur.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// DownloadURL resolves how to serve a stored file. For local storage
// it returns the filesystem path for http.ServeFile; otherwise it
// returns a presigned URL to redirect to.
func (s *Store) DownloadURL(ctx context.Context, f *models.FormFile) (localPath, signedURL string, err error) {
	disposition := fmt.Sprintf("attachment; filename=%q", f.FileName)

	if local, ok := s.backing.(*storage.Local); ok {
		fullPath, err := local.GetFullPath(f.Path)
		if err != nil {
			return "", "", err
		}
		return fullPath, "", nil
	}

	url, err := s.backing.PresignedURL(ctx, f.Path, &storage.PresignOptions{
		Expires:            15 * time.Minute,
		ContentDisposition: disposition,
	})
	if err != nil {
		return "", "", err
	}
	return "", url, nil
}

func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)

	result := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if isAllowedFilenameChar(c) {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}

	if len(result) == 0 {
		return "file"
	}
	if len(result) > 100 {
		ext := filepath.Ext(string(result))
		if len(ext) > 0 && len(ext) < 10 {
			result = append(result[:100-len(ext)], ext...)
		} else {
			result = result[:100]
		}
	}
	return string(result)
}

func isAllowedFilenameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
}
