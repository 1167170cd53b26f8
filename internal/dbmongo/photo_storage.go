package dbmongo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"userdirectory/internal/common"
	"userdirectory/internal/media"
)

// PhotoStorage keeps profile photos in a GridFS bucket. The stored path is
// "uploads/<file id hex>".
type PhotoStorage struct {
	gridFS *gridfs.Bucket
}

func NewPhotoStorage(mongoClient *MongoClient) *PhotoStorage {
	return &PhotoStorage{
		gridFS: mongoClient.GridFS,
	}
}

func (ps *PhotoStorage) Save(ctx context.Context, filename, contentType string, content io.Reader) (string, error) {
	metadata := bson.M{
		"content_type": contentType,
		"uploaded_at":  time.Now().UTC(),
	}

	opts := options.GridFSUpload().SetMetadata(metadata)
	fileID, err := ps.gridFS.UploadFromStream(filename, content, opts)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	return media.PathPrefix + "/" + fileID.Hex(), nil
}

func (ps *PhotoStorage) Remove(ctx context.Context, path string) error {
	objectID, err := objectIDFromPath(path)
	if err != nil {
		return err
	}
	if err := ps.gridFS.Delete(objectID); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return fmt.Errorf("remove %s: %w", path, media.ErrNotFound)
		}
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func (ps *PhotoStorage) Open(ctx context.Context, key string) (*media.File, error) {
	objectID, err := objectIDFromPath(key)
	if err != nil {
		return nil, err
	}

	stream, err := ps.gridFS.OpenDownloadStream(objectID)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, media.ErrNotFound
		}
		return nil, fmt.Errorf("download failed: %w", err)
	}

	fileInfo := stream.GetFile()
	var metadata bson.M
	if fileInfo.Metadata != nil {
		_ = bson.Unmarshal(fileInfo.Metadata, &metadata)
	}
	contentType := getStringFromMap(metadata, "content_type")
	if contentType == "" {
		contentType = common.ContentTypeForFilename(fileInfo.Name)
	}

	return &media.File{
		Name:        fileInfo.Name,
		ContentType: contentType,
		Size:        fileInfo.Length,
		ModTime:     fileInfo.UploadDate,
		Content:     stream,
	}, nil
}

func objectIDFromPath(path string) (primitive.ObjectID, error) {
	key, err := media.KeyFromPath(path)
	if err != nil {
		return primitive.NilObjectID, err
	}
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(key))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid file ID %q: %w", key, media.ErrNotFound)
	}
	return objectID, nil
}

func getStringFromMap(m bson.M, key string) string {
	if m == nil {
		return ""
	}
	if val, ok := m[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
