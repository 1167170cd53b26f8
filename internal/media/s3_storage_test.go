package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObject struct {
	data        []byte
	contentType string
}

type fakeS3 struct {
	bucket  string
	objects map[string]fakeObject
	failPut error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{bucket: "photos", objects: map[string]fakeObject{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.failPut != nil {
		return nil, f.failPut
	}
	if aws.ToString(in.Bucket) != f.bucket {
		return nil, errors.New("wrong bucket")
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = fakeObject{data: data, contentType: aws.ToString(in.ContentType)}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	modified := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentType:   aws.String(obj.contentType),
		ContentLength: aws.Int64(int64(len(obj.data))),
		LastModified:  &modified,
	}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Storage_SaveOpenRemove(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := newS3Storage(fake, "photos")
	s.newKey = func() string { return "3f1c" }

	path, err := s.Save(ctx, "Me.JPG", "image/jpeg", strings.NewReader("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "uploads/3f1c.jpg", path)
	assert.Equal(t, "image/jpeg", fake.objects["3f1c.jpg"].contentType)

	f, err := s.Open(ctx, "3f1c.jpg")
	require.NoError(t, err)
	defer f.Content.Close()
	body, err := io.ReadAll(f.Content)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(body))
	assert.Equal(t, int64(4), f.Size)
	assert.False(t, f.ModTime.IsZero())

	require.NoError(t, s.Remove(ctx, path))
	_, err = s.Open(ctx, "3f1c.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3Storage_SaveError(t *testing.T) {
	fake := newFakeS3()
	fake.failPut = errors.New("access denied")
	s := newS3Storage(fake, "photos")

	_, err := s.Save(context.Background(), "a.png", "image/png", strings.NewReader("x"))
	assert.ErrorContains(t, err, "access denied")
}

func TestS3Storage_DefaultKeysAreUnique(t *testing.T) {
	s := newS3Storage(newFakeS3(), "photos")
	assert.NotEqual(t, s.newKey(), s.newKey())
}
