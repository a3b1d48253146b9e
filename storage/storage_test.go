package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	store, err := NewLocal(fs, "/data/files")
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "a.png", strings.NewReader("png-bytes"), 9, "image/png"))

	exists, err := afero.Exists(fs, "/data/files/a.png")
	require.NoError(t, err)
	assert.True(t, exists, "object is stored below the root directory")

	rc, err := store.Open(ctx, "a.png")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "png-bytes", string(body))

	ok, err := store.Exists(ctx, "a.png")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, "a.png"))
	require.NoError(t, store.Delete(ctx, "a.png"), "deleting a missing object is not an error")

	_, err = store.Open(ctx, "a.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocal_RejectsTraversal(t *testing.T) {
	store, err := NewLocal(afero.NewMemMapFs(), "/data/files")
	require.NoError(t, err)

	for _, key := range []string{"../secret", "", "a/../../b"} {
		err := store.Put(context.Background(), key, strings.NewReader("x"), 1, "text/plain")
		assert.Error(t, err, key)
	}
}

type fakeObjects struct {
	objects map[string][]byte
}

func (f *fakeObjects) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeObjects) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3_MapsMissingObjects(t *testing.T) {
	ctx := context.Background()
	store := &S3{client: &fakeObjects{objects: map[string][]byte{}}, bucket: "uploads"}

	ok, err := store.Exists(ctx, "nope.png")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Open(ctx, "nope.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	require.NoError(t, store.Put(ctx, "yes.png", strings.NewReader("abc"), 3, "image/png"))
	ok, err = store.Exists(ctx, "yes.png")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := store.Open(ctx, "yes.png")
	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "abc", string(body))
}

func TestNewR2_RequiresBucket(t *testing.T) {
	_, err := NewR2(R2Config{AccountID: "acc"})
	assert.Error(t, err)

	store, err := NewR2(R2Config{AccountID: "acc", BucketName: "b"})
	require.NoError(t, err)
	assert.Equal(t, "b", store.bucket)
}
