package s3_test

import (
	"context"
	"errors"
	"io"
	"testing"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bidhouse/adapters/s3"
)

type fakePutter struct {
	input *awss3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, params *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &awss3.PutObjectOutput{}, nil
}

func TestNewImageStore(t *testing.T) {
	_, err := s3.NewImageStore(&fakePutter{}, "bucket", "not a url")
	assert.Error(t, err)

	_, err = s3.NewImageStore(&fakePutter{}, "bucket", "https://cdn.example.com")
	assert.NoError(t, err)
}

func TestImageStore_Upload(t *testing.T) {
	t.Run("returns public url", func(t *testing.T) {
		putter := &fakePutter{}
		store, err := s3.NewImageStore(putter, "images", "https://cdn.example.com/media")
		require.NoError(t, err)

		url, err := store.Upload(context.Background(), "abc.png", "image/png", pngHeader)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/media/abc.png", url)
		assert.Equal(t, "images", *putter.input.Bucket)
		assert.Equal(t, "abc.png", *putter.input.Key)
		assert.Equal(t, "image/png", *putter.input.ContentType)
		assert.Equal(t, pngHeader, putter.body)
	})

	t.Run("upload error", func(t *testing.T) {
		putter := &fakePutter{err: errors.New("boom")}
		store, err := s3.NewImageStore(putter, "images", "https://cdn.example.com")
		require.NoError(t, err)

		_, err = store.Upload(context.Background(), "abc.png", "image/png", pngHeader)
		assert.ErrorContains(t, err, "boom")
	})
}
