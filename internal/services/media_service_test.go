package services

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMediaUpload(t *testing.T) {
	uploads := NewUploads(t.TempDir(), zap.NewNop())
	svc := NewMediaService(uploads, zap.NewNop())
	ctx := context.Background()

	info, err := svc.Upload(ctx, Upload{
		Filename: "floor plan (v2).pdf", ContentType: "application/pdf", Size: 3, Body: strings.NewReader("pdf"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(info.Filename, "media_"))
	assert.True(t, strings.HasSuffix(info.Filename, "_floor_plan__v2_.pdf"))
	assert.Equal(t, "/uploads/media/"+info.Filename, info.URL)
	assert.Equal(t, int64(3), info.Size)
	path, ok := uploads.Path(info.URL)
	require.True(t, ok)
	assert.FileExists(t, path)

	_, err = svc.Upload(ctx, Upload{
		Filename: "chair.GLB", ContentType: "application/octet-stream", Body: strings.NewReader("glb"),
	})
	assert.NoError(t, err)

	_, err = svc.Upload(ctx, Upload{Filename: "run.exe", ContentType: "application/x-msdownload", Body: strings.NewReader("")})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = svc.Upload(ctx, Upload{
		Filename: "big.mp4", ContentType: "video/mp4", Size: MaxMediaSize + 1, Body: strings.NewReader(""),
	})
	assert.ErrorIs(t, err, ErrFileTooLarge)
}
