package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chai2010/webp"
	"github.com/smallbiznis/cicilan/internal/clock"
	"github.com/smallbiznis/cicilan/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestUploader(t *testing.T, maxBytes int64) (*Uploader, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Config{Storage: config.StorageConfig{
		MaxUploadBytes: maxBytes,
		WebPQuality:    75,
		MaxImageWidth:  64,
		MaxImageHeight: 64,
	}}
	return NewUploader(UploaderParams{
		Store: NewLocalStore(dir, "/uploads/"),
		Cfg:   cfg,
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)),
	}), dir
}

func TestUploadImageStoresDownscaledWebP(t *testing.T) {
	uploader, dir := newTestUploader(t, 1<<20)

	url, err := uploader.UploadImage(context.Background(), "proofs", bytes.NewReader(pngBytes(t, 200, 100)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/proofs/2026/02/"))
	assert.True(t, strings.HasSuffix(url, ".webp"))

	stored, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
	require.NoError(t, err)
	cfg, err := webp.DecodeConfig(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 32, cfg.Height)
}

func TestUploadImageRejectsBadInput(t *testing.T) {
	uploader, _ := newTestUploader(t, 64)

	_, err := uploader.UploadImage(context.Background(), "proofs", bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = uploader.UploadImage(context.Background(), "proofs", bytes.NewReader(make([]byte, 65)))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = uploader.UploadImage(context.Background(), "proofs", strings.NewReader("not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = uploader.UploadImage(context.Background(), "../etc", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidUploadScope)
}

func TestOSSPublicURL(t *testing.T) {
	s := &OSSStore{endpoint: "https://oss-ap-southeast-5.aliyuncs.com", bucketName: "cicilan", prefix: "media"}
	assert.Equal(t, "media/proofs/a.webp", s.objectKey("proofs/a.webp"))
	assert.Equal(t, "https://cicilan.oss-ap-southeast-5.aliyuncs.com/media/proofs/a.webp", s.PublicURL("media/proofs/a.webp"))

	s.publicBase = "https://cdn.example.com"
	assert.Equal(t, "https://cdn.example.com/x.webp", s.PublicURL("x.webp"))
}
