// Package storage normalises uploaded images (payment proofs, package photos,
// logos) to WebP and stores them on Aliyun OSS or local disk.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/cicilan/internal/clock"
	"github.com/smallbiznis/cicilan/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrEmptyFile          = errors.New("empty_file")
	ErrFileTooLarge       = errors.New("file_too_large")
	ErrUnsupportedFormat  = errors.New("unsupported_file_type")
	ErrInvalidUploadScope = errors.New("invalid_upload_scope")
)

var Module = fx.Module("providers.storage",
	fx.Provide(NewStoreFromConfig),
	fx.Provide(NewUploader),
)

// Store persists an object and returns its public URL.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

var allowedScopes = map[string]struct{}{
	"proofs":   {},
	"packages": {},
	"logos":    {},
	"icons":    {},
}

type Uploader struct {
	store   Store
	log     *zap.Logger
	clock   clock.Clock
	maxSize int64
	opts    ImageOptions
}

type UploaderParams struct {
	fx.In

	Store Store
	Cfg   config.Config
	Log   *zap.Logger
	Clock clock.Clock `optional:"true"`
}

func NewUploader(p UploaderParams) *Uploader {
	c := p.Clock
	if c == nil {
		c = clock.New()
	}
	return &Uploader{
		store:   p.Store,
		log:     p.Log.Named("storage.uploader"),
		clock:   c,
		maxSize: p.Cfg.Storage.MaxUploadBytes,
		opts: ImageOptions{
			MaxWidth:  p.Cfg.Storage.MaxImageWidth,
			MaxHeight: p.Cfg.Storage.MaxImageHeight,
			Quality:   float32(p.Cfg.Storage.WebPQuality),
		},
	}
}

// UploadImage re-encodes r as WebP and stores it under scope/yyyy/mm/<ulid>.webp.
func (u *Uploader) UploadImage(ctx context.Context, scope string, r io.Reader) (string, error) {
	scope = strings.ToLower(strings.TrimSpace(scope))
	if scope == "" {
		scope = "proofs"
	}
	if _, ok := allowedScopes[scope]; !ok {
		return "", ErrInvalidUploadScope
	}

	limit := u.maxSize
	if limit <= 0 {
		limit = 5 << 20
	}
	raw, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", ErrEmptyFile
	}
	if int64(len(raw)) > limit {
		return "", ErrFileTooLarge
	}

	encoded, err := NormalizeImage(bytes.NewReader(raw), u.opts)
	if err != nil {
		return "", err
	}

	key := u.objectKey(scope)
	url, err := u.store.Put(ctx, key, encoded, "image/webp")
	if err != nil {
		return "", fmt.Errorf("store %s: %w", key, err)
	}
	u.log.Info("image uploaded",
		zap.String("key", key),
		zap.Int("original_bytes", len(raw)),
		zap.Int("stored_bytes", len(encoded)),
	)
	return url, nil
}

func (u *Uploader) objectKey(scope string) string {
	now := u.clock.Now().UTC()
	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy())
	return fmt.Sprintf("%s/%s/%s.webp", scope, now.Format("2006/01"), strings.ToLower(id.String()))
}

// NewStoreFromConfig prefers OSS when its credentials are complete.
func NewStoreFromConfig(cfg config.Config, log *zap.Logger) (Store, error) {
	log = log.Named("storage")
	if cfg.Storage.OSSEnabled() {
		store, err := NewOSSStore(cfg.Storage)
		if err != nil {
			return nil, err
		}
		log.Info("using aliyun oss storage", zap.String("bucket", cfg.Storage.OSSBucket))
		return store, nil
	}
	log.Info("using local storage", zap.String("dir", cfg.Storage.LocalDir))
	return NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL), nil
}
