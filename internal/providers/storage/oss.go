package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/smallbiznis/cicilan/internal/config"
)

type OSSStore struct {
	bucket     *oss.Bucket
	endpoint   string
	bucketName string
	prefix     string
	publicBase string
}

func NewOSSStore(cfg config.StorageConfig) (*OSSStore, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSAccessSecret)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}
	bucket, err := client.Bucket(cfg.OSSBucket)
	if err != nil {
		return nil, fmt.Errorf("oss bucket: %w", err)
	}
	publicBase := ""
	if strings.HasPrefix(cfg.PublicBaseURL, "http") {
		publicBase = cfg.PublicBaseURL
	}
	return &OSSStore{
		bucket:     bucket,
		endpoint:   cfg.OSSEndpoint,
		bucketName: cfg.OSSBucket,
		prefix:     strings.Trim(cfg.OSSPrefix, "/"),
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

func (s *OSSStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	objectKey := s.objectKey(key)
	opts := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType(contentType),
		oss.ContentDisposition("inline"),
		oss.CacheControl("public, max-age=31536000, immutable"),
	}
	if err := s.bucket.PutObject(objectKey, bytes.NewReader(data), opts...); err != nil {
		return "", err
	}
	return s.PublicURL(objectKey), nil
}

func (s *OSSStore) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *OSSStore) PublicURL(objectKey string) string {
	if s.publicBase != "" {
		return s.publicBase + "/" + objectKey
	}
	host := strings.TrimPrefix(strings.TrimPrefix(s.endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", s.bucketName, host, objectKey)
}
