package minio

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"inquiryfiles/internal/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ArchiveProvider stores long-term copies of attachment payloads in an
// object store. Archived copies are private; access goes through presigned
// URLs only.
type ArchiveProvider struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

func NewArchiveProvider(cfg *config.Config, logger *zap.Logger) (*ArchiveProvider, error) {
	minioURL := cfg.MinioURL
	if !strings.HasPrefix(minioURL, "http://") && !strings.HasPrefix(minioURL, "https://") {
		minioURL = "https://" + minioURL
	}

	u, err := url.Parse(minioURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse minio URL: %w", err)
	}
	secure := u.Scheme == "https"

	logger.Info("Initializing archive store",
		zap.String("endpoint", u.Host),
		zap.String("bucket", cfg.MinioArchiveBucket),
		zap.Bool("secure", secure),
	)

	client, err := minio.New(u.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioUser, cfg.MinioPassword, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	provider := &ArchiveProvider{
		client: client,
		bucket: cfg.MinioArchiveBucket,
		logger: logger,
	}

	if err := provider.ensureBucket(); err != nil {
		return nil, err
	}

	return provider, nil
}

func (a *ArchiveProvider) ensureBucket() error {
	ctx := context.Background()

	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check archive bucket: %w", err)
	}

	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create archive bucket: %w", err)
		}
		a.logger.Info("Created archive bucket", zap.String("bucket", a.bucket))
	}

	return nil
}

// ObjectName builds the archive key for one attachment payload, keyed by
// the inquiry/attachment lineage and the version the payload had when it
// was archived.
func ObjectName(inquiryID, attachmentID uint64, versionNo int, documentName string) string {
	ext := filepath.Ext(documentName)
	return fmt.Sprintf("inquiries/%d/%d/v%d/%s%s", inquiryID, attachmentID, versionNo, uuid.New().String(), ext)
}

// Put uploads one payload under the given object name.
func (a *ArchiveProvider) Put(ctx context.Context, objectName string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := a.client.PutObject(ctx, a.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to archive object: %w", err)
	}

	a.logger.Info("Archived payload",
		zap.String("object_name", objectName),
		zap.Int("size", len(data)),
	)
	return nil
}

// PresignedGetURL returns a time-limited download link for an archived copy.
func (a *ArchiveProvider) PresignedGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	u, err := a.client.PresignedGetObject(ctx, a.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign archive URL: %w", err)
	}
	return u.String(), nil
}

// Remove deletes an archived copy, used when an attachment is purged.
func (a *ArchiveProvider) Remove(ctx context.Context, objectName string) error {
	if err := a.client.RemoveObject(ctx, a.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove archived object: %w", err)
	}
	a.logger.Info("Removed archived object", zap.String("object_name", objectName))
	return nil
}

func (a *ArchiveProvider) GetClient() *minio.Client {
	return a.client
}

func (a *ArchiveProvider) GetBucket() string {
	return a.bucket
}
