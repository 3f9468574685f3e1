// Package storage uploads booking documents to an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"healthcare-crm-backend/config"
	"healthcare-crm-backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

// Lifetime of the presigned share link.
const ShareLinkTTL = 7 * 24 * time.Hour

// UploadResult holds the two links returned for an uploaded document.
type UploadResult struct {
	ShareLink  string
	DirectLink string
}

type MinIOUploader struct {
	client    *minio.Client
	bucket    string
	publicURL string
	log       *logrus.Logger
}

func NewMinIOUploader(cfg config.StorageConfig, log *logrus.Logger) (*MinIOUploader, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint
	}

	return &MinIOUploader{client: client, bucket: cfg.Bucket, publicURL: publicURL, log: log}, nil
}

// EnsureBucketExists creates the bucket if it doesn't exist.
func (u *MinIOUploader) EnsureBucketExists(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", u.bucket, err)
		}
	}
	return nil
}

// Upload stores the file at localPath and removes it afterwards, whether or
// not the upload succeeded.
func (u *MinIOUploader) Upload(ctx context.Context, localPath, mimeType, desiredName string) (*UploadResult, error) {
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			u.log.Warnf("Failed to remove temp upload %s: %+v", localPath, err)
		}
	}()

	ext := path.Ext(desiredName)
	base := strings.TrimSuffix(path.Base(desiredName), ext)
	objectKey := fmt.Sprintf("documents/%s_%s%s", base, uuid.New().String()[:8], ext)

	_, err := u.client.FPutObject(ctx, u.bucket, objectKey, localPath, minio.PutObjectOptions{ContentType: mimeType})
	if err != nil {
		return nil, apperr.Upstream("failed to upload document", err)
	}

	share, err := u.client.PresignedGetObject(ctx, u.bucket, objectKey, ShareLinkTTL, url.Values{})
	if err != nil {
		return nil, apperr.Upstream("failed to sign document link", err)
	}

	return &UploadResult{
		ShareLink:  share.String(),
		DirectLink: fmt.Sprintf("%s/%s/%s", u.publicURL, u.bucket, objectKey),
	}, nil
}
