package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"reelforge-server/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var MinioClient *minio.Client

// InitMinIO connects the object storage client; called from main.
func InitMinIO() {
	cfg := config.AppConfig.MinIO
	var err error
	MinioClient, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatalf("minio init failed: %v", err)
	}
	log.Println("minio connected")
}

// UploadToStorage streams data into the configured bucket and returns a
// presigned GET URL. size may be -1 when unknown.
func UploadToStorage(ctx context.Context, reader io.Reader, objectName string, size int64) (string, error) {
	cfg := config.AppConfig.MinIO
	bucketName := cfg.Bucket

	exists, err := MinioClient.BucketExists(ctx, bucketName)
	if err != nil {
		return "", fmt.Errorf("bucket check failed: %w", err)
	}
	if !exists {
		if err := MinioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return "", fmt.Errorf("bucket create failed: %w", err)
		}
		log.Printf("bucket %q created", bucketName)
	}

	contentType := "application/octet-stream"
	switch filepath.Ext(objectName) {
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".png":
		contentType = "image/png"
	case ".webp":
		contentType = "image/webp"
	case ".mp4":
		contentType = "video/mp4"
	case ".mp3":
		contentType = "audio/mpeg"
	case ".json":
		contentType = "application/json"
	}

	_, err = MinioClient.PutObject(ctx, bucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}

	expiry := time.Hour * 72
	presignedURL, err := MinioClient.PresignedGetObject(ctx, bucketName, objectName, expiry, make(url.Values))
	if err != nil {
		return "", fmt.Errorf("presign failed: %w", err)
	}

	log.Printf("uploaded object: %s", objectName)
	return presignedURL.String(), nil
}

// MinioStore adapts the storage layer to the asset Resolver.
type MinioStore struct{}

// PersistFromURL downloads an asset and re-uploads it under the given object
// name for stability/licensing. The caller keeps the source URL on failure.
func (MinioStore) PersistFromURL(ctx context.Context, sourceURL, objectName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download status: %d", resp.StatusCode)
	}
	return UploadToStorage(ctx, resp.Body, objectName, resp.ContentLength)
}
