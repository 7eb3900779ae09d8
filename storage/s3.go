// Package storage provides the object-storage collaborator for avatar and
// cover image uploads, backed by any S3-compatible endpoint (AWS S3,
// MinIO).
//
// Upload consumes a local temporary file: on success the object's public
// URL is returned, on failure the temp file is deleted so abandoned
// uploads never accumulate on disk.
package storage

import (
	"context"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Config holds the S3 connection settings. BaseEndpoint is optional and
// points at a MinIO-style alternative endpoint; PublicBaseURL is the URL
// prefix under which uploaded objects are reachable.
type Config struct {
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	BaseEndpoint  string
	PublicBaseURL string
}

// S3 implements the accounts.FileStorage interface.
type S3 struct {
	client *s3.Client
	config Config
}

// New builds an S3 uploader from static credentials.
func New(ctx context.Context, cfg Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3{client: client, config: cfg}, nil
}

// Upload stores the file at localPath under a date-partitioned random key
// and returns its public URL. The local file is removed on failure, per
// the FileStorage contract; on success it is left for the caller's
// request-lifecycle cleanup.
func (s *S3) Upload(ctx context.Context, localPath string) (string, error) {
	if localPath == "" {
		return "", fmt.Errorf("storage: no file path")
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("storage: open upload: %w", err)
	}

	key := objectKey(localPath)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentTypeFor(localPath)),
	})
	_ = f.Close()
	if err != nil {
		if rmErr := os.Remove(localPath); rmErr != nil {
			log.Print("storage: failed to remove temp file after upload error")
		}
		return "", fmt.Errorf("storage: put object: %w", err)
	}

	return s.publicURL(key), nil
}

func (s *S3) publicURL(key string) string {
	base := strings.TrimSuffix(s.config.PublicBaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.config.Bucket, s.config.Region)
	}
	return base + "/" + key
}

// objectKey partitions uploads by date and randomizes the file name so
// concurrent uploads of identically named temp files cannot collide.
func objectKey(localPath string) string {
	now := time.Now().UTC()
	ext := strings.ToLower(filepath.Ext(localPath))
	return fmt.Sprintf("uploads/%d/%02d/%02d/%s%s", now.Year(), now.Month(), now.Day(), uuid.NewString(), ext)
}

func contentTypeFor(localPath string) string {
	if ct := mime.TypeByExtension(filepath.Ext(localPath)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
