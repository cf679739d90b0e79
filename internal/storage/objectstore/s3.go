// Package objectstore uploads clip binaries to S3-compatible storage.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	PublicBaseURL string
}

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Storage stores uploads in one bucket and hands out public URLs for them.
type S3Storage struct {
	uploader uploader
	bucket   string
	baseURL  string
}

func NewS3Storage(ctx context.Context, cfg Config) (*S3Storage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("s3 storage: bucket is required")
	}
	base, err := publicBaseURL(cfg)
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})

	up := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return newS3Storage(up, cfg.Bucket, base), nil
}

func newS3Storage(up uploader, bucket, baseURL string) *S3Storage {
	return &S3Storage{
		uploader: up,
		bucket:   bucket,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}
}

// publicBaseURL is the absolute prefix that object keys are appended to. An
// explicit PublicBaseURL wins. Without one the path-style bucket URL of the
// custom endpoint, or of AWS in the configured region, is used.
func publicBaseURL(cfg Config) (string, error) {
	raw := strings.TrimSpace(cfg.PublicBaseURL)
	if raw == "" {
		bucket := url.PathEscape(strings.TrimSpace(cfg.Bucket))
		switch {
		case strings.TrimSpace(cfg.Endpoint) != "":
			raw = strings.TrimSuffix(strings.TrimSpace(cfg.Endpoint), "/") + "/" + bucket
		case strings.TrimSpace(cfg.Region) != "":
			raw = fmt.Sprintf("https://s3.%s.amazonaws.com/%s", strings.TrimSpace(cfg.Region), bucket)
		default:
			return "", errors.New("s3 storage: public base url, endpoint or region is required")
		}
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("s3 storage: public base url %q is not an absolute http(s) url", raw)
	}
	return strings.TrimSuffix(u.String(), "/"), nil
}

// Save uploads r under key and returns the public media URL.
func (s *S3Storage) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", errors.New("s3 storage: empty key")
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   manager.ReadSeekCloser(r),
		ACL:    s3types.ObjectCannedACLPublicRead,
	}
	if ct := contentType(key); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("s3 storage upload %s: %w", key, err)
	}

	return s.baseURL + "/" + key, nil
}

func contentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	default:
		return ""
	}
}
