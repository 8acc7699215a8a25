package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sashvara/storefront_api/internal/config"
	"github.com/sashvara/storefront_api/internal/utils"
)

// MaxImagesPerRequest bounds multi-file uploads.
const MaxImagesPerRequest = 10

// ObjectPutter stores objects; *s3.Client satisfies it.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ImageScreener rejects images that must not be published.
type ImageScreener interface {
	Screen(ctx context.Context, data []byte) error
}

// Upload is one file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// MediaService stores product images in S3.
type MediaService struct {
	client   ObjectPutter
	screener ImageScreener
	bucket   string
	baseURL  string
	maxBytes int64
}

// NewS3Client builds an S3 client from configuration. Static keys are used
// when set, otherwise the default AWS credential chain.
func NewS3Client(ctx context.Context, cfg *config.S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewMediaService creates a MediaService. screener may be nil.
func NewMediaService(client ObjectPutter, screener ImageScreener, cfg *config.S3Config) *MediaService {
	return &MediaService{
		client:   client,
		screener: screener,
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimRight(cfg.PublicBaseURL, "/"),
		maxBytes: cfg.MaxUploadBytes,
	}
}

// Upload validates and stores one image, returning its public URL.
func (s *MediaService) Upload(ctx context.Context, f Upload) (string, error) {
	if s == nil || s.client == nil {
		return "", utils.UpstreamError("Image uploads are not configured", errors.New("media storage disabled"))
	}
	if len(f.Data) == 0 {
		return "", utils.ValidationError("Image file is empty")
	}
	if s.maxBytes > 0 && int64(len(f.Data)) > s.maxBytes {
		return "", utils.ValidationError("Image exceeds %d MB", s.maxBytes/(1<<20))
	}
	contentType := http.DetectContentType(f.Data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", utils.ValidationError("Only image files are allowed")
	}

	if s.screener != nil {
		if err := s.screener.Screen(ctx, f.Data); err != nil {
			return "", err
		}
	}

	key := fmt.Sprintf("products/%s%s", uuid.New().String(), imageExt(f.Filename, contentType))
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(f.Data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to upload to S3")
		return "", utils.UpstreamError("Failed to upload image", err)
	}

	log.Info().Str("key", key).Int("bytes", len(f.Data)).Msg("image uploaded")
	return s.ObjectURL(key), nil
}

// UploadMany stores each file in order and returns their URLs.
func (s *MediaService) UploadMany(ctx context.Context, files []Upload) ([]string, error) {
	if len(files) == 0 {
		return nil, utils.ValidationError("No images provided")
	}
	if len(files) > MaxImagesPerRequest {
		return nil, utils.ValidationError("At most %d images per request", MaxImagesPerRequest)
	}
	urls := make([]string, 0, len(files))
	for _, f := range files {
		u, err := s.Upload(ctx, f)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// MaxBytes is the per-file size limit.
func (s *MediaService) MaxBytes() int64 {
	if s.maxBytes <= 0 {
		return 5 << 20
	}
	return s.maxBytes
}

// ObjectURL returns the public URL of key.
func (s *MediaService) ObjectURL(key string) string {
	return s.baseURL + "/" + key
}

// ReadUpload reads r fully, refusing more than limit bytes.
func ReadUpload(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, utils.ValidationError("Image exceeds %d MB", limit/(1<<20))
	}
	return data, nil
}

func imageExt(filename, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" && len(ext) <= 5 {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	return ""
}
