package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/yourusername/wordscope-api/internal/config"
)

// Uploader определяет контракт загрузки изображений в объектное хранилище
type Uploader interface {
	UploadImage(ctx context.Context, userID uint, contentType string, body io.Reader) (string, error)
}

// S3Uploader загружает изображения в S3-совместимое хранилище
type S3Uploader struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

// NewS3Uploader создает новый загрузчик изображений.
// Endpoint задается для S3-совместимых хранилищ (MinIO и т.п.); пустой — это AWS.
func NewS3Uploader(ctx context.Context, cfg config.StorageConfig) (*S3Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	log.Printf("[Storage] S3 uploader initialized: bucket=%s, region=%s", cfg.Bucket, cfg.Region)

	return &S3Uploader{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// UploadImage кладет изображение под ключ uploads/{userID}/{timestamp}-{uuid}.jpg
// и возвращает публичный URL загруженного объекта.
func (u *S3Uploader) UploadImage(ctx context.Context, userID uint, contentType string, body io.Reader) (string, error) {
	key := fmt.Sprintf("uploads/%d/%d-%s%s",
		userID,
		time.Now().UnixMilli(),
		uuid.New().String(),
		extensionFor(contentType),
	)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image %s: %w", key, err)
	}

	url := u.objectURL(key)
	log.Printf("[Storage] Изображение загружено: key=%s", key)
	return url, nil
}

func (u *S3Uploader) objectURL(key string) string {
	if u.publicBaseURL != "" {
		return u.publicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", u.bucket, key)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
