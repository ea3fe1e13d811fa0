package media

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"github.com/Pesokrava/marketplace_reviews/internal/config"
)

const maxFileSize = 10 * 1024 * 1024 // 10MB

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Upload is a single media buffer to store
type Upload struct {
	Data        []byte
	ContentType string
}

// S3Uploader stores review media in S3 and returns public URLs
type S3Uploader struct {
	client    *s3.S3
	bucket    string
	region    string
	keyPrefix string
}

// NewS3Uploader creates an uploader from media configuration
func NewS3Uploader(cfg config.MediaConfig) *S3Uploader {
	sess := session.Must(session.NewSession(&aws.Config{
		Region:      aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
	}))

	return &S3Uploader{
		client:    s3.New(sess),
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		keyPrefix: cfg.KeyPrefix,
	}
}

// UploadMany stores every buffer and returns the URLs in order.
// Any failure aborts the whole batch; callers treat this as fatal for the
// operation that needed the media.
func (u *S3Uploader) UploadMany(ctx context.Context, uploads []Upload) ([]string, error) {
	urls := make([]string, 0, len(uploads))

	for i, up := range uploads {
		ext, ok := allowedContentTypes[up.ContentType]
		if !ok {
			return nil, fmt.Errorf("invalid media type at index %d: %s", i, up.ContentType)
		}
		if len(up.Data) == 0 {
			return nil, fmt.Errorf("empty media buffer at index %d", i)
		}
		if len(up.Data) > maxFileSize {
			return nil, fmt.Errorf("media at index %d exceeds %d bytes", i, maxFileSize)
		}

		key := path.Join(u.keyPrefix, time.Now().Format("2006/01/02"), uuid.New().String()+ext)

		_, err := u.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(u.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(up.Data),
			ContentType:   aws.String(up.ContentType),
			ContentLength: aws.Int64(int64(len(up.Data))),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to upload media %d/%d: %w", i+1, len(uploads), err)
		}

		urls = append(urls, fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key))
	}

	return urls, nil
}
