package storage

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sarashino/voice-diary-api/internal/config"
)

const s3CallTimeout = 30 * time.Second

// ObjectStore addresses a single bucket over an S3-style API. Keys are
// namespaced under an optional configured prefix; public URLs are built from
// a configured base URL, never from the bucket's native endpoint, which may
// be private.
type ObjectStore struct {
	client        *s3.Client
	bucket        string
	keyPrefix     string
	publicBaseURL string
}

func NewObjectStore(ctx context.Context, cfg *config.Config) (*ObjectStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, &Error{Kind: KindNotConfigured, Op: "s3.new", Err: err}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		// MinIO and most self-hosted stores require path-style addressing.
		o.UsePathStyle = true
	})

	return &ObjectStore{
		client:        client,
		bucket:        cfg.S3Bucket,
		keyPrefix:     strings.Trim(cfg.S3KeyPrefix, "/"),
		publicBaseURL: strings.TrimRight(cfg.S3PublicBaseURL, "/"),
	}, nil
}

func (o *ObjectStore) Remote() bool { return true }

func (o *ObjectStore) KeyFor(logicalPath string) string {
	logical := strings.TrimPrefix(path.Clean("/"+logicalPath), "/")
	if o.keyPrefix == "" {
		return logical
	}
	return o.keyPrefix + "/" + logical
}

func (o *ObjectStore) PublicURL(key string) string {
	return o.publicBaseURL + "/" + strings.TrimPrefix(key, "/")
}

func (o *ObjectStore) KeyFromURL(rawURL string) (string, bool) {
	if !strings.HasPrefix(rawURL, o.publicBaseURL+"/") {
		return "", false
	}
	return strings.TrimPrefix(rawURL, o.publicBaseURL+"/"), true
}

func (o *ObjectStore) Put(ctx context.Context, key string, body io.Reader, contentType string, size int64) error {
	ctx, cancel := context.WithTimeout(ctx, s3CallTimeout)
	defer cancel()

	input := &s3.PutObjectInput{
		Bucket:      aws.String(o.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := o.client.PutObject(ctx, input); err != nil {
		return &Error{Kind: KindUploadRejected, Op: "s3.put", Err: err}
	}
	return nil
}

// Delete removes the object. S3 DeleteObject succeeds for missing keys, so
// repeated compensating deletes are no-ops.
func (o *ObjectStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s3CallTimeout)
	defer cancel()

	if _, err := o.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return &Error{Kind: KindUnavailable, Op: "s3.delete", Err: err}
	}
	return nil
}
