package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/taxdesk/taxdocs/internal/common"
	"github.com/taxdesk/taxdocs/internal/logging"
	"github.com/taxdesk/taxdocs/internal/server/config"
)

// Seams for tests.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// ObjectStore is the presigned-URL backend. The server never relays upload
// bytes for it: clients PUT straight to the presigned target, and the server
// only mints URLs, verifies objects and reads them back for downloads.
type ObjectStore struct {
	user       string
	password   string
	bucket     string
	region     string
	endpoint   string
	presignTTL time.Duration
	logger     logging.Logger
}

// NewObjectStore builds an object-store backend from configuration.
func NewObjectStore(cfg *config.Config, logger logging.Logger) *ObjectStore {
	return &ObjectStore{
		user:       cfg.S3RootUser,
		password:   cfg.S3RootPassword,
		bucket:     cfg.S3Bucket,
		region:     cfg.S3Region,
		endpoint:   cfg.S3BaseEndpoint,
		presignTTL: cfg.PresignValidityDuration,
		logger:     logger.With("module", "objectstore"),
	}
}

func (o *ObjectStore) client(ctx context.Context) (*s3.Client, error) {
	if o.user == "" || o.password == "" || o.bucket == "" {
		return nil, fmt.Errorf("%w: s3 credentials and bucket are required", common.ErrConfiguration)
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(o.region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(o.user, o.password, "")))
	if err != nil {
		return nil, fmt.Errorf("%w: loading aws config: %v", common.ErrConfiguration, err)
	}

	return newS3ClientFromConfig(cfg, func(opts *s3.Options) {
		opts.BaseEndpoint = aws.String(o.endpoint)
		opts.UsePathStyle = true
	}), nil
}

// PresignPut mints a time-limited URL allowing one direct PUT of key.
func (o *ObjectStore) PresignPut(ctx context.Context, key string) (string, error) {
	client, err := o.client(ctx)
	if err != nil {
		return "", err
	}

	req, err := presignPutObject(newS3PresignClient(client), ctx, &s3.PutObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(o.presignTTL))
	if err != nil {
		return "", fmt.Errorf("%w: presigning put for %s: %v", common.ErrTransfer, key, err)
	}

	return req.URL, nil
}

// Head verifies that key is retrievable and returns its stored size.
// A missing object maps to ErrNotFound.
func (o *ObjectStore) Head(ctx context.Context, key string) (int64, error) {
	client, err := o.client(ctx)
	if err != nil {
		return 0, err
	}

	out, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return 0, fmt.Errorf("%w: object %s", common.ErrNotFound, key)
		}
		return 0, fmt.Errorf("%w: heading %s: %v", common.ErrTransfer, key, err)
	}

	return aws.ToInt64(out.ContentLength), nil
}

// Get returns the full object body. A missing key maps to ErrNotFound.
func (o *ObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	client, err := o.client(ctx)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: object %s", common.ErrNotFound, key)
		}
		return nil, fmt.Errorf("%w: getting %s: %v", common.ErrTransfer, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", common.ErrTransfer, key, err)
	}
	return data, nil
}

// Delete removes key and reports success as a boolean. S3 treats deleting an
// absent key as success, matching the already-gone semantics of the SFTP
// backend.
func (o *ObjectStore) Delete(ctx context.Context, key string) bool {
	client, err := o.client(ctx)
	if err != nil {
		o.logger.Warn(ctx, "object delete could not build client", "key", key, "error", err)
		return false
	}

	if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	}); err != nil {
		o.logger.Warn(ctx, "object delete failed", "key", key, "error", err)
		return false
	}
	return true
}

// List returns every object key under prefix, used by the orphan audit.
func (o *ObjectStore) List(ctx context.Context, prefix string) ([]string, error) {
	client, err := o.client(ctx)
	if err != nil {
		return nil, err
	}

	var result []string
	paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
		Bucket: aws.String(o.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: listing %s: %v", common.ErrTransfer, prefix, err)
		}
		for _, obj := range page.Contents {
			result = append(result, aws.ToString(obj.Key))
		}
	}
	return result, nil
}
