package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"campaignspace/internal/common"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
		return c.GetObject(ctx, in, optFns...)
	}
	headObject = func(c *s3.Client, ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
		return c.HeadObject(ctx, in, optFns...)
	}
	waitObjectExists = func(c *s3.Client, ctx context.Context, in *s3.HeadObjectInput, maxWait time.Duration) error {
		return s3.NewObjectExistsWaiter(c).Wait(ctx, in, maxWait)
	}
)

var _ Client = (*S3Client)(nil)

// cacheControl matches the upload options the dashboard always sent.
const cacheControl = "3600"

// confirmTimeout bounds the read-after-write confirmation after a Put.
const confirmTimeout = 15 * time.Second

// S3Client implements Client over an S3-compatible backend (MinIO in
// development). Bucket names are passed per call since the service
// addresses two logical buckets.
type S3Client struct {
	client   *s3.Client
	endpoint string
}

// NewS3Client builds a client from static credentials and a base endpoint,
// using path-style addressing so resolved URLs have the form
// endpoint/bucket/key.
func NewS3Client(ctx context.Context, region, user, password, endpoint string) (*S3Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			user,     // MINIO_ROOT_USER
			password, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &S3Client{client: client, endpoint: endpoint}, nil
}

// Put uploads data and then waits until the object is readable, replacing
// the fixed settling delay the store otherwise needs for read-after-write.
func (c *S3Client) Put(ctx context.Context, bucket, key string, data []byte, contentType string, allowOverwrite bool) error {
	in := &s3.PutObjectInput{
		Bucket:       aws.String(bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		CacheControl: aws.String(cacheControl),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if !allowOverwrite {
		in.IfNoneMatch = aws.String("*")
	}

	if _, err := putObject(c.client, ctx, in); err != nil {
		if isPreconditionFailed(err) {
			return fmt.Errorf("put %s/%s: %w", bucket, key, common.ErrorConflict)
		}
		return fmt.Errorf("put %s/%s: %v: %w", bucket, key, err, common.ErrorStoreUnavailable)
	}

	if err := waitObjectExists(c.client, ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, confirmTimeout); err != nil {
		return fmt.Errorf("confirm %s/%s: %v: %w", bucket, key, err, common.ErrorStoreUnavailable)
	}

	return nil
}

// GetBytes downloads the object's bytes.
func (c *S3Client) GetBytes(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := getObject(c.client, ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("get %s/%s: %w", bucket, key, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("get %s/%s: %v: %w", bucket, key, err, common.ErrorStoreUnavailable)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %v: %w", bucket, key, err, common.ErrorStoreUnavailable)
	}
	return data, nil
}

// Exists checks the key with a HEAD request.
func (c *S3Client) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := headObject(c.client, ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("head %s/%s: %v: %w", bucket, key, err, common.ErrorStoreUnavailable)
	}
	return true, nil
}

// ResolveURL builds the public URL for an object without any network I/O.
// Existence is not checked.
func (c *S3Client) ResolveURL(bucket, key string) (string, error) {
	return resolvePublicURL(c.endpoint, bucket, key)
}

func resolvePublicURL(endpoint, bucket, key string) (string, error) {
	if bucket == "" || key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return "", fmt.Errorf("resolve %q in %q: %w", key, bucket, common.ErrorBadKey)
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("resolve %q in %q: bad endpoint: %w", key, bucket, common.ErrorBadKey)
	}
	return strings.TrimRight(endpoint, "/") + "/" + bucket + "/" + key, nil
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "PreconditionFailed" || code == "ConditionalRequestConflict"
	}
	return false
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound"
	}
	return false
}
