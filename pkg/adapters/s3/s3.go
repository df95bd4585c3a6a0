// Package s3 implements core.Storage on an S3-compatible bucket (AWS S3 or MinIO).
//
// Every document is one object whose key is Prefix joined with the document path.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/aretw0/canon/pkg/core"
)

// Config holds explicit construction parameters. Credentials fall back to the
// default AWS chain when AccessKeyID is empty.
type Config struct {
	Region          string
	Bucket          string
	Prefix          string
	Endpoint        string // optional; enables a custom endpoint such as MinIO
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	PathStyle       bool
}

// Storage is a core.Storage backed by one bucket.
type Storage struct {
	client *s3.Client
	bucket string
	prefix string
}

// New builds the S3 client from cfg.
func New(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required: %w", core.ErrValidation)
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *s3.Client, bucket, prefix string) *Storage {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Storage{client: client, bucket: bucket, prefix: prefix}
}

func (s *Storage) key(path string) (string, error) {
	p, err := core.CleanPath(path)
	if err != nil {
		return "", err
	}
	return s.prefix + p, nil
}

// Initialize checks that the bucket is reachable.
func (s *Storage) Initialize(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &s.bucket}); err != nil {
		return fmt.Errorf("head bucket %s: %w: %w", s.bucket, core.ErrIO, err)
	}
	return nil
}

// Read implements core.Storage.
func (s *Storage) Read(ctx context.Context, path string) ([]byte, error) {
	key, err := s.key(path)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", path, core.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w: %w", key, core.ErrIO, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w: %w", key, core.ErrIO, err)
	}
	return data, nil
}

// Write implements core.Storage.
func (s *Storage) Write(ctx context.Context, path string, data []byte) error {
	key, err := s.key(path)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &key,
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType(key)),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w: %w", key, core.ErrIO, err)
	}
	return nil
}

// Exists implements core.Storage.
func (s *Storage) Exists(ctx context.Context, path string) (bool, error) {
	key, err := s.key(path)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("head %s: %w: %w", key, core.ErrIO, err)
}

// Delete implements core.Storage. S3 deletes are idempotent, so existence is
// checked first to report ErrNotFound.
func (s *Storage) Delete(ctx context.Context, path string) error {
	ok, err := s.Exists(ctx, path)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", path, core.ErrNotFound)
	}
	key, _ := s.key(path)
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		return fmt.Errorf("delete %s: %w: %w", key, core.ErrIO, err)
	}
	return nil
}

// List implements core.Storage.
func (s *Storage) List(ctx context.Context, prefix string) ([]string, error) {
	full := s.prefix + prefix
	paths := []string{}
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &s.bucket,
			Prefix:            &full,
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list %q: %w: %w", full, core.ErrIO, err)
		}
		for _, obj := range out.Contents {
			paths = append(paths, strings.TrimPrefix(aws.ToString(obj.Key), s.prefix))
		}
		if aws.ToBool(out.IsTruncated) && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	sort.Strings(paths)
	return paths, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}

func contentType(key string) string {
	switch {
	case strings.HasSuffix(key, ".json"):
		return "application/json"
	case strings.HasSuffix(key, ".yaml"), strings.HasSuffix(key, ".yml"):
		return "application/yaml"
	default:
		return "application/octet-stream"
	}
}

var _ core.Storage = (*Storage)(nil)

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "s3-storage"
}
