package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/mesh-intelligence/kennel/pkg/types"
)

const defaultS3Region = "us-east-1"

// s3API is the subset of the S3 client the storage uses.
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3 stores each key as an object under an optional prefix of one bucket.
type S3 struct {
	mu     sync.Mutex
	client s3API
	bucket string
	prefix string
	closed bool
}

// OpenS3 builds an S3 client from cfg. Static credentials are used when
// both keys are set, otherwise the default AWS credential chain.
func OpenS3(ctx context.Context, cfg types.S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, types.ErrBucketEmpty
	}
	region := cfg.Region
	if region == "" {
		region = defaultS3Region
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
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
	return newS3(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3(client s3API, bucket, prefix string) *S3 {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3) objectKey(key string) string { return s.prefix + key }

func (s *S3) live() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStorageClosed
	}
	return nil
}

func (s *S3) GetItem(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, types.ErrInvalidKey
	}
	if err := s.live(); err != nil {
		return nil, false, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get object %s: %w", key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, true, nil
}

func (s *S3) SetItem(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return types.ErrInvalidKey
	}
	if err := s.live(); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(value),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *S3) RemoveItem(ctx context.Context, key string) error {
	if key == "" {
		return types.ErrInvalidKey
	}
	if err := s.live(); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil && !isNoSuchKey(err) {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (s *S3) Keys(ctx context.Context) ([]string, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	var keys []string
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range out.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(obj.Key), s.prefix))
		}
		if aws.ToBool(out.IsTruncated) && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *S3) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func isNoSuchKey(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *s3types.NotFound
	return errors.As(err, &nf)
}
