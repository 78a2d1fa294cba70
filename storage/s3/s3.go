// Package s3 implements storage.Backend on Amazon S3 and S3-compatible
// services such as MinIO. Download URLs are pre-signed.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	apperrors "github.com/kbukum/firekit/errors"
	"github.com/kbukum/firekit/logger"
	"github.com/kbukum/firekit/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderS3, func(cfg storage.Config, log *logger.Logger) (storage.Backend, error) {
		c := &Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		}
		c.ApplyDefaults()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return NewBackend(context.Background(), c)
	})
}

// Backend implements storage.Backend using Amazon S3.
type Backend struct {
	client   *awss3.Client
	presign  *awss3.PresignClient
	bucket   string
}

// NewBackend creates an S3 backend from the given config.
func NewBackend(ctx context.Context, cfg *Config) (*Backend, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	var s3Opts []func(*awss3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.UsePathStyle = true
		})
	}

	client := awss3.NewFromConfig(awsCfg, s3Opts...)
	return &Backend{
		client:  client,
		presign: awss3.NewPresignClient(client),
		bucket:  cfg.Bucket,
	}, nil
}

// Bucket returns the S3 bucket name.
func (b *Backend) Bucket() string { return b.bucket }

// Upload writes data from reader to S3.
func (b *Backend) Upload(ctx context.Context, path string, reader io.Reader, contentType string) (*storage.ObjectInfo, error) {
	input := &awss3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(path),
		Body:   reader,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := b.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("s3: upload: %w", err)
	}
	return b.Metadata(ctx, path)
}

// Download returns a reader for the S3 object at the given path.
func (b *Backend) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	out, err := b.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.ObjectNotFound(path)
		}
		return nil, fmt.Errorf("s3: download: %w", err)
	}
	return out.Body, nil
}

// Delete removes an S3 object. Returns nil if the object does not exist.
func (b *Backend) Delete(ctx context.Context, path string) error {
	_, err := b.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("s3: delete: %w", err)
	}
	return nil
}

// Exists checks whether an S3 object exists.
func (b *Backend) Exists(ctx context.Context, path string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("s3: head: %w", err)
	}
	return true, nil
}

// Metadata returns the S3 object's metadata.
func (b *Backend) Metadata(ctx context.Context, path string) (*storage.ObjectInfo, error) {
	out, err := b.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.ObjectNotFound(path)
		}
		return nil, fmt.Errorf("s3: head: %w", err)
	}

	info := &storage.ObjectInfo{
		Bucket:      b.bucket,
		Path:        path,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
	}
	if out.LastModified != nil {
		info.Updated = *out.LastModified
	}
	return info, nil
}

// URL returns the canonical object URL.
func (b *Backend) URL(_ context.Context, path string) (string, error) {
	return fmt.Sprintf("%s/%s/%s", b.resolveEndpoint(), b.bucket, path), nil
}

// SignedURL returns a pre-signed GET URL valid for expiry.
func (b *Backend) SignedURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	req, err := b.presign.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(path),
	}, awss3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("s3: presign: %w", err)
	}
	return req.URL, nil
}

// List returns metadata for all objects whose key starts with prefix.
func (b *Backend) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	input := &awss3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	}

	var files []storage.ObjectInfo
	for {
		out, err := b.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("s3: list: %w", err)
		}
		for _, obj := range out.Contents {
			fi := storage.ObjectInfo{
				Bucket: b.bucket,
				Path:   aws.ToString(obj.Key),
				Size:   aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				fi.Updated = *obj.LastModified
			}
			files = append(files, fi)
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}
	return files, nil
}

func (b *Backend) resolveEndpoint() string {
	opts := b.client.Options()
	if opts.BaseEndpoint != nil && *opts.BaseEndpoint != "" {
		return *opts.BaseEndpoint
	}
	return fmt.Sprintf("https://s3.%s.amazonaws.com", opts.Region)
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}

// compile-time checks
var _ storage.Backend = (*Backend)(nil)
var _ storage.SignedURLProvider = (*Backend)(nil)
