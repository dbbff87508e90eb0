package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/Svengali/UE4Scripts/internal/utils"
)

// mtimeMetadataKey carries the source file's modification time on the
// object, since S3 assigns its own LastModified on upload. RFC3339Nano so
// no precision is lost round-tripping through the store.
const mtimeMetadataKey = "mapsync-mtime"

// S3Config configures an S3-compatible sync root.
type S3Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// ParseS3URL splits an "s3://bucket/prefix" sync root into bucket and prefix.
func ParseS3URL(rawURL string) (bucket, prefix string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parse s3 url %q: %w", rawURL, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid s3 url %q: expected s3://bucket[/prefix]", rawURL)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}

// S3Store is a Store backed by an S3-compatible bucket.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3Store(ctx context.Context, cfg *S3Config) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *S3Store) objectKey(key string) string {
	return path.Join(s.prefix, key)
}

func (s *S3Store) Stat(ctx context.Context, key string) (*EntryInfo, error) {
	objKey := s.objectKey(key)
	resp, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &objKey,
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("stat %q: %w", key, ErrNotExist)
		}
		return nil, fmt.Errorf("stat %q: %w", key, err)
	}

	return &EntryInfo{
		Key:     key,
		Size:    aws.ToInt64(resp.ContentLength),
		ModTime: objectModTime(resp.Metadata, aws.ToTime(resp.LastModified)),
	}, nil
}

func (s *S3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	objKey := s.objectKey(key)
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &objKey,
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("open %q: %w", key, ErrNotExist)
		}
		return nil, fmt.Errorf("open %q: %w", key, err)
	}
	return resp.Body, nil
}

func (s *S3Store) Upload(ctx context.Context, key string, localPath string) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("upload %q: %w", key, err)
	}

	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("upload %q: %w", key, err)
	}
	defer file.Close()

	objKey := s.objectKey(key)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &objKey,
		Body:          file,
		ContentLength: aws.Int64(info.Size()),
		Metadata: map[string]string{
			mtimeMetadataKey: info.ModTime().UTC().Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return fmt.Errorf("upload %q: %w", key, err)
	}
	return nil
}

func (s *S3Store) Download(ctx context.Context, key string, localPath string) error {
	entry, err := s.Stat(ctx, key)
	if err != nil {
		return fmt.Errorf("download %q: %w", key, err)
	}

	body, err := s.Open(ctx, key)
	if err != nil {
		return fmt.Errorf("download %q: %w", key, err)
	}
	defer body.Close()

	if err := utils.EnsureParent(localPath); err != nil {
		return fmt.Errorf("download %q: %w", key, err)
	}

	file, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("download %q: %w", key, err)
	}
	if _, err := io.Copy(file, body); err != nil {
		file.Close()
		return fmt.Errorf("download %q: %w", key, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("download %q: %w", key, err)
	}

	if err := os.Chtimes(localPath, entry.ModTime, entry.ModTime); err != nil {
		return fmt.Errorf("download %q: %w", key, err)
	}
	return nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	// DeleteObject is a no-op for missing keys, so probe first to match the
	// Store contract.
	if _, err := s.Stat(ctx, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}

	objKey := s.objectKey(key)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &objKey,
	})
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (s *S3Store) List(ctx context.Context, dir string, prefix string) ([]*EntryInfo, error) {
	objPrefix := path.Join(s.objectKey(dir), prefix)

	var result []*EntryInfo
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    &s.bucket,
		Prefix:    aws.String(objPrefix),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %q: %w", dir, err)
		}
		for _, obj := range page.Contents {
			objKey := aws.ToString(obj.Key)
			key := strings.TrimPrefix(strings.TrimPrefix(objKey, s.prefix), "/")

			// ListObjectsV2 does not return user metadata, so the stored
			// mtime needs a HeadObject per entry. Groups are small.
			entry, err := s.Stat(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("list %q: %w", dir, err)
			}
			result = append(result, entry)
		}
	}
	return result, nil
}

func objectModTime(metadata map[string]string, fallback time.Time) time.Time {
	if raw, ok := metadata[mtimeMetadataKey]; ok {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return t
		}
	}
	return fallback
}
