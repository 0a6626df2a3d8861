package mres

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Store is a Store backed by an S3 prefix, one object per dataset
// key. Uploads go through manager.Uploader the way the teacher's
// S3Writer does for whole-file uploads; reads and listing use the
// client directly, mirroring the Get/List split fsStore makes locally.
type s3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
	ctx      context.Context

	mu   sync.Mutex
	keys map[string]bool
}

// OpenS3 opens (or begins writing) an MRES container under an S3
// prefix, e.g. "s3://bucket/path/to/container".
func OpenS3(uri string) (Store, error) {
	trimmed := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		return nil, ioErrf(nil, "invalid S3 path %s (expected s3://bucket/prefix)", uri)
	}

	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, ioErrf(err, "load AWS config")
	}
	client := s3.NewFromConfig(cfg)
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 10 * 1024 * 1024
		u.Concurrency = 3
	})

	st := &s3Store{
		client:   client,
		uploader: uploader,
		bucket:   parts[0],
		prefix:   strings.TrimSuffix(parts[1], "/"),
		ctx:      ctx,
		keys:     make(map[string]bool),
	}
	if err := st.discoverKeys(); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *s3Store) objectKey(key string) string {
	return s.prefix + "/" + strings.TrimPrefix(key, "/")
}

func (s *s3Store) Get(key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(s.ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return nil, notFoundf("s3://%s/%s: %v", s.bucket, s.objectKey(key), err)
	}
	return out.Body, nil
}

func (s *s3Store) Put(key string, val io.Reader) error {
	objKey := s.objectKey(key)
	_, err := s.uploader.Upload(s.ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
		Body:   val,
	})
	if err != nil {
		return ioErrf(err, "upload s3://%s/%s", s.bucket, objKey)
	}
	s.mu.Lock()
	s.keys[key] = true
	s.mu.Unlock()
	return nil
}

func (s *s3Store) Type() string { return "S3Store" }

func (s *s3Store) List(prefix string) ([]string, error) {
	prefix = strings.Trim(prefix, "/")
	seen := make(map[string]bool)
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.keys {
		rest := strings.TrimPrefix(k, prefix)
		if rest == k && prefix != "" {
			continue
		}
		rest = strings.TrimPrefix(rest, "/")
		if rest == "" {
			continue
		}
		seen[strings.SplitN(rest, "/", 2)[0]] = true
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	return names, nil
}

// discoverKeys populates the key set for an existing container by
// listing every object under the prefix once, up front; s3Store then
// tracks further Puts itself rather than re-listing on every List call.
func (s *s3Store) discoverKeys() error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + "/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(s.ctx)
		if err != nil {
			return ioErrf(err, "list s3://%s/%s", s.bucket, s.prefix)
		}
		for _, obj := range page.Contents {
			key := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix+"/")
			s.keys[key] = true
		}
	}
	return nil
}
