// Package storage implements the ChunkedStore abstraction (spec §4.2):
// random-access reads over the blob backing an MRES or BBM file, plus a
// sequential Cursor for parsing primitive integers and NUL-terminated
// strings out of it. Local files and S3 objects are supported, grounded
// on the teacher's LocalStorage/S3Storage split (pkg/bams3/storage.go
// and pkg/bams3/s3_writer.go in the source pack) but reworked around
// byte ranges rather than whole-file reads, since the matrix engine
// needs to seek into arbitrary block offsets.
package storage

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ChunkedStore is a random-access reader over the blob backing a
// dataset file. Implementations fail with a wrapped io error on
// underlying I/O failure.
type ChunkedStore interface {
	// ReadRange reads exactly length bytes starting at offset.
	ReadRange(offset int64, length int64) ([]byte, error)
	// NewReader returns a sequential reader starting at offset, valid
	// until Close.
	NewReader(offset int64) (io.ReadCloser, error)
	// Size returns the total size of the blob in bytes.
	Size() (int64, error)
	// Close releases any resources held by the store.
	Close() error
}

// Open opens path as a ChunkedStore, dispatching to S3 when path has an
// "s3://" scheme and to the local filesystem otherwise.
func Open(path string) (ChunkedStore, error) {
	if strings.HasPrefix(path, "s3://") {
		return openS3(path)
	}
	return openLocal(path)
}

// localStore implements ChunkedStore over a local file.
type localStore struct {
	f *os.File
}

func openLocal(path string) (ChunkedStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &localStore{f: f}, nil
}

func (s *localStore) ReadRange(offset, length int64) ([]byte, error) {
	buf := make([]byte, length)
	if _, err := s.f.ReadAt(buf, offset); err != nil {
		return nil, fmt.Errorf("read range [%d, %d): %w", offset, offset+length, err)
	}
	return buf, nil
}

func (s *localStore) NewReader(offset int64) (io.ReadCloser, error) {
	return &sectionReadCloser{r: io.NewSectionReader(s.f, offset, math.MaxInt64-offset)}, nil
}

func (s *localStore) Size() (int64, error) {
	fi, err := s.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func (s *localStore) Close() error { return s.f.Close() }

// s3Store implements ChunkedStore over an S3 object using ranged
// GetObject requests, reusing the bucket/prefix URI parsing the teacher
// used for whole-object S3 storage.
type s3Store struct {
	client *s3.Client
	bucket string
	key    string
	ctx    context.Context
	size   int64
}

func openS3(uri string) (ChunkedStore, error) {
	if !strings.HasPrefix(uri, "s3://") {
		return nil, fmt.Errorf("invalid S3 path: %s (must start with s3://)", uri)
	}
	trimmed := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, fmt.Errorf("invalid S3 path: %s (expected s3://bucket/key)", uri)
	}

	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	st := &s3Store{
		client: s3.NewFromConfig(cfg),
		bucket: parts[0],
		key:    parts[1],
		ctx:    ctx,
	}
	if _, err := st.Size(); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *s3Store) ReadRange(offset, length int64) ([]byte, error) {
	rangeHeader := fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)
	out, err := s.client.GetObject(s.ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Range:  aws.String(rangeHeader),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s range %s: %w", s.bucket, s.key, rangeHeader, err)
	}
	defer out.Body.Close()

	buf := make([]byte, length)
	if _, err := io.ReadFull(out.Body, buf); err != nil {
		return nil, fmt.Errorf("short read from s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return buf, nil
}

func (s *s3Store) NewReader(offset int64) (io.ReadCloser, error) {
	out, err := s.client.GetObject(s.ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-", offset)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open s3://%s/%s at offset %d: %w", s.bucket, s.key, offset, err)
	}
	return out.Body, nil
}

func (s *s3Store) Size() (int64, error) {
	if s.size > 0 {
		return s.size, nil
	}
	out, err := s.client.HeadObject(s.ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to stat s3://%s/%s: %w", s.bucket, s.key, err)
	}
	s.size = aws.ToInt64(out.ContentLength)
	return s.size, nil
}

func (s *s3Store) Close() error { return nil }

type sectionReadCloser struct {
	r *io.SectionReader
}

func (s *sectionReadCloser) Read(p []byte) (int, error) { return s.r.Read(p) }
func (s *sectionReadCloser) Close() error                { return nil }
