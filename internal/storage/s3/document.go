// Package s3 stores the shop document as one object in an S3-compatible
// bucket (AWS S3, MinIO, R2).
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/botica/internal/storage"
)

const contentTypeJSON = "application/json"

// API is the subset of the S3 client the store needs.
type API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

var (
	_ API             = (*s3.Client)(nil)
	_ storage.Backend = (*DocumentStore)(nil)
)

// ClientConfig describes how to reach the bucket. Leave Endpoint empty for
// AWS; set it for MinIO and other path-style services.
type ClientConfig struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// NewClient builds an S3 client. Static credentials are used when both keys
// are set, otherwise the default AWS credential chain applies.
func NewClient(ctx context.Context, cfg ClientConfig) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, clientOpts...), nil
}

// DocumentStore implements storage.Backend over a single object. Keys ending
// in ".gz" are gzip compressed. A missing object loads as an empty document.
type DocumentStore struct {
	api    API
	bucket string
	key    string
}

// NewDocumentStore returns a DocumentStore for bucket/key.
func NewDocumentStore(api API, bucket, key string) *DocumentStore {
	return &DocumentStore{api: api, bucket: bucket, key: key}
}

func (s *DocumentStore) compressed() bool {
	return strings.HasSuffix(s.key, ".gz")
}

func (s *DocumentStore) location() string {
	return s.bucket + "/" + s.key
}

// Load downloads and decodes the object.
func (s *DocumentStore) Load(ctx context.Context) (*storage.Document, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			doc := &storage.Document{}
			doc.Normalize()
			return doc, nil
		}
		return nil, storage.Unavailable(err, "get "+s.location())
	}
	defer func() { _ = out.Body.Close() }()

	raw, err := s.read(out.Body)
	if err != nil {
		return nil, storage.Unavailable(err, "read "+s.location())
	}

	doc := &storage.Document{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, storage.Unavailable(err, "decode "+s.location())
	}
	doc.Normalize()
	return doc, nil
}

func (s *DocumentStore) read(r io.Reader) ([]byte, error) {
	if !s.compressed() {
		return io.ReadAll(r)
	}
	gz, err := pgzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "create gzip reader")
	}
	defer func() { _ = gz.Close() }()
	return io.ReadAll(gz)
}

// Save encodes the document and overwrites the object.
func (s *DocumentStore) Save(ctx context.Context, doc *storage.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	doc.Normalize()

	raw, err := json.Marshal(doc)
	if err != nil {
		return storage.Unavailable(err, "encode "+s.location())
	}

	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		ContentType: aws.String(contentTypeJSON),
	}
	if s.compressed() {
		var buf bytes.Buffer
		gz := pgzip.NewWriter(&buf)
		if _, err := gz.Write(raw); err != nil {
			_ = gz.Close()
			return storage.Unavailable(err, "compress "+s.location())
		}
		if err := gz.Close(); err != nil {
			return storage.Unavailable(err, "compress "+s.location())
		}
		raw = buf.Bytes()
		in.ContentEncoding = aws.String("gzip")
	}
	in.Body = bytes.NewReader(raw)
	in.ContentLength = aws.Int64(int64(len(raw)))

	if _, err := s.api.PutObject(ctx, in); err != nil {
		return storage.Unavailable(err, "put "+s.location())
	}
	return nil
}

// Ping checks that the bucket exists and is reachable.
func (s *DocumentStore) Ping(ctx context.Context) error {
	if _, err := s.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return storage.Unavailable(err, "head bucket "+s.bucket)
	}
	return nil
}
