// Package storage implements the blob store over an S3-compatible
// backend (MinIO in development). File payloads live here; the database
// row keeps only the storage key.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	sc "github.com/dkotlyar/snipstash/internal/server/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		return c.GetObject(ctx, in)
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in)
	}
)

// S3Storage talks to one bucket of an S3-compatible backend.
type S3Storage struct {
	config *sc.Config
}

func NewS3Storage(config *sc.Config) *S3Storage {
	return &S3Storage{config: config}
}

// StorageKey derives the blob key for a snippet file: the snippet id as
// a folder, then an upload timestamp with the original file extension.
func StorageKey(id int64, fileName string) string {
	return fmt.Sprintf("%d/%d%s", id, time.Now().Unix(), path.Ext(fileName))
}

func (s *S3Storage) getClient() (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

func (s *S3Storage) getPresignClient() (*s3.PresignClient, error) {
	client, err := s.getClient()
	if err != nil {
		return nil, err
	}
	return newS3PresignClient(client), nil
}

// PresignPut returns a short-lived URL the client can PUT file bytes to
// directly, bypassing the API payload ceiling.
func (s *S3Storage) PresignPut(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// PresignGet returns a download URL for a stored blob. The expiry is
// long enough for a viewing session; clients re-request per session and
// never persist the URL.
func (s *S3Storage) PresignGet(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(1*time.Hour))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// Put stores blob bytes under key.
func (s *S3Storage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	client, err := s.getClient()
	if err != nil {
		return err
	}

	bucket := s.config.S3Bucket

	in := &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	_, err = putObject(client, ctx, in)
	return err
}

// Get reads blob bytes back.
func (s *S3Storage) Get(ctx context.Context, key string) ([]byte, error) {
	client, err := s.getClient()
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket

	out, err := getObject(client, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

// Delete removes a blob.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	client, err := s.getClient()
	if err != nil {
		return err
	}

	bucket := s.config.S3Bucket

	_, err = deleteObject(client, ctx, &s3.DeleteObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	return err
}
