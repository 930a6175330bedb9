// Package storage wraps bucket-scoped S3 file I/O for the admin core. All
// objects are written with server-side AES-256 encryption; credentials are
// bound per bucket at construction time and never mixed.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	apperrors "github.com/GSA/notifications-admin-sub001/pkg/errors"
)

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Store is a bucket-scoped object store adapter.
type Store struct {
	client S3API
	bucket string
}

func NewStore(client S3API, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

func (s *Store) Bucket() string {
	return s.bucket
}

// BucketCredentials binds one bucket to its own static credentials.
type BucketCredentials struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Client builds an S3 client for one bucket's credentials.
func NewS3Client(ctx context.Context, creds BucketCredentials) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(creds.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// Upload writes an object with server-side AES-256 encryption and optional
// user-defined metadata.
func (s *Store) Upload(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(s.bucket),
		Key:                  aws.String(key),
		Body:                 bytes.NewReader(body),
		ContentType:          aws.String(contentType),
		Metadata:             metadata,
		ServerSideEncryption: types.ServerSideEncryptionAes256,
	})
	if err != nil {
		return apperrors.NewStorageWrite(s.bucket, key, err)
	}
	return nil
}

// Download reads a whole object.
func (s *Store) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewStorageNotFound(s.bucket, key, err)
		}
		return nil, apperrors.NewStorageRead(s.bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, apperrors.NewStorageRead(s.bucket, key, err)
	}
	return data, nil
}

// GetMetadata returns the user-defined metadata of an object.
func (s *Store) GetMetadata(ctx context.Context, key string) (map[string]string, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewStorageNotFound(s.bucket, key, err)
		}
		return nil, apperrors.NewStorageRead(s.bucket, key, err)
	}
	return out.Metadata, nil
}

// SetMetadata replaces the user-defined metadata of an object via a self-copy
// with MetadataDirective=REPLACE, preserving server-side encryption.
func (s *Store) SetMetadata(ctx context.Context, key string, metadata map[string]string) error {
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:               aws.String(s.bucket),
		Key:                  aws.String(key),
		CopySource:           aws.String(s.bucket + "/" + key),
		Metadata:             metadata,
		MetadataDirective:    types.MetadataDirectiveReplace,
		ServerSideEncryption: types.ServerSideEncryptionAes256,
	})
	if err != nil {
		if isNotFound(err) {
			return apperrors.NewStorageNotFound(s.bucket, key, err)
		}
		return apperrors.NewStorageWrite(s.bucket, key, err)
	}
	return nil
}

// Delete removes an object. Deleting a missing object is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperrors.NewStorageWrite(s.bucket, key, err)
	}
	return nil
}

// ListByPrefix returns the keys of all objects under a prefix.
func (s *Store) ListByPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}
	for {
		out, err := s.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, apperrors.NewStorageRead(s.bucket, prefix, err)
		}
		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}
	return keys, nil
}

// DeleteByPrefix bulk-deletes every object under a prefix and reports how
// many were removed. Used to clear a user's temporary uploads on logout or
// cancel.
func (s *Store) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := s.ListByPrefix(ctx, prefix)
	if err != nil {
		return 0, err
	}
	for i, key := range keys {
		if err := s.Delete(ctx, key); err != nil {
			return i, err
		}
	}
	return len(keys), nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}
