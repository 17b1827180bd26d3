// Package blobstore reads and writes profile pictures in an S3-compatible
// bucket (AWS S3 or MinIO).
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
)

const (
	avatarPrefix = "profilePictures/"
	// DefaultURLExpiry is how long a presigned avatar URL stays valid.
	DefaultURLExpiry = 15 * time.Minute
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	headObject = func(c *s3.Client, ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
		return c.HeadObject(ctx, in, optFns...)
	}
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Config locates the bucket. Empty credentials fall back to the default
// AWS credential chain.
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	URLExpiry time.Duration
}

type Store struct {
	cfg     Config
	client  *s3.Client
	presign *s3.PresignClient
	log     logging.Logger
}

// AvatarKey is the object key of the full-size picture.
func AvatarKey(ownerID string) string {
	return avatarPrefix + ownerID + ".jpg"
}

// ThumbKey is the object key of the thumbnail.
func ThumbKey(ownerID string) string {
	return avatarPrefix + ownerID + "_thumb.jpg"
}

func New(ctx context.Context, cfg Config, log logging.Logger) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("blobstore: bucket is required")
	}
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = DefaultURLExpiry
	}
	if log == nil {
		log = logging.Nop()
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// MinIO serves buckets by path.
			o.UsePathStyle = true
		}
	})

	return &Store{
		cfg:     cfg,
		client:  client,
		presign: newS3PresignClient(client),
		log:     log,
	}, nil
}

// AvatarURL returns a presigned GET URL for the owner's thumbnail, or for
// the full picture when there is no thumbnail. Neither existing is
// common.ErrNotFound.
func (s *Store) AvatarURL(ctx context.Context, ownerID string) (string, error) {
	for _, key := range []string{ThumbKey(ownerID), AvatarKey(ownerID)} {
		ok, err := s.exists(ctx, key)
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		return s.presignGet(ctx, key)
	}
	return "", fmt.Errorf("%w: no profile picture for %s", common.ErrNotFound, ownerID)
}

func (s *Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := headObject(s.client, ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, mapError(err)
}

func (s *Store) presignGet(ctx context.Context, key string) (string, error) {
	req, err := presignGetObject(s.presign, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.cfg.URLExpiry))
	if err != nil {
		return "", mapError(err)
	}
	return req.URL, nil
}

// UploadAvatar stores body as the owner's full-size picture.
func (s *Store) UploadAvatar(ctx context.Context, ownerID string, body io.Reader) error {
	_, err := putObject(s.client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(AvatarKey(ownerID)),
		Body:        body,
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return mapError(err)
	}
	s.log.Info(ctx, "avatar uploaded", "owner", ownerID)
	return nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	if errors.As(err, &nf) || errors.As(err, &nsk) {
		return true
	}
	return httpStatus(err) == http.StatusNotFound
}

func httpStatus(err error) int {
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		return re.HTTPStatusCode()
	}
	return 0
}

func mapError(err error) error {
	switch httpStatus(err) {
	case http.StatusNotFound:
		return common.Wrap(common.ErrNotFound, err)
	case http.StatusForbidden:
		return common.Wrap(common.ErrPermissionDenied, err)
	case http.StatusUnauthorized:
		return common.Wrap(common.ErrUnauthenticated, err)
	}
	return common.Wrap(common.ErrUnavailable, err)
}
