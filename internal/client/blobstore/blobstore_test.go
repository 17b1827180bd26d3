package blobstore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// swapSeams restores every package seam when the test ends.
func swapSeams(t *testing.T) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origHead := headObject
	origPut := putObject
	origPresign := presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		headObject = origHead
		putObject = origPut
		presignGetObject = origPresign
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		return aws.Config{Region: lo.Region}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "https://minio.local/" + aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key) + "?sig"}, nil
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background(), Config{
		Endpoint:  "http://127.0.0.1:9000",
		Region:    "us-east-1",
		Bucket:    "journal",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	}, nil)
	require.NoError(t, err)
	return s
}

// headWith answers HeadObject from a set of existing keys and records the
// keys asked for.
func headWith(existing map[string]bool, asked *[]string) func(*s3.Client, context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return func(_ *s3.Client, _ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
		key := aws.ToString(in.Key)
		*asked = append(*asked, key)
		if existing[key] {
			return &s3.HeadObjectOutput{}, nil
		}
		return nil, &types.NotFound{}
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "profilePictures/u1.jpg", AvatarKey("u1"))
	assert.Equal(t, "profilePictures/u1_thumb.jpg", ThumbKey("u1"))
}

func TestNew_AppliesConfig(t *testing.T) {
	swapSeams(t)

	var sawEndpoint string
	var sawPathStyle bool
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		assert.Equal(t, "us-east-1", cfg.Region)
		var o s3.Options
		for _, fn := range optFns {
			fn(&o)
		}
		sawEndpoint = aws.ToString(o.BaseEndpoint)
		sawPathStyle = o.UsePathStyle
		return s3.NewFromConfig(cfg, optFns...)
	}

	s := newTestStore(t)
	assert.Equal(t, DefaultURLExpiry, s.cfg.URLExpiry)
	assert.Equal(t, "http://127.0.0.1:9000", sawEndpoint)
	assert.True(t, sawPathStyle)
}

func TestNew_Errors(t *testing.T) {
	swapSeams(t)

	_, err := New(context.Background(), Config{}, nil)
	require.Error(t, err)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no profile")
	}
	_, err = New(context.Background(), Config{Bucket: "b"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no profile")
}

func TestAvatarURL_PrefersThumbnail(t *testing.T) {
	swapSeams(t)
	var asked []string
	headObject = headWith(map[string]bool{"profilePictures/u1_thumb.jpg": true, "profilePictures/u1.jpg": true}, &asked)

	url, err := newTestStore(t).AvatarURL(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "https://minio.local/journal/profilePictures/u1_thumb.jpg?sig", url)
	assert.Equal(t, []string{"profilePictures/u1_thumb.jpg"}, asked)
}

func TestAvatarURL_FallsBackToFull(t *testing.T) {
	swapSeams(t)
	var asked []string
	headObject = headWith(map[string]bool{"profilePictures/u1.jpg": true}, &asked)

	url, err := newTestStore(t).AvatarURL(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, strings.Contains(url, "profilePictures/u1.jpg"))
	assert.Equal(t, []string{"profilePictures/u1_thumb.jpg", "profilePictures/u1.jpg"}, asked)
}

func TestAvatarURL_NoPicture(t *testing.T) {
	swapSeams(t)
	var asked []string
	headObject = headWith(nil, &asked)

	_, err := newTestStore(t).AvatarURL(context.Background(), "u1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Len(t, asked, 2)
}

func TestAvatarURL_StoreDown(t *testing.T) {
	swapSeams(t)
	headObject = func(*s3.Client, context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
		return nil, errors.New("dial tcp 127.0.0.1:9000: connection refused")
	}

	_, err := newTestStore(t).AvatarURL(context.Background(), "u1")
	require.ErrorIs(t, err, common.ErrUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAvatarURL_PresignExpiry(t *testing.T) {
	swapSeams(t)
	var asked []string
	headObject = headWith(map[string]bool{"profilePictures/u1.jpg": true}, &asked)

	var expires time.Duration
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		expires = po.Expires
		return &v4.PresignedHTTPRequest{URL: "u"}, nil
	}

	s := newTestStore(t)
	s.cfg.URLExpiry = time.Hour
	_, err := s.AvatarURL(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, expires)
}

func TestUploadAvatar(t *testing.T) {
	swapSeams(t)

	var gotKey, gotType string
	putObject = func(_ *s3.Client, _ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		gotKey = aws.ToString(in.Key)
		gotType = aws.ToString(in.ContentType)
		return &s3.PutObjectOutput{}, nil
	}

	require.NoError(t, newTestStore(t).UploadAvatar(context.Background(), "u1", strings.NewReader("jpeg")))
	assert.Equal(t, "profilePictures/u1.jpg", gotKey)
	assert.Equal(t, "image/jpeg", gotType)

	putObject = func(*s3.Client, context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, errors.New("timeout")
	}
	assert.ErrorIs(t, newTestStore(t).UploadAvatar(context.Background(), "u1", strings.NewReader("jpeg")), common.ErrUnavailable)
}
