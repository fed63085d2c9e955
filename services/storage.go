package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	fig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/disintegration/imaging"
	"github.com/locentra/locentra-api/config"
)

// FileStore uploads binary objects and returns their publicly resolvable URL.
type FileStore interface {
	Save(ctx context.Context, key string, body io.Reader) (string, error)
}

type s3FileStore struct {
	Config *config.Config
	client *s3.Client
}

// NewS3FileStore builds the S3-backed FileStore from config credentials.
func NewS3FileStore(conf *config.Config) (FileStore, error) {
	cfg, err := fig.LoadDefaultConfig(context.Background(),
		fig.WithRegion(conf.AwsRegion),
		fig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			conf.AwsAccessKeyID,
			conf.AwsSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config, %v", err)
	}

	return &s3FileStore{
		Config: conf,
		client: s3.NewFromConfig(cfg),
	}, nil
}

func (f *s3FileStore) Save(ctx context.Context, key string, body io.Reader) (string, error) {
	content, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read file content: %v", err)
	}

	_, err = f.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(f.Config.AwsBucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(content),
		ACL:    types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %v", err)
	}

	fileURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", f.Config.AwsBucket, f.Config.AwsRegion, key)
	return fileURL, nil
}

// SanitizeFilename replaces spaces so the object key stays URL-friendly.
func SanitizeFilename(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

// MakeThumbnail downsizes an image to a bounded JPEG thumbnail, returning
// the encoded bytes.
func MakeThumbnail(source io.Reader) ([]byte, error) {
	img, _, err := image.Decode(source)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v", err)
	}

	thumb := imaging.Thumbnail(img, 320, 320, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %v", err)
	}
	return buf.Bytes(), nil
}
