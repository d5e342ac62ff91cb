package s3

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter is the part of the S3 client the store needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type ClientConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

// NewClient builds an S3 client for an S3-compatible endpoint with static credentials.
func NewClient(ctx context.Context, config ClientConfig) (*s3.Client, error) {
	const op = "s3.NewClient"
	region := config.Region
	if region == "" {
		region = "auto"
	}
	cfg, err := awsCfg.LoadDefaultConfig(
		ctx,
		awsCfg.WithBaseEndpoint(config.Endpoint),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, "")),
		awsCfg.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to load AWS config, err=%w", op, err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	}), nil
}

// ImageStore uploads images to a bucket and returns their public URL.
type ImageStore struct {
	client         ObjectPutter
	bucket         string
	publicEndpoint *url.URL
}

func NewImageStore(client ObjectPutter, bucket, publicBaseURL string) (*ImageStore, error) {
	const op = "s3.NewImageStore"
	publicEndpoint, err := url.Parse(publicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to parse public base URL, err=%w", op, err)
	}
	if publicEndpoint.Scheme == "" || publicEndpoint.Host == "" {
		return nil, fmt.Errorf("[%s] Public base URL must be absolute, got %q", op, publicBaseURL)
	}
	return &ImageStore{client: client, bucket: bucket, publicEndpoint: publicEndpoint}, nil
}

// Upload stores content under key and returns the public URL of the object.
func (s *ImageStore) Upload(ctx context.Context, key, contentType string, content []byte) (string, error) {
	const op = "s3.ImageStore.Upload"
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("[%s] Fail to upload file to S3, err=%w", op, err)
	}
	uri := *s.publicEndpoint
	uri.Path = path.Join("/", uri.Path, key)
	return uri.String(), nil
}
