package hosting

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/krishkalaria12/card-images/models"
)

// S3Gateway stores images in an S3 bucket addressed by virtual-hosted URLs.
type S3Gateway struct {
	client  *s3.Client
	bucket  string
	prefix  string
	region  string
	timeout time.Duration
}

func NewS3Gateway(ctx context.Context, bucket, prefix, region string, timeout time.Duration) (*S3Gateway, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return newS3Gateway(s3.NewFromConfig(cfg), bucket, prefix, region, timeout), nil
}

func newS3Gateway(client *s3.Client, bucket, prefix, region string, timeout time.Duration) *S3Gateway {
	return &S3Gateway{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		region:  region,
		timeout: timeout,
	}
}

func (g *S3Gateway) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	key := objectKey(g.prefix, newObjectName(filename))
	_, err := g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(g.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(http.DetectContentType(data)),
	})
	if err != nil {
		return "", fmt.Errorf("%w: put object: %v", models.ErrUploadFailed, err)
	}

	return s3PublicURL(g.bucket, g.region, key), nil
}

func (g *S3Gateway) Delete(ctx context.Context, imageURL string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	key := objectKey(g.prefix, ObjectName(imageURL))
	_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete s3 object %s: %w", key, err)
	}
	return nil
}

func s3PublicURL(bucket, region, key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}
