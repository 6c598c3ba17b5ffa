package hosting

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/krishkalaria12/card-images/models"
	"google.golang.org/api/option"
)

// GCSGateway stores images as public objects in a Google Cloud Storage bucket.
type GCSGateway struct {
	cl         *storage.Client
	bucketName string
	uploadPath string
	timeout    time.Duration
}

func NewGCSGateway(ctx context.Context, bucketName, uploadPath string, timeout time.Duration, opts ...option.ClientOption) (*GCSGateway, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &GCSGateway{
		cl:         client,
		bucketName: bucketName,
		uploadPath: uploadPath,
		timeout:    timeout,
	}, nil
}

func (g *GCSGateway) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	objectPath := objectKey(g.uploadPath, newObjectName(filename))

	wc := g.cl.Bucket(g.bucketName).Object(objectPath).NewWriter(ctx)
	if _, err := io.Copy(wc, bytes.NewReader(data)); err != nil {
		wc.Close()
		return "", fmt.Errorf("%w: io.Copy: %v", models.ErrUploadFailed, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("%w: Writer.Close: %v", models.ErrUploadFailed, err)
	}

	return gcsPublicURL(g.bucketName, objectPath), nil
}

func (g *GCSGateway) Delete(ctx context.Context, imageURL string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	objectPath := objectKey(g.uploadPath, ObjectName(imageURL))
	err := g.cl.Bucket(g.bucketName).Object(objectPath).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete gcs object %s: %w", objectPath, err)
	}
	return nil
}

func (g *GCSGateway) Close() error {
	return g.cl.Close()
}

// gcsClientOptions turns the configured credentials file and project into client options.
// The project is billed for requests as the quota project.
func gcsClientOptions(credentialsFile, projectID string) []option.ClientOption {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	if projectID != "" {
		opts = append(opts, option.WithQuotaProject(projectID))
	}
	return opts
}

func gcsPublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectPath)
}

// newObjectName returns a collision-free object name keeping the upload's extension.
func newObjectName(filename string) string {
	return uuid.NewString() + filepath.Ext(filename)
}
