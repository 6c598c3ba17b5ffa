package hosting

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/krishkalaria12/card-images/config"
)

// Gateway stores image bytes with an external provider.
type Gateway interface {
	// Upload stores data and returns the public URL of the stored object.
	Upload(ctx context.Context, filename string, data []byte) (string, error)
	// Delete removes the object behind a URL previously returned by Upload.
	Delete(ctx context.Context, imageURL string) error
}

// New builds the gateway selected by cfg.HostingProvider.
func New(ctx context.Context, cfg *config.Config) (Gateway, error) {
	switch cfg.HostingProvider {
	case config.ProviderSul, "":
		return NewSulGateway(cfg.SulBaseURL, cfg.SulKey, cfg.HostingTimeout), nil
	case config.ProviderGCS:
		return NewGCSGateway(ctx, cfg.GCSBucketName, cfg.GCSUploadPath, cfg.HostingTimeout,
			gcsClientOptions(cfg.GCSCredentialsFile, cfg.GCSProjectID)...)
	case config.ProviderS3:
		return NewS3Gateway(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region, cfg.HostingTimeout)
	default:
		return nil, fmt.Errorf("unknown hosting provider %q", cfg.HostingProvider)
	}
}

// ObjectName returns the trailing path segment of imageURL, which every provider
// uses as the object's name.
func ObjectName(imageURL string) string {
	p := imageURL
	if u, err := url.Parse(imageURL); err == nil && u.Path != "" {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}

// objectKey joins a configured key prefix and an object name.
func objectKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + name
}
