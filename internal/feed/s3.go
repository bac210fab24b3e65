package feed

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/newtechs/backend/internal/config"
)

// NewS3Client builds an S3 client from static configuration. A custom
// endpoint (MinIO, R2) switches to path-style addressing. Without keys,
// requests are sent anonymously, which suits public buckets.
func NewS3Client(cfg config.S3) *s3.Client {
	opts := s3.Options{
		Region:       strings.TrimSpace(cfg.Region),
		UsePathStyle: cfg.PathStyle,
		Credentials:  aws.AnonymousCredentials{},
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}

	accessKey := strings.TrimSpace(cfg.AccessKeyID)
	secretKey := strings.TrimSpace(cfg.SecretAccessKey)
	if accessKey != "" && secretKey != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")
	}

	if endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"); endpoint != "" {
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}

	return s3.New(opts)
}
