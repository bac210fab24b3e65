package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/newtechs/backend/internal/config"
)

const (
	// FileName is the export file expected inside each local source directory.
	FileName = "feed.atom"

	// DefaultReadTimeout bounds a whole fetch when none is configured.
	DefaultReadTimeout = 30 * time.Second

	s3Scheme = "s3://"
)

var errInvalidSource = errors.New("invalid source identifier")

// ObjectGetter is the subset of the S3 client used to download feeds.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Resolver fetches feed documents by source identifier.
type Resolver struct {
	rootDir    string
	timeout    time.Duration
	httpClient *http.Client
	objects    ObjectGetter
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithHTTPClient replaces the client used for http(s) sources.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Resolver) { r.httpClient = client }
}

// WithObjectGetter replaces the S3 client used for s3:// sources.
func WithObjectGetter(getter ObjectGetter) Option {
	return func(r *Resolver) { r.objects = getter }
}

// NewResolver creates a Resolver for the configured feed root, timeout and
// object store.
func NewResolver(cfg config.Feed, opts ...Option) *Resolver {
	r := &Resolver{
		rootDir:    cfg.RootDir,
		timeout:    cfg.ReadTimeout,
		httpClient: &http.Client{},
	}
	if r.timeout <= 0 {
		r.timeout = DefaultReadTimeout
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.objects == nil {
		r.objects = NewS3Client(cfg.S3)
	}
	return r
}

// Locate returns the file path, URL or object URI a source is read from.
func (r *Resolver) Locate(source string) (string, error) {
	switch {
	case isHTTPSource(source), strings.HasPrefix(source, s3Scheme):
		return source, nil
	case source == "" || source == "." || source == ".." || strings.ContainsAny(source, `/\`):
		return "", errInvalidSource
	default:
		return filepath.Join(r.rootDir, source, FileName), nil
	}
}

// Fetch reads the whole feed for source. Every failure, including running
// past the read timeout, is a *SourceUnavailableError.
func (r *Resolver) Fetch(ctx context.Context, source string) ([]byte, error) {
	location, err := r.Locate(source)
	if err != nil {
		return nil, &SourceUnavailableError{Source: source, Location: source, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	body, err := r.open(ctx, location)
	if err != nil {
		return nil, &SourceUnavailableError{Source: source, Location: location, Err: err}
	}
	defer body.Close()

	data, err := io.ReadAll(&contextReader{ctx: ctx, r: body})
	if err != nil {
		return nil, &SourceUnavailableError{Source: source, Location: location, Err: err}
	}
	return data, nil
}

func (r *Resolver) open(ctx context.Context, location string) (io.ReadCloser, error) {
	switch {
	case isHTTPSource(location):
		return r.openHTTP(ctx, location)
	case strings.HasPrefix(location, s3Scheme):
		return r.openObject(ctx, location)
	default:
		return os.Open(location)
	}
}

func (r *Resolver) openHTTP(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/atom+xml, application/xml;q=0.9, */*;q=0.5")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d: %w", resp.StatusCode, fs.ErrNotExist)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func (r *Resolver) openObject(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, key, ok := strings.Cut(strings.TrimPrefix(uri, s3Scheme), "/")
	if !ok || bucket == "" || key == "" {
		return nil, errInvalidSource
	}

	out, err := r.objects.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%s: %w", uri, fs.ErrNotExist)
		}
		return nil, err
	}
	return out.Body, nil
}

func isHTTPSource(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// contextReader stops reading once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
