package source

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/net/http2"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/filereader/pkg/errors"
)

// S3API is the subset of the S3 client used to fetch objects.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewHTTPClient returns a client whose transport negotiates HTTP/2 where the
// server supports it.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	_ = http2.ConfigureTransport(transport)
	return &http.Client{Transport: transport, Timeout: timeout}
}

func openHTTP(ctx context.Context, client *http.Client, loc Location) (io.ReadCloser, int64, error) {
	if client == nil {
		client = NewHTTPClient(0)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.Path, nil)
	if err != nil {
		return nil, -1, errors.Wrap(err, errors.ErrorTypeValidation, "build request")
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, -1, errors.Wrap(err, errors.ErrorTypeTimeout, "fetch location")
		}
		return nil, -1, errors.Wrap(err, errors.ErrorTypeConnection, "fetch location")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		errType := errors.ErrorTypeConnection
		if resp.StatusCode == http.StatusNotFound {
			errType = errors.ErrorTypeNotFound
		}
		return nil, -1, errors.Newf(errType, "GET %s: %s", loc.Path, resp.Status).
			WithDetail("status", resp.StatusCode)
	}
	return resp.Body, resp.ContentLength, nil
}

// NewS3Client loads the default AWS configuration chain.
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "load AWS config")
	}
	return s3.NewFromConfig(cfg), nil
}

func openS3(ctx context.Context, client S3API, loc Location) (io.ReadCloser, int64, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Path),
	})
	if err != nil {
		return nil, -1, errors.Wrap(err, errors.ErrorTypeConnection, "get S3 object").
			WithDetail("bucket", loc.Bucket).
			WithDetail("key", loc.Path)
	}
	size := int64(-1)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return out.Body, size, nil
}

// NewGCSClient creates a storage client, optionally from a credentials file.
func NewGCSClient(ctx context.Context, credentialsFile string) (*storage.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "create GCS client")
	}
	return client, nil
}

func openGCS(ctx context.Context, client *storage.Client, loc Location) (io.ReadCloser, int64, error) {
	r, err := client.Bucket(loc.Bucket).Object(loc.Path).NewReader(ctx)
	if err != nil {
		errType := errors.ErrorTypeConnection
		if stderrors.Is(err, storage.ErrObjectNotExist) || stderrors.Is(err, storage.ErrBucketNotExist) {
			errType = errors.ErrorTypeNotFound
		}
		return nil, -1, errors.Wrapf(err, errType, "open gs://%s/%s", loc.Bucket, loc.Path)
	}
	return r, r.Attrs.Size, nil
}
