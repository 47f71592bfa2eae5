package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	// ErrMalformed marks content that cannot be parsed. It is never retried.
	ErrMalformed = errors.New("malformed table")
	// ErrNotFound marks a location that does not exist. It is never retried.
	ErrNotFound = errors.New("source not found")
)

// Source fetches a table as records, the first record being the header.
type Source interface {
	Fetch(ctx context.Context, location string) ([][]string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, location string) ([][]string, error)

func (f SourceFunc) Fetch(ctx context.Context, location string) ([][]string, error) {
	return f(ctx, location)
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return records, nil
}

type fileSource struct{}

// NewFileSource reads local CSV files. Both plain paths and file:// URLs are accepted.
func NewFileSource() Source {
	return fileSource{}
}

func (fileSource) Fetch(_ context.Context, location string) ([][]string, error) {
	path := strings.TrimPrefix(location, "file://")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	defer f.Close()

	return readCSV(f)
}

type httpSource struct {
	client *http.Client
}

// NewHTTPSource downloads CSV files over http(s).
func NewHTTPSource(client *http.Client) Source {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpSource{client: client}
}

func (s *httpSource) Fetch(ctx context.Context, location string) ([][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid url: %v", ErrMalformed, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, location)
	}

	return readCSV(resp.Body)
}

// S3API is the subset of the S3 client used to read objects.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type s3Source struct {
	client S3API
}

// NewS3Source reads CSV objects addressed as s3://bucket/key.
func NewS3Source(cfg aws.Config) Source {
	return &s3Source{client: s3.NewFromConfig(cfg)}
}

// NewS3SourceWithClient is used when the client is built elsewhere.
func NewS3SourceWithClient(client S3API) Source {
	return &s3Source{client: client}
}

func (s *s3Source) Fetch(ctx context.Context, location string) ([][]string, error) {
	u, err := url.Parse(location)
	if err != nil || u.Host == "" || strings.Trim(u.Path, "/") == "" {
		return nil, fmt.Errorf("%w: invalid s3 location %q", ErrMalformed, location)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.Host),
		Key:    aws.String(strings.TrimPrefix(u.Path, "/")),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", location, err)
	}
	defer out.Body.Close()

	return readCSV(out.Body)
}

// scheme returns the location scheme, "file" for plain paths.
func scheme(location string) string {
	i := strings.Index(location, "://")
	if i <= 0 {
		return "file"
	}
	return strings.ToLower(location[:i])
}
