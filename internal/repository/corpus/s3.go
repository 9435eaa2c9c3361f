package corpus

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/roadsafe/internal/domain"
	"github.com/kailas-cloud/roadsafe/internal/domain/record"
	"github.com/kailas-cloud/roadsafe/internal/logger"
)

// ObjectGetter is the subset of the S3 client used by S3Source.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config configures an S3 corpus source.
type S3Config struct {
	Region    string
	Bucket    string
	Key       string
	Endpoint  string // optional, for S3-compatible stores
	AccessKey string
	SecretKey string
}

// S3Source reads the corpus CSV from an S3 object.
type S3Source struct {
	client    ObjectGetter
	bucket    string
	key       string
	encodings []string
}

// NewS3Client builds an S3 client. Static credentials are used when both keys
// are set, otherwise the default AWS credential chain.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewS3Source creates an S3 source over an existing client.
func NewS3Source(client ObjectGetter, bucket, key string, encodings []string) *S3Source {
	return &S3Source{client: client, bucket: bucket, key: key, encodings: encodings}
}

// Load downloads and decodes the object.
func (s *S3Source) Load(ctx context.Context) ([]record.Record, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", domain.ErrDataUnavailable, s, err)
	}
	defer func() { _ = out.Body.Close() }()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrDataUnavailable, s, err)
	}
	records, enc, err := DecodeCSV(raw, s.encodings)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDataUnavailable, s, err)
	}
	logger.FromContext(ctx).Debug("corpus loaded",
		zap.Stringer("source", s),
		zap.String("encoding", enc),
		zap.Int("records", len(records)),
	)
	return records, nil
}

// String names the source for logs.
func (s *S3Source) String() string { return "s3://" + s.bucket + "/" + s.key }
