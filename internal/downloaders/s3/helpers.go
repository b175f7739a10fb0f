package s3

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultExpiry covers a long single transfer; every segment reuses the URL.
	DefaultExpiry = 12 * time.Hour
	// MaxExpiry is the SigV4 presign limit.
	MaxExpiry = 7 * 24 * time.Hour
)

// Presigner turns s3:// object references into time-limited HTTPS URLs that
// the HTTP engine can fetch without AWS credentials of its own.
type Presigner struct {
	client  *s3.PresignClient
	expires time.Duration
}

// PresignedObject holds the signed URLs for one object. S3 signs the method,
// so the preflight HEAD needs its own URL.
type PresignedObject struct {
	GetURL  string
	HeadURL string
}

func NewPresigner(ctx context.Context, profile string, expires time.Duration) (*Presigner, error) {
	opts := []func(*config.LoadOptions) error{config.WithRetryMode(aws.RetryModeAdaptive)}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}
	return NewPresignerFromClient(s3.NewFromConfig(cfg), expires), nil
}

func NewPresignerFromClient(client *s3.Client, expires time.Duration) *Presigner {
	if expires <= 0 {
		expires = DefaultExpiry
	}
	expires = min(expires, MaxExpiry)
	return &Presigner{client: s3.NewPresignClient(client), expires: expires}
}

func (p *Presigner) Presign(ctx context.Context, s3URL string) (PresignedObject, error) {
	bucket, key, err := ParseS3URL(s3URL)
	if err != nil {
		return PresignedObject{}, err
	}
	withExpiry := s3.WithPresignExpires(p.expires)
	get, err := p.client.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, withExpiry)
	if err != nil {
		return PresignedObject{}, fmt.Errorf("error presigning GET for s3://%s/%s: %w", bucket, key, err)
	}
	head, err := p.client.PresignHeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, withExpiry)
	if err != nil {
		return PresignedObject{}, fmt.Errorf("error presigning HEAD for s3://%s/%s: %w", bucket, key, err)
	}
	log.Debug().Str("op", "s3/presign").Msgf("presigned s3://%s/%s for %s", bucket, key, p.expires)
	return PresignedObject{GetURL: get.URL, HeadURL: head.URL}, nil
}
