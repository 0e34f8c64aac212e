// Package receipts archives a JSON receipt for every credited payment in an
// S3-compatible bucket. The archive is best effort: the wallet credit has
// already happened when Store is called.
package receipts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/gopherwallet/internal/server/models"
)

// Archive stores receipts and returns the object key used.
type Archive interface {
	Store(ctx context.Context, r *models.Receipt) (string, error)
}

// Key is the object key of a receipt: receipts/<yyyy>/<mm>/<dd>/<reference>.json.
func Key(r *models.Receipt) string {
	d := r.CreditedAt.UTC()
	return fmt.Sprintf("receipts/%04d/%02d/%02d/%s.json", d.Year(), int(d.Month()), d.Day(), r.Reference)
}

// NopArchive is used when no bucket is configured.
type NopArchive struct{}

func (NopArchive) Store(_ context.Context, r *models.Receipt) (string, error) { return Key(r), nil }

// Seams for tests.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Settings locate the bucket. BaseEndpoint selects an S3-compatible server
// such as MinIO and switches to path-style addressing.
type Settings struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	RootUser     string
	RootPassword string
}

type S3Archive struct {
	bucket string
	client putObjectAPI
}

func NewS3Archive(ctx context.Context, s Settings) (*S3Archive, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(s.Region)}
	if s.RootUser != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.RootUser, s.RootPassword, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Archive{bucket: s.Bucket, client: client}, nil
}

func (a *S3Archive) Store(ctx context.Context, r *models.Receipt) (string, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return "", err
	}

	key := Key(r)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put receipt %s: %w", key, err)
	}
	return key, nil
}
