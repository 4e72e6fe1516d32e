package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

// AWSConfig configures the aws-sdk-go-v2 backed store. Endpoint is optional;
// when empty the SDK resolves the regional AWS endpoint.
type AWSConfig struct {
	Endpoint       string
	AccessKey      string
	SecretKey      string
	Region         string
	UseSSL         bool
	ForcePathStyle bool
}

// AWSClient implements ObjectStore with the AWS SDK v2.
type AWSClient struct {
	client  *s3.Client
	presign *s3.PresignClient
}

// NewAWSClient loads the default AWS config chain, overriding region,
// credentials and endpoint from cfg when set.
func NewAWSClient(ctx context.Context, cfg AWSConfig) (*AWSClient, error) {
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}

	endpoint := awsEndpoint(cfg.Endpoint, cfg.UseSSL)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return &AWSClient{
		client:  client,
		presign: s3.NewPresignClient(client),
	}, nil
}

func awsEndpoint(endpoint string, useSSL bool) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return ""
	}
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	scheme := "https"
	if !useSSL {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s", scheme, strings.TrimPrefix(endpoint, "//"))
}

// ListPage issues one ListObjectsV2 request and returns the first page only.
func (c *AWSClient) ListPage(ctx context.Context, in ListInput) (*ListPage, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(in.Bucket),
		Prefix: aws.String(in.Prefix),
	}
	if in.Delimiter != "" {
		input.Delimiter = aws.String(in.Delimiter)
	}

	out, err := c.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, errors.Wrapf(err, "list objects in %q with prefix %q", in.Bucket, in.Prefix)
	}

	page := &ListPage{
		Objects:   make([]ObjectInfo, 0, len(out.Contents)),
		Truncated: aws.ToBool(out.IsTruncated),
	}
	for _, object := range out.Contents {
		page.Objects = append(page.Objects, ObjectInfo{
			Key:          aws.ToString(object.Key),
			Size:         aws.ToInt64(object.Size),
			LastModified: aws.ToTime(object.LastModified),
		})
	}
	for _, cp := range out.CommonPrefixes {
		page.CommonPrefixes = append(page.CommonPrefixes, aws.ToString(cp.Prefix))
	}
	return page, nil
}

// PresignGet returns a GET URL for bucket/key valid for expiry.
func (c *AWSClient) PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", errors.Wrapf(err, "presign get %q", key)
	}
	return req.URL, nil
}

// PresignPut returns a PUT URL for bucket/key valid for expiry.
func (c *AWSClient) PresignPut(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	req, err := c.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", errors.Wrapf(err, "presign put %q", key)
	}
	return req.URL, nil
}

var _ ObjectStore = (*AWSClient)(nil)
