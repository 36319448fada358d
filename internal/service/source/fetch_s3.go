package source

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/michaelsamjatin/imagelake/internal/domain"
)

// fetchS3 downloads s3://<bucket>/<key> into dst using static credentials
// and a custom endpoint, so S3-compatible providers work with path-style URLs.
func (r *Resolver) fetchS3(ctx context.Context, rest, dst string) error {
	if !r.cfg.HasS3Config() {
		return domain.ErrValidation("s3:// source requires S3_KEY_ID, S3_SECRET, S3_ENDPOINT, and S3_REGION")
	}

	bucket, key, err := splitBucketKey(rest)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("https://%s", *r.cfg.S3Endpoint)
	client := s3.New(s3.Options{
		Region: *r.cfg.S3Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			*r.cfg.S3KeyID, *r.cfg.S3Secret, "",
		),
		BaseEndpoint: aws.String(endpoint),
		UsePathStyle: true,
	})

	obj, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	defer func() { _ = obj.Body.Close() }()

	return writeStream(dst, obj.Body)
}
