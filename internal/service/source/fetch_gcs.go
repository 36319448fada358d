package source

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// fetchGCS downloads gs://<bucket>/<key> into dst. When a service-account
// key file is configured it is used; otherwise application default
// credentials apply.
func (r *Resolver) fetchGCS(ctx context.Context, rest, dst string) error {
	bucket, key, err := splitBucketKey(rest)
	if err != nil {
		return err
	}

	var opts []option.ClientOption
	if r.cfg.GCSKeyFile != "" {
		opts = append(opts, option.WithCredentialsFile(r.cfg.GCSKeyFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("create GCS client: %w", err)
	}
	defer func() { _ = client.Close() }()

	reader, err := client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("open gs://%s/%s: %w", bucket, key, err)
	}
	defer func() { _ = reader.Close() }()

	return writeStream(dst, reader)
}
