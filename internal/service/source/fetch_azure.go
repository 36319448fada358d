package source

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/michaelsamjatin/imagelake/internal/domain"
)

// fetchAzure downloads az://<container>/<blob> into dst using shared-key
// credentials. Only account-key authentication is supported.
func (r *Resolver) fetchAzure(ctx context.Context, rest, dst string) error {
	if r.cfg.AzureAccountName == "" || r.cfg.AzureAccountKey == "" {
		return domain.ErrValidation("az:// source requires AZURE_ACCOUNT_NAME and AZURE_ACCOUNT_KEY")
	}

	container, blob, err := splitBucketKey(rest)
	if err != nil {
		return err
	}

	cred, err := azblob.NewSharedKeyCredential(r.cfg.AzureAccountName, r.cfg.AzureAccountKey)
	if err != nil {
		return fmt.Errorf("create shared key credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net", r.cfg.AzureAccountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return fmt.Errorf("create Azure blob client: %w", err)
	}

	resp, err := client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return fmt.Errorf("download az://%s/%s: %w", container, blob, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return writeStream(dst, resp.Body)
}
