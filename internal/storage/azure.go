package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// AzureBackend stores blobs in an Azure storage container, matching the
// production deployment where the mobile app uploads land.
type AzureBackend struct {
	client    *azblob.Client
	account   string
	container string
}

func NewAzureBackend(account, key, container string) (*AzureBackend, error) {
	connString := fmt.Sprintf(
		"DefaultEndpointsProtocol=https;AccountName=%s;AccountKey=%s;EndpointSuffix=core.windows.net",
		account, key,
	)
	client, err := azblob.NewClientFromConnectionString(connString, nil)
	if err != nil {
		return nil, fmt.Errorf("azure storage: %w", err)
	}
	return &AzureBackend{client: client, account: account, container: container}, nil
}

func (b *AzureBackend) Read(ctx context.Context, key string) ([]byte, error) {
	resp, err := b.client.DownloadStream(ctx, b.container, key, nil)
	if err != nil {
		return nil, fmt.Errorf("azure download %s: %w", key, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (b *AzureBackend) Write(ctx context.Context, key string, data []byte) error {
	_, err := b.client.UploadBuffer(ctx, b.container, key, data, nil)
	if err != nil {
		return fmt.Errorf("azure upload %s: %w", key, err)
	}
	return nil
}

func (b *AzureBackend) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteBlob(ctx, b.container, key, nil)
	if err != nil && bloberror.HasCode(err, bloberror.BlobNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("azure delete %s: %w", key, err)
	}
	return nil
}

func (b *AzureBackend) URLFor(key string) string {
	return fmt.Sprintf("https://%s.blob.core.windows.net/%s/%s", b.account, b.container, key)
}
