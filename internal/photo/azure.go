package photo

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/pkg/errors"
)

// BlobMirror uploads photos to an Azure Blob Storage container.
type BlobMirror struct {
	client    *azblob.Client
	container string
}

// NewBlobMirror authenticates with a shared account key.
func NewBlobMirror(account, key, container string) (*BlobMirror, error) {
	cred, err := azblob.NewSharedKeyCredential(account, key)
	if err != nil {
		return nil, errors.Wrap(err, "azure shared key credential")
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", account)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, errors.Wrap(err, "azure blob client")
	}

	return &BlobMirror{client: client, container: container}, nil
}

// Upload stores data as blob name in the configured container.
func (m *BlobMirror) Upload(ctx context.Context, name string, data []byte) error {
	if _, err := m.client.UploadBuffer(ctx, m.container, name, data, nil); err != nil {
		return errors.Wrapf(err, "upload %s to %s", name, m.container)
	}
	return nil
}
