// Package storage provides object storage for uploaded document files.
package storage

import "context"

// StoredFile identifies an uploaded object at the storage provider.
type StoredFile struct {
	// URL is the public location the file can be fetched from.
	URL string
	// ProviderID is the provider-side identifier used for deletion.
	ProviderID string
}

// Storage stores and deletes document files at an object-storage provider.
type Storage interface {
	Store(ctx context.Context, data []byte, name, folder string) (*StoredFile, error)
	Delete(ctx context.Context, providerID string) error
}
