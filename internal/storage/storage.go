// Package storage abstracts where uploaded files and rendered reports live.
// A backend is chosen once at process start and injected into the photo
// ledger and report renderer; nothing mutates it afterwards.
package storage

import "context"

// Backend reads and writes opaque blobs by key. Delete of a missing key is
// not an error.
type Backend interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	URLFor(key string) string
}

// FromEnv picks the configured backend: Azure blob storage when the account
// settings are present, the local media directory otherwise.
func FromEnv(getEnv func(key, def string) string) (Backend, error) {
	account := getEnv("AZURE_ACCOUNT_NAME", "")
	key := getEnv("AZURE_ACCOUNT_KEY", "")
	if account != "" && key != "" {
		return NewAzureBackend(account, key, getEnv("AZURE_CONTAINER", "media"))
	}
	return NewLocalBackend(getEnv("MEDIA_ROOT", "./media"), getEnv("MEDIA_BASE_URL", "/media/")), nil
}
