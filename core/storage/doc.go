// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client to provide a simplified interface over the bucket that holds
// the site's page shells (pages/), shared fragments (components/) and static assets
// (assets/). This abstraction supports both AWS S3 and self-hosted MinIO instances.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (see core/storage/mocks).
//
// # Helpers
//
//   - ReadObject: downloads a whole object, mapping NoSuchKey to ErrNotFound.
//   - ObjectExists: checks presence through StatObject.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	shell, err := storage.ReadObject(ctx, client, "site", "pages/index.html")
package storage
