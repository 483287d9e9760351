// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind a small interface so the player raw-data
// archive can be exercised against the testify mock in core/storage/mocks.
// Both AWS S3 and self-hosted MinIO instances are supported.
//
// # Operations
//
//   - BucketExists / MakeBucket / EnsureBucket: bucket bootstrap.
//   - PutObject / GetObject: archive write and restore.
//   - ListObjects: enumerate archived accounts.
//   - RemoveObject: drop an archive.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
package storage
