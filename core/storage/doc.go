// Package storage provides an abstraction layer for object storage services.
//
// Merged outputs can be published to an S3 compatible bucket once a worker
// finished them. The package wraps the MinIO Go client behind the Client
// interface so publishing and verification can be tested with the mock in
// core/storage/mocks.
//
// # Operations
//
//   - EnsureBucket: creates the target bucket on first use.
//   - ObjectKey: maps a destination relative path to an object key.
//   - UploadFile: streams a merged NetCDF file into the bucket.
//   - RelativeKey: maps an object key back to a destination relative path.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
//	_, err = storage.UploadFile(ctx, client, cfg.Storage.Bucket, key, path)
package storage
