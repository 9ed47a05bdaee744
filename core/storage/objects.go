package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
)

// NetCDFContentType is the content type set on uploaded merged outputs.
const NetCDFContentType = "application/x-netcdf"

// EnsureBucket creates the bucket when it does not exist yet.
func EnsureBucket(ctx context.Context, client Client, bucket, region string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}

// ObjectKey joins the configured prefix and a destination relative path into
// an object key. Path separators are always forward slashes.
func ObjectKey(prefix, rel string) string {
	rel = strings.TrimPrefix(strings.ReplaceAll(rel, "\\", "/"), "/")
	if prefix == "" {
		return rel
	}
	return path.Join(strings.TrimSuffix(prefix, "/"), rel)
}

// RelativeKey strips the configured prefix from an object key. It reports
// false for keys outside the prefix.
func RelativeKey(prefix, key string) (string, bool) {
	prefix = strings.Trim(strings.ReplaceAll(prefix, "\\", "/"), "/")
	if prefix == "" {
		return key, key != ""
	}
	rel, ok := strings.CutPrefix(key, prefix+"/")
	return rel, ok && rel != ""
}

// UploadFile streams a local file into the bucket under key.
func UploadFile(ctx context.Context, client Client, bucket, key, localPath string) (minio.UploadInfo, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return minio.UploadInfo{}, fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return minio.UploadInfo{}, fmt.Errorf("failed to stat %s: %w", localPath, err)
	}

	info, err := client.PutObject(ctx, bucket, key, f, stat.Size(), minio.PutObjectOptions{
		ContentType: NetCDFContentType,
	})
	if err != nil {
		return minio.UploadInfo{}, fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return info, nil
}
