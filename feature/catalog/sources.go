package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"eps-prepro/core/reconcile"
	"eps-prepro/core/storage"

	"github.com/minio/minio-go/v7"
)

// mergedPrefix starts the name of every merged output.
const mergedPrefix = "processed:"

// LocalSource indexes the merged outputs present in the destination tree.
type LocalSource struct {
	DestDir string
}

func (s *LocalSource) Name() string { return reconcile.SourceLocal }

func (s *LocalSource) Load(ctx context.Context) (reconcile.Index, error) {
	index := make(reconcile.Index)
	err := filepath.WalkDir(s.DestDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !strings.HasPrefix(d.Name(), mergedPrefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.DestDir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		index[key] = reconcile.Entry{Key: key, Size: info.Size()}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", s.DestDir, err)
	}
	return index, nil
}

// CatalogSource indexes the catalog rows.
type CatalogSource struct {
	Store *Store
}

func (s *CatalogSource) Name() string { return reconcile.SourceCatalog }

func (s *CatalogSource) Load(ctx context.Context) (reconcile.Index, error) {
	rows, err := s.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	index := make(reconcile.Index, len(rows))
	for _, row := range rows {
		index[row.RelPath] = reconcile.Entry{Key: row.RelPath, Size: row.SizeBytes}
	}
	return index, nil
}

// StorageSource indexes the merged outputs in the bucket under the prefix.
type StorageSource struct {
	Client storage.Client
	Bucket string
	Prefix string
}

func (s *StorageSource) Name() string { return reconcile.SourceStorage }

func (s *StorageSource) Load(ctx context.Context) (reconcile.Index, error) {
	index := make(reconcile.Index)
	opts := minio.ListObjectsOptions{Prefix: strings.TrimPrefix(s.Prefix, "/"), Recursive: true}
	for obj := range s.Client.ListObjects(ctx, s.Bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects in %s: %w", s.Bucket, obj.Err)
		}
		rel, ok := storage.RelativeKey(s.Prefix, obj.Key)
		if !ok || !strings.HasPrefix(filepath.Base(rel), mergedPrefix) {
			continue
		}
		index[rel] = reconcile.Entry{Key: rel, Size: obj.Size}
	}
	return index, nil
}
