package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"eps-prepro/core/config"
	"eps-prepro/core/reconcile"
	"eps-prepro/core/storage"
	"eps-prepro/feature/merge"

	"github.com/minio/minio-go/v7"
)

var errDisabled = errors.New("target is disabled")

// OutputInfo is what an output path tells about the output:
// <unit>/<variable>/<output dir>/processed:<run>.m<MM>.nc
type OutputInfo struct {
	Unit     string
	Variable string
	Dir      string
	Run      merge.ModelRun
}

// ParseOutputKey reads an output key produced by the merge engine.
func ParseOutputKey(key string) (OutputInfo, error) {
	run, ok := merge.ParseMergedFile(key)
	if !ok {
		return OutputInfo{}, fmt.Errorf("%s is not a merged output", key)
	}
	dir := path.Dir(key)
	parts := strings.Split(dir, "/")
	if len(parts) < 3 {
		return OutputInfo{}, fmt.Errorf("%s is not below <unit>/<variable>/<dir>", key)
	}
	n := len(parts)
	return OutputInfo{
		Unit:     strings.Join(parts[:n-2], "/"),
		Variable: parts[n-2],
		Dir:      parts[n-1],
		Run:      run,
	}, nil
}

// Repairer executes reconcile actions against the catalog and the bucket.
type Repairer struct {
	DestDir     string
	JobID       int
	ExecutionID string
	Params      *config.Parameters

	Store   *Store
	Client  storage.Client
	Storage storage.Config
}

var _ reconcile.Mutator = (*Repairer)(nil)

func (r *Repairer) DeleteCatalog(ctx context.Context, key string) error {
	if r.Store == nil {
		return errDisabled
	}
	return r.Store.Delete(ctx, key)
}

func (r *Repairer) DeleteStorage(ctx context.Context, key string) error {
	if r.Client == nil {
		return errDisabled
	}
	return r.Client.RemoveObject(ctx, r.Storage.Bucket, storage.ObjectKey(r.Storage.Prefix, key), minio.RemoveObjectOptions{})
}

func (r *Repairer) Upload(ctx context.Context, key string) error {
	if r.Client == nil {
		return errDisabled
	}
	_, err := storage.UploadFile(ctx, r.Client, r.Storage.Bucket, storage.ObjectKey(r.Storage.Prefix, key), r.localPath(key))
	return err
}

// Record rebuilds the catalog row of a local output from its path. Regime
// and placeholder counts are not known afterwards and are left empty.
func (r *Repairer) Record(ctx context.Context, key string) error {
	if r.Store == nil {
		return errDisabled
	}
	info, err := ParseOutputKey(key)
	if err != nil {
		return err
	}
	stat, err := os.Stat(r.localPath(key))
	if err != nil {
		return err
	}

	row := &ProcessedFile{
		ExecutionID: r.ExecutionID,
		JobID:       r.JobID,
		Unit:        info.Unit,
		Variable:    info.Variable,
		Kind:        r.kindOf(info),
		RunStart:    info.Run.RunStart,
		Member:      info.Run.Member,
		RelPath:     key,
		SizeBytes:   stat.Size(),
		CreatedAt:   stat.ModTime().UTC(),
	}
	if r.Client != nil {
		row.ObjectKey = storage.ObjectKey(r.Storage.Prefix, key)
	}
	if r.Params != nil {
		if v, ok := r.Params.Variable(info.Variable); ok {
			row.Variable = v.OutputName()
		}
	}
	return r.Store.Record(ctx, row)
}

func (r *Repairer) localPath(key string) string {
	return filepath.Join(r.DestDir, filepath.FromSlash(key))
}

func (r *Repairer) kindOf(info OutputInfo) string {
	if r.Params == nil {
		return ""
	}
	v, ok := r.Params.Variable(info.Variable)
	if !ok {
		return ""
	}
	switch {
	case v.Remapped && v.RemappedDir == info.Dir:
		return merge.KindRemapped
	case v.Native && v.NativeDir == info.Dir:
		return merge.KindNative
	default:
		return ""
	}
}
