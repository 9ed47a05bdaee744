package catalog

import (
	"context"

	"eps-prepro/core/reconcile"
	"eps-prepro/core/storage"
)

// VerifyOptions selects the sources compared by Verify.
type VerifyOptions struct {
	DestDir string
	// SkipLocal leaves the destination out, for jobs that remove outputs
	// after uploading them.
	SkipLocal bool

	Store   *Store
	Client  storage.Client
	Storage storage.Config
}

// Sources builds the reconcile sources for the enabled targets.
func (o VerifyOptions) Sources() reconcile.Sources {
	var sources reconcile.Sources
	if !o.SkipLocal {
		sources.Local = &LocalSource{DestDir: o.DestDir}
	}
	if o.Store != nil {
		sources.Catalog = &CatalogSource{Store: o.Store}
	}
	if o.Client != nil {
		sources.Storage = &StorageSource{Client: o.Client, Bucket: o.Storage.Bucket, Prefix: o.Storage.Prefix}
	}
	return sources
}

// Verify reconciles the destination, the catalog and the bucket and applies
// the planned actions when opts allows it.
func Verify(ctx context.Context, vo VerifyOptions, mutator reconcile.Mutator, opts reconcile.Options) (*reconcile.Plan, int, error) {
	return reconcile.ReconcileAndApply(ctx, vo.Sources(), mutator, opts)
}
