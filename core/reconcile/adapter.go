package reconcile

import "context"

// Source loads the outputs known to one place: the destination tree, the
// catalog or the object store.
type Source interface {
	// Name returns one of SourceLocal, SourceCatalog or SourceStorage.
	Name() string

	// Load returns every output the source knows, indexed by key.
	Load(ctx context.Context) (Index, error)
}

// Mutator executes repair actions. Implementations may leave an action
// unsupported by returning an error from it.
type Mutator interface {
	DeleteCatalog(ctx context.Context, key string) error
	DeleteStorage(ctx context.Context, key string) error
	Record(ctx context.Context, key string) error
	Upload(ctx context.Context, key string) error
}
