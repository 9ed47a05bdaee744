package reconcile

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Sources bundles the three places an output can be found. A nil source is
// not checked.
type Sources struct {
	Local   Source
	Catalog Source
	Storage Source
}

// Checked reports which sources are set.
func (s Sources) Checked() Checked {
	return Checked{Local: s.Local != nil, Catalog: s.Catalog != nil, Storage: s.Storage != nil}
}

// indices holds the loaded indices; a nil index belongs to an unchecked source.
type indices struct {
	local, catalog, storage Index
}

// ReconcileAll loads every source concurrently and returns one result per
// key found in any of them, sorted by key.
func ReconcileAll(ctx context.Context, sources Sources) ([]Result, error) {
	idx, err := load(ctx, sources)
	if err != nil {
		return nil, err
	}

	union := buildUnion(idx)
	results := make([]Result, 0, len(union))
	for key := range union {
		results = append(results, buildResult(key, idx))
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Key < results[j].Key
	})
	return results, nil
}

func load(ctx context.Context, sources Sources) (indices, error) {
	var idx indices
	g, ctx := errgroup.WithContext(ctx)

	loadInto := func(src Source, dst *Index) {
		if src == nil {
			return
		}
		g.Go(func() error {
			loaded, err := src.Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load %s index: %w", src.Name(), err)
			}
			*dst = loaded
			return nil
		})
	}
	loadInto(sources.Local, &idx.local)
	loadInto(sources.Catalog, &idx.catalog)
	loadInto(sources.Storage, &idx.storage)

	if err := g.Wait(); err != nil {
		return indices{}, err
	}
	return idx, nil
}

// buildUnion creates a union of all keys from the loaded indices.
func buildUnion(idx indices) map[string]struct{} {
	union := make(map[string]struct{})
	for _, index := range []Index{idx.local, idx.catalog, idx.storage} {
		for key := range index {
			union[key] = struct{}{}
		}
	}
	return union
}

// buildResult creates a Result for a single key.
func buildResult(key string, idx indices) Result {
	local, localPresent := idx.local[key]
	catalog, catalogPresent := idx.catalog[key]
	stored, storagePresent := idx.storage[key]

	result := Result{
		Key:            key,
		LocalPresent:   localPresent,
		CatalogPresent: catalogPresent,
		StoragePresent: storagePresent,
		Mismatch:       []string{},
	}

	if localPresent && catalogPresent && sizeDiffers(local, catalog) {
		result.Mismatch = append(result.Mismatch, fmt.Sprintf("size: local=%d catalog=%d", local.Size, catalog.Size))
	}
	if localPresent && storagePresent && sizeDiffers(local, stored) {
		result.Mismatch = append(result.Mismatch, fmt.Sprintf("size: local=%d storage=%d", local.Size, stored.Size))
	}
	if !localPresent && catalogPresent && storagePresent && sizeDiffers(catalog, stored) {
		result.Mismatch = append(result.Mismatch, fmt.Sprintf("size: catalog=%d storage=%d", catalog.Size, stored.Size))
	}
	return result
}

func sizeDiffers(a, b Entry) bool {
	return a.Size >= 0 && b.Size >= 0 && a.Size != b.Size
}
