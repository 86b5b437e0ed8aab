package partloader

import (
	"context"
	"strconv"
	"time"

	"github.com/rpattn/stockhist/internal/domain"
	"github.com/rpattn/stockhist/internal/enrichment"

	"github.com/graph-gophers/dataloader"
)

// PartLoader batches individual part lookups issued while a request is being
// served into a single catalog call.
type PartLoader struct {
	Loader *dataloader.Loader
}

func NewPartLoader(catalog enrichment.CatalogLookup) *PartLoader {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := make([]int64, len(keys))
		for i, k := range keys {
			id, err := strconv.ParseInt(k.String(), 10, 64)
			if err != nil {
				results := make([]*dataloader.Result, len(keys))
				for j := range results {
					results[j] = &dataloader.Result{Error: err}
				}
				return results
			}
			ids[i] = id
		}

		// One outbound call for the whole batch. Missing parts resolve to
		// nil data, not an error.
		parts := catalog.PartDetails(ctx, ids)

		results := make([]*dataloader.Result, len(keys))
		for i, id := range ids {
			if part, ok := parts[id]; ok {
				results[i] = &dataloader.Result{Data: part}
			} else {
				results[i] = &dataloader.Result{Data: nil}
			}
		}

		return results
	}

	loader := dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(5*time.Millisecond))

	return &PartLoader{Loader: loader}
}

// Parts resolves a set of part ids through the loader and returns the parts
// the catalog recognized, keyed by id.
func (l *PartLoader) Parts(ctx context.Context, partIDs []int64) map[int64]domain.Part {
	if len(partIDs) == 0 {
		return map[int64]domain.Part{}
	}

	keys := make(dataloader.Keys, len(partIDs))
	for i, id := range partIDs {
		keys[i] = dataloader.StringKey(strconv.FormatInt(id, 10))
	}

	thunk := l.Loader.LoadMany(ctx, keys)
	values, _ := thunk()

	parts := make(map[int64]domain.Part, len(values))
	for i, value := range values {
		if i >= len(partIDs) {
			break
		}
		if part, ok := value.(domain.Part); ok {
			parts[partIDs[i]] = part
		}
	}

	return parts
}
