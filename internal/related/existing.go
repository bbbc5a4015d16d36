package related

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/OFFIS-RIT/inventory-sync/pkg/collection"
	"github.com/OFFIS-RIT/inventory-sync/pkg/logger"
	"github.com/OFFIS-RIT/inventory-sync/pkg/reconcile"

	"github.com/tidwall/gjson"
)

// Existing is the answer of one list request.
type Existing[T reconcile.Record[T]] struct {
	Records reconcile.Set[T]
	// Total is the totalRecords count reported by storage.
	Total int64
}

// Truncated reports whether storage holds more matching records than the page returned.
func (e Existing[T]) Truncated() bool {
	return e.Total > int64(len(e.Records))
}

// LoadExisting fetches every record of the family that references instanceID on
// either end, using a single list request of at most limit records.
// A transport failure or a non-2xx answer is returned as an error.
func LoadExisting[T reconcile.Record[T]](
	ctx context.Context,
	client *collection.Client,
	family Family[T],
	instanceID string,
	limit int,
) (Existing[T], error) {
	resp, err := client.GetManyPaged(ctx, family.Query(instanceID), limit, 0)
	if err != nil {
		return Existing[T]{}, fmt.Errorf("failed to list %s: %w", family.Name, err)
	}
	if err := resp.Err(); err != nil {
		return Existing[T]{}, fmt.Errorf("failed to list %s: %w", family.Name, err)
	}
	return ParseExisting(family, resp.Body)
}

// ParseExisting reads a collection list response into an id-keyed set.
// A response without the results array yields an empty set.
func ParseExisting[T reconcile.Record[T]](family Family[T], body []byte) (Existing[T], error) {
	if !gjson.ValidBytes(body) {
		return Existing[T]{}, fmt.Errorf("invalid %s list response", family.Name)
	}

	var records []T
	results := gjson.GetBytes(body, family.ResultsKey)
	if results.Exists() && results.IsArray() {
		if err := json.Unmarshal([]byte(results.Raw), &records); err != nil {
			return Existing[T]{}, fmt.Errorf("failed to decode %s: %w", family.Name, err)
		}
	}

	existing := Existing[T]{Records: reconcile.Index(records), Total: int64(len(records))}
	if total := gjson.GetBytes(body, "totalRecords"); total.Exists() {
		existing.Total = total.Int()
	}
	if existing.Truncated() {
		logger.Warn("[Sync] list response truncated", "family", family.Name, "received", len(existing.Records), "total", existing.Total)
	}

	return existing, nil
}
