package codestore

import (
	"context"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ExtractCodeHashes returns the keys of entries that hold a value, in 0x hex
// form and input order.
func ExtractCodeHashes(entries []StorageEntry) []string {
	return lo.FilterMap(entries, func(e StorageEntry, _ int) (string, bool) {
		return e.Key.Hex(), e.Value != nil
	})
}

// CodeHashResult separates a failed query from an empty one.
type CodeHashResult struct {
	Hashes []string
	Err    error
}

// Failed reports whether the query failed.
func (r CodeHashResult) Failed() bool { return r.Err != nil }

// QueryCodeHashes lists the deployable code hashes in src.
func QueryCodeHashes(ctx context.Context, src Source) CodeHashResult {
	entries, err := src.Entries(ctx)
	if err != nil {
		return CodeHashResult{Hashes: []string{}, Err: err}
	}
	return CodeHashResult{Hashes: ExtractCodeHashes(entries)}
}

// FetchCodeHashes is QueryCodeHashes for callers that treat a failure like an
// empty store: the error is logged and an empty list returned.
func FetchCodeHashes(ctx context.Context, src Source, log *zap.Logger) []string {
	res := QueryCodeHashes(ctx, src)
	if res.Failed() {
		log.Error("fetching code hashes", zap.Error(res.Err))
		return []string{}
	}
	return res.Hashes
}
