package gallery

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	errs "github.com/enviroshake/gallery-backend/internal/pkg/errors"
	"github.com/enviroshake/gallery-backend/internal/pkg/logger"
)

// metadataFanout bounds how many metadata queries run at once per request.
const metadataFanout = 4

// ResolvedSet is the terminal artifact of resolving one group identifier: the
// ordered, deduplicated, eligible records plus what was learned about the
// group's identity along the way. It lives for one request only.
type ResolvedSet struct {
	// GroupID is the canonical group identifier.
	GroupID string
	// Entry is the registry entry, when one was found.
	Entry *GroupEntry
	// Records are the eligible records in archive order. Every record has a
	// populated CanonicalKey.
	Records []ImageRecord
}

// Resolver reconciles a loosely-specified group identifier against the
// metadata store.
type Resolver struct {
	log   *logger.Logger
	store MetadataStore
	keys  *KeyNormalizer
}

func NewResolver(log *logger.Logger, store MetadataStore, keys *KeyNormalizer) *Resolver {
	return &Resolver{
		log:   log.With("service", "Resolver"),
		store: store,
		keys:  keys,
	}
}

// Resolve expands raw into candidate spellings, queries every candidate
// across every group-field alias (primary collection and nested
// sub-collections), cross-resolves through the group registry, then filters,
// dedupes and orders the union.
//
// Individual lookup failures are logged and skipped; resolution fails only
// when every lookup path failed or the union is empty.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*ResolvedSet, error) {
	cands := Candidates(raw)
	if len(cands) == 0 {
		return nil, fmt.Errorf("empty group identifier: %w", errs.ErrNotFound)
	}

	var (
		mu       sync.Mutex
		union    = map[string]ImageRecord{}
		attempts int
		failures int
		lastErr  error
	)
	merge := func(recs []ImageRecord) {
		mu.Lock()
		defer mu.Unlock()
		for _, rec := range recs {
			if rec.RecordPath == "" {
				continue
			}
			if _, ok := union[rec.RecordPath]; !ok {
				union[rec.RecordPath] = rec
			}
		}
	}
	record := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if err != nil {
			failures++
			lastErr = err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(metadataFanout)
	for _, cand := range cands {
		for _, field := range GroupFieldAliases {
			cand, field := cand, field
			g.Go(func() error {
				recs, err := r.store.QueryImagesByField(gctx, field, cand)
				record(err)
				if err != nil {
					r.log.Warn("image query failed", "field", field, "candidate", cand, "error", err)
				} else {
					merge(recs)
				}

				recs, err = r.store.QueryNestedImagesByField(gctx, field, cand)
				record(err)
				if err != nil {
					r.log.Warn("nested image query failed", "field", field, "candidate", cand, "error", err)
				} else {
					merge(recs)
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	entry := r.lookupRegistryEntry(ctx, cands, record)
	if entry != nil {
		nested, err := r.store.ListEntryImages(ctx, entry.DocID)
		record(err)
		if err != nil {
			r.log.Warn("registry sub-collection read failed", "entry", entry.DocID, "error", err)
		} else {
			merge(nested)
		}
		// Records keyed by the registry's canonical id may have missed every
		// candidate spelling.
		if entry.GroupID != "" {
			for _, field := range GroupFieldAliases {
				recs, err := r.store.QueryImagesByField(ctx, field, entry.GroupID)
				record(err)
				if err != nil {
					r.log.Warn("resolved-id image query failed", "field", field, "error", err)
					continue
				}
				merge(recs)
			}
		}
	}

	if len(union) == 0 {
		if attempts > 0 && failures == attempts {
			return nil, fmt.Errorf("all group lookups failed: %w", lastErr)
		}
		return nil, fmt.Errorf("no records for %q: %w", raw, errs.ErrNotFound)
	}

	records := make([]ImageRecord, 0, len(union))
	for _, rec := range union {
		records = append(records, rec)
	}

	eligible := records[:0]
	for _, rec := range records {
		key, ok := r.keys.Normalize(rec.StorageRef)
		if !ok {
			r.log.Warn("skipping ineligible storage ref", "record", rec.RecordPath, "ref", rec.StorageRef)
			continue
		}
		rec.CanonicalKey = key
		eligible = append(eligible, rec)
	}
	ordered := DedupeAndOrder(eligible)
	if len(ordered) == 0 {
		return nil, fmt.Errorf("no downloadable objects for %q: %w", raw, errs.ErrNoRetrievableObject)
	}

	set := &ResolvedSet{
		GroupID: canonicalGroupID(entry, ordered, raw),
		Entry:   entry,
		Records: ordered,
	}
	r.log.Info("group resolved", "input", raw, "group_id", set.GroupID, "records", len(set.Records))
	return set, nil
}

func (r *Resolver) lookupRegistryEntry(ctx context.Context, cands []string, record func(error)) *GroupEntry {
	for _, cand := range cands {
		for _, field := range []string{"groupId", "groupName"} {
			entry, err := r.store.FindGroupEntry(ctx, field, cand)
			record(err)
			if err != nil {
				r.log.Warn("registry lookup failed", "field", field, "candidate", cand, "error", err)
				continue
			}
			if entry != nil {
				return entry
			}
		}
	}
	return nil
}

// canonicalGroupID prefers the registry's id, then the most common group key
// among the resolved records (ties broken lexicographically), then the raw
// input.
func canonicalGroupID(entry *GroupEntry, records []ImageRecord, raw string) string {
	if entry != nil && entry.GroupID != "" {
		return entry.GroupID
	}
	counts := map[string]int{}
	for _, rec := range records {
		if rec.GroupKey != "" {
			counts[rec.GroupKey]++
		}
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := ""
	bestCount := 0
	for _, k := range keys {
		if counts[k] > bestCount {
			best = k
			bestCount = counts[k]
		}
	}
	if best != "" {
		return best
	}
	return raw
}

// DisplayName derives the human-facing name for a resolved group: registry
// display name, then a point registry lookup by canonical id, then the first
// record's label, then the canonical id, then the raw input. The result is
// always filesystem safe.
func (r *Resolver) DisplayName(ctx context.Context, set *ResolvedSet, raw string) string {
	if set.Entry != nil && set.Entry.DisplayName != "" {
		return SafeName(set.Entry.DisplayName)
	}
	if set.Entry == nil && set.GroupID != "" {
		entry, err := r.store.GetGroupEntry(ctx, set.GroupID)
		if err != nil {
			r.log.Warn("registry read for display name failed", "group_id", set.GroupID, "error", err)
		} else if entry != nil && entry.DisplayName != "" {
			return SafeName(entry.DisplayName)
		}
	}
	for _, rec := range set.Records {
		if rec.GroupName != "" {
			return SafeName(rec.GroupName)
		}
	}
	if set.GroupID != "" {
		return SafeName(set.GroupID)
	}
	return SafeName(raw)
}

// HasRetrievableObject probes records in order and reports whether at least
// one object exists in storage. It runs before response headers are
// committed, so a miss can still surface as a clean not-found status.
func HasRetrievableObject(ctx context.Context, store ObjectStore, log *logger.Logger, records []ImageRecord) bool {
	for _, rec := range records {
		if ctx.Err() != nil {
			return false
		}
		if _, err := store.StatObject(ctx, rec.CanonicalKey); err == nil {
			return true
		} else if log != nil {
			log.Debug("preflight probe missed", "key", rec.CanonicalKey, "error", err)
		}
	}
	return false
}
