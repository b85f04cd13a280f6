package gallery

import "sort"

// DedupeAndOrder collapses duplicate records and imposes the archive's total
// order. The dedup key is the canonical key when present, else the record
// path. Ordering is timestamp ascending (absent sorts first), then canonical
// key, then record path, so identical input always yields identical entry
// numbering.
func DedupeAndOrder(records []ImageRecord) []ImageRecord {
	seen := make(map[string]bool, len(records))
	out := make([]ImageRecord, 0, len(records))
	for _, rec := range records {
		key := rec.CanonicalKey
		if key == "" {
			key = rec.RecordPath
		}
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		if out[i].CanonicalKey != out[j].CanonicalKey {
			return out[i].CanonicalKey < out[j].CanonicalKey
		}
		return out[i].RecordPath < out[j].RecordPath
	})
	return out
}
