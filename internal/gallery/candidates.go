package gallery

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	spacerRun     = regexp.MustCompile(`[\s_]+`)
	// Per-image names carry a short zero-padded counter suffix; stripping it
	// recovers the group name. Capped at three digits so year-like suffixes
	// survive.
	counterSuffix = regexp.MustCompile(`_\d{1,3}$`)
)

// Candidates expands one raw, human-entered group identifier into the set of
// spellings the metadata store is queried with. The store's equality matching
// is exact, so every plausible historical spelling is kept with its original
// casing: the raw form, underscores and spaces swapped both ways, a form with
// all spacing collapsed out, and a form with a trailing counter suffix
// stripped. Duplicates are removed; the empty string never qualifies.
func Candidates(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	underscored := whitespaceRun.ReplaceAllString(raw, "_")
	forms := []string{
		raw,
		strings.ReplaceAll(raw, "_", " "),
		underscored,
		spacerRun.ReplaceAllString(raw, ""),
	}
	if stripped := counterSuffix.ReplaceAllString(underscored, ""); stripped != "" && stripped != underscored {
		forms = append(forms, stripped, strings.ReplaceAll(stripped, "_", " "))
	}

	seen := make(map[string]bool, len(forms))
	out := make([]string, 0, len(forms))
	for _, f := range forms {
		f = strings.TrimSpace(f)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
