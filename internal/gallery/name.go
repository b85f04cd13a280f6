package gallery

import "strings"

const fallbackName = "file"

// defaultExt is used when a key carries no plausible file extension.
const defaultExt = "jpg"

var hostileChars = strings.NewReplacer(
	`\`, "_",
	"/", "_",
	":", "_",
	"*", "_",
	"?", "_",
	`"`, "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// SafeName replaces filesystem-hostile characters with underscores and trims
// the result. An empty result falls back to a fixed literal so archive entry
// names are never empty.
func SafeName(s string) string {
	s = strings.TrimSpace(hostileChars.Replace(s))
	if s == "" {
		return fallbackName
	}
	return s
}

// ExtFromKey derives a lowercase file extension from an object key. Absent or
// implausibly long extensions fall back to jpg.
func ExtFromKey(key string) string {
	last := key
	if i := strings.LastIndex(key, "/"); i >= 0 {
		last = key[i+1:]
	}
	last = strings.TrimSpace(last)
	if i := strings.LastIndex(last, "."); i > -1 && i < len(last)-1 {
		ext := strings.ToLower(last[i+1:])
		if len(ext) <= 10 {
			return ext
		}
	}
	return defaultExt
}
