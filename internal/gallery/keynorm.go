package gallery

import (
	"net/url"
	"strings"
)

const storageHost = "storage.googleapis.com"

// KeyNormalizer turns stored object references into canonical bucket keys and
// decides whether a reference is eligible for export at all.
//
// A reference is either a bare key or a full URL into the managed store. URLs
// are accepted only when their host is the managed store (path-style or
// virtual-host style) or the configured CDN domain; the host/bucket segment
// is stripped to recover the key. Bare keys must additionally fall under one
// of the accepted location prefixes. Validated URLs skip the prefix check,
// since host validation already established the object is ours.
type KeyNormalizer struct {
	bucket   string
	cdnHost  string
	prefixes []string
}

func NewKeyNormalizer(bucket, cdnDomain string, acceptedPrefixes []string) *KeyNormalizer {
	return &KeyNormalizer{
		bucket:   strings.TrimSpace(bucket),
		cdnHost:  strings.ToLower(strings.TrimSpace(cdnDomain)),
		prefixes: acceptedPrefixes,
	}
}

// Normalize returns the canonical key for ref and whether ref is eligible.
func (n *KeyNormalizer) Normalize(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}

	if strings.Contains(ref, "://") {
		u, err := url.Parse(ref)
		if err != nil {
			return "", false
		}
		host := strings.ToLower(u.Hostname())
		path := strings.TrimLeft(u.Path, "/")
		var key string
		switch {
		case host == storageHost:
			bucketSeg, rest, ok := strings.Cut(path, "/")
			if !ok || bucketSeg != n.bucket {
				return "", false
			}
			key = rest
		case n.bucket != "" && host == n.bucket+"."+storageHost:
			key = path
		case n.cdnHost != "" && host == n.cdnHost:
			key = path
		default:
			return "", false
		}
		if key == "" {
			return "", false
		}
		return key, true
	}

	key := strings.TrimLeft(ref, "/")
	if key == "" {
		return "", false
	}
	for _, p := range n.prefixes {
		if strings.HasPrefix(key, p) {
			return key, true
		}
	}
	return "", false
}
