package gallery

import (
	"context"
	"io"
	"time"
)

// GroupFieldAliases lists every field name that has historically held a group
// identifier on an image record, in the order they are consulted. Older
// records used snake_case or a bare "group" field; the list is consulted in
// full both when decoding records and when querying the metadata store.
var GroupFieldAliases = []string{"groupId", "group_id", "group"}

// StorageRefAliases lists every field name that has historically held the
// storable object reference, newest first. The value may be a bare object key
// or a full URL into the managed store; KeyNormalizer sorts that out.
var StorageRefAliases = []string{"objectKey", "storageKey", "url"}

// ImageRecord is one managed image as read from the metadata store.
type ImageRecord struct {
	// RecordPath is the store's opaque locator for the record. It is unique
	// and stable, and serves as the dedup fallback key when the record has no
	// usable storage reference.
	RecordPath string
	// GroupKey is the record's group identifier, taken from the first
	// populated alias field.
	GroupKey string
	// GroupName is the optional human label captured at upload time.
	GroupName string
	// StorageRef is the raw stored reference: a bare object key or a full URL.
	StorageRef string
	// CanonicalKey is the normalized, host-stripped key. Populated by the
	// resolver for eligible records; empty means the record was not yet
	// normalized.
	CanonicalKey string
	// Timestamp is the capture/upload time. Legacy records may lack it; the
	// zero value sorts first.
	Timestamp time.Time
}

// GroupEntry is the optional canonical registry record for a group.
type GroupEntry struct {
	DocID       string
	GroupID     string
	DisplayName string
}

// RecordFromData decodes a raw metadata document into an ImageRecord,
// tolerating the field-name drift accumulated across record vintages.
func RecordFromData(recordPath string, data map[string]interface{}) ImageRecord {
	rec := ImageRecord{RecordPath: recordPath}
	for _, field := range GroupFieldAliases {
		if v := stringField(data, field); v != "" {
			rec.GroupKey = v
			break
		}
	}
	rec.GroupName = stringField(data, "groupName")
	for _, field := range StorageRefAliases {
		if v := stringField(data, field); v != "" {
			rec.StorageRef = v
			break
		}
	}
	if ts, ok := data["timestamp"].(time.Time); ok {
		rec.Timestamp = ts
	}
	return rec
}

// GroupEntryFromData decodes a raw registry document.
func GroupEntryFromData(docID string, data map[string]interface{}) GroupEntry {
	return GroupEntry{
		DocID:       docID,
		GroupID:     stringField(data, "groupId"),
		DisplayName: stringField(data, "groupName"),
	}
}

func stringField(data map[string]interface{}, field string) string {
	if data == nil {
		return ""
	}
	s, _ := data[field].(string)
	return s
}

// MetadataStore is the query surface the resolver needs from the metadata
// backend. Implementations must be safe for concurrent use.
type MetadataStore interface {
	// QueryImagesByField returns records from the primary image collection
	// whose field equals value.
	QueryImagesByField(ctx context.Context, field, value string) ([]ImageRecord, error)
	// QueryNestedImagesByField runs the same equality query across every
	// nested sub-collection sharing the image record schema.
	QueryNestedImagesByField(ctx context.Context, field, value string) ([]ImageRecord, error)
	// FindGroupEntry looks up a registry entry whose field equals value.
	// A nil entry with a nil error means no match.
	FindGroupEntry(ctx context.Context, field, value string) (*GroupEntry, error)
	// GetGroupEntry looks up a registry entry by its document id. A nil entry
	// with a nil error means no match.
	GetGroupEntry(ctx context.Context, groupID string) (*GroupEntry, error)
	// ListEntryImages returns the image records nested under a registry
	// entry's own sub-collection.
	ListEntryImages(ctx context.Context, entryDocID string) ([]ImageRecord, error)
}

// ObjectAttrs is the metadata returned by an existence probe.
type ObjectAttrs struct {
	Size        int64
	ContentType string
	Updated     time.Time
}

// ObjectStore is the object storage surface the pipeline needs.
// Implementations must be safe for concurrent use.
type ObjectStore interface {
	// StatObject performs a metadata-only existence probe.
	StatObject(ctx context.Context, key string) (*ObjectAttrs, error)
	// OpenObject opens a streaming read for the object. The returned reader
	// must be closed by the caller.
	OpenObject(ctx context.Context, key string) (io.ReadCloser, error)
}
