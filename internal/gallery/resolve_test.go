package gallery

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	errs "github.com/enviroshake/gallery-backend/internal/pkg/errors"
	"github.com/enviroshake/gallery-backend/internal/pkg/logger"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

type fakeMetadataStore struct {
	images      map[string][]ImageRecord // "<field>=<value>" → records
	nested      map[string][]ImageRecord
	entries     []GroupEntry
	entryImages map[string][]ImageRecord // entry doc id → records
	failQueries map[string]error         // "<field>=<value>" → forced error
	failAll     bool
}

func (f *fakeMetadataStore) QueryImagesByField(_ context.Context, field, value string) ([]ImageRecord, error) {
	if err := f.queryErr(field, value); err != nil {
		return nil, err
	}
	return f.images[field+"="+value], nil
}

func (f *fakeMetadataStore) QueryNestedImagesByField(_ context.Context, field, value string) ([]ImageRecord, error) {
	if err := f.queryErr(field, value); err != nil {
		return nil, err
	}
	return f.nested[field+"="+value], nil
}

func (f *fakeMetadataStore) FindGroupEntry(_ context.Context, field, value string) (*GroupEntry, error) {
	if err := f.queryErr(field, value); err != nil {
		return nil, err
	}
	for _, e := range f.entries {
		if (field == "groupId" && e.GroupID == value) || (field == "groupName" && e.DisplayName == value) {
			entry := e
			return &entry, nil
		}
	}
	return nil, nil
}

func (f *fakeMetadataStore) GetGroupEntry(_ context.Context, groupID string) (*GroupEntry, error) {
	if f.failAll {
		return nil, errors.New("store down")
	}
	for _, e := range f.entries {
		if e.GroupID == groupID {
			entry := e
			return &entry, nil
		}
	}
	return nil, nil
}

func (f *fakeMetadataStore) ListEntryImages(_ context.Context, entryDocID string) ([]ImageRecord, error) {
	if f.failAll {
		return nil, errors.New("store down")
	}
	return f.entryImages[entryDocID], nil
}

func (f *fakeMetadataStore) queryErr(field, value string) error {
	if f.failAll {
		return errors.New("store down")
	}
	if err, ok := f.failQueries[field+"="+value]; ok {
		return err
	}
	return nil
}

func newTestResolver(store MetadataStore) *Resolver {
	return NewResolver(testLogger(), store, testNormalizer())
}

func TestResolveMatchesUnderscoreVariant(t *testing.T) {
	store := &fakeMetadataStore{
		images: map[string][]ImageRecord{
			"groupId=Smith_Job_2024": {
				{RecordPath: "images/1", GroupKey: "Smith_Job_2024", StorageRef: "uploads/1.jpg"},
				{RecordPath: "images/2", GroupKey: "Smith_Job_2024", StorageRef: "uploads/2.jpg"},
			},
		},
	}
	set, err := newTestResolver(store).Resolve(context.Background(), "Smith Job 2024")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if set.GroupID != "Smith_Job_2024" {
		t.Fatalf("GroupID: want=%q got=%q", "Smith_Job_2024", set.GroupID)
	}
	if len(set.Records) != 2 {
		t.Fatalf("records: want 2, got=%d", len(set.Records))
	}
	for _, rec := range set.Records {
		if rec.CanonicalKey == "" {
			t.Fatalf("record %s left without canonical key", rec.RecordPath)
		}
	}
}

func TestResolveNotFound(t *testing.T) {
	_, err := newTestResolver(&fakeMetadataStore{}).Resolve(context.Background(), "ghost-group")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got=%v", err)
	}
}

func TestResolveThroughRegistry(t *testing.T) {
	// No image carries a matching group field; only the registry's container
	// relationship links them.
	store := &fakeMetadataStore{
		entries: []GroupEntry{{DocID: "reg1", GroupID: "job-77", DisplayName: "Smith Job 2024"}},
		entryImages: map[string][]ImageRecord{
			"reg1": {
				{RecordPath: "imageGroups/reg1/images/1", StorageRef: "uploads/1.jpg"},
				{RecordPath: "imageGroups/reg1/images/2", StorageRef: "uploads/2.jpg"},
			},
		},
	}
	r := newTestResolver(store)
	set, err := r.Resolve(context.Background(), "Smith Job 2024")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if set.GroupID != "job-77" {
		t.Fatalf("GroupID: want registry id, got=%q", set.GroupID)
	}
	if len(set.Records) != 2 {
		t.Fatalf("records: want 2, got=%d", len(set.Records))
	}
	if name := r.DisplayName(context.Background(), set, "Smith Job 2024"); name != "Smith Job 2024" {
		t.Fatalf("DisplayName: want registry name, got=%q", name)
	}
}

func TestResolveDedupesAcrossLookupPaths(t *testing.T) {
	// The same physical object reached directly and via the registry
	// sub-collection counts once.
	store := &fakeMetadataStore{
		images: map[string][]ImageRecord{
			"groupId=g1": {{RecordPath: "images/a", GroupKey: "g1", StorageRef: "uploads/a.jpg"}},
		},
		entries: []GroupEntry{{DocID: "reg1", GroupID: "g1"}},
		entryImages: map[string][]ImageRecord{
			"reg1": {{RecordPath: "imageGroups/reg1/images/a", StorageRef: "uploads/a.jpg"}},
		},
	}
	set, err := newTestResolver(store).Resolve(context.Background(), "g1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(set.Records) != 1 {
		t.Fatalf("records: want 1 after dedup, got=%d", len(set.Records))
	}
}

func TestResolveToleratesPartialQueryFailures(t *testing.T) {
	store := &fakeMetadataStore{
		images: map[string][]ImageRecord{
			"group=g1": {{RecordPath: "images/a", GroupKey: "g1", StorageRef: "uploads/a.jpg"}},
		},
		failQueries: map[string]error{
			"groupId=g1":  fmt.Errorf("transient"),
			"group_id=g1": fmt.Errorf("transient"),
		},
	}
	set, err := newTestResolver(store).Resolve(context.Background(), "g1")
	if err != nil {
		t.Fatalf("Resolve despite partial failures: %v", err)
	}
	if len(set.Records) != 1 {
		t.Fatalf("records: want 1, got=%d", len(set.Records))
	}
}

func TestResolveFailsWhenEveryLookupFails(t *testing.T) {
	_, err := newTestResolver(&fakeMetadataStore{failAll: true}).Resolve(context.Background(), "g1")
	if err == nil {
		t.Fatalf("want error when every lookup path fails")
	}
	if errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("total lookup failure must not masquerade as not-found: %v", err)
	}
}

func TestResolveDropsIneligibleRefs(t *testing.T) {
	store := &fakeMetadataStore{
		images: map[string][]ImageRecord{
			"groupId=g1": {
				{RecordPath: "images/evil", GroupKey: "g1", StorageRef: "https://evil.example.com/uploads/x.jpg"},
				{RecordPath: "images/stray", GroupKey: "g1", StorageRef: "private/x.jpg"},
			},
		},
	}
	_, err := newTestResolver(store).Resolve(context.Background(), "g1")
	if !errors.Is(err, errs.ErrNoRetrievableObject) {
		t.Fatalf("want ErrNoRetrievableObject when nothing is eligible, got=%v", err)
	}
}

func TestCanonicalGroupIDMostCommon(t *testing.T) {
	records := []ImageRecord{
		{GroupKey: "g_b"}, {GroupKey: "g_a"}, {GroupKey: "g_a"},
	}
	if got := canonicalGroupID(nil, records, "raw"); got != "g_a" {
		t.Fatalf("most common: want=%q got=%q", "g_a", got)
	}
	// Ties break lexicographically for determinism.
	tied := []ImageRecord{{GroupKey: "g_b"}, {GroupKey: "g_a"}}
	if got := canonicalGroupID(nil, tied, "raw"); got != "g_a" {
		t.Fatalf("tie break: want=%q got=%q", "g_a", got)
	}
	if got := canonicalGroupID(nil, nil, "raw"); got != "raw" {
		t.Fatalf("fallback: want raw input, got=%q", got)
	}
}

func TestDisplayNameFallbackChain(t *testing.T) {
	r := newTestResolver(&fakeMetadataStore{})

	set := &ResolvedSet{
		GroupID: "g1",
		Records: []ImageRecord{{GroupName: "From Record"}},
	}
	if got := r.DisplayName(context.Background(), set, "raw"); got != "From Record" {
		t.Fatalf("record fallback: got=%q", got)
	}

	set = &ResolvedSet{GroupID: "g:1", Records: []ImageRecord{{}}}
	if got := r.DisplayName(context.Background(), set, "raw"); got != "g_1" {
		t.Fatalf("canonical id fallback must be sanitized: got=%q", got)
	}

	entry := &GroupEntry{DisplayName: "Registry Name"}
	set = &ResolvedSet{GroupID: "g1", Entry: entry, Records: []ImageRecord{{GroupName: "From Record"}}}
	if got := r.DisplayName(context.Background(), set, "raw"); got != "Registry Name" {
		t.Fatalf("registry preference: got=%q", got)
	}
}
