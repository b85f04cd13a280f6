package gcp

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/enviroshake/gallery-backend/internal/gallery"
	"github.com/enviroshake/gallery-backend/internal/pkg/logger"
)

const (
	imagesCollection = "images"
	groupsCollection = "imageGroups"

	queryTimeout = 30 * time.Second
)

// MetadataService is the Firestore-backed metadata store. Image records live
// in a top-level "images" collection; group registry entries live in
// "imageGroups", each optionally holding its own nested "images"
// sub-collection. Safe for concurrent use across requests.
type MetadataService struct {
	log    *logger.Logger
	client *firestore.Client
}

func NewMetadataService(ctx context.Context, log *logger.Logger, projectID string) (*MetadataService, error) {
	if projectID == "" {
		return nil, fmt.Errorf("missing firestore project id")
	}
	client, err := firestore.NewClient(ctx, projectID, ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &MetadataService{
		log:    log.With("service", "MetadataService"),
		client: client,
	}, nil
}

// Ping reads a single record to verify connectivity. Failures are the
// caller's to log; startup treats them as non-fatal.
func (ms *MetadataService) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	it := ms.client.Collection(imagesCollection).Limit(1).Documents(ctx)
	defer it.Stop()
	_, err := it.Next()
	if err == iterator.Done {
		return nil
	}
	return err
}

func (ms *MetadataService) QueryImagesByField(ctx context.Context, field, value string) ([]gallery.ImageRecord, error) {
	q := ms.client.Collection(imagesCollection).Where(field, "==", value)
	return ms.collectRecords(ctx, q.Documents)
}

// QueryNestedImagesByField runs the equality query across every "images"
// sub-collection via a collection-group query. The top-level collection
// shares the id, so its hits reappear here; the resolver's union absorbs
// that.
func (ms *MetadataService) QueryNestedImagesByField(ctx context.Context, field, value string) ([]gallery.ImageRecord, error) {
	q := ms.client.CollectionGroup(imagesCollection).Where(field, "==", value)
	return ms.collectRecords(ctx, q.Documents)
}

func (ms *MetadataService) FindGroupEntry(ctx context.Context, field, value string) (*gallery.GroupEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	it := ms.client.Collection(groupsCollection).Where(field, "==", value).Limit(1).Documents(ctx)
	defer it.Stop()
	doc, err := it.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query %s by %s: %w", groupsCollection, field, err)
	}
	entry := gallery.GroupEntryFromData(doc.Ref.ID, doc.Data())
	return &entry, nil
}

func (ms *MetadataService) GetGroupEntry(ctx context.Context, groupID string) (*gallery.GroupEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	doc, err := ms.client.Collection(groupsCollection).Doc(groupID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", groupsCollection, groupID, err)
	}
	entry := gallery.GroupEntryFromData(doc.Ref.ID, doc.Data())
	return &entry, nil
}

func (ms *MetadataService) ListEntryImages(ctx context.Context, entryDocID string) ([]gallery.ImageRecord, error) {
	q := ms.client.Collection(groupsCollection).Doc(entryDocID).Collection(imagesCollection)
	return ms.collectRecords(ctx, q.Documents)
}

func (ms *MetadataService) collectRecords(ctx context.Context, docs func(context.Context) *firestore.DocumentIterator) ([]gallery.ImageRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	it := docs(ctx)
	defer it.Stop()

	out := []gallery.ImageRecord{}
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, gallery.RecordFromData(doc.Ref.Path, doc.Data()))
	}
	return out, nil
}

func (ms *MetadataService) Close() error {
	return ms.client.Close()
}
