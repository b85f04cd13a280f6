package gcp

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/enviroshake/gallery-backend/internal/gallery"
	"github.com/enviroshake/gallery-backend/internal/pkg/logger"
)

const (
	statTimeout = 30 * time.Second
	// Bound on one object's read so a single hanging object cannot stall an
	// archive indefinitely.
	readTimeout = 2 * time.Minute
)

// BucketService is the gallery bucket client. It satisfies
// gallery.ObjectStore and is safe for concurrent use across requests.
type BucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	bucket        string
	cdnDomain     string
}

func NewBucketService(log *logger.Logger, bucketName, cdnDomain string) (*BucketService, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("missing gallery bucket name")
	}

	ctx := context.Background()
	opts := ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadOnly))
	stClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &BucketService{
		log:           log.With("service", "BucketService"),
		storageClient: stClient,
		bucket:        bucketName,
		cdnDomain:     cdnDomain,
	}, nil
}

func (bs *BucketService) BucketName() string { return bs.bucket }

func (bs *BucketService) CDNDomain() string { return bs.cdnDomain }

// StatObject is the cheap existence probe used by the preflight check.
func (bs *BucketService) StatObject(ctx context.Context, key string) (*gallery.ObjectAttrs, error) {
	ctx, cancel := context.WithTimeout(ctx, statTimeout)
	defer cancel()
	attrs, err := bs.storageClient.Bucket(bs.bucket).Object(key).Attrs(ctx)
	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", key, err)
	}
	return &gallery.ObjectAttrs{
		Size:        attrs.Size,
		ContentType: attrs.ContentType,
		Updated:     attrs.Updated,
	}, nil
}

// Do NOT `defer cancel()` before returning the reader: the context must stay
// alive for the life of the reader, so the cancel is attached to Close().
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

// OpenObject opens a streaming read, bounded by the per-object read timeout.
func (bs *BucketService) OpenObject(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx2, cancel := context.WithTimeout(ctx, readTimeout)
	r, err := bs.storageClient.Bucket(bs.bucket).Object(key).NewReader(ctx2)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open %q: %w", key, err)
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

func (bs *BucketService) PublicURL(key string) string {
	if bs.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", bs.cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.bucket, key)
}

func (bs *BucketService) Close() error {
	return bs.storageClient.Close()
}
