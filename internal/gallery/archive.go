package gallery

import (
	"archive/zip"
	"context"
	"fmt"
	"io"

	errs "github.com/enviroshake/gallery-backend/internal/pkg/errors"
	"github.com/enviroshake/gallery-backend/internal/pkg/logger"
)

// GroupArchive is one group's contribution to an archive: the folder name and
// the records to place under it, already deduplicated and ordered.
type GroupArchive struct {
	Name    string
	Records []ImageRecord
}

// ArchiveStreamer writes resolved records into a compressing archive bound
// directly to an output sink. Nothing is buffered beyond one in-flight
// object: each object's byte stream is consumed fully before the next one is
// opened, so a slow sink throttles the storage reads rather than growing
// memory.
type ArchiveStreamer struct {
	log     *logger.Logger
	objects ObjectStore
}

func NewArchiveStreamer(log *logger.Logger, objects ObjectStore) *ArchiveStreamer {
	return &ArchiveStreamer{
		log:     log.With("service", "ArchiveStreamer"),
		objects: objects,
	}
}

// Stream appends every group's objects to a single zip archive written to w.
// Entries are named <group>/<group>_NNN.<ext>; the counter advances only for
// entries whose byte stream actually started, so numbering never has gaps.
// Individual object failures are logged and skipped. The archive trailer is
// written only when at least one entry started; otherwise, or when ctx is
// canceled mid-stream, the archive is abandoned as-is.
//
// Returns the number of entries fully written.
func (s *ArchiveStreamer) Stream(ctx context.Context, w io.Writer, groups []GroupArchive) (int, error) {
	zw := zip.NewWriter(w)

	started := 0
	completed := 0
	for _, g := range groups {
		index := 0
		for _, rec := range g.Records {
			if err := ctx.Err(); err != nil {
				s.log.Warn("client gone, abandoning archive", "entries", completed)
				return completed, fmt.Errorf("%w: %w", errs.ErrArchiveAborted, err)
			}

			rc, err := s.objects.OpenObject(ctx, rec.CanonicalKey)
			if err != nil {
				s.log.Warn("object open failed, skipping", "key", rec.CanonicalKey, "error", err)
				continue
			}

			index++
			started++
			entryName := fmt.Sprintf("%s/%s_%03d.%s", g.Name, g.Name, index, ExtFromKey(rec.CanonicalKey))
			header := &zip.FileHeader{Name: entryName, Method: zip.Deflate}
			if !rec.Timestamp.IsZero() {
				header.Modified = rec.Timestamp
			}
			ew, err := zw.CreateHeader(header)
			if err != nil {
				_ = rc.Close()
				return completed, fmt.Errorf("create archive entry %q: %w", entryName, err)
			}
			_, err = io.Copy(ew, rc)
			_ = rc.Close()
			if err != nil {
				if ctx.Err() != nil {
					s.log.Warn("client gone mid-entry, abandoning archive", "entry", entryName)
					return completed, fmt.Errorf("%w: %w", errs.ErrArchiveAborted, ctx.Err())
				}
				// The entry stays truncated but the archive remains valid;
				// keep going with the rest.
				s.log.Warn("object read failed mid-entry", "entry", entryName, "key", rec.CanonicalKey, "error", err)
				continue
			}
			completed++
			s.log.Debug("added archive entry", "key", rec.CanonicalKey, "entry", entryName)
		}
	}

	if started == 0 {
		s.log.Warn("no objects could be appended, abandoning archive")
		return 0, errs.ErrArchiveAborted
	}
	if err := zw.Close(); err != nil {
		return completed, fmt.Errorf("finalize archive: %w", err)
	}
	return completed, nil
}
