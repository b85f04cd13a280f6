package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/enviroshake/gallery-backend/internal/gallery"
	errs "github.com/enviroshake/gallery-backend/internal/pkg/errors"
	"github.com/enviroshake/gallery-backend/internal/pkg/logger"
)

type DownloadHandler struct {
	log      *logger.Logger
	resolver *gallery.Resolver
	objects  gallery.ObjectStore
	streamer *gallery.ArchiveStreamer
}

func NewDownloadHandler(log *logger.Logger, resolver *gallery.Resolver, objects gallery.ObjectStore, streamer *gallery.ArchiveStreamer) *DownloadHandler {
	return &DownloadHandler{
		log:      log.With("handler", "DownloadHandler"),
		resolver: resolver,
		objects:  objects,
		streamer: streamer,
	}
}

// GET /download-group/:groupId
//
// Resolves the group and streams its objects as one zip. The not-found and
// preflight decisions happen before any header is written; once streaming
// starts, failures can only end the connection.
func (h *DownloadHandler) DownloadGroup(c *gin.Context) {
	ctx := c.Request.Context()
	raw := strings.TrimSpace(c.Param("groupId"))
	h.log.Info("group download requested", "group", raw)

	if h.objects == nil || h.resolver == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Storage is not configured."})
		return
	}

	set, err := h.resolver.Resolve(ctx, raw)
	if err != nil {
		h.respondResolveError(c, err)
		return
	}
	name := h.resolver.DisplayName(ctx, set, raw)

	if !gallery.HasRetrievableObject(ctx, h.objects, h.log, set.Records) {
		c.JSON(http.StatusNotFound, gin.H{"message": "No downloadable files for this group."})
		return
	}

	writeArchiveHeaders(c, name+".zip")
	added, err := h.streamer.Stream(ctx, c.Writer, []gallery.GroupArchive{{Name: name, Records: set.Records}})
	if err != nil {
		// Headers are out; terminate the connection instead of pretending.
		h.log.Error("archive stream ended early", "group", set.GroupID, "entries", added, "error", err)
		c.Abort()
		return
	}
	h.log.Info("archive finalized", "group", set.GroupID, "entries", added)
}

type downloadGroupsRequest struct {
	GroupIDs []string `json:"groupIds"`
}

// POST /download-multiple-groups
//
// Same contract as the single-group download, with each group's entries
// nested under its own folder. One group failing to resolve never fails the
// batch; only an all-empty batch is a 404.
func (h *DownloadHandler) DownloadMultipleGroups(c *gin.Context) {
	ctx := c.Request.Context()

	var req downloadGroupsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.GroupIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid groupIds"})
		return
	}
	if h.objects == nil || h.resolver == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Storage is not configured."})
		return
	}
	h.log.Info("multi-group download requested", "groups", len(req.GroupIDs))

	groups := make([]gallery.GroupArchive, 0, len(req.GroupIDs))
	var all []gallery.ImageRecord
	for _, id := range req.GroupIDs {
		set, err := h.resolver.Resolve(ctx, id)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) || errors.Is(err, errs.ErrNoRetrievableObject) {
				h.log.Info("skipping group with nothing to download", "group", id)
			} else {
				h.log.Warn("skipping group after resolution failure", "group", id, "error", err)
			}
			continue
		}
		name := h.resolver.DisplayName(ctx, set, id)
		groups = append(groups, gallery.GroupArchive{Name: name, Records: set.Records})
		all = append(all, set.Records...)
	}

	if len(groups) == 0 || !gallery.HasRetrievableObject(ctx, h.objects, h.log, all) {
		c.JSON(http.StatusNotFound, gin.H{"message": "No downloadable files for the selected groups."})
		return
	}

	writeArchiveHeaders(c, "selected_groups.zip")
	added, err := h.streamer.Stream(ctx, c.Writer, groups)
	if err != nil {
		h.log.Error("multi-group archive stream ended early", "entries", added, "error", err)
		c.Abort()
		return
	}
	h.log.Info("multi-group archive finalized", "groups", len(groups), "entries", added)
}

func (h *DownloadHandler) respondResolveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "No images found for this group."})
	case errors.Is(err, errs.ErrNoRetrievableObject):
		c.JSON(http.StatusNotFound, gin.H{"message": "No downloadable files for this group."})
	case errors.Is(err, errs.ErrConfiguration):
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Storage is not configured."})
	default:
		h.log.Error("group resolution failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to download group ZIP."})
	}
}

// writeArchiveHeaders commits the success response. The plain filename stays
// ASCII-safe via SafeName; the RFC 5987 parameter carries the UTF-8 form.
func writeArchiveHeaders(c *gin.Context, filename string) {
	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf(
		"attachment; filename=%q; filename*=UTF-8''%s",
		gallery.SafeName(filename),
		url.PathEscape(filename),
	))
	c.Status(http.StatusOK)
}
