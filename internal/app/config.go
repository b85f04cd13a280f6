package app

import (
	"fmt"
	"strings"

	errs "github.com/enviroshake/gallery-backend/internal/pkg/errors"
	"github.com/enviroshake/gallery-backend/internal/platform/envutil"
)

const ServiceName = "gallery-backend"

type Config struct {
	// GalleryBucket is the managed object store. Required.
	GalleryBucket string
	// FirestoreProjectID owns the metadata collections. Required.
	FirestoreProjectID string
	// AcceptedPrefixes are the logical locations exportable objects may live
	// under: the configured upload prefix plus legacy fallbacks.
	AcceptedPrefixes []string
	// CDNDomain, when set, is an additional accepted host for full-URL
	// storage references.
	CDNDomain string
	// ExtraOrigins extends the CORS allowlist.
	ExtraOrigins []string
	Environment  string
	Port         int
}

func LoadConfig() (Config, error) {
	cfg := Config{
		GalleryBucket:      envutil.String("GALLERY_GCS_BUCKET_NAME", ""),
		FirestoreProjectID: envutil.String("FIRESTORE_PROJECT_ID", ""),
		CDNDomain:          envutil.String("GALLERY_CDN_DOMAIN", ""),
		ExtraOrigins:       envutil.List("CORS_EXTRA_ORIGINS", nil),
		Environment:        envutil.String("APP_ENV", "development"),
		Port:               envutil.Int("PORT", 4000),
	}
	if cfg.GalleryBucket == "" {
		return cfg, fmt.Errorf("missing env var GALLERY_GCS_BUCKET_NAME: %w", errs.ErrConfiguration)
	}
	if cfg.FirestoreProjectID == "" {
		return cfg, fmt.Errorf("missing env var FIRESTORE_PROJECT_ID: %w", errs.ErrConfiguration)
	}

	upload := normalizePrefix(envutil.String("UPLOAD_PREFIX", "uploads/"))
	cfg.AcceptedPrefixes = []string{upload}
	for _, p := range envutil.List("LEGACY_UPLOAD_PREFIXES", []string{"images/"}) {
		p = normalizePrefix(p)
		if p != upload {
			cfg.AcceptedPrefixes = append(cfg.AcceptedPrefixes, p)
		}
	}
	return cfg, nil
}

func normalizePrefix(p string) string {
	p = strings.TrimSpace(p)
	if p != "" && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}
