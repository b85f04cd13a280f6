package gallery

import "testing"

func testNormalizer() *KeyNormalizer {
	return NewKeyNormalizer("gallery-images", "cdn.example.com", []string{"uploads/", "images/"})
}

func TestNormalizeBareKeys(t *testing.T) {
	n := testNormalizer()

	key, ok := n.Normalize("uploads/123_roof.jpg")
	if !ok || key != "uploads/123_roof.jpg" {
		t.Fatalf("accepted prefix: want ok, got key=%q ok=%v", key, ok)
	}

	key, ok = n.Normalize("/images/legacy.png")
	if !ok || key != "images/legacy.png" {
		t.Fatalf("legacy prefix with leading slash: got key=%q ok=%v", key, ok)
	}

	if _, ok := n.Normalize("private/secret.jpg"); ok {
		t.Fatalf("key outside accepted prefixes must be ineligible")
	}
	if _, ok := n.Normalize("   "); ok {
		t.Fatalf("blank ref must be ineligible")
	}
}

func TestNormalizeManagedURLs(t *testing.T) {
	n := testNormalizer()

	// Path-style: bucket segment is stripped, prefix check bypassed.
	key, ok := n.Normalize("https://storage.googleapis.com/gallery-images/archive/old.jpg")
	if !ok || key != "archive/old.jpg" {
		t.Fatalf("path-style URL: got key=%q ok=%v", key, ok)
	}

	key, ok = n.Normalize("https://gallery-images.storage.googleapis.com/uploads/a.jpg")
	if !ok || key != "uploads/a.jpg" {
		t.Fatalf("virtual-host URL: got key=%q ok=%v", key, ok)
	}

	key, ok = n.Normalize("https://cdn.example.com/uploads/b.jpg")
	if !ok || key != "uploads/b.jpg" {
		t.Fatalf("CDN URL: got key=%q ok=%v", key, ok)
	}
}

func TestNormalizeRejectsForeignURLs(t *testing.T) {
	n := testNormalizer()

	// An accepted prefix inside the path does not rescue a foreign host.
	if _, ok := n.Normalize("https://evil.example.com/uploads/x.jpg"); ok {
		t.Fatalf("foreign host must be ineligible")
	}
	if _, ok := n.Normalize("https://storage.googleapis.com/other-bucket/uploads/x.jpg"); ok {
		t.Fatalf("foreign bucket must be ineligible")
	}
	if _, ok := n.Normalize("https://storage.googleapis.com/gallery-images"); ok {
		t.Fatalf("bucket URL without key must be ineligible")
	}
}
