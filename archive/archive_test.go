package archive

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"errors"
	"regexp"
	"testing"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

// ---------------------------------------------------------------------------
// Open
// ---------------------------------------------------------------------------

func TestOpenInvalid(t *testing.T) {
	inputs := map[string][]byte{
		"empty":   nil,
		"text":    []byte("definitely not a zip file"),
		"ole2":    append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 32)...),
		"garbage": {0x50, 0x4b, 0x03, 0x04, 0x00},
	}
	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			r, err := Open(data)
			if !errors.Is(err, ErrInvalidArchive) {
				t.Fatalf("Open() error = %v, want ErrInvalidArchive", err)
			}
			if r != nil {
				t.Error("expected nil reader on failure")
			}
		})
	}
}

func TestIsLegacyPresentationRejectsNonOLE(t *testing.T) {
	if IsLegacyPresentation([]byte("PK\x03\x04")) {
		t.Error("zip signature reported as legacy presentation")
	}
	// Signature alone without a valid compound header is not enough.
	if IsLegacyPresentation(oleSignature) {
		t.Error("bare OLE signature reported as legacy presentation")
	}
}

// ---------------------------------------------------------------------------
// Lookup and enumeration
// ---------------------------------------------------------------------------

func TestLookup(t *testing.T) {
	data := buildZip(t, map[string]string{
		"ppt/presentation.xml":            "<p:presentation/>",
		"ppt/slides/slide2.xml":           "<p:sld/>",
		"ppt/slides/slide10.xml":          "<p:sld/>",
		"ppt/slides/slide1.xml":           "<p:sld/>",
		"ppt/slides/_rels/slide1.xml.rels": "<Relationships/>",
	})
	r, err := Open(data)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if !r.Has("ppt/presentation.xml") {
		t.Error("Has(presentation.xml) = false")
	}
	if r.Has("ppt/presentation") {
		t.Error("Has must match exact names only")
	}
	if !r.HasPrefix("ppt/slides/_rels/") {
		t.Error("HasPrefix(ppt/slides/_rels/) = false")
	}
	if r.HasPrefix("ppt/notesSlides/") {
		t.Error("HasPrefix(ppt/notesSlides/) = true for absent directory")
	}

	got := r.Match(regexp.MustCompile(`^ppt/slides/slide\d+\.xml$`))
	want := []string{"ppt/slides/slide1.xml", "ppt/slides/slide10.xml", "ppt/slides/slide2.xml"}
	if len(got) != len(want) {
		t.Fatalf("Match returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Match[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRead(t *testing.T) {
	payload := "\x89PNG fake image bytes"
	data := buildZip(t, map[string]string{
		"ppt/media/image1.png": payload,
		"docProps/core.xml":    "<cp:coreProperties/>",
	})
	r, err := Open(data)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	text, err := r.ReadText("docProps/core.xml")
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if text != "<cp:coreProperties/>" {
		t.Errorf("ReadText = %q", text)
	}

	b64, err := r.ReadBase64("ppt/media/image1.png")
	if err != nil {
		t.Fatalf("ReadBase64: %v", err)
	}
	if b64 != base64.StdEncoding.EncodeToString([]byte(payload)) {
		t.Errorf("ReadBase64 = %q", b64)
	}

	if _, err := r.ReadBytes("ppt/media/missing.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadBytes(missing) error = %v, want ErrNotFound", err)
	}
}

func TestNamesReturnsCopy(t *testing.T) {
	r, err := Open(buildZip(t, map[string]string{"a.xml": "a", "b.xml": "b"}))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	names := r.Names()
	names[0] = "mutated"
	if r.Names()[0] != "a.xml" {
		t.Error("Names exposed internal slice")
	}
}
