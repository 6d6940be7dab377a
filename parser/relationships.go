package parser

import (
	"log/slog"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/brunobiangulo/slidedeck/archive"
)

var slideRelsPattern = regexp.MustCompile(`^ppt/slides/_rels/slide(\d+)\.xml\.rels$`)

const relTypeNotesSlide = "/notesSlide"

// Relationship is one resolved entry of a relationship manifest. Target is
// an archive path, already resolved against the owning part's directory.
type Relationship struct {
	ID     string
	Type   string
	Target string
}

// RelationshipMap holds the relationships of every slide, keyed by the slide
// index taken from the manifest file name ("1" for slide1.xml.rels). It is
// built once per parse and only read afterwards.
type RelationshipMap map[string][]Relationship

// Lookup finds a relationship of a slide by its ID.
func (m RelationshipMap) Lookup(slide, id string) (Relationship, bool) {
	for _, rel := range m[slide] {
		if rel.ID == id {
			return rel, true
		}
	}
	return Relationship{}, false
}

// ByType finds the first relationship of a slide whose type URI ends in suffix.
func (m RelationshipMap) ByType(slide, suffix string) (Relationship, bool) {
	for _, rel := range m[slide] {
		if strings.HasSuffix(rel.Type, suffix) {
			return rel, true
		}
	}
	return Relationship{}, false
}

// resolveRelationships reads every slide manifest. A manifest that cannot be
// read or parsed is left out, so lookups for that slide find nothing.
func resolveRelationships(ar *archive.Reader, log *slog.Logger) RelationshipMap {
	m := make(RelationshipMap)
	for _, name := range ar.Match(slideRelsPattern) {
		n, err := strconv.Atoi(slideRelsPattern.FindStringSubmatch(name)[1])
		if err != nil {
			continue
		}
		key := strconv.Itoa(n)

		data, err := ar.ReadBytes(name)
		if err != nil {
			log.Debug("pptx: relationship manifest unreadable", "path", name, "error", err)
			continue
		}
		rels, err := parseRelationships(data, "ppt/slides")
		if err != nil {
			log.Debug("pptx: relationship manifest malformed", "path", name, "error", err)
			continue
		}
		m[key] = rels
	}
	return m
}

// parseRelationships decodes a .rels part; targets are resolved against
// baseDir. External targets (hyperlinks, linked media) are dropped.
func parseRelationships(data []byte, baseDir string) ([]Relationship, error) {
	var doc xmlRelationships
	if err := decodeXML(data, &doc); err != nil {
		return nil, err
	}
	out := make([]Relationship, 0, len(doc.Rels))
	for _, rel := range doc.Rels {
		if strings.EqualFold(rel.TargetMode, "External") || rel.ID == "" || rel.Target == "" {
			continue
		}
		out = append(out, Relationship{
			ID:     rel.ID,
			Type:   rel.Type,
			Target: resolveTarget(baseDir, rel.Target),
		})
	}
	return out, nil
}

// resolveTarget turns a relationship target into an archive path.
// "../media/image1.png" from ppt/slides becomes ppt/media/image1.png and
// absolute targets are taken from the package root.
func resolveTarget(baseDir, target string) string {
	target = strings.ReplaceAll(target, "\\", "/")
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Clean(path.Join(baseDir, target))
}
