package parser

import (
	"fmt"
	"strings"
)

type xmlNotes struct {
	CSld xmlCommonSlide `xml:"cSld"`
}

// notesChrome are the notes-page placeholders that never hold speaker text.
var notesChrome = map[string]bool{
	"sldNum": true,
	"sldImg": true,
	"hdr":    true,
	"ftr":    true,
	"dt":     true,
}

// notesPath locates the notes part of a slide. A readable relationship
// manifest is authoritative: without a notesSlide relationship the slide has
// no notes. The conventional part name for the slide index is used only when
// the manifest is missing or malformed.
func notesPath(rels RelationshipMap, key string, index int) (string, bool) {
	if rel, ok := rels.ByType(key, relTypeNotesSlide); ok {
		return rel.Target, true
	}
	if _, ok := rels[key]; ok {
		return "", false
	}
	return fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", index), true
}

// notesText returns the speaker notes held in a notes slide part.
func notesText(data []byte) (string, error) {
	var doc xmlNotes
	if err := decodeXML(data, &doc); err != nil {
		return "", err
	}
	var parts []string
	for _, shape := range doc.CSld.Tree.Shapes {
		sp, ok := shape.(*TextShape)
		if !ok || notesChrome[sp.Placeholder] {
			continue
		}
		if t := paragraphText(sp.Body); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n"), nil
}
