package parser

import (
	"strings"

	"github.com/brunobiangulo/slidedeck/archive"
)

const (
	slideRelsDir = "ppt/slides/_rels/"
	rootRelsPath = "_rels/.rels"
)

// requiredEntries must all be present before slide extraction starts.
var requiredEntries = []string{presentationPath, slideRelsDir, rootRelsPath}

// validate checks the archive for the entries every presentation package
// carries. Directory entries ("/" suffix) are checked by prefix.
func validate(ar *archive.Reader) error {
	for _, name := range requiredEntries {
		ok := ar.Has(name)
		if strings.HasSuffix(name, "/") {
			ok = ar.HasPrefix(name)
		}
		if !ok {
			return &FormatError{Path: name}
		}
	}
	return nil
}
