package archive

import (
	"bytes"
	"errors"

	"github.com/richardlehane/mscfb"
)

// ErrLegacyFormat is returned for PowerPoint 97-2003 binary files, which are
// OLE2 compound documents rather than ZIP containers.
var ErrLegacyFormat = errors.New("slidedeck: legacy binary presentation format is not supported")

var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// IsLegacyPresentation reports whether data is a compound document holding a
// "PowerPoint Document" stream.
func IsLegacyPresentation(data []byte) bool {
	if !bytes.HasPrefix(data, oleSignature) {
		return false
	}
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return false
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name == "PowerPoint Document" {
			return true
		}
	}
	return false
}
