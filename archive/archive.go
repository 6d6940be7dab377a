// Package archive opens an OOXML package (a ZIP container) held in memory and
// gives random access to its entries by name.
package archive

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

// MaxEntrySize bounds the decompressed size of a single entry.
const MaxEntrySize = 256 << 20

var (
	// ErrInvalidArchive is returned when the buffer is not a readable ZIP container.
	ErrInvalidArchive = errors.New("slidedeck: invalid archive")

	// ErrNotFound is returned when a named entry does not exist.
	ErrNotFound = errors.New("slidedeck: archive entry not found")

	// ErrEntryTooLarge is returned when an entry decompresses past MaxEntrySize.
	ErrEntryTooLarge = errors.New("slidedeck: archive entry too large")
)

// Reader is a read-only view over one in-memory container. A Reader belongs to
// a single parse call; build a new one for every buffer.
type Reader struct {
	zr    *zip.Reader
	index map[string]*zip.File
	names []string
}

// Open reads the central directory of data. It fails with ErrInvalidArchive if
// data is not a ZIP container.
func Open(data []byte) (*Reader, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", ErrInvalidArchive)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if IsLegacyPresentation(data) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArchive, ErrLegacyFormat)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	r := &Reader{
		zr:    zr,
		index: make(map[string]*zip.File, len(zr.File)),
		names: make([]string, 0, len(zr.File)),
	}
	for _, f := range zr.File {
		// Some writers emit backslashes; OOXML part names always use '/'.
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if _, dup := r.index[name]; dup {
			continue
		}
		r.index[name] = f
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Names returns every entry name in lexical order.
func (r *Reader) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Has reports whether an entry with exactly this name exists.
func (r *Reader) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// HasPrefix reports whether any entry name starts with prefix. ZIP writers do
// not always store directory entries, so directories are checked this way.
func (r *Reader) HasPrefix(prefix string) bool {
	i := sort.SearchStrings(r.names, prefix)
	return i < len(r.names) && strings.HasPrefix(r.names[i], prefix)
}

// Match returns the names of all entries matching re, in lexical order.
func (r *Reader) Match(re *regexp.Regexp) []string {
	var out []string
	for _, name := range r.names {
		if re.MatchString(name) {
			out = append(out, name)
		}
	}
	return out
}

// ReadBytes returns the decompressed content of an entry.
func (r *Reader) ReadBytes(name string) ([]byte, error) {
	f := r.index[name]
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if f.UncompressedSize64 > MaxEntrySize {
		return nil, fmt.Errorf("%w: %s", ErrEntryTooLarge, name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer rc.Close()

	// The header size can lie; enforce the limit on what is actually inflated.
	data, err := io.ReadAll(io.LimitReader(rc, MaxEntrySize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if len(data) > MaxEntrySize {
		return nil, fmt.Errorf("%w: %s", ErrEntryTooLarge, name)
	}
	return data, nil
}

// ReadText returns an entry's content as a string.
func (r *Reader) ReadText(name string) (string, error) {
	data, err := r.ReadBytes(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadBase64 returns an entry's content encoded with standard base64.
func (r *Reader) ReadBase64(name string) (string, error) {
	data, err := r.ReadBytes(name)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
