package slidedeck

import (
	"errors"

	"github.com/brunobiangulo/slidedeck/parser"
	"github.com/brunobiangulo/slidedeck/store"
)

var (
	// ErrInvalidArchive is returned when the input is not a ZIP container.
	ErrInvalidArchive = parser.ErrInvalidArchive

	// ErrInvalidFormat is returned when a required package entry is missing.
	// The concrete error is a *FormatError naming the entry.
	ErrInvalidFormat = parser.ErrInvalidFormat

	// ErrLegacyFormat is returned for PowerPoint 97-2003 binary files.
	ErrLegacyFormat = parser.ErrLegacyFormat

	// ErrUnsupportedFormat is returned for unrecognized file extensions.
	ErrUnsupportedFormat = parser.ErrUnsupportedFormat

	// ErrStoreClosed is returned when operating on a closed cache.
	ErrStoreClosed = store.ErrStoreClosed

	// ErrCacheMiss is returned when no cached result exists for a key.
	ErrCacheMiss = store.ErrCacheMiss

	// ErrCacheDisabled is returned by cache operations when the engine was
	// created without a cache.
	ErrCacheDisabled = errors.New("slidedeck: cache is disabled")

	// ErrFileTooLarge is returned when an input exceeds MaxUploadBytes.
	ErrFileTooLarge = errors.New("slidedeck: file too large")

	// ErrEngineClosed is returned when using an engine after Close.
	ErrEngineClosed = errors.New("slidedeck: engine is closed")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("slidedeck: invalid configuration")
)

// FormatError names the required entry missing from an archive.
type FormatError = parser.FormatError
