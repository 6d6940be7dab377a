package parser

import (
	"errors"

	"github.com/brunobiangulo/slidedeck/archive"
)

var (
	// ErrInvalidArchive is returned when the input is not a ZIP container.
	ErrInvalidArchive = archive.ErrInvalidArchive

	// ErrLegacyFormat is returned for PowerPoint 97-2003 binary files.
	ErrLegacyFormat = archive.ErrLegacyFormat

	// ErrInvalidFormat is returned when the archive lacks a required entry.
	ErrInvalidFormat = errors.New("slidedeck: invalid presentation format")

	// ErrUnsupportedFormat is returned by the registry for unknown extensions.
	ErrUnsupportedFormat = errors.New("slidedeck: unsupported document format")
)

// FormatError names the required entry that is missing from an archive.
type FormatError struct {
	Path string
}

func (e *FormatError) Error() string {
	return ErrInvalidFormat.Error() + ": missing " + e.Path
}

func (e *FormatError) Unwrap() error { return ErrInvalidFormat }
