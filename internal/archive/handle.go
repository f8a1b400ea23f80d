// Package archive reads comic archives (.cbz and .cbr) into memory and writes
// them back as zip archives carrying an updated ComicInfo.xml.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Another0Noob/comictag/internal/comicinfo"
)

// Format is the container family of an archive.
type Format int

const (
	FormatZip Format = iota
	FormatRar
)

func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatRar:
		return "rar"
	default:
		return "unknown"
	}
}

var (
	zipSignatures = [][]byte{
		[]byte("PK\x03\x04"),
		[]byte("PK\x05\x06"), // empty archive
	}
	rarSignatures = [][]byte{
		[]byte("Rar!\x1a\x07\x00"),     // RAR 1.5 - 4.x
		[]byte("Rar!\x1a\x07\x01\x00"), // RAR 5
	}

	ZipExtensions = []string{".cbz", ".zip"}
	RarExtensions = []string{".cbr", ".rar"}
)

// Entry is one non-metadata member of an archive, fully buffered.
type Entry struct {
	Name     string
	Data     []byte
	Modified time.Time
	Method   uint16 // zip compression method used when the entry is written
	Dir      bool
	NonUTF8  bool
}

// Handle is an archive loaded into memory. The underlying file is closed by the
// time Open returns; a Handle only owns buffers.
type Handle struct {
	Path    string
	Format  Format
	Comment string

	metadataName  string
	metadata      []byte
	hasMetadata   bool
	metadataCount int
	entries       []Entry
}

// Open loads the archive at path. The container format is taken from the file
// signature, or from the extension when the signature is not recognised.
func Open(path string) (*Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableArchive, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableArchive, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnreadableArchive, path)
	}

	format, err := detect(f, path)
	if err != nil {
		return nil, err
	}

	var h *Handle
	switch format {
	case FormatZip:
		h, err = readZip(f, info.Size())
	case FormatRar:
		h, err = readRar(path)
	}
	if err != nil {
		return nil, err
	}
	h.Path = path
	h.Format = format
	return h, nil
}

func detect(r io.Reader, path string) (Format, error) {
	head := make([]byte, 8)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("%w: %w", ErrUnreadableArchive, err)
	}
	head = head[:n]

	for _, sig := range zipSignatures {
		if bytes.HasPrefix(head, sig) {
			return FormatZip, nil
		}
	}
	for _, sig := range rarSignatures {
		if bytes.HasPrefix(head, sig) {
			return FormatRar, nil
		}
	}

	switch {
	case IsZipFile(path):
		return FormatZip, nil
	case IsRarFile(path):
		return FormatRar, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
}

// IsZipFile checks if a filename has a zip-family extension.
func IsZipFile(name string) bool {
	return hasExtension(name, ZipExtensions)
}

// IsRarFile checks if a filename has a rar-family extension.
func IsRarFile(name string) bool {
	return hasExtension(name, RarExtensions)
}

// IsComicFile checks if a filename has any supported archive extension.
func IsComicFile(name string) bool {
	return IsZipFile(name) || IsRarFile(name)
}

func hasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// isMetadataEntry matches ComicInfo.xml at the archive root in any letter case.
func isMetadataEntry(name string) bool {
	return strings.EqualFold(strings.TrimPrefix(name, "./"), comicinfo.FileName)
}

// addMetadata keeps the first metadata entry found; later case variants are
// dropped so a rewrite ends up with exactly one.
func (h *Handle) addMetadata(name string, data []byte) {
	h.metadataCount++
	if h.hasMetadata {
		return
	}
	h.hasMetadata = true
	h.metadataName = name
	h.metadata = data
}

func (h *Handle) HasMetadata() bool { return h.hasMetadata }

// MetadataCanonical reports whether the archive holds exactly one metadata
// entry and it is named exactly ComicInfo.xml, so a rewrite would not change
// the entry layout.
func (h *Handle) MetadataCanonical() bool {
	return h.metadataCount == 1 && h.metadataName == comicinfo.FileName
}

// MetadataName is the entry name ComicInfo.xml was stored under, or "".
func (h *Handle) MetadataName() string { return h.metadataName }

func (h *Handle) RawMetadata() []byte { return h.metadata }

// ReadMetadata parses the archive's ComicInfo.xml. An archive without one
// yields the empty record.
func (h *Handle) ReadMetadata() (comicinfo.Record, error) {
	if !h.hasMetadata {
		return comicinfo.Record{}, nil
	}
	rec, err := comicinfo.Parse(h.metadata)
	if err != nil {
		return comicinfo.Record{}, fmt.Errorf("%s: %w", h.metadataName, err)
	}
	return rec, nil
}

// OtherEntries returns every non-metadata entry in archive order.
func (h *Handle) OtherEntries() []Entry { return h.entries }

// Close releases the buffered entries.
func (h *Handle) Close() error {
	h.entries = nil
	h.metadata = nil
	return nil
}
