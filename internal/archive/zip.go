package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"strings"
)

func readZip(r io.ReaderAt, size int64) (*Handle, error) {
	zr, err := zip.NewReader(r, size)
	// entries are never extracted to disk, so insecure names are harmless here
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, classifyZip(err)
	}

	h := &Handle{Comment: zr.Comment}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			h.entries = append(h.entries, Entry{
				Name:     f.Name,
				Modified: f.Modified,
				Method:   zip.Store,
				Dir:      true,
				NonUTF8:  f.NonUTF8,
			})
			continue
		}

		data, err := readZipFile(f)
		if err != nil {
			return nil, err
		}
		if isMetadataEntry(f.Name) {
			h.addMetadata(f.Name, data)
			continue
		}
		h.entries = append(h.entries, Entry{
			Name:     f.Name,
			Data:     data,
			Modified: f.Modified,
			Method:   f.Method,
			NonUTF8:  f.NonUTF8,
		})
	}
	return h, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, classifyZip(err))
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, classifyZip(err))
	}
	return data, nil
}

// classifyZip tells a damaged container apart from a failing disk.
func classifyZip(err error) error {
	switch {
	case errors.Is(err, zip.ErrFormat),
		errors.Is(err, zip.ErrAlgorithm),
		errors.Is(err, zip.ErrChecksum),
		errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	default:
		return fmt.Errorf("%w: %w", ErrUnreadableArchive, err)
	}
}
