package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/nwaples/rardecode/v2"
)

// readRar extracts every member of a rar archive. Rar archives are never
// modified; a rewrite always produces a zip.
func readRar(path string) (*Handle, error) {
	rc, err := rardecode.OpenReader(path)
	if err != nil {
		return nil, classifyRar(err)
	}
	defer rc.Close()

	h := &Handle{}
	for {
		hdr, err := rc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, classifyRar(err)
		}

		if hdr.IsDir {
			h.entries = append(h.entries, Entry{
				Name:     strings.TrimSuffix(hdr.Name, "/") + "/",
				Modified: hdr.ModificationTime,
				Method:   zip.Store,
				Dir:      true,
			})
			continue
		}

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", hdr.Name, classifyRar(err))
		}
		if isMetadataEntry(hdr.Name) {
			h.addMetadata(hdr.Name, data)
			continue
		}
		h.entries = append(h.entries, Entry{
			Name:     hdr.Name,
			Data:     data,
			Modified: hdr.ModificationTime,
			Method:   zip.Deflate,
		})
	}
	return h, nil
}

func classifyRar(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%w: %w", ErrUnreadableArchive, err)
	}
	return fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
}
