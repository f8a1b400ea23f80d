package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Another0Noob/comictag/internal/comicinfo"
	"github.com/google/uuid"
)

const defaultPerm os.FileMode = 0o644

// Writer rebuilds archives. The new container is written to a temporary file,
// verified, and renamed over the destination, so the destination is either the
// old file or the complete new one.
//
// ComicInfo.xml is always the last entry. Sources in rar format are committed
// next to the original with a .cbz extension; the rar file itself is left alone.
type Writer struct {
	tempDir         string
	replaceExisting bool
	now             func() time.Time
}

type WriterOption func(*Writer)

// WithTempDir builds archives in dir instead of the destination's directory.
// dir must be on the same filesystem as the destination.
func WithTempDir(dir string) WriterOption {
	return func(w *Writer) { w.tempDir = dir }
}

// WithReplaceExisting lets a rar conversion overwrite a .cbz that already
// exists at the destination path.
func WithReplaceExisting(replace bool) WriterOption {
	return func(w *Writer) { w.replaceExisting = replace }
}

func NewWriter(opts ...WriterOption) *Writer {
	w := &Writer{now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Destination returns the path a rewrite of h is committed to.
func Destination(h *Handle) string {
	if h.Format != FormatRar {
		return h.Path
	}
	return strings.TrimSuffix(h.Path, filepath.Ext(h.Path)) + ".cbz"
}

// Write commits h with rec serialized as its ComicInfo.xml and returns the
// committed path.
func (w *Writer) Write(h *Handle, rec comicinfo.Record) (string, error) {
	return w.commit(h, comicinfo.Serialize(rec))
}

// Strip commits h without any ComicInfo.xml entry.
func (w *Writer) Strip(h *Handle) (string, error) {
	return w.commit(h, nil)
}

func (w *Writer) commit(h *Handle, metadata []byte) (string, error) {
	dest := Destination(h)
	if dest != h.Path && !w.replaceExisting {
		if _, err := os.Lstat(dest); err == nil {
			return "", fmt.Errorf("%w: %s already exists", ErrWriteFailed, dest)
		}
	}

	perm := defaultPerm
	if info, err := os.Stat(h.Path); err == nil {
		perm = info.Mode().Perm()
	}

	dir := w.tempDir
	if dir == "" {
		dir = filepath.Dir(dest)
	}
	tmp := filepath.Join(dir, "."+filepath.Base(dest)+"."+uuid.NewString()+".tmp")

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %w", ErrWriteFailed, err)
	}
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmp)
		}
	}()

	names, err := w.writeZip(f, h, metadata)
	if err != nil {
		f.Close()
		return "", fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return "", fmt.Errorf("%w: sync %s: %w", ErrWriteFailed, tmp, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: close %s: %w", ErrWriteFailed, tmp, err)
	}

	if err := verify(tmp, names); err != nil {
		return "", fmt.Errorf("%w: verify: %w", ErrWriteFailed, err)
	}

	if err := os.Rename(tmp, dest); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	committed = true
	return dest, nil
}

// writeZip writes all entries of h followed by metadata, when non-nil, and
// returns the entry names in write order.
func (w *Writer) writeZip(out io.Writer, h *Handle, metadata []byte) ([]string, error) {
	zw := zip.NewWriter(out)
	names := make([]string, 0, len(h.entries)+1)

	for _, e := range h.entries {
		hdr := &zip.FileHeader{
			Name:     e.Name,
			Method:   e.Method,
			Modified: e.Modified,
			NonUTF8:  e.NonUTF8,
		}
		if e.Dir {
			hdr.Method = zip.Store
		}

		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("create entry %s: %w", e.Name, err)
		}
		if !e.Dir {
			if _, err := fw.Write(e.Data); err != nil {
				return nil, fmt.Errorf("write entry %s: %w", e.Name, err)
			}
		}
		names = append(names, e.Name)
	}

	if metadata != nil {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     comicinfo.FileName,
			Method:   zip.Deflate,
			Modified: w.now(),
		})
		if err != nil {
			return nil, fmt.Errorf("create entry %s: %w", comicinfo.FileName, err)
		}
		if _, err := fw.Write(metadata); err != nil {
			return nil, fmt.Errorf("write entry %s: %w", comicinfo.FileName, err)
		}
		names = append(names, comicinfo.FileName)
	}

	if h.Comment != "" {
		if err := zw.SetComment(h.Comment); err != nil {
			return nil, fmt.Errorf("set comment: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish zip: %w", err)
	}
	return names, nil
}

// verify re-reads the central directory of the written file and checks it
// lists exactly the expected entries.
func verify(path string, want []string) error {
	zr, err := zip.OpenReader(path)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return err
	}
	defer zr.Close()

	if len(zr.File) != len(want) {
		return fmt.Errorf("%s has %d entries, want %d", path, len(zr.File), len(want))
	}
	for i, f := range zr.File {
		if f.Name != want[i] {
			return fmt.Errorf("%s entry %d is %q, want %q", path, i, f.Name, want[i])
		}
	}
	return nil
}
