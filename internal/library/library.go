// Package library finds comic archives on disk.
package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Another0Noob/comictag/internal/archive"
	"github.com/Another0Noob/comictag/internal/logger"
)

// Scan returns the .cbz and .cbr files in dir, sorted by path. Hidden files,
// including leftover temp files from an interrupted write, are ignored, and so
// is a .cbr that has already been converted to a .cbz.
func Scan(dir string, recursive bool) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && (!recursive || isHidden(d.Name())) {
				return filepath.SkipDir
			}
			return nil
		}
		if !isHidden(d.Name()) && isComicName(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	paths = dropConverted(paths)
	sort.Strings(paths)
	return paths, nil
}

// dropConverted removes every .cbr whose converted .cbz sits next to it.
// The .cbz is the copy that gets updated from then on.
func dropConverted(paths []string) []string {
	present := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		present[p] = struct{}{}
	}

	out := paths[:0]
	for _, p := range paths {
		if archive.IsRarFile(p) {
			if _, ok := present[strings.TrimSuffix(p, filepath.Ext(p))+".cbz"]; ok {
				logger.Debug("skip %s: already converted", p)
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// isComicName matches the .cbz/.cbr pair offered by the file picker; plain
// .zip/.rar files are only taken when named explicitly.
func isComicName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".cbz", ".cbr":
		return true
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Expand resolves command line arguments into archive paths. Directories are
// scanned, files are taken as given. Duplicates are dropped, order is kept.
func Expand(args []string, recursive bool) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			// missing files are reported per file by the batch
			add(filepath.Clean(arg))
			continue
		}
		found, err := Scan(arg, recursive)
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			add(p)
		}
	}
	return out, nil
}

type Info struct {
	Name        string    `yaml:"name"`
	Path        string    `yaml:"path"`
	Size        int64     `yaml:"size"`
	Modified    time.Time `yaml:"modified"`
	Format      string    `yaml:"format,omitempty"`
	HasMetadata bool      `yaml:"has_metadata"`
	Err         error     `yaml:"-"`
}

// Describe stats and opens path. An archive that cannot be opened is still
// described, with Err set.
func Describe(path string) (Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("describe %s: %w", path, err)
	}

	info := Info{
		Name:     filepath.Base(path),
		Path:     path,
		Size:     st.Size(),
		Modified: st.ModTime(),
	}
	h, err := archive.Open(path)
	if err != nil {
		info.Err = err
		return info, nil
	}
	defer h.Close()

	info.Format = h.Format.String()
	info.HasMetadata = h.HasMetadata()
	return info, nil
}
