// Package testing builds comic archive fixtures for tests.
package testing

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// File is one archive member of a fixture.
type File struct {
	Name string
	Data []byte
}

// Page returns a fake image entry. Method is irrelevant to the tests, so page
// bytes only need to be distinct.
func Page(n int) File {
	data := bytes.Repeat([]byte(fmt.Sprintf("page-%03d;", n)), 64)
	return File{Name: fmt.Sprintf("%03d.jpg", n), Data: data}
}

// Metadata returns a ComicInfo.xml member holding doc.
func Metadata(doc string) File {
	return File{Name: "ComicInfo.xml", Data: []byte(doc)}
}

// WriteZip creates a zip archive at path containing files in order.
func WriteZip(t testing.TB, path string, files ...File) {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
		})
		require.NoError(t, err)
		_, err = w.Write(f.Data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// ReadZip returns the members of the zip archive at path in order.
func ReadZip(t testing.TB, path string) []File {
	t.Helper()

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	var out []File
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		out = append(out, File{Name: f.Name, Data: data})
	}
	return out
}

// Find returns the member called name.
func Find(files []File, name string) (File, bool) {
	for _, f := range files {
		if f.Name == name {
			return f, true
		}
	}
	return File{}, false
}

// SampleRarDoc is the ComicInfo.xml stored in the sample rar archive.
const SampleRarDoc = `<?xml version="1.0" encoding="utf-8"?>
<ComicInfo>
  <Series>Fixture</Series>
  <Number>1</Number>
  <Writer>Rar Writer</Writer>
</ComicInfo>
`

// CopySampleRar copies testdata/sample.cbr to dir/name and returns the new
// path. The archive is a RAR 4 file with stored members, in order: 001.jpg and
// 002.jpg (Page(1) and Page(2)), a directory "extras", extras/credits.txt and
// a root ComicInfo.xml holding SampleRarDoc. Every member is dated
// 2020-05-17 10:30.
func CopySampleRar(t testing.TB, dir, name string) string {
	t.Helper()

	_, self, _, ok := runtime.Caller(0)
	require.True(t, ok)
	data, err := os.ReadFile(filepath.Join(filepath.Dir(self), "..", "testdata", "sample.cbr"))
	require.NoError(t, err)

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
