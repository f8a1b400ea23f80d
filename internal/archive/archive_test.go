package archive

import (
	"archive/zip"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	archivetest "github.com/Another0Noob/comictag/internal/archive/testing"
	"github.com/Another0Noob/comictag/internal/comicinfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const existingDoc = `<?xml version="1.0" encoding="utf-8"?>
<ComicInfo>
  <Writer>Alan Moore</Writer>
  <Year>1986</Year>
  <Extra>keep me</Extra>
</ComicInfo>`

func TestOpen_ZipWithMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchmen.cbz")
	archivetest.WriteZip(t, path,
		archivetest.Page(1),
		archivetest.Metadata(existingDoc),
		archivetest.Page(2),
	)

	h, err := Open(path)
	require.NoError(t, err)
	defer h.Close()

	assert.Equal(t, FormatZip, h.Format)
	assert.True(t, h.HasMetadata())
	assert.Equal(t, "ComicInfo.xml", h.MetadataName())
	assert.True(t, h.MetadataCanonical())

	entries := h.OtherEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "001.jpg", entries[0].Name)
	assert.Equal(t, "002.jpg", entries[1].Name)
	assert.Equal(t, archivetest.Page(2).Data, entries[1].Data)

	rec, err := h.ReadMetadata()
	require.NoError(t, err)
	v, _ := rec.Get(comicinfo.Writer)
	assert.Equal(t, "Alan Moore", v.AsText())
}

func TestOpen_NoMetadataIsEmptyRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.cbz")
	archivetest.WriteZip(t, path, archivetest.Page(1))

	h, err := Open(path)
	require.NoError(t, err)

	rec, err := h.ReadMetadata()
	require.NoError(t, err)
	assert.True(t, rec.IsEmpty())
	assert.False(t, h.HasMetadata())
}

func TestOpen_MetadataNameCaseInsensitive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lower.cbz")
	archivetest.WriteZip(t, path,
		archivetest.File{Name: "comicinfo.xml", Data: []byte(existingDoc)},
		archivetest.File{Name: "COMICINFO.XML", Data: []byte("<ComicInfo/>")},
		archivetest.File{Name: "extras/ComicInfo.xml", Data: []byte("nested")},
		archivetest.Page(1),
	)

	h, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, "comicinfo.xml", h.MetadataName())
	assert.False(t, h.MetadataCanonical())
	names := []string{}
	for _, e := range h.OtherEntries() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"extras/ComicInfo.xml", "001.jpg"}, names)
}

func TestOpen_MalformedMetadataReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.cbz")
	archivetest.WriteZip(t, path, archivetest.Metadata("<ComicInfo><Series>"), archivetest.Page(1))

	h, err := Open(path)
	require.NoError(t, err, "a broken ComicInfo.xml does not prevent opening")

	_, err = h.ReadMetadata()
	assert.True(t, errors.Is(err, comicinfo.ErrMalformedMetadata))
}

func TestOpen_DetectsBySignature(t *testing.T) {
	dir := t.TempDir()
	misnamed := filepath.Join(dir, "really-a-zip.cbr")
	archivetest.WriteZip(t, misnamed, archivetest.Page(1))

	h, err := Open(misnamed)
	require.NoError(t, err)
	assert.Equal(t, FormatZip, h.Format)
	assert.Equal(t, misnamed, Destination(h), "a zip is rewritten in place whatever its name")
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()

	unknown := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(unknown, []byte("hello"), 0o644))

	corruptZip := filepath.Join(dir, "corrupt.cbz")
	require.NoError(t, os.WriteFile(corruptZip, []byte("PK\x03\x04 definitely not a zip"), 0o644))

	corruptRar := filepath.Join(dir, "corrupt.cbr")
	junk := append([]byte("Rar!\x1a\x07\x00"), []byte("\x11\x22\x33\x44\x55\x66\x77\x88\x99\xaa\xbb\xcc\xdd\xee\xff\x00\x01\x02\x03\x04\x05\x06\x07\x08\x09\x0a")...)
	require.NoError(t, os.WriteFile(corruptRar, junk, 0o644))

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing file", filepath.Join(dir, "missing.cbz"), ErrUnreadableArchive},
		{"directory", dir, ErrUnreadableArchive},
		{"unknown format", unknown, ErrUnsupportedFormat},
		{"corrupt zip", corruptZip, ErrUnsupportedFormat},
		{"corrupt rar", corruptRar, ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestOpen_MissingFileKeepsCause(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "gone.cbz"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestExtensions(t *testing.T) {
	assert.True(t, IsZipFile("a/b/Issue 1.CBZ"))
	assert.True(t, IsRarFile("x.cbr"))
	assert.True(t, IsComicFile("x.rar"))
	assert.False(t, IsComicFile("x.pdf"))
}

func TestWrite_NonDestructive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.cbz")
	pages := []archivetest.File{archivetest.Page(1), archivetest.Page(2), archivetest.Page(3)}
	archivetest.WriteZip(t, path, pages[0], archivetest.Metadata(existingDoc), pages[1], pages[2])

	h, err := Open(path)
	require.NoError(t, err)
	before := h.OtherEntries()

	rec, err := h.ReadMetadata()
	require.NoError(t, err)
	rec.Set(comicinfo.Year, comicinfo.Int(2021))

	out, err := NewWriter().Write(h, rec)
	require.NoError(t, err)
	assert.Equal(t, path, out)

	files := archivetest.ReadZip(t, out)
	require.Len(t, files, len(before)+1)
	for i, e := range before {
		assert.Equal(t, e.Name, files[i].Name)
		assert.Equal(t, e.Data, files[i].Data)
	}
	last := files[len(files)-1]
	assert.Equal(t, comicinfo.FileName, last.Name, "metadata is always the last entry")

	got, err := comicinfo.Parse(last.Data)
	require.NoError(t, err)
	v, _ := got.Get(comicinfo.Year)
	assert.Equal(t, 2021, v.AsInt())
	assert.Len(t, got.Extras(), 1)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestWrite_ExactlyOneMetadataEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dupes.cbz")
	archivetest.WriteZip(t, path,
		archivetest.File{Name: "comicinfo.xml", Data: []byte(existingDoc)},
		archivetest.Page(1),
		archivetest.File{Name: "ComicInfo.XML", Data: []byte("<ComicInfo/>")},
	)

	h, err := Open(path)
	require.NoError(t, err)
	_, err = NewWriter().Write(h, comicinfo.Record{})
	require.NoError(t, err)

	count := 0
	for _, f := range archivetest.ReadZip(t, path) {
		if isMetadataEntry(f.Name) {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestWrite_KeepsCompressionMethod(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stored.cbz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "001.png", Method: zip.Store})
	require.NoError(t, err)
	_, err = w.Write([]byte("png bytes"))
	require.NoError(t, err)
	require.NoError(t, zw.SetComment("scanned by somebody"))
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	h, err := Open(path)
	require.NoError(t, err)
	_, err = NewWriter().Write(h, comicinfo.Record{})
	require.NoError(t, err)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	assert.Equal(t, zip.Store, zr.File[0].Method)
	assert.Equal(t, "scanned by somebody", zr.Comment)
}

func TestWrite_RarSourceGoesToCbz(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Issue 7.cbr")
	original := []byte("rar bytes stay put")
	require.NoError(t, os.WriteFile(src, original, 0o644))

	h := &Handle{
		Path:    src,
		Format:  FormatRar,
		entries: []Entry{{Name: "p1.jpg", Data: []byte("one"), Method: zip.Deflate}},
	}
	var rec comicinfo.Record
	rec.Set(comicinfo.Series, comicinfo.Text("Saga"))

	out, err := NewWriter().Write(h, rec)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Issue 7.cbz"), out)

	still, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, original, still)

	files := archivetest.ReadZip(t, out)
	require.Len(t, files, 2)
	assert.Equal(t, "p1.jpg", files[0].Name)
}

func TestWrite_RarDoesNotClobberExistingCbz(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.cbr")
	require.NoError(t, os.WriteFile(src, []byte("rar"), 0o644))
	existing := filepath.Join(dir, "a.cbz")
	require.NoError(t, os.WriteFile(existing, []byte("someone else's"), 0o644))

	h := &Handle{Path: src, Format: FormatRar}

	_, err := NewWriter().Write(h, comicinfo.Record{})
	assert.True(t, errors.Is(err, ErrWriteFailed))
	data, _ := os.ReadFile(existing)
	assert.Equal(t, "someone else's", string(data))

	out, err := NewWriter(WithReplaceExisting(true)).Write(h, comicinfo.Record{})
	require.NoError(t, err)
	assert.Equal(t, existing, out)
}

func TestWrite_FailureLeavesSourceIntact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keep.cbz")
	archivetest.WriteZip(t, path, archivetest.Page(1), archivetest.Metadata(existingDoc))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	h, err := Open(path)
	require.NoError(t, err)

	w := NewWriter(WithTempDir(filepath.Join(dir, "no", "such", "dir")))
	_, err = w.Write(h, comicinfo.Record{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWriteFailed))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strip.cbz")
	archivetest.WriteZip(t, path, archivetest.Metadata(existingDoc), archivetest.Page(1))

	h, err := Open(path)
	require.NoError(t, err)
	_, err = NewWriter().Strip(h)
	require.NoError(t, err)

	files := archivetest.ReadZip(t, path)
	require.Len(t, files, 1)
	assert.Equal(t, "001.jpg", files[0].Name)
}

func TestWrite_DirectoryEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dirs.cbz")
	archivetest.WriteZip(t, path,
		archivetest.File{Name: "chapter 1/"},
		archivetest.File{Name: "chapter 1/001.jpg", Data: []byte("img")},
	)

	h, err := Open(path)
	require.NoError(t, err)
	require.True(t, h.OtherEntries()[0].Dir)

	_, err = NewWriter().Write(h, comicinfo.Record{})
	require.NoError(t, err)

	files := archivetest.ReadZip(t, path)
	require.Len(t, files, 3)
	assert.Equal(t, "chapter 1/", files[0].Name)
	assert.Equal(t, "chapter 1/001.jpg", files[1].Name)
}

func TestOpen_Rar(t *testing.T) {
	path := archivetest.CopySampleRar(t, t.TempDir(), "sample.cbr")

	h, err := Open(path)
	require.NoError(t, err)
	defer h.Close()

	assert.Equal(t, FormatRar, h.Format)
	assert.True(t, h.HasMetadata())
	assert.True(t, h.MetadataCanonical())
	assert.Equal(t, archivetest.SampleRarDoc, string(h.RawMetadata()))

	entries := h.OtherEntries()
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"001.jpg", "002.jpg", "extras/", "extras/credits.txt"}, names)

	assert.Equal(t, archivetest.Page(1).Data, entries[0].Data)
	assert.Equal(t, archivetest.Page(2).Data, entries[1].Data)
	assert.True(t, entries[2].Dir)
	assert.Empty(t, entries[2].Data)
	assert.Equal(t, "scanned by nobody\n", string(entries[3].Data))
	assert.Equal(t, zip.Deflate, entries[3].Method)

	mod := entries[0].Modified
	assert.Equal(t, 2020, mod.Year())
	assert.Equal(t, time.May, mod.Month())
	assert.Equal(t, 17, mod.Day())

	rec, err := h.ReadMetadata()
	require.NoError(t, err)
	v, _ := rec.Get(comicinfo.Series)
	assert.Equal(t, "Fixture", v.AsText())
	v, _ = rec.Get(comicinfo.Writer)
	assert.Equal(t, "Rar Writer", v.AsText())
}

func TestWrite_FromRar(t *testing.T) {
	dir := t.TempDir()
	src := archivetest.CopySampleRar(t, dir, "Saga 01.cbr")
	before, err := os.ReadFile(src)
	require.NoError(t, err)

	h, err := Open(src)
	require.NoError(t, err)
	rec, err := h.ReadMetadata()
	require.NoError(t, err)
	rec.Set(comicinfo.Year, comicinfo.Int(2012))

	out, err := NewWriter().Write(h, rec)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Saga 01.cbz"), out)

	after, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, before, after, "the rar source is never modified")

	files := archivetest.ReadZip(t, out)
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"001.jpg", "002.jpg", "extras/", "extras/credits.txt", comicinfo.FileName}, names)
	assert.Equal(t, archivetest.Page(2).Data, files[1].Data)

	written, err := comicinfo.Parse(files[4].Data)
	require.NoError(t, err)
	assert.Equal(t, []comicinfo.Field{comicinfo.Series, comicinfo.Number, comicinfo.Year, comicinfo.Writer}, written.Fields())

	reopened, err := Open(out)
	require.NoError(t, err)
	assert.Equal(t, FormatZip, reopened.Format)
	assert.True(t, reopened.OtherEntries()[2].Dir)
}
