package compress

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
	}{
		{"archive.zip", FormatZip},
		{"archive.7z", FormatSevenZip},
		{"archive.rar", FormatRar},
		{"archive.tar", FormatTar},
		{"archive.tar.gz", FormatTarGz},
		{"archive.tgz", FormatTarGz},
		{"archive.7z.001", FormatSevenZip},
		{"archive.zip.2", FormatZip},
		{"photo.png", FormatUnknown},
		{"noext", FormatUnknown},
		{"/some/dir/archive.ZIP", FormatZip},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.filename))
		})
	}
}

func TestIsFirstVolume(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"archive.zip", true},
		{"archive.7z.001", true},
		{"archive.7z.1", true},
		{"archive.7z.002", false},
		{"photo.png", false},
		{"report.2024", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFirstVolume(tt.path))
		})
	}
}

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	out, err := os.Create(path)
	require.NoError(t, err)
	defer out.Close()

	writer := zip.NewWriter(out)
	for name, content := range entries {
		entry, err := writer.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
}

func TestExtractZip(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "bundle.zip")
	writeZip(t, archive, map[string]string{
		"a.txt":       "alpha",
		"inner/b.txt": "beta",
	})

	dest := filepath.Join(dir, "out")
	require.NoError(t, Extract(archive, dest))

	data, err := os.ReadFile(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))

	data, err = os.ReadFile(filepath.Join(dest, "inner", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "beta", string(data))
}

func TestExtract_DefaultsToArchiveDir(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "bundle.zip")
	writeZip(t, archive, map[string]string{"a.txt": "alpha"})

	require.NoError(t, Extract(archive, ""))

	_, err := os.Stat(filepath.Join(dir, "a.txt"))
	assert.NoError(t, err)
}

func TestExtract_RefusesTraversal(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.zip")
	writeZip(t, archive, map[string]string{"../escape.txt": "nope"})

	err := Extract(archive, filepath.Join(dir, "out"))
	assert.ErrorContains(t, err, "escapes destination")
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0644))

	assert.Error(t, Extract(path, dir))
}

func TestExtractTarGz(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "bundle.tar.gz")

	out, err := os.Create(archive)
	require.NoError(t, err)
	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)
	content := []byte("tar content")
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "nested/file.txt",
		Mode:     0644,
		Size:     int64(len(content)),
		Typeflag: tar.TypeReg,
	}))
	_, err = tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, out.Close())

	dest := filepath.Join(dir, "out")
	require.NoError(t, Extract(archive, dest))

	data, err := os.ReadFile(filepath.Join(dest, "nested", "file.txt"))
	require.NoError(t, err)
	assert.Equal(t, "tar content", string(data))
}

func TestZipPath_File(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(src, []byte("contents"), 0644))

	archive, err := ZipPath(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report.zip"), archive)

	reader, err := zip.OpenReader(archive)
	require.NoError(t, err)
	defer reader.Close()
	require.Len(t, reader.File, 1)
	assert.Equal(t, "report.txt", reader.File[0].Name)
}

func TestZipPath_Directory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "media")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "b.txt"), []byte("b"), 0644))

	archive, err := ZipPath(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "media.zip"), archive)

	reader, err := zip.OpenReader(archive)
	require.NoError(t, err)
	defer reader.Close()

	names := make(map[string]bool)
	for _, file := range reader.File {
		names[file.Name] = true
	}
	assert.True(t, names["media/a.txt"])
	assert.True(t, names["media/sub/b.txt"])
}
