package compress

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bodgit/sevenzip"

	"github.com/sorane/community-archiver/logger"
)

// Format is the closed set of archive formats the extractor understands.
type Format int

const (
	FormatUnknown Format = iota
	FormatZip
	FormatSevenZip
	FormatRar
	FormatTar
	FormatTarGz
)

func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatSevenZip:
		return "7z"
	case FormatRar:
		return "rar"
	case FormatTar:
		return "tar"
	case FormatTarGz:
		return "tar.gz"
	}
	return "unknown"
}

// Detect classifies a filename into a Format. A trailing numeric volume
// suffix (archive.7z.001) is ignored for classification.
func Detect(filename string) Format {
	name := strings.ToLower(filepath.Base(filename))
	if ext := filepath.Ext(name); len(ext) > 1 {
		if _, err := strconv.Atoi(ext[1:]); err == nil {
			name = strings.TrimSuffix(name, ext)
		}
	}
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return FormatTarGz
	case strings.HasSuffix(name, ".tar"):
		return FormatTar
	case strings.HasSuffix(name, ".zip"):
		return FormatZip
	case strings.HasSuffix(name, ".7z"):
		return FormatSevenZip
	case strings.HasSuffix(name, ".rar"):
		return FormatRar
	case strings.HasSuffix(name, ".gz"):
		return FormatTarGz
	}
	return FormatUnknown
}

// IsFirstVolume reports whether path is an archive worth handing to the
// extractor: a recognized format, and for multi-volume archives only the
// first volume.
func IsFirstVolume(path string) bool {
	name := filepath.Base(path)
	if ext := filepath.Ext(name); len(ext) > 1 {
		if part, err := strconv.Atoi(ext[1:]); err == nil {
			if Detect(strings.TrimSuffix(name, ext)) == FormatUnknown {
				return false
			}
			return part <= 1
		}
	}
	return Detect(name) != FormatUnknown
}

// Extract unpacks the archive at path into dest, defaulting to the
// archive's own directory.
func Extract(path, dest string) error {
	if dest == "" {
		dest = filepath.Dir(path)
	}
	if err := os.MkdirAll(dest, os.ModePerm); err != nil {
		return err
	}

	format := Detect(path)
	logger.Logger.Printf("[INFO] Extracting %s archive: %s", format, filepath.Base(path))

	switch format {
	case FormatZip:
		return extractZip(path, dest)
	case FormatSevenZip:
		return extract7z(path, dest)
	case FormatRar:
		return extractRar(path, dest)
	case FormatTar, FormatTarGz:
		return extractTar(path, dest, format == FormatTarGz)
	}
	return fmt.Errorf("unsupported archive format: %s", filepath.Base(path))
}

// securePath joins name under dest, refusing entries that escape it.
func securePath(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes destination", name)
	}
	return target, nil
}

func writeEntry(target string, mode os.FileMode, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), os.ModePerm); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, r)
	return err
}

func extractZip(path, dest string) error {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	for _, file := range reader.File {
		target, err := securePath(dest, file.Name)
		if err != nil {
			return err
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, os.ModePerm); err != nil {
				return err
			}
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return err
		}
		err = writeEntry(target, file.Mode(), rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func extract7z(path, dest string) error {
	reader, err := sevenzip.OpenReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	for _, file := range reader.File {
		target, err := securePath(dest, file.Name)
		if err != nil {
			return err
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, os.ModePerm); err != nil {
				return err
			}
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return err
		}
		err = writeEntry(target, file.Mode(), rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// extractRar shells out to an unrar binary; there is no rar license for a
// native extractor.
func extractRar(path, dest string) error {
	unrar, err := exec.LookPath("unrar")
	if err != nil {
		return fmt.Errorf("unrar binary not found in PATH")
	}
	cmd := exec.Command(unrar, "x", "-o+", "-inul", path, dest+string(os.PathSeparator))
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("unrar failed: %v: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func extractTar(path, dest string, gzipped bool) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var reader io.Reader = file
	if gzipped {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return err
		}
		defer gz.Close()
		reader = gz
	}

	tr := tar.NewReader(reader)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		target, err := securePath(dest, header.Name)
		if err != nil {
			return err
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.ModePerm); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, os.FileMode(header.Mode), tr); err != nil {
				return err
			}
		}
	}
}
