package compress

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ZipPath compresses a file or directory into a sibling .zip archive and
// returns its path. Used when a downloaded directory has to travel as a
// single webhook attachment.
func ZipPath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	base := filepath.Base(path)
	name := base
	if !info.IsDir() {
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	archivePath := filepath.Join(filepath.Dir(path), name+".zip")

	out, err := os.Create(archivePath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	writer := zip.NewWriter(out)
	defer writer.Close()

	addFile := func(src, arcname string) error {
		entry, err := writer.Create(arcname)
		if err != nil {
			return err
		}
		in, err := os.Open(src)
		if err != nil {
			return err
		}
		defer in.Close()
		_, err = io.Copy(entry, in)
		return err
	}

	if !info.IsDir() {
		if err := addFile(path, base); err != nil {
			return "", err
		}
		return archivePath, nil
	}

	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		return addFile(p, filepath.ToSlash(filepath.Join(base, rel)))
	})
	if err != nil {
		return "", fmt.Errorf("compressing %s: %w", path, err)
	}
	return archivePath, nil
}
