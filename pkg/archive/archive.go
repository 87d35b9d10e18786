// Package archive extracts zip downloads into the acquisition directory.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmpty is returned for an archive without file entries.
var ErrEmpty = errors.New("archive has no file entries")

// Expand extracts every file entry of the zip at zipPath into destDir and
// returns the extracted paths in archive order. Existing files are
// overwritten. Directory entries are created but not returned. Entries
// that would land outside destDir are rejected.
func Expand(zipPath, destDir string) ([]string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(zipPath), err)
	}
	defer zr.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, f := range zr.File {
		target, err := entryPath(root, f.Name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(zipPath), err)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, err
			}
			continue
		}
		if err := extract(f, target); err != nil {
			return nil, fmt.Errorf("extract %s from %s: %w", f.Name, filepath.Base(zipPath), err)
		}
		paths = append(paths, target)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%s: %w", filepath.Base(zipPath), ErrEmpty)
	}
	return paths, nil
}

func entryPath(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("entry %q escapes destination", name)
	}
	return target, nil
}

func extract(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	if _, err := os.Stat(target); err == nil {
		_ = os.Chmod(target, 0o777)
	}
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
