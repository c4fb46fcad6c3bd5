// Package discovery enumerates conversion candidates under a root path.
package discovery

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"webpify/pkg/imgutil"
)

// Discover walks root recursively and returns every regular file whose
// extension marks it as a JPEG or PNG, sorted lexicographically. Existing
// .webp files are never candidates. A root that is itself a qualifying file
// yields just that file.
func Discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if info.Mode().IsRegular() && IsCandidate(absRoot) {
			return []string{absRoot}, nil
		}
		return nil, nil
	}

	var files []string
	fsys := os.DirFS(absRoot)
	err = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if IsCandidate(path) {
			files = append(files, filepath.Join(absRoot, filepath.FromSlash(path)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// IsCandidate reports whether path has a .jpg, .jpeg or .png extension, in
// any letter case.
func IsCandidate(path string) bool {
	return imgutil.KindFromExt(path).Convertible()
}
