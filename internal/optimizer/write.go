package optimizer

import (
	"os"
	"path/filepath"
	"strings"
)

// OutputPath returns the sibling .webp path for src, with the original
// extension stripped.
func OutputPath(src string) string {
	ext := filepath.Ext(src)
	return strings.TrimSuffix(src, ext) + ".webp"
}

// writeFileDurable writes data to a temp file next to destPath, syncs it and
// renames it into place, so destPath is either absent or complete.
func writeFileDurable(destPath string, data []byte, mode os.FileMode) error {
	destDir := filepath.Dir(destPath)

	tmpFile, err := os.CreateTemp(destDir, "webpify-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile.Name())

	if err := tmpFile.Chmod(mode); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	if err := replaceFile(tmpFile.Name(), destPath); err != nil {
		return err
	}
	return syncDir(destDir)
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}

// syncDir flushes the directory entry created by the rename. Platforms that
// cannot fsync a directory are ignored.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	if err := d.Sync(); err != nil && !isUnsupportedSync(err) {
		return err
	}
	return nil
}

func isUnsupportedSync(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "invalid argument") || strings.Contains(msg, "not supported") || strings.Contains(msg, "access is denied")
}
