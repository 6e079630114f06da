package file

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"

	"github.com/mensylisir/xmpublish/common"
	"github.com/mensylisir/xmpublish/util"
)

// PathExists checks if a path exists.
// A "not exist" error is reported as (false, nil); any other Stat error is returned.
func PathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// CreateDir creates a directory and all its parents if they don't exist.
func CreateDir(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("path %s exists but is not a directory", path)
	}
	if os.IsNotExist(err) {
		return os.MkdirAll(path, common.FileMode0755)
	}
	return fmt.Errorf("failed to check directory %s: %w", path, err)
}

// FileMD5 calculates the MD5 checksum of a file.
func FileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", fmt.Errorf("failed to copy file content to hash for %s: %w", path, err)
	}
	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}

// OpenForUpload expands a leading "~" in path and opens the regular file it names.
// The caller owns the returned file.
func OpenForUpload(path string) (*os.File, os.FileInfo, error) {
	expanded, err := util.ExpandPath(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat local file %s: %w", expanded, err)
	}
	if info.IsDir() {
		return nil, nil, fmt.Errorf("%s is a directory, only regular files can be published", expanded)
	}
	f, err := os.Open(expanded)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open local file %s: %w", expanded, err)
	}
	return f, info, nil
}
