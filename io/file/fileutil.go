// Package file provides the filesystem helpers shared by the aavewatch
// services: permission-checked directory and file creation plus the atomic
// write used for status projections.
package file

import (
	"io/ioutil"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/observerlabs/aavewatch/config/params"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "file")

// HomeDir for a user.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// ExpandPath given a string which may be a relative path.
// 1. replace tilde with users home dir
// 2. expands embedded environment variables
// 3. cleans the path, e.g. /a/b/../c -> /a/c
func ExpandPath(p string) (string, error) {
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, "~\\") {
		if home := HomeDir(); home != "" {
			p = home + p[1:]
		}
	}
	return filepath.Abs(filepath.Clean(os.ExpandEnv(p)))
}

// MkdirAll takes in a path, expands it if necessary, and creates the directory
// accordingly with standardized, aavewatch project permissions. If a directory
// already exists as this path, then the method returns without creating
// anything and without modifying permissions.
func MkdirAll(dirPath string) error {
	expanded, err := ExpandPath(dirPath)
	if err != nil {
		return err
	}
	exists, err := HasDir(expanded)
	if err != nil {
		return err
	}
	if exists {
		info, err := os.Stat(expanded)
		if err != nil {
			return err
		}
		if info.Mode().Perm() != params.AavewatchIoConfig().ReadWriteExecutePermissions {
			return errors.New("dir already exists without proper 0700 permissions")
		}
	}
	return os.MkdirAll(expanded, params.AavewatchIoConfig().ReadWriteExecutePermissions)
}

// WriteFile is the static-analysis enforced method for writing binary data to
// a file in aavewatch, enforcing a single entrypoint with standardized
// permissions.
func WriteFile(fileName string, data []byte) error {
	expanded, err := ExpandPath(fileName)
	if err != nil {
		return err
	}
	if FileExists(expanded) {
		info, err := os.Stat(expanded)
		if err != nil {
			return err
		}
		if info.Mode() != params.AavewatchIoConfig().ReadWritePermissions {
			return errors.New("file already exists without proper 0600 permissions")
		}
	}
	return ioutil.WriteFile(expanded, data, params.AavewatchIoConfig().ReadWritePermissions)
}

// WriteFileAtomic writes data to a temporary file in the target directory and
// renames it over fileName, so readers never observe a partially written
// file. The rename is atomic on POSIX filesystems.
func WriteFileAtomic(fileName string, data []byte) error {
	expanded, err := ExpandPath(fileName)
	if err != nil {
		return err
	}
	tmp, err := ioutil.TempFile(filepath.Dir(expanded), filepath.Base(expanded)+".tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			if err := os.Remove(tmpName); err != nil && !os.IsNotExist(err) {
				log.WithError(err).Error("Could not clean up temporary file")
			}
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		if closeErr := tmp.Close(); closeErr != nil {
			return errors.Wrap(err, closeErr.Error())
		}
		return err
	}
	if err := tmp.Sync(); err != nil {
		if closeErr := tmp.Close(); closeErr != nil {
			return errors.Wrap(err, closeErr.Error())
		}
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, params.AavewatchIoConfig().ReadWritePermissions); err != nil {
		return err
	}
	if err := os.Rename(tmpName, expanded); err != nil {
		return err
	}
	tmpName = ""
	return nil
}

// HasDir checks if a directory indeed exists at the specified path.
func HasDir(dirPath string) (bool, error) {
	fullPath, err := ExpandPath(dirPath)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(fullPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if info == nil {
		return false, err
	}
	return info.IsDir(), err
}

// FileExists returns true if a file is not a directory and exists at the
// specified path.
func FileExists(filename string) bool {
	filePath, err := ExpandPath(filename)
	if err != nil {
		return false
	}
	info, err := os.Stat(filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Info("Checking for file existence returned an error")
		}
		return false
	}
	return info != nil && !info.IsDir()
}
