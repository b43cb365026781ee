// Package logs lets the process mirror everything written to stdout into a
// persistent log file, and masks endpoint credentials before they reach any
// log line.
package logs

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/observerlabs/aavewatch/config/params"
	"github.com/observerlabs/aavewatch/io/file"
	"github.com/sirupsen/logrus"
)

func addLogWriter(w io.Writer) {
	mw := io.MultiWriter(logrus.StandardLogger().Out, w)
	logrus.SetOutput(mw)
}

// ConfigurePersistentLogging adds a log-to-file writer. File content is
// identical to stdout.
func ConfigurePersistentLogging(logFileName string) error {
	logrus.WithField("logFileName", logFileName).Info("Logs will be made persistent")
	if err := file.MkdirAll(filepath.Dir(logFileName)); err != nil {
		return err
	}
	f, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, params.AavewatchIoConfig().ReadWritePermissions) // #nosec G304
	if err != nil {
		return err
	}
	addLogWriter(f)
	logrus.Info("File logging initialized")
	return nil
}

// MaskCredentialsLogging masks the url credentials before logging for
// security purpose:
// [scheme:][//[userinfo@]host][/]path[?query][#fragment] -->
// [scheme:][//[***]host][/***][#***]
// If the format is not matched nothing is done, the string is returned as is.
// RPC endpoints embed provider API keys in the path, so every endpoint an
// operator might see in a log line goes through here first.
func MaskCredentialsLogging(currUrl string) string {
	maskedUrl := currUrl
	u, err := url.Parse(currUrl)
	if err != nil {
		return currUrl // Not a URL, nothing to do
	}
	// Mask the userinfo and the URI (path?query or opaque?query) and
	// fragment, leave the scheme and host (host/port) untouched.
	if u.User != nil {
		maskedUrl = strings.Replace(maskedUrl, u.User.String(), "***", 1)
	}
	if len(u.RequestURI()) > 1 { // Ignore the '/'
		maskedUrl = strings.Replace(maskedUrl, u.RequestURI(), "/***", 1)
	}
	if len(u.Fragment) > 0 {
		maskedUrl = strings.Replace(maskedUrl, u.RawFragment, "***", 1)
	}
	return maskedUrl
}
