// Package prereqs checks the host platform against the set the indexer is
// routinely run and tested on, and warns at startup when it falls outside.
package prereqs

import (
	"context"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// platform pairs a GOOS/GOARCH combination with, for darwin, the lowest
// kernel major version known to work.
type platform struct {
	os             string
	arch           string
	minDarwinMajor int
}

var (
	// unameOutput is swapped for a stub in tests.
	unameOutput = runUname
	runtimeOS   = runtime.GOOS
	runtimeArch = runtime.GOARCH
)

func runUname(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "uname", "-r").Output() // #nosec G204
	if err != nil {
		return "", errors.Wrap(err, "error in command execution")
	}
	return string(out), nil
}

// supported lists the platforms CI covers. Darwin 18 is Mojave.
func supported() []platform {
	return []platform{
		{os: "linux", arch: "amd64"},
		{os: "linux", arch: "arm64"},
		{os: "darwin", arch: "amd64", minDarwinMajor: 18},
		{os: "darwin", arch: "arm64", minDarwinMajor: 20},
		{os: "windows", arch: "amd64"},
	}
}

// darwinKernelMajor parses the leading integer of a `uname -r` line.
func darwinKernelMajor(s string) (int, error) {
	head := strings.TrimSpace(s)
	if i := strings.IndexByte(head, '.'); i >= 0 {
		head = head[:i]
	}
	major, err := strconv.Atoi(head)
	if err != nil {
		return 0, errors.Wrap(err, "error parsing kernel version")
	}
	return major, nil
}

// meetsMinPlatformReqs returns true if the runtime matches an entry of the
// supported platform list, checking the kernel version cutoff on darwin.
func meetsMinPlatformReqs(ctx context.Context) (bool, error) {
	for _, p := range supported() {
		if runtimeOS != p.os || runtimeArch != p.arch {
			continue
		}
		if p.os != "darwin" {
			return true, nil
		}
		out, err := unameOutput(ctx)
		if err != nil {
			return false, errors.Wrap(err, "error obtaining darwin kernel version")
		}
		major, err := darwinKernelMajor(out)
		if err != nil {
			return false, err
		}
		return major >= p.minDarwinMajor, nil
	}
	return false, nil
}

// WarnIfPlatformNotSupported warns if the host platform is unsupported or
// if detection failed.
func WarnIfPlatformNotSupported(ctx context.Context) {
	ok, err := meetsMinPlatformReqs(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to detect host platform")
		return
	}
	if !ok {
		log.Warn("This platform is not supported. The following platforms are supported: " +
			"Linux/AMD64, Linux/ARM64, macOS Mojave or later, and Windows/AMD64")
	}
}
