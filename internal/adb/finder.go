package adb

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// ErrADBNotFound is returned when no adb executable can be located
var ErrADBNotFound = errors.New("adb not found, please set adb_path in settings")

// FindADB attempts to locate the ADB executable. preferredPath may name the
// executable itself or a directory containing it.
func FindADB(preferredPath string) (string, error) {
	exe := "adb"
	if runtime.GOOS == "windows" {
		exe = "adb.exe"
	}

	if preferredPath != "" {
		candidates := []string{
			preferredPath,
			filepath.Join(preferredPath, exe),
			filepath.Join(preferredPath, "platform-tools", exe),
		}
		for _, candidate := range candidates {
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
		return "", errors.Wrapf(ErrADBNotFound, "nothing at %s", preferredPath)
	}

	// PATH first, then the usual SDK and emulator locations
	if adbPath, err := exec.LookPath(exe); err == nil {
		return adbPath, nil
	}

	for _, path := range commonPaths() {
		expandedPath := os.ExpandEnv(path)
		if _, err := os.Stat(expandedPath); err == nil {
			return expandedPath, nil
		}
	}

	return "", ErrADBNotFound
}

func commonPaths() []string {
	if runtime.GOOS == "windows" {
		return []string{
			`${LOCALAPPDATA}\Android\Sdk\platform-tools\adb.exe`,
			`C:\Android\sdk\platform-tools\adb.exe`,
			`C:\Program Files\Netease\MuMuPlayer-12.0\shell\adb.exe`,
			`C:\Program Files\BlueStacks_nxt\HD-Adb.exe`,
		}
	}

	return []string{
		"/usr/bin/adb",
		"/usr/local/bin/adb",
		"${HOME}/Android/Sdk/platform-tools/adb",
		"${HOME}/Library/Android/sdk/platform-tools/adb",
	}
}

// parseDevices returns the serials listed as "device" by "adb devices"
func parseDevices(output string) []string {
	var serials []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == "device" {
			serials = append(serials, fields[0])
		}
	}
	return serials
}
