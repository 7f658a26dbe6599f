package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolveFFprobe returns the ffprobe binary to run alongside ffmpegBinary.
//
// Static ffmpeg builds ship ffprobe in the same directory, often outside PATH.
// When ffprobeBinary is a bare name that PATH cannot resolve, a sibling of the
// resolved ffmpeg binary is preferred. Anything else is returned unchanged.
func ResolveFFprobe(ffmpegBinary, ffprobeBinary string) string {
	probe := strings.TrimSpace(ffprobeBinary)
	if probe == "" {
		probe = "ffprobe"
	}
	if strings.ContainsRune(probe, os.PathSeparator) {
		return probe
	}
	if _, err := exec.LookPath(probe); err == nil {
		return probe
	}
	ffmpeg := strings.TrimSpace(ffmpegBinary)
	if ffmpeg == "" {
		return probe
	}
	resolved, err := exec.LookPath(ffmpeg)
	if err != nil {
		return probe
	}
	candidate := filepath.Join(filepath.Dir(resolved), executableName(probe))
	if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
		return candidate
	}
	return probe
}

func executableName(base string) string {
	if runtime.GOOS == "windows" && filepath.Ext(base) == "" {
		return base + ".exe"
	}
	return base
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
