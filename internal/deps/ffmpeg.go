package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolveFFprobe reports the ffprobe binary the remux stage will execute.
//
// An explicitly configured ffprobe wins. Otherwise an ffprobe that sits next
// to the resolved ffmpeg is preferred so both tools come from the same build,
// falling back to "ffprobe" from PATH.
func ResolveFFprobe(ffmpegCommand, ffprobeCommand string) Status {
	result := Status{
		Name:        "FFprobe",
		Description: "Required to measure remux inputs",
	}

	if configured := strings.TrimSpace(ffprobeCommand); configured != "" && configured != "ffprobe" {
		result.Command = configured
		if _, err := exec.LookPath(configured); err != nil {
			result.Detail = fmt.Sprintf("binary %q not found", configured)
			return result
		}
		result.Available = true
		return result
	}

	ffmpegBinary := strings.TrimSpace(ffmpegCommand)
	if ffmpegBinary != "" {
		if resolved, err := exec.LookPath(ffmpegBinary); err == nil {
			if candidate, ok := sidecarCandidate(resolved, "ffprobe"); ok {
				if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
					result.Command = candidate
					result.Available = true
					return result
				}
			}
		}
	}

	name := "ffprobe"
	if path, err := exec.LookPath(name); err == nil {
		result.Command = path
		result.Available = true
		return result
	}

	result.Command = name
	result.Detail = fmt.Sprintf("binary %q not found", name)
	return result
}

func sidecarCandidate(siblingPath, name string) (string, bool) {
	if siblingPath == "" {
		return "", false
	}
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(filepath.Dir(siblingPath), name), true
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
