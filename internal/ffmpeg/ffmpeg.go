// Package ffmpeg wraps the ffmpeg and ffprobe binaries for probing,
// transcoding and recording audio.
package ffmpeg

import (
	"fmt"
	"os/exec"
)

// Installed verifies that the given binary is present and executable.
// An empty binary defaults to "ffmpeg".
func Installed(binary string) error {
	if binary == "" {
		binary = "ffmpeg"
	}

	cmd := exec.Command(binary, "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s not found or not executable, install ffmpeg: %w", binary, err)
	}

	return nil
}
