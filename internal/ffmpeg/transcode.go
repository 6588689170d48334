package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sort"
	"time"
)

// Profile describes a transcode target.
type Profile struct {
	Name  string
	Ext   string
	Codec string
	Args  []string
}

// Built-in transcode profiles. The ogg profile writes .oga because theme
// loaders probe that extension first.
var profiles = map[string]Profile{
	"ogg":  {Name: "ogg", Ext: ".oga", Codec: "libvorbis", Args: []string{"-q:a", "5"}},
	"wav":  {Name: "wav", Ext: ".wav", Codec: "pcm_s16le"},
	"flac": {Name: "flac", Ext: ".flac", Codec: "flac"},
}

// ProfileByName returns a built-in transcode profile.
func ProfileByName(name string) (Profile, bool) {
	p, ok := profiles[name]
	return p, ok
}

// ProfileNames returns the built-in profile names, sorted.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Transcoder converts audio files by shelling out to ffmpeg.
type Transcoder struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewTranscoder creates a Transcoder running the given ffmpeg binary with
// the given per-conversion timeout.
func NewTranscoder(binary string, timeout time.Duration, logger *slog.Logger) *Transcoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Transcoder{
		binary:  binary,
		timeout: timeout,
		logger:  logger,
	}
}

// File converts in to out using the given profile. The output container is
// chosen by ffmpeg from the out extension, which callers derive from
// Profile.Ext.
func (t *Transcoder) File(ctx context.Context, in, out string, profile Profile) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	args := fileArgs(in, out, profile)
	t.logger.Debug("transcoding", "in", in, "out", out, "profile", profile.Name)

	cmd := exec.CommandContext(ctx, t.binary, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg transcode failed: %w\nstderr: %s", err, string(output))
	}

	return nil
}

// Pipe decodes in to interleaved s16le stereo PCM at 44.1 kHz on w. Used as
// the playback fallback for formats without a native decoder.
func (t *Transcoder) Pipe(ctx context.Context, in string, w io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.binary, pipeArgs(in)...)
	cmd.Stdout = w

	// Capture stderr for error reporting
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", t.binary, err)
	}

	// Drain stderr in background to prevent blocking
	stderrData := make(chan []byte, 1)
	go func() {
		data, _ := io.ReadAll(stderr)
		stderrData <- data
	}()

	if err := cmd.Wait(); err != nil {
		errMsg := <-stderrData
		return fmt.Errorf("ffmpeg decode failed: %w\nstderr: %s", err, string(errMsg))
	}

	return nil
}

// fileArgs builds the full argument list for a file conversion.
func fileArgs(in, out string, p Profile) []string {
	args := []string{"-y", "-i", in, "-vn", "-c:a", p.Codec}
	args = append(args, p.Args...)
	args = append(args, out)
	return args
}

// pipeArgs builds the argument list for decoding to raw PCM on stdout.
func pipeArgs(in string) []string {
	return []string{
		"-i", in,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", "44100",
		"-ac", "2",
		"-loglevel", "error",
		"pipe:1",
	}
}
