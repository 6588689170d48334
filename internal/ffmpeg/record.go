package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Recorder state errors.
var (
	ErrAlreadyRecording = errors.New("already recording")
	ErrNotRecording     = errors.New("not recording")
)

// Recorder captures audio from the default input device via ffmpeg.
type Recorder struct {
	mu      sync.Mutex
	binary  string
	backend string
	maxSec  int
	logger  *slog.Logger

	cmd       *exec.Cmd
	path      string
	startedAt time.Time
}

// NewRecorder creates a Recorder. backend is an ffmpeg input format
// ("pulse" or "alsa", resolved from config via ResolveBackend); maxSeconds
// caps recording length (0 = unlimited).
func NewRecorder(binary, backend string, maxSeconds int, logger *slog.Logger) *Recorder {
	if binary == "" {
		binary = "ffmpeg"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Recorder{
		binary:  binary,
		backend: ResolveBackend(backend),
		maxSec:  maxSeconds,
		logger:  logger,
	}
}

// ResolveBackend maps the configured capture backend to an ffmpeg input
// format. "auto" picks pulse when a PulseAudio socket is reachable,
// otherwise alsa.
func ResolveBackend(configured string) string {
	switch configured {
	case "pulse", "alsa":
		return configured
	}

	if os.Getenv("PULSE_SERVER") != "" {
		return "pulse"
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		if _, err := os.Stat(filepath.Join(dir, "pulse")); err == nil {
			return "pulse"
		}
	}

	return "alsa"
}

// Start begins recording to path. Returns ErrAlreadyRecording if a capture
// is already in progress.
func (r *Recorder) Start(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd != nil {
		return ErrAlreadyRecording
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create recording dir: %w", err)
	}

	cmd := exec.Command(r.binary, recordArgs(r.backend, path, r.maxSec)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", r.binary, err)
	}

	r.cmd = cmd
	r.path = path
	r.startedAt = time.Now()
	r.logger.Debug("recording started", "path", path, "backend", r.backend)

	return nil
}

// Stop ends the current recording and returns the path to the captured
// file. The process gets SIGINT so ffmpeg finalizes the container header
// before exiting.
func (r *Recorder) Stop() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd == nil || r.cmd.Process == nil {
		return "", ErrNotRecording
	}

	if err := r.cmd.Process.Signal(os.Interrupt); err != nil {
		_ = r.cmd.Process.Kill()
	}
	// ffmpeg exits non-zero on SIGINT; the file is still valid
	_ = r.cmd.Wait()

	path := r.path
	elapsed := time.Since(r.startedAt)
	r.cmd = nil
	r.path = ""
	r.startedAt = time.Time{}
	r.logger.Debug("recording stopped", "path", path, "elapsed", elapsed)

	return path, nil
}

// Recording reports whether a capture is in progress.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cmd != nil
}

// Elapsed returns how long the current recording has been running, or zero
// when idle.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd == nil {
		return 0
	}
	return time.Since(r.startedAt)
}

// Record captures to path for the given duration (or the recorder's max,
// whichever ends first), stopping early when ctx is done. Returns the
// captured path.
func (r *Recorder) Record(ctx context.Context, path string, d time.Duration) (string, error) {
	if err := r.Start(path); err != nil {
		return "", err
	}

	limit := d
	if limit <= 0 && r.maxSec > 0 {
		limit = time.Duration(r.maxSec) * time.Second
	}

	if limit > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(limit):
		}
	} else {
		<-ctx.Done()
	}

	return r.Stop()
}

// recordArgs builds the capture argument list.
func recordArgs(backend, path string, maxSeconds int) []string {
	args := []string{"-y", "-f", backend, "-i", "default"}
	if maxSeconds > 0 {
		args = append(args, "-t", strconv.Itoa(maxSeconds))
	}
	args = append(args, path)
	return args
}
