package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"
)

// Info describes an audio file as reported by ffprobe.
type Info struct {
	Format     string  `json:"format"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration_seconds"`
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	SizeBytes  int64   `json:"size_bytes"`
}

// Prober extracts audio metadata via ffprobe.
type Prober struct {
	binary  string
	timeout time.Duration
	cache   *cache.Cache
	logger  *slog.Logger
}

// NewProber creates a Prober running the given ffprobe binary with the
// given per-probe timeout.
func NewProber(binary string, timeout time.Duration, logger *slog.Logger) *Prober {
	if binary == "" {
		binary = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Prober{
		binary:  binary,
		timeout: timeout,
		cache:   cache.New(10*time.Minute, 30*time.Minute),
		logger:  logger,
	}
}

// Probe returns metadata for the audio file at path. Results are cached
// keyed on path, mtime and size, so an unchanged file is probed once.
func (p *Prober) Probe(ctx context.Context, path string) (*Info, error) {
	key := probeCacheKey(path)
	if v, ok := p.cache.Get(key); ok {
		return v.(*Info), nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.binary, probeArgs(path)...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("ffprobe %s: %s", path, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	info, err := parseProbeOutput(out)
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	p.cache.Set(key, info, cache.DefaultExpiration)
	p.logger.Debug("probed audio file",
		"path", path,
		"codec", info.Codec,
		"duration", info.Duration)

	return info, nil
}

// probeArgs builds the ffprobe argument list for a single file.
func probeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
}

// probeCacheKey ties cached results to the file's current mtime and size.
func probeCacheKey(path string) string {
	st, err := os.Stat(path)
	if err != nil {
		return path
	}
	return fmt.Sprintf("%s|%d|%d", path, st.ModTime().UnixNano(), st.Size())
}

// probeOutput mirrors the subset of ffprobe's JSON we read. Numeric fields
// inside "format" and "sample_rate" arrive as strings.
type probeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		Size       string `json:"size"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

func parseProbeOutput(data []byte) (*Info, error) {
	var raw probeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse probe output: %w", err)
	}

	info := &Info{Format: raw.Format.FormatName}

	if raw.Format.Duration != "" {
		if d, err := strconv.ParseFloat(raw.Format.Duration, 64); err == nil {
			info.Duration = d
		}
	}
	if raw.Format.Size != "" {
		if n, err := strconv.ParseInt(raw.Format.Size, 10, 64); err == nil {
			info.SizeBytes = n
		}
	}

	// First audio stream wins
	for _, s := range raw.Streams {
		if s.CodecType != "audio" {
			continue
		}
		info.Codec = s.CodecName
		info.Channels = s.Channels
		if s.SampleRate != "" {
			if r, err := strconv.Atoi(s.SampleRate); err == nil {
				info.SampleRate = r
			}
		}
		break
	}

	if info.Codec == "" {
		return nil, errors.New("no audio stream found")
	}

	return info, nil
}
