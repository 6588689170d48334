package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// PipeDecoder decodes an audio file into interleaved s16le stereo PCM
// at the player's sample rate. It is the fallback for formats the
// native decoders cannot read.
type PipeDecoder interface {
	Pipe(ctx context.Context, in string, w io.Writer) error
}

// Player handles clip playback for previews.
type Player struct {
	mu     sync.Mutex
	logger *slog.Logger

	// Volume control (0.0 to 1.0)
	volume float64

	// Cap on how much of a clip one Play streams (0 = no cap)
	maxPlay time.Duration

	// Whether speaker has been initialized
	initialized bool

	// Sample rate for the speaker
	sampleRate beep.SampleRate

	// Fallback decoder for formats without a native decoder.
	// Set before first use, never swapped afterwards.
	pipe PipeDecoder

	// Playback in flight, if any
	current *playHandle

	// Sound cache
	cache      map[string]*cachedSound
	cacheMutex sync.RWMutex
}

// cachedSound holds a decoded sound ready for playback.
type cachedSound struct {
	buffer *beep.Buffer
	path   string
}

// playHandle tracks one playback so the completion callback and Stop
// can settle the done channel exactly once between them.
type playHandle struct {
	done chan struct{}
	once sync.Once
}

func (h *playHandle) finish() {
	h.once.Do(func() { close(h.done) })
}

// NewPlayer creates a new audio player.
func NewPlayer(logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}

	return &Player{
		logger:     logger,
		volume:     1.0,
		sampleRate: beep.SampleRate(44100),
		cache:      make(map[string]*cachedSound),
	}
}

// SetPipeDecoder installs the fallback decoder used for formats the
// native decoders cannot read. Without one, such files fail to play.
func (p *Player) SetPipeDecoder(dec PipeDecoder) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pipe = dec
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (p *Player) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	p.volume = volume
	p.logger.Debug("volume set", "volume", volume)
}

// GetVolume returns the current volume.
func (p *Player) GetVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// SetMaxDuration caps how much of a clip a single Play streams.
// Zero plays clips to the end.
func (p *Player) SetMaxDuration(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.maxPlay = d
}

// Play starts asynchronous playback of a sound file and returns a
// channel that is closed when playback finishes or is stopped. Any
// clip already playing is stopped first.
// Supports WAV, FLAC, OGG, and MP3 natively; other formats go through
// the pipe decoder.
func (p *Player) Play(path string) (<-chan struct{}, error) {
	p.Stop()

	// Expand path
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	// Check cache first
	p.cacheMutex.RLock()
	cached, ok := p.cache[path]
	p.cacheMutex.RUnlock()

	if !ok {
		// Load the sound
		var err error
		cached, err = p.loadSound(path)
		if err != nil {
			p.logger.Warn("failed to load sound", "path", path, "error", err)
			return nil, err
		}

		// Cache it
		p.cacheMutex.Lock()
		p.cache[path] = cached
		p.cacheMutex.Unlock()
	}

	if err := p.ensureInitialized(); err != nil {
		return nil, err
	}

	h := &playHandle{done: make(chan struct{})}
	p.mu.Lock()
	p.current = h
	p.mu.Unlock()

	p.playBuffer(cached.buffer, h)

	p.logger.Debug("playing sound", "path", path)
	return h.done, nil
}

// Stop halts the current playback, if any, and settles its done
// channel.
func (p *Player) Stop() {
	p.mu.Lock()
	h := p.current
	p.current = nil
	initialized := p.initialized
	p.mu.Unlock()

	// The speaker lock is taken after mu is released; the mixer
	// callback takes them in the opposite order.
	if initialized {
		speaker.Clear()
	}
	if h != nil {
		h.finish()
	}
}

// Playing reports whether a clip is currently being played.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

// loadSound loads and decodes a sound file into a buffer.
func (p *Player) loadSound(path string) (*cachedSound, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".wav", ".flac", ".ogg", ".oga", ".mp3":
	default:
		return p.loadPCM(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".ogg", ".oga":
		streamer, format, err = vorbis.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to decode sound: %w", err)
	}
	defer func() { _ = streamer.Close() }()

	// Create a buffer and read the entire sound
	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)

	return &cachedSound{buffer: buffer, path: path}, nil
}

// loadPCM decodes a sound file through the pipe decoder, which emits
// s16le stereo PCM at the player's sample rate.
func (p *Player) loadPCM(path string) (*cachedSound, error) {
	p.mu.Lock()
	dec := p.pipe
	sampleRate := p.sampleRate
	p.mu.Unlock()

	if dec == nil {
		return nil, fmt.Errorf("unsupported audio format: %s", filepath.Ext(path))
	}

	var pcm bytes.Buffer
	if err := dec.Pipe(context.Background(), path, &pcm); err != nil {
		return nil, fmt.Errorf("failed to decode sound: %w", err)
	}

	format := beep.Format{SampleRate: sampleRate, NumChannels: 2, Precision: 2}
	buffer := beep.NewBuffer(format)
	buffer.Append(&pcmStreamer{data: pcm.Bytes()})

	return &cachedSound{buffer: buffer, path: path}, nil
}

// ensureInitialized initializes the speaker if not already done.
func (p *Player) ensureInitialized() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	// Use a reasonable buffer size for low latency
	bufferSize := p.sampleRate.N(time.Millisecond * 100)

	if err := speaker.Init(p.sampleRate, bufferSize); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}

	p.initialized = true
	p.logger.Debug("speaker initialized", "sample_rate", p.sampleRate)
	return nil
}

// playBuffer plays a buffered sound and settles the handle when the
// clip drains.
func (p *Player) playBuffer(buffer *beep.Buffer, h *playHandle) {
	p.mu.Lock()
	volume := p.volume
	maxPlay := p.maxPlay
	sampleRate := p.sampleRate
	p.mu.Unlock()

	end := buffer.Len()
	if maxPlay > 0 {
		if limit := buffer.Format().SampleRate.N(maxPlay); limit < end {
			end = limit
		}
	}

	// Create a streamer from the buffer
	var streamer beep.Streamer = buffer.Streamer(0, end)

	// Resample if necessary
	if buffer.Format().SampleRate != sampleRate {
		streamer = beep.Resample(4, buffer.Format().SampleRate, sampleRate, streamer)
	}

	// Apply volume
	if volume < 1.0 {
		streamer = &effects.Volume{
			Streamer: streamer,
			Base:     2,
			Volume:   volumeAttenuation(volume),
			Silent:   volume == 0,
		}
	}

	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		p.mu.Lock()
		if p.current == h {
			p.current = nil
		}
		p.mu.Unlock()
		h.finish()
	})))
}

// Preload loads a sound file into the cache for faster playback.
func (p *Player) Preload(path string) error {
	if path == "" {
		return nil
	}

	// Expand path
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	// Check if already cached
	p.cacheMutex.RLock()
	_, ok := p.cache[path]
	p.cacheMutex.RUnlock()

	if ok {
		return nil
	}

	// Load the sound
	cached, err := p.loadSound(path)
	if err != nil {
		return err
	}

	// Cache it
	p.cacheMutex.Lock()
	p.cache[path] = cached
	p.cacheMutex.Unlock()

	p.logger.Debug("preloaded sound", "path", path)
	return nil
}

// ClearCache clears the sound cache.
func (p *Player) ClearCache() {
	p.cacheMutex.Lock()
	defer p.cacheMutex.Unlock()
	p.cache = make(map[string]*cachedSound)
	p.logger.Debug("sound cache cleared")
}

// InvalidateCache removes a specific path from the cache.
func (p *Player) InvalidateCache(path string) {
	p.cacheMutex.Lock()
	defer p.cacheMutex.Unlock()
	delete(p.cache, path)
}

// Close stops all playback and releases resources.
func (p *Player) Close() {
	p.Stop()

	p.mu.Lock()
	initialized := p.initialized
	p.initialized = false
	p.mu.Unlock()

	if initialized {
		speaker.Close()
	}

	p.ClearCache()
	p.logger.Debug("audio player closed")
}

// pcmStreamer streams interleaved s16le stereo PCM from memory.
type pcmStreamer struct {
	data []byte
	pos  int
}

func (s *pcmStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= len(s.data) {
		return 0, false
	}

	n := 0
	for i := range samples {
		if s.pos+4 > len(s.data) {
			break
		}
		left := int16(binary.LittleEndian.Uint16(s.data[s.pos:]))
		right := int16(binary.LittleEndian.Uint16(s.data[s.pos+2:]))
		samples[i][0] = float64(left) / 32768
		samples[i][1] = float64(right) / 32768
		s.pos += 4
		n++
	}
	return n, n > 0
}

func (s *pcmStreamer) Err() error { return nil }

// volumeAttenuation maps a linear volume in (0, 1] to the base-2
// exponent of the volume effect, so a setting of 0.5 halves the
// amplitude.
func volumeAttenuation(volume float64) float64 {
	if volume <= 0 {
		return -10 // Effectively silent
	}
	return math.Log2(volume)
}
