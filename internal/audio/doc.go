// Package audio provides clip preview playback.
// It uses the beep library to play WAV, FLAC, OGG, and MP3 files with
// volume control, falling back to an ffmpeg PCM pipe for anything
// else, and watches previewed files so edits on disk invalidate the
// decoded cache.
package audio
