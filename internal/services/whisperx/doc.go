// Package whisperx runs WhisperX speech recognition through uvx.
//
// Recognize extracts a mono 16kHz WAV from the uploaded video with ffmpeg,
// invokes WhisperX with JSON output in a scratch directory, and converts the
// result into validated subtitles.Segment values. Model size, CUDA, VAD
// method, and an optional language hint come from Config.
package whisperx
