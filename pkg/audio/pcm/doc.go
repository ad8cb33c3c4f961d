// Package pcm provides types and utilities for working with 16-bit PCM audio.
//
// Key types:
//   - Format: sample rate and channel layout of signed 16-bit little-endian audio
//   - Chunk: interface for audio data chunks
//   - Writer: interface for writing audio chunks, e.g. to an output device
//   - Meter: splits a PCM stream into fixed-duration chunks and reports the
//     peak amplitude of each one
//
// Example usage:
//
//	format, data, err := pcm.ReadWAV(file)
//	if err != nil {
//		return err
//	}
//	m := pcm.Meter{Format: format, Realtime: true}
//	err = m.Run(ctx, data, func(speaking bool, percent float64) {
//		mouth.OnAmplitude(speaking, percent)
//	})
package pcm
