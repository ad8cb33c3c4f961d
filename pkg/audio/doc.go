// Package audio is an umbrella for audio-related sub-packages.
//
//   - pcm: PCM format handling, WAV input and amplitude metering used to
//     drive mouth animation from speech
package audio
