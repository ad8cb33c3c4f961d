package pcm

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

const (
	// L16Mono16K represents audio/L16; rate=16000; channels=1
	L16Mono16K Format = iota
	// L16Mono22K represents audio/L16; rate=22050; channels=1
	L16Mono22K
	// L16Mono24K represents audio/L16; rate=24000; channels=1
	L16Mono24K
	// L16Mono44K represents audio/L16; rate=44100; channels=1
	L16Mono44K
	// L16Mono48K represents audio/L16; rate=48000; channels=1
	L16Mono48K
	// L16Stereo44K represents audio/L16; rate=44100; channels=2
	L16Stereo44K
	// L16Stereo48K represents audio/L16; rate=48000; channels=2
	L16Stereo48K
)

var formats = [...]struct {
	rate     int
	channels int
}{
	L16Mono16K:   {16000, 1},
	L16Mono22K:   {22050, 1},
	L16Mono24K:   {24000, 1},
	L16Mono44K:   {44100, 1},
	L16Mono48K:   {48000, 1},
	L16Stereo44K: {44100, 2},
	L16Stereo48K: {48000, 2},
}

// Chunk is a chunk of audio data.
type Chunk interface {
	Len() int64
	Format() Format
	WriteTo(w io.Writer) (int64, error)
}

// Format represents an audio format configuration. All formats are signed
// 16-bit little-endian.
type Format int

// FormatOf returns the format with the given sample rate and channel count.
func FormatOf(sampleRate, channels int) (Format, error) {
	for f, v := range formats {
		if v.rate == sampleRate && v.channels == channels {
			return Format(f), nil
		}
	}
	return 0, fmt.Errorf("pcm: unsupported format rate=%d channels=%d", sampleRate, channels)
}

func (f Format) valid() bool {
	return f >= 0 && int(f) < len(formats)
}

// SampleRate returns the sample rate in Hz for this format.
func (f Format) SampleRate() int {
	if !f.valid() {
		panic("pcm: invalid audio type")
	}
	return formats[f].rate
}

// Channels returns the number of audio channels for this format.
func (f Format) Channels() int {
	if !f.valid() {
		panic("pcm: invalid audio type")
	}
	return formats[f].channels
}

// Depth returns the bit depth for this format.
func (f Format) Depth() int {
	if !f.valid() {
		panic("pcm: invalid audio type")
	}
	return 16
}

// Samples returns the number of samples per channel in the given number of
// bytes.
func (f Format) Samples(bytes int64) int64 {
	return bytes * 8 / int64(f.Channels()) / int64(f.Depth())
}

// SamplesInDuration returns the number of samples per channel in the given
// duration.
func (f Format) SamplesInDuration(d time.Duration) int64 {
	return int64(time.Duration(f.SampleRate()) * d / time.Second)
}

// BytesInDuration returns the number of bytes in the given duration.
func (f Format) BytesInDuration(d time.Duration) int64 {
	return f.SamplesInDuration(d) * int64(f.Channels()) * int64(f.Depth()) / 8
}

// Duration returns the duration of the given number of bytes.
func (f Format) Duration(bytes int64) time.Duration {
	return time.Duration(f.Samples(bytes)) * time.Second / time.Duration(f.SampleRate())
}

// BytesRate returns the byte rate of the audio data.
func (f Format) BytesRate() int {
	return f.SampleRate() * f.Channels() * f.Depth() / 8
}

// DataChunk returns a chunk of audio data.
func (f Format) DataChunk(data []byte) *DataChunk {
	return &DataChunk{
		Data: data,
		fmt:  f,
	}
}

// String returns a human-readable string representation of the format.
func (f Format) String() string {
	if !f.valid() {
		return fmt.Sprintf("pcm.Format(%d)", int(f))
	}
	return fmt.Sprintf("audio/L16; rate=%d; channels=%d", f.SampleRate(), f.Channels())
}

// DataChunk is a chunk of audio data.
type DataChunk struct {
	Data []byte
	fmt  Format
}

// Len returns the length of the audio data in bytes.
func (c *DataChunk) Len() int64 {
	return int64(len(c.Data))
}

// Format returns the audio format of this chunk.
func (c *DataChunk) Format() Format {
	return c.fmt
}

// Duration returns the playback duration of the chunk.
func (c *DataChunk) Duration() time.Duration {
	return c.fmt.Duration(c.Len())
}

// Peak returns the largest absolute sample value in the chunk, across all
// channels. A trailing odd byte is ignored.
func (c *DataChunk) Peak() int {
	peak := 0
	for i := 0; i+1 < len(c.Data); i += 2 {
		v := int(int16(binary.LittleEndian.Uint16(c.Data[i:])))
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}

// PeakPercent returns Peak relative to full scale (32767) in percent,
// clamped to 0..100.
func (c *DataChunk) PeakPercent() float64 {
	return min(float64(c.Peak())/32767*100, 100)
}

// WriteTo writes the audio data to the writer.
func (c *DataChunk) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.Data)
	return int64(n), err
}
