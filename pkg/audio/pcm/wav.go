package pcm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNotWAV is returned when the input is not a RIFF/WAVE stream.
	ErrNotWAV = errors.New("pcm: not a WAV stream")

	// ErrUnsupportedWAV is returned for WAV streams that are not 16-bit
	// integer PCM in one of the known formats.
	ErrUnsupportedWAV = errors.New("pcm: unsupported WAV encoding")
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE

	// maxFmtBody is the largest fmt chunk prefix kept; the rest is skipped.
	maxFmtBody = 64
)

// ReadWAV parses a RIFF/WAVE header from r and returns the audio format and
// a reader positioned at the first sample, limited to the data chunk.
func ReadWAV(r io.Reader) (Format, io.Reader, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrNotWAV, err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return 0, nil, ErrNotWAV
	}

	var (
		format  Format
		haveFmt bool
		hdr     [8]byte
	)
	for {
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return 0, nil, fmt.Errorf("pcm: read chunk header: %w", err)
		}
		id := string(hdr[0:4])
		size := int64(binary.LittleEndian.Uint32(hdr[4:8]))

		switch id {
		case "fmt ":
			if size < 16 {
				return 0, nil, fmt.Errorf("%w: fmt chunk too short (%d)", ErrNotWAV, size)
			}
			body := make([]byte, min(size, maxFmtBody))
			if _, err := io.ReadFull(r, body); err != nil {
				return 0, nil, fmt.Errorf("pcm: read fmt chunk: %w", err)
			}
			if rest := size - int64(len(body)) + size%2; rest > 0 {
				if err := skip(r, rest); err != nil {
					return 0, nil, err
				}
			}
			f, err := parseFmt(body)
			if err != nil {
				return 0, nil, err
			}
			format, haveFmt = f, true

		case "data":
			if !haveFmt {
				return 0, nil, fmt.Errorf("%w: data chunk before fmt chunk", ErrNotWAV)
			}
			// Streaming writers leave the size at its maximum.
			if size == 0xFFFFFFFF {
				return format, r, nil
			}
			return format, io.LimitReader(r, size), nil

		default:
			if err := skip(r, size+size%2); err != nil {
				return 0, nil, err
			}
		}
	}
}

func parseFmt(b []byte) (Format, error) {
	tag := binary.LittleEndian.Uint16(b[0:2])
	channels := int(binary.LittleEndian.Uint16(b[2:4]))
	rate := int(binary.LittleEndian.Uint32(b[4:8]))
	bits := int(binary.LittleEndian.Uint16(b[14:16]))

	if tag == wavFormatExtensible && len(b) >= 26 {
		tag = binary.LittleEndian.Uint16(b[24:26])
	}
	if tag != wavFormatPCM || bits != 16 {
		return 0, fmt.Errorf("%w: tag=%#x bits=%d", ErrUnsupportedWAV, tag, bits)
	}
	f, err := FormatOf(rate, channels)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedWAV, err)
	}
	return f, nil
}

func skip(r io.Reader, n int64) error {
	if _, err := io.CopyN(io.Discard, r, n); err != nil {
		return fmt.Errorf("pcm: skip chunk: %w", err)
	}
	return nil
}

// WriteWAVHeader writes a canonical 44-byte header for dataLen bytes of
// audio in format f.
func WriteWAVHeader(w io.Writer, f Format, dataLen uint32) error {
	var h [44]byte
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], 36+dataLen)
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16)
	binary.LittleEndian.PutUint16(h[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(h[22:24], uint16(f.Channels()))
	binary.LittleEndian.PutUint32(h[24:28], uint32(f.SampleRate()))
	binary.LittleEndian.PutUint32(h[28:32], uint32(f.BytesRate()))
	binary.LittleEndian.PutUint16(h[32:34], uint16(f.Channels()*f.Depth()/8))
	binary.LittleEndian.PutUint16(h[34:36], uint16(f.Depth()))
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], dataLen)
	_, err := w.Write(h[:])
	return err
}
