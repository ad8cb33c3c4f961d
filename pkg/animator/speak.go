package animator

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/youzoom64/RTMP-streamer/pkg/audio/pcm"
)

type speechOptions struct {
	realtime bool
	output   pcm.Writer
}

// WithSpeechPacing controls whether Speak meters audio at playback speed.
// It is on by default; tests turn it off.
func WithSpeechPacing(realtime bool) Option {
	return func(a *Animator) {
		a.speech.realtime = realtime
	}
}

// WithAudioOutput sends the audio metered by Speak to w, e.g. an output
// device.
func WithAudioOutput(w pcm.Writer) Option {
	return func(a *Animator) {
		a.speech.output = w
	}
}

// Speak plays a WAV stream through the mouth sync: the character is marked
// as talking, every chunk's amplitude drives the mouth, and afterwards the
// mouth is closed again. Calls are serialized.
func (a *Animator) Speak(ctx context.Context, r io.Reader) error {
	format, data, err := pcm.ReadWAV(r)
	if err != nil {
		return fmt.Errorf("animator: speak: %w", err)
	}

	a.speaking.Lock()
	defer a.speaking.Unlock()

	start := time.Now()
	a.state.SetTalking(true)
	a.logger.Debug("animator: speech started", "format", format)
	defer func() {
		a.state.SetTalking(false)
		a.mouth.Reset()
		a.logger.Debug("animator: speech finished", "elapsed", time.Since(start))
	}()

	m := &pcm.Meter{
		Format:    format,
		Threshold: a.cfg.SpeakingThreshold,
		Realtime:  a.speech.realtime,
		Output:    a.speech.output,
	}
	if err := m.Run(ctx, data, a.mouth.OnAmplitude); err != nil {
		return fmt.Errorf("animator: speak: %w", err)
	}
	return nil
}
