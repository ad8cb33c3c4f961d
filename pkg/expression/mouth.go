package expression

import "sync"

// MouthSync turns amplitude callbacks from audio playback into mouth poses.
// It writes to the state only when the pose actually changes.
type MouthSync struct {
	state  *State
	open   string
	closed string

	mu       sync.Mutex
	last     string
	changes  int64
	onChange func(pose string)
}

// MouthOption configures a MouthSync.
type MouthOption func(*MouthSync)

// WithPoses overrides the open and closed mouth poses.
func WithPoses(open, closed string) MouthOption {
	return func(m *MouthSync) {
		m.open, m.closed = open, closed
	}
}

// WithOnChange registers fn to be called after every pose change. fn runs
// on the caller's goroutine and outside any lock.
func WithOnChange(fn func(pose string)) MouthOption {
	return func(m *MouthSync) {
		m.onChange = fn
	}
}

// NewMouthSync creates a MouthSync writing to state.
func NewMouthSync(state *State, opts ...MouthOption) *MouthSync {
	m := &MouthSync{state: state, open: MouthOpen, closed: MouthClosed}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnAmplitude is the amplitude callback of the audio player. It is safe to
// call from any goroutine.
func (m *MouthSync) OnAmplitude(isSpeaking bool, amplitudePercent float64) {
	target := m.closed
	if isSpeaking {
		target = m.open
	}
	m.apply(target)
}

// Reset closes the mouth and forgets the last edge, so the next callback
// writes unconditionally.
func (m *MouthSync) Reset() {
	m.apply(m.closed)
	m.mu.Lock()
	m.last = ""
	m.mu.Unlock()
}

// Changes returns the number of pose changes written.
func (m *MouthSync) Changes() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.changes
}

func (m *MouthSync) apply(target string) {
	m.mu.Lock()
	if target == m.last {
		m.mu.Unlock()
		return
	}
	m.last = target
	m.changes++
	m.mu.Unlock()

	m.state.SetMouth(target)
	if m.onChange != nil {
		m.onChange(target)
	}
}
