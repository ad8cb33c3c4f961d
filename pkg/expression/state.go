// Package expression holds the character's mutable expression state and the
// behavior generators that drive it.
//
// State is the only shared mutable object between the blink timer, the
// speech-driven mouth sync, external commands and the render loop. All of
// them go through its methods; the lock is held only for the field access
// itself.
package expression

import "sync"

// Default pose names, matching the layer names of the stock character.
const (
	// MouthClosed is the resting mouth pose.
	MouthClosed = "むふ"
	// MouthOpen is the speaking mouth pose.
	MouthOpen = "ほあー"
	// EyesOpen is the neutral open-eyes pose. It renders as a white layer
	// plus a pupil layer.
	EyesOpen = "普通目"
	// EyesClosed is the pose shown during a blink.
	EyesClosed = "UU"
)

// Snapshot is a consistent copy of the expression state.
type Snapshot struct {
	Mouth   string `json:"mouth" yaml:"mouth"`
	Eyes    string `json:"eyes" yaml:"eyes"`
	Talking bool   `json:"talking" yaml:"talking"`
}

// State is a mutex-guarded expression record. The zero value is not usable;
// create one with NewState.
type State struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewState returns a State with the closed mouth and neutral eyes.
func NewState() *State {
	return &State{snap: Snapshot{Mouth: MouthClosed, Eyes: EyesOpen}}
}

// SetMouth sets the mouth pose.
func (s *State) SetMouth(pose string) {
	s.mu.Lock()
	s.snap.Mouth = pose
	s.mu.Unlock()
}

// SetEyes sets the eye pose.
func (s *State) SetEyes(pose string) {
	s.mu.Lock()
	s.snap.Eyes = pose
	s.mu.Unlock()
}

// SetTalking sets the talking flag.
func (s *State) SetTalking(talking bool) {
	s.mu.Lock()
	s.snap.Talking = talking
	s.mu.Unlock()
}

// Update applies fn to the state under the lock, so several fields change
// as one logical update. fn must not block.
func (s *State) Update(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snap)
}

// Snapshot returns all fields read under one lock acquisition.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Mouth returns the current mouth pose.
func (s *State) Mouth() string { return s.Snapshot().Mouth }

// Eyes returns the current eye pose.
func (s *State) Eyes() string { return s.Snapshot().Eyes }

// Talking reports whether the character is talking.
func (s *State) Talking() bool { return s.Snapshot().Talking }
