package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/youzoom64/RTMP-streamer/pkg/animator"
)

func TestParseFile(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     string
	}{
		{"yaml ext", "cues.yaml", "cues:\n  - at: 2s\n    eyes: UU\n"},
		{"json ext", "cues.json", `{"cues":[{"at":"2s","eyes":"UU"}]}`},
		{"sniff json", "", `  {"cues":[{"at":"2s","eyes":"UU"}]}`},
		{"sniff yaml", "", "cues:\n  - {at: 2s, eyes: UU}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s animator.Script
			if err := ParseFile([]byte(tt.data), tt.filename, &s); err != nil {
				t.Fatalf("ParseFile: %v", err)
			}
			if len(s.Cues) != 1 || time.Duration(s.Cues[0].At) != 2*time.Second || s.Cues[0].Eyes != "UU" {
				t.Errorf("script = %+v", s)
			}
		})
	}
}

func TestParseFile_Invalid(t *testing.T) {
	var s animator.Script
	if err := ParseFile([]byte(`{"cues": [`), "cues.json", &s); err == nil {
		t.Error("truncated JSON accepted")
	}
	if err := ParseFile([]byte("cues:\n  - at: soon\n"), "cues.yml", &s); err == nil {
		t.Error("bad offset accepted")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cues.yaml")
	os.WriteFile(path, []byte("loop: true\nlength: 1s\ncues: []\n"), 0644)

	var s animator.Script
	if err := LoadFile(path, &s); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !s.Loop || time.Duration(s.Length) != time.Second {
		t.Errorf("script = %+v", s)
	}
	if err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), &s); err == nil {
		t.Error("missing file accepted")
	}
}
