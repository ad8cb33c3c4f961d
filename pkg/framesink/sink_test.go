package framesink

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestSink_PathAndPattern(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "frame")
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Path(42); got != filepath.Join(dir, "frame_000042.png") {
		t.Errorf("Path(42) = %q", got)
	}
	if got := s.Pattern(); got != filepath.Join(dir, "frame_%06d.png") {
		t.Errorf("Pattern() = %q", got)
	}
	if got := fmt.Sprintf(s.Pattern(), 42); got != s.Path(42) {
		t.Errorf("pattern and path disagree: %q vs %q", got, s.Path(42))
	}
	if s.Slot(1234567) != 1234567 {
		t.Error("unwindowed slot wrapped")
	}
}

func TestSink_Files(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "out"), "f")
	if err != nil {
		t.Fatal(err)
	}
	for _, seq := range []uint64{2, 0, 1} {
		if err := s.WriteBytes(seq, []byte{byte(seq)}); err != nil {
			t.Fatal(err)
		}
	}
	files, err := s.Files()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"f_000000.png", "f_000001.png", "f_000002.png"}
	if fmt.Sprint(files) != fmt.Sprint(want) {
		t.Errorf("Files() = %v", files)
	}
	data, err := os.ReadFile(s.Path(2))
	if err != nil || !bytes.Equal(data, []byte{2}) {
		t.Errorf("frame 2 = %v, %v", data, err)
	}
	tmp, _ := filepath.Glob(filepath.Join(s.Dir(), ".f-*.tmp"))
	if len(tmp) != 0 {
		t.Errorf("temp files left behind: %v", tmp)
	}
}

func TestSink_Window(t *testing.T) {
	s, err := New(t.TempDir(), "mouth", WithWindow(60))
	if err != nil {
		t.Fatal(err)
	}
	if s.Slot(61) != 1 || s.Path(61) != s.Path(1) {
		t.Errorf("slot(61) = %d", s.Slot(61))
	}
	for seq := uint64(0); seq < 130; seq++ {
		if err := s.WriteBytes(seq, []byte(fmt.Sprint(seq))); err != nil {
			t.Fatal(err)
		}
	}
	files, _ := s.Files()
	if len(files) != 60 {
		t.Errorf("files = %d, want 60", len(files))
	}
	data, err := os.ReadFile(s.Path(9))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "129" {
		t.Errorf("slot 9 holds %q, want latest write 129", data)
	}
}

// A reader polling while frames are rewritten must only ever see complete
// files.
func TestSink_NoPartialReads(t *testing.T) {
	s, err := New(t.TempDir(), "f", WithWindow(1))
	if err != nil {
		t.Fatal(err)
	}
	a := bytes.Repeat([]byte{'a'}, 256<<10)
	b := bytes.Repeat([]byte{'b'}, 256<<10)
	if err := s.WriteBytes(0, a); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			data := a
			if i%2 == 1 {
				data = b
			}
			if err := s.WriteBytes(uint64(i), data); err != nil {
				t.Error(err)
				return
			}
		}
	}()

	for i := 0; i < 200; i++ {
		got, err := os.ReadFile(s.Path(0))
		if err != nil {
			close(stop)
			wg.Wait()
			t.Fatal(err)
		}
		if !bytes.Equal(got, a) && !bytes.Equal(got, b) {
			close(stop)
			wg.Wait()
			t.Fatalf("partial frame observed (%d bytes)", len(got))
		}
	}
	close(stop)
	wg.Wait()
}

func TestSink_Clear(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "eyes")
	if err != nil {
		t.Fatal(err)
	}
	other, err := New(dir, "mouth")
	if err != nil {
		t.Fatal(err)
	}
	for i := uint64(0); i < 3; i++ {
		s.WriteBytes(i, []byte("x"))
	}
	other.WriteBytes(0, []byte("y"))
	os.WriteFile(filepath.Join(dir, "eyes_notes.txt"), nil, 0o644)

	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(dir)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if got := strings.Join(names, ","); got != "eyes_notes.txt,mouth_000000.png" {
		t.Errorf("remaining = %s", got)
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(t.TempDir(), ""); err == nil {
		t.Error("empty prefix accepted")
	}
	file := filepath.Join(t.TempDir(), "file")
	os.WriteFile(file, nil, 0o644)
	if _, err := New(filepath.Join(file, "sub"), "f"); err == nil {
		t.Error("dir under a file accepted")
	}
}
