package commands

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/youzoom64/RTMP-streamer/pkg/audio/pcm"
)

func writePNG(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

// character writes a minimal asset tree: a body and a closed mouth.
func character(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "素体.png"), color.NRGBA{200, 200, 200, 255})
	writePNG(t, filepath.Join(root, "!口", "_むふ_.png"), color.NRGBA{255, 0, 0, 255})
	return root
}

// execute runs the root command with args and returns stdout and the
// command error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	oldStdout, oldStderr := os.Stdout, os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout, os.Stderr = wOut, wErr

	cfgFile, profileName, outputFile = "", "", ""
	outputJSON, verbose = false, false
	assetRoot, outputDir = "", ""

	var outBuf, errBuf bytes.Buffer
	outDone := make(chan struct{})
	go func() {
		outBuf.ReadFrom(rOut)
		errBuf.ReadFrom(rErr)
		close(outDone)
	}()

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	wOut.Close()
	wErr.Close()
	<-outDone
	os.Stdout, os.Stderr = oldStdout, oldStderr
	if testing.Verbose() && errBuf.Len() > 0 {
		t.Logf("stderr:\n%s", errBuf.String())
	}
	return outBuf.String(), err
}

func TestConfigProfiles(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	assets := character(t)

	if _, err := execute(t, "--config", cfg, "config", "add-profile", "zunda", "--assets", assets, "--fps", "24", "--mode", "layered"); err != nil {
		t.Fatalf("add-profile: %v", err)
	}
	if _, err := execute(t, "--config", cfg, "config", "add-profile", "bare"); err == nil {
		t.Error("add-profile without --assets accepted")
	}

	out, err := execute(t, "--config", cfg, "config", "list-profiles")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "*") || !strings.Contains(out, "zunda") || !strings.Contains(out, "layered") || !strings.Contains(out, "24") {
		t.Errorf("list-profiles:\n%s", out)
	}

	out, err = execute(t, "--config", cfg, "config", "view", "--json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"current_profile": "zunda"`) || !strings.Contains(out, assets) {
		t.Errorf("view:\n%s", out)
	}

	if _, err := execute(t, "--config", cfg, "config", "use-profile", "missing"); err == nil {
		t.Error("use-profile accepted unknown profile")
	}
	if _, err := execute(t, "--config", cfg, "config", "delete-profile", "zunda"); err != nil {
		t.Fatal(err)
	}
	out, _ = execute(t, "--config", cfg, "config", "get-profile")
	if !strings.Contains(out, "No current profile") {
		t.Errorf("get-profile after delete: %q", out)
	}
}

func TestNoProfile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	if _, err := execute(t, "--config", cfg, "index"); err == nil {
		t.Error("index without profile or --assets accepted")
	}
}

func TestIndex(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	out, err := execute(t, "--config", cfg, "--assets", character(t), "index", "--keys", "--json")
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	var sum indexSummary
	if err := json.Unmarshal([]byte(out), &sum); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if sum.Files != 2 || sum.Size == 0 || sum.Fingerprint == "" || len(sum.Entries) == 0 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestResolve(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	assets := character(t)

	out, err := execute(t, "--config", cfg, "--assets", assets, "resolve", "素体", "--json")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	var res []resolution
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || !res[0].Found || !strings.HasSuffix(res[0].Path, "素体.png") {
		t.Errorf("resolutions = %+v", res)
	}

	if _, err := execute(t, "--config", cfg, "--assets", assets, "resolve", "目/存在しない"); err == nil {
		t.Error("unresolved path reported success")
	}
}

func TestCompose(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	frame := filepath.Join(t.TempDir(), "frame.png")

	out, err := execute(t, "--config", cfg, "--assets", character(t), "compose", "--png", frame, "--json")
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	var res composeResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.Width != 4 || res.Height != 4 || len(res.Layers) != 2 || res.Bytes == 0 {
		t.Errorf("result = %+v", res)
	}

	f, err := os.Open(frame)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if r, g, b, _ := img.At(0, 0).RGBA(); r>>8 != 255 || g != 0 || b != 0 {
		t.Errorf("mouth not on top: %v", img.At(0, 0))
	}
}

func TestRun(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	outDir := t.TempDir()

	out, err := execute(t, "--config", cfg, "--assets", character(t), "--out-dir", outDir,
		"run", "--duration", "500ms", "--json")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var stats struct {
		Frames int64  `json:"frames"`
		Phase  string `json:"phase"`
	}
	if err := json.Unmarshal([]byte(out[strings.Index(out, "{"):]), &stats); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if stats.Frames == 0 || stats.Phase != "idle" {
		t.Errorf("stats = %+v", stats)
	}
	files, _ := filepath.Glob(filepath.Join(outDir, "frame_*.png"))
	if len(files) < 60 {
		t.Errorf("frames on disk = %d, want seed frames and more", len(files))
	}
}

func TestRun_AudioOut(t *testing.T) {
	t.Cleanup(func() {
		runCmd.Flags().Set("speak", "")
		runCmd.Flags().Set("audio-out", "")
	})
	dir := t.TempDir()
	speech := filepath.Join(dir, "speech.wav")
	record := filepath.Join(dir, "record.wav")

	// 300ms of 16kHz mono: loud, silent, loud.
	data := make([]byte, 0, 9600)
	for i := 0; i < 4800; i++ {
		v := int16(0)
		if i < 1600 || i >= 3200 {
			v = 20000
		}
		data = binary.LittleEndian.AppendUint16(data, uint16(v))
	}
	var wav bytes.Buffer
	if err := pcm.WriteWAVHeader(&wav, pcm.L16Mono16K, uint32(len(data))); err != nil {
		t.Fatal(err)
	}
	wav.Write(data)
	if err := os.WriteFile(speech, wav.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := filepath.Join(dir, "config.yaml")
	_, err := execute(t, "--config", cfg, "--assets", character(t), "--out-dir", t.TempDir(),
		"run", "--duration", "1500ms", "--speak", speech, "--audio-out", record)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	f, err := os.Open(record)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	format, r, err := pcm.ReadWAV(f)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	got, _ := io.ReadAll(r)
	if format != pcm.L16Mono16K || !bytes.Equal(got, data) {
		t.Errorf("recorded %v, %d bytes; want %v, %d bytes", format, len(got), pcm.L16Mono16K, len(data))
	}
}

func TestWAVTap_NoAudio(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	tap, err := createWAVTap(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := tap.Close(); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() != 0 {
		t.Errorf("untouched tap: %v, %v", fi, err)
	}
}
