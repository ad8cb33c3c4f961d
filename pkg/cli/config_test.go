package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/youzoom64/RTMP-streamer/pkg/animator"
)

func TestLoadConfigWithPath_NewConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "sub", "config.yaml")

	cfg, err := LoadConfigWithPath("testapp", configPath)
	if err != nil {
		t.Fatalf("LoadConfigWithPath error: %v", err)
	}
	if cfg.AppName != "testapp" {
		t.Errorf("AppName = %q, want %q", cfg.AppName, "testapp")
	}
	if cfg.Path() != configPath {
		t.Errorf("Path() = %q, want %q", cfg.Path(), configPath)
	}
	if cfg.Dir() != filepath.Dir(configPath) {
		t.Errorf("Dir() = %q", cfg.Dir())
	}
	if _, err := os.Stat(configPath); err != nil {
		t.Errorf("config file not created: %v", err)
	}
	if len(cfg.Profiles) != 0 {
		t.Errorf("Profiles = %v, want empty", cfg.Profiles)
	}
}

func TestLoadConfigWithPath_Parse(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	data := `current_profile: zunda
profiles:
  zunda:
    asset_root: assets/zundamon
    output_dir: /tmp/frames
    fps: 24
    seed_duration: 3s
    mode: layered
    window_size: 30
    speaking_threshold: 2.5
`
	if err := os.WriteFile(configPath, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigWithPath("testapp", configPath)
	if err != nil {
		t.Fatalf("LoadConfigWithPath error: %v", err)
	}
	p, err := cfg.ResolveProfile("")
	if err != nil {
		t.Fatalf("ResolveProfile error: %v", err)
	}
	if p.Name != "zunda" {
		t.Errorf("Name = %q", p.Name)
	}
	if p.FPS != 24 || p.WindowSize != 30 || p.SpeakingThreshold != 2.5 {
		t.Errorf("profile = %+v", p.Config)
	}
	if p.SeedDuration != 3*time.Second {
		t.Errorf("SeedDuration = %v", p.SeedDuration)
	}
	if p.Mode != animator.ModeLayered {
		t.Errorf("Mode = %v", p.Mode)
	}

	ac := p.AnimatorConfig(cfg.Dir())
	if ac.AssetRoot != filepath.Join(cfg.Dir(), "assets", "zundamon") {
		t.Errorf("AssetRoot = %q", ac.AssetRoot)
	}
	if ac.OutputDir != "/tmp/frames" {
		t.Errorf("OutputDir = %q", ac.OutputDir)
	}
	if p.AssetRoot != "assets/zundamon" {
		t.Error("AnimatorConfig modified the profile")
	}
}

func TestLoadConfigWithPath_Invalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(configPath, []byte("profiles:\n  x:\n    mode: sideways\n"), 0600)
	if _, err := LoadConfigWithPath("testapp", configPath); err == nil {
		t.Error("unknown mode accepted")
	}
}

func TestConfig_AddProfile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := LoadConfigWithPath("testapp", configPath)
	if err != nil {
		t.Fatalf("LoadConfigWithPath error: %v", err)
	}

	p := &Profile{Config: animator.Config{AssetRoot: "/assets", OutputDir: "/out", FPS: 25, Mode: animator.ModeLayered}}
	if err := cfg.AddProfile("stage", p); err != nil {
		t.Fatalf("AddProfile error: %v", err)
	}
	if cfg.CurrentProfile != "stage" {
		t.Errorf("CurrentProfile = %q, want first profile", cfg.CurrentProfile)
	}
	if err := cfg.AddProfile("test", &Profile{}); err != nil {
		t.Fatal(err)
	}
	if cfg.CurrentProfile != "stage" {
		t.Errorf("CurrentProfile changed to %q", cfg.CurrentProfile)
	}
	if err := cfg.AddProfile("", &Profile{}); err == nil {
		t.Error("empty name accepted")
	}

	reloaded, err := LoadConfigWithPath("testapp", configPath)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, err := reloaded.GetProfile("stage")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "stage" || got.AssetRoot != "/assets" || got.FPS != 25 || got.Mode != animator.ModeLayered {
		t.Errorf("reloaded profile = %+v", got)
	}
	if names := strings.Join(reloaded.ListProfiles(), ","); names != "stage,test" {
		t.Errorf("ListProfiles = %s", names)
	}
}

func TestConfig_DeleteProfile(t *testing.T) {
	cfg, err := LoadConfigWithPath("testapp", filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	cfg.AddProfile("a", &Profile{})
	cfg.AddProfile("b", &Profile{})

	if err := cfg.DeleteProfile("a"); err != nil {
		t.Fatalf("DeleteProfile error: %v", err)
	}
	if cfg.CurrentProfile != "" {
		t.Errorf("CurrentProfile = %q, want cleared", cfg.CurrentProfile)
	}
	if _, err := cfg.GetProfile("a"); err == nil {
		t.Error("deleted profile still present")
	}
	if err := cfg.DeleteProfile("a"); err == nil {
		t.Error("DeleteProfile should fail for non-existent profile")
	}
}

func TestConfig_UseProfile(t *testing.T) {
	cfg, err := LoadConfigWithPath("testapp", filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	cfg.AddProfile("a", &Profile{})
	cfg.AddProfile("b", &Profile{})

	if err := cfg.UseProfile("b"); err != nil {
		t.Fatalf("UseProfile error: %v", err)
	}
	p, err := cfg.ResolveProfile("")
	if err != nil || p.Name != "b" {
		t.Errorf("ResolveProfile(\"\") = %v, %v", p, err)
	}
	p, err = cfg.ResolveProfile("a")
	if err != nil || p.Name != "a" {
		t.Errorf("ResolveProfile(a) = %v, %v", p, err)
	}
	if err := cfg.UseProfile("nonexistent"); err == nil {
		t.Error("UseProfile should fail for non-existent profile")
	}
}

func TestConfig_ResolveProfile_NotSet(t *testing.T) {
	cfg, err := LoadConfigWithPath("testapp", filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cfg.ResolveProfile(""); err == nil {
		t.Error("ResolveProfile should fail without a current profile")
	}
}
