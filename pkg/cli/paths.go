package cli

import (
	"os"
	"path/filepath"
)

// Paths provides access to the streamer directory structure
type Paths struct {
	// AppName is the application name
	AppName string

	// HomeDir is the user's home directory
	HomeDir string
}

// NewPaths creates a new Paths instance for the given app
func NewPaths(appName string) (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{
		AppName: appName,
		HomeDir: home,
	}, nil
}

// BaseDir returns the base directory (~/.rtmp-streamer)
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// AppDir returns the app-specific directory (~/.rtmp-streamer/<app>)
func (p *Paths) AppDir() string {
	return filepath.Join(p.BaseDir(), p.AppName)
}

// ConfigFile returns the config file path (~/.rtmp-streamer/<app>/config.yaml)
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.AppDir(), DefaultConfigFile)
}

// CacheDir returns the cache directory (~/.rtmp-streamer/<app>/cache)
func (p *Paths) CacheDir() string {
	return filepath.Join(p.AppDir(), "cache")
}

// FrameCacheDir returns the encoded-frame cache of a profile
// (~/.rtmp-streamer/<app>/cache/<profile>)
func (p *Paths) FrameCacheDir(profile string) string {
	return filepath.Join(p.CacheDir(), profileDir(profile))
}

// FramesDir returns the default frame output directory of a profile
// (~/.rtmp-streamer/<app>/frames/<profile>)
func (p *Paths) FramesDir(profile string) string {
	return filepath.Join(p.AppDir(), "frames", profileDir(profile))
}

// EnsureAppDir creates the app directory if it doesn't exist
func (p *Paths) EnsureAppDir() error {
	return os.MkdirAll(p.AppDir(), 0755)
}

// EnsureCacheDir creates the cache directory if it doesn't exist
func (p *Paths) EnsureCacheDir() error {
	return os.MkdirAll(p.CacheDir(), 0755)
}

func profileDir(profile string) string {
	if profile == "" {
		return "default"
	}
	return filepath.Base(filepath.Clean(profile))
}
