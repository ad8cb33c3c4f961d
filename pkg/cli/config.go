package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/goccy/go-yaml"

	"github.com/youzoom64/RTMP-streamer/pkg/animator"
)

const (
	// DefaultBaseDir is the base configuration directory name
	DefaultBaseDir = ".rtmp-streamer"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"
)

// Config represents the main configuration structure for a CLI app
type Config struct {
	// AppName is the application name (e.g., "streamer")
	AppName string `yaml:"-" json:"-"`

	// CurrentProfile is the name of the currently active profile
	CurrentProfile string `yaml:"current_profile,omitempty" json:"current_profile,omitempty"`

	// Profiles is a map of profile name to profile configuration
	Profiles map[string]*Profile `yaml:"profiles,omitempty" json:"profiles,omitempty"`

	// configPath is the path to the config file
	configPath string
}

// Profile is one named animator setup: which character to load, where to
// write frames and how fast.
type Profile struct {
	// Name is the profile name
	Name string `yaml:"name" json:"name"`

	animator.Config `yaml:",inline"`
}

// LoadConfig loads or creates configuration for the specified app
func LoadConfig(appName string) (*Config, error) {
	return LoadConfigWithPath(appName, "")
}

// LoadConfigWithPath loads configuration from a custom path
func LoadConfigWithPath(appName, customPath string) (*Config, error) {
	configPath := customPath
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, DefaultBaseDir, appName, DefaultConfigFile)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{
		AppName:    appName,
		Profiles:   make(map[string]*Profile),
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]*Profile)
	}
	for name, p := range cfg.Profiles {
		if p == nil {
			return nil, fmt.Errorf("failed to parse config: profile %q is empty", name)
		}
		p.Name = name
	}

	cfg.AppName = appName
	cfg.configPath = configPath
	return cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Path returns the config file path
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the config directory path
func (c *Config) Dir() string {
	return filepath.Dir(c.configPath)
}

// AddProfile adds or replaces a profile. The first profile added becomes
// the current one.
func (c *Config) AddProfile(name string, p *Profile) error {
	if name == "" {
		return fmt.Errorf("profile name is required")
	}
	p.Name = name
	c.Profiles[name] = p
	if c.CurrentProfile == "" {
		c.CurrentProfile = name
	}
	return c.Save()
}

// DeleteProfile removes a profile
func (c *Config) DeleteProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile %q not found", name)
	}
	delete(c.Profiles, name)
	if c.CurrentProfile == name {
		c.CurrentProfile = ""
	}
	return c.Save()
}

// UseProfile sets the current profile
func (c *Config) UseProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile %q not found", name)
	}
	c.CurrentProfile = name
	return c.Save()
}

// GetProfile returns a specific profile
func (c *Config) GetProfile(name string) (*Profile, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile %q not found", name)
	}
	return p, nil
}

// ResolveProfile returns the profile by name, or the current profile if
// name is empty.
func (c *Config) ResolveProfile(name string) (*Profile, error) {
	if name == "" {
		if c.CurrentProfile == "" {
			return nil, fmt.Errorf("no current profile set")
		}
		name = c.CurrentProfile
	}
	return c.GetProfile(name)
}

// ListProfiles returns all profile names, sorted
func (c *Config) ListProfiles() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// AnimatorConfig returns the animator configuration of the profile with
// relative paths resolved against base.
func (p *Profile) AnimatorConfig(base string) animator.Config {
	cfg := p.Config
	for _, path := range []*string{&cfg.AssetRoot, &cfg.OutputDir, &cfg.PositionMap, &cfg.CacheDir} {
		if *path != "" && !filepath.IsAbs(*path) && base != "" {
			*path = filepath.Join(base, *path)
		}
	}
	return cfg
}
