package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".filegrab"

// ErrConfigNotFound is returned when the configuration file does not
// exist. Callers decide how hard that failure is: an explicitly named
// file must exist, a searched-for one may not.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML shape of a .filegrab file. Optional numeric and
// boolean settings are pointers so "absent" and "zero" stay
// distinguishable during the merge.
type File struct {
	StartURL    string `yaml:"start_url"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	DownloadDir string `yaml:"download_dir"`
	Extensions  string `yaml:"extensions"`

	// Delay is a Go duration string ("500ms", "2s").
	Delay string `yaml:"delay"`

	MaxDepth  *int   `yaml:"max_depth"`
	MaxPages  *int   `yaml:"max_pages"`
	Robots    *bool  `yaml:"robots"`
	UserAgent string `yaml:"user_agent"`
}

// LoadConfigFile loads a .filegrab YAML file. A missing file returns
// ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &f, nil
}

// FindConfigFile searches for the configuration file:
//  1. If configPath is specified, use it directly
//  2. Look for .filegrab in the current directory
//  3. Look for .filegrab in the user's home directory
//
// Returns the path if found, or empty string if not.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// Apply merges the file's settings into cfg. Only settings present in
// the file are applied; CLI flags overwrite afterwards, so the layering
// is defaults, then file, then flags.
func (f *File) Apply(cfg *Config) error {
	if f.StartURL != "" {
		cfg.StartURL = f.StartURL
	}
	if f.Username != "" {
		cfg.Username = f.Username
	}
	if f.Password != "" {
		cfg.Password = f.Password
	}
	if f.DownloadDir != "" {
		cfg.DownloadDir = f.DownloadDir
	}
	if f.Extensions != "" {
		cfg.Extensions = f.Extensions
	}
	if f.Delay != "" {
		d, err := time.ParseDuration(f.Delay)
		if err != nil {
			return fmt.Errorf("invalid delay %q: %w", f.Delay, err)
		}
		cfg.Delay = d
	}
	if f.MaxDepth != nil {
		cfg.MaxDepth = *f.MaxDepth
	}
	if f.MaxPages != nil {
		cfg.MaxPages = *f.MaxPages
	}
	if f.Robots != nil {
		cfg.Robots = *f.Robots
	}
	if f.UserAgent != "" {
		cfg.UserAgent = f.UserAgent
	}

	return nil
}

// SampleConfig is the annotated .filegrab written by `filegrab init`.
const SampleConfig = `# filegrab configuration file
#
# Edit start_url before running: the placeholder below is rejected.
start_url: http://example.com

# HTTP basic auth. Set both or neither.
# username: alice
# password: secret

# Where downloaded files are written.
download_dir: downloads

# Downloadable file extensions, pipe or comma separated.
extensions: pdf|zip|exe|doc|docx|xlsx|pptx

# Pause between page fetches on the same site.
delay: 500ms

# Crawl bounds.
max_depth: 32
max_pages: 2000

# Check robots.txt before fetching pages.
robots: false

# Override the User-Agent header.
# user_agent: filegrab/1.0
`

// WriteSampleConfig writes the annotated sample configuration to path.
// It refuses to overwrite an existing file.
func WriteSampleConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	return os.WriteFile(path, []byte(SampleConfig), 0600)
}
