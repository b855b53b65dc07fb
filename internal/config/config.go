// Package config loads the optional project configuration from
// .nextstep/config.yaml. Absence is not an error: every knob has an
// engine default. A present-but-unparseable file is a configuration-shape
// error and aborts resolution, matching the template placeholder policy.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mwhitby/nextstep/internal/layout"
	"github.com/mwhitby/nextstep/internal/profile"
)

const defaultConfigYAML = `# nextstep project configuration
version: 1

# Optional prompt template override, relative to .nextstep/.
# template: prompt_template.md

# Fragment text substituted into the optional template placeholders.
fragments:
  output_style: ""
  manual_tests: ""

# Detection rules for execution-profile recommendations. Declaring any
# rule replaces the engine's built-in set.
# profiles:
#   - match: migration
#     profile: careful
#     reason: schema changes get the conservative profile
`

// Fragments is the text substituted into the optional template
// placeholders.
type Fragments struct {
	OutputStyle string `yaml:"output_style,omitempty"`
	ManualTests string `yaml:"manual_tests,omitempty"`
}

// ProjectConfig models .nextstep/config.yaml.
type ProjectConfig struct {
	Version   int            `yaml:"version"`
	Template  string         `yaml:"template,omitempty"`
	Fragments Fragments      `yaml:"fragments,omitempty"`
	Profiles  []profile.Rule `yaml:"profiles,omitempty"`
}

// Config is the runtime configuration for one project.
type Config struct {
	Layout  layout.Layout
	Project ProjectConfig
}

// Load reads the project configuration, falling back to defaults when the
// file does not exist.
func Load(l layout.Layout) (*Config, error) {
	cfg := &Config{Layout: l, Project: defaultProject()}
	data, err := os.ReadFile(l.ConfigPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", l.ConfigPath(), err)
	}
	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", l.ConfigPath(), err)
	}
	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Project = parsed
	return cfg, nil
}

// EnsureDefault writes the commented default config if none exists yet.
func EnsureDefault(l layout.Layout) error {
	path := l.ConfigPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: ensure dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("config: write default config: %w", err)
	}
	return nil
}

// TemplatePath resolves the prompt template override, if any. The
// configured path wins; otherwise the conventional
// .nextstep/prompt_template.md applies when present. Empty means "use the
// embedded default".
func (c *Config) TemplatePath() string {
	if c.Project.Template != "" {
		path := c.Project.Template
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.Layout.Root, path)
		}
		return filepath.Clean(path)
	}
	if _, err := os.Stat(c.Layout.TemplatePath()); err == nil {
		return c.Layout.TemplatePath()
	}
	return ""
}

func defaultProject() ProjectConfig {
	return ProjectConfig{Version: 1}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Template = strings.TrimSpace(pc.Template)
	for i := range pc.Profiles {
		pc.Profiles[i].Match = strings.TrimSpace(pc.Profiles[i].Match)
		pc.Profiles[i].Profile = strings.TrimSpace(pc.Profiles[i].Profile)
	}
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("version must be >= 1")
	}
	for i, rule := range pc.Profiles {
		if rule.Match == "" {
			return fmt.Errorf("profiles[%d]: match is required", i)
		}
		if rule.Profile == "" {
			return fmt.Errorf("profiles[%d]: profile is required", i)
		}
	}
	return nil
}
