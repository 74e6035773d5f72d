// Package config loads and validates the declarative batch configuration.
// A configuration is read once, defaulted, validated, and then shared
// read-only across the whole run; validation failures are the only fatal
// errors in the system.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mockpress/mockpress/pkg/document"
	"github.com/mockpress/mockpress/pkg/match"
)

const (
	// DefaultExportMaxLong caps the long edge of exported documents when
	// the configuration leaves export_max_long unset.
	DefaultExportMaxLong = 2048
	// DefaultJPGQuality is the lossy-format quality on the encoder's
	// 1-100 scale.
	DefaultJPGQuality = 90
	// DefaultLogName is the run log file created under the output
	// directory when log_file is unset.
	DefaultLogName = "mockpress.log"
)

// Config drives one batch run. Field semantics follow the config file
// one-to-one; see the embedded docs for the full reference.
type Config struct {
	NameFilter string `yaml:"name_filter"`
	// ExportMaxLong is a pointer so an explicit zero (cap disabled) is
	// distinguishable from an unset field; resolve it through MaxLong.
	ExportMaxLong     *int     `yaml:"export_max_long"`
	BasesDir          string   `yaml:"bases_dir"`
	LogosDir          string   `yaml:"logos_dir"`
	OutputDir         string   `yaml:"output_dir"`
	UseActiveDocument bool     `yaml:"use_active_document"`
	MakeSubfolders    bool     `yaml:"make_subfolders"`
	Overwrite         bool     `yaml:"overwrite"`
	Formats           []string `yaml:"formats"`
	JPGQuality        int      `yaml:"jpg_quality"`
	LogFile           string   `yaml:"log_file"`

	// Source records where the configuration came from, for the run log.
	Source string `yaml:"-"`
}

// Load reads the YAML configuration at path and applies defaults. Unset
// fields fall back to viper keys under `compose.` before the documented
// defaults, so env/config-file bindings behave like any other parse source.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	cfg.Source = path
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.NameFilter) == "" {
		c.NameFilter = viper.GetString("compose.name_filter")
	}
	if c.OutputDir == "" {
		c.OutputDir = viper.GetString("compose.output_dir")
	}
	if c.ExportMaxLong == nil && viper.IsSet("compose.export_max_long") {
		v := viper.GetInt("compose.export_max_long")
		c.ExportMaxLong = &v
	}
	if c.JPGQuality == 0 {
		c.JPGQuality = viper.GetInt("compose.jpg_quality")
	}
	if c.JPGQuality == 0 {
		c.JPGQuality = DefaultJPGQuality
	}
	if len(c.Formats) == 0 {
		c.Formats = []string{"png"}
	}
	if c.LogFile == "" && c.OutputDir != "" {
		c.LogFile = filepath.Join(c.OutputDir, DefaultLogName)
	}
}

// MaxLong resolves the long-edge cap. Zero or negative values disable the
// cap; an unset field falls back to the documented default.
func (c *Config) MaxLong() int {
	if c.ExportMaxLong == nil {
		return DefaultExportMaxLong
	}
	return *c.ExportMaxLong
}

// Matcher compiles the configured name filter.
func (c *Config) Matcher() (match.Matcher, error) {
	return match.Compile(c.NameFilter)
}

// Validate checks the configuration and prepares the output directory.
// Unknown export formats are deliberately not rejected here; they produce
// per-item warnings instead.
func (c *Config) Validate() error {
	if !c.UseActiveDocument {
		if c.BasesDir == "" {
			return fmt.Errorf("bases_dir is required unless use_active_document is set")
		}
		templates, err := document.ScanTemplates(c.BasesDir)
		if err != nil {
			return fmt.Errorf("failed to scan template directory: %w", err)
		}
		if len(templates) == 0 {
			return fmt.Errorf("no template documents found in %s", c.BasesDir)
		}
	}

	if c.LogosDir == "" {
		return fmt.Errorf("logos_dir is required")
	}
	assets, err := document.ScanAssets(c.LogosDir)
	if err != nil {
		return fmt.Errorf("failed to scan design directory: %w", err)
	}
	if len(assets) == 0 {
		return fmt.Errorf("no design assets found in %s", c.LogosDir)
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if err := os.MkdirAll(c.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", c.OutputDir, err)
	}

	if _, err := c.Matcher(); err != nil {
		return err
	}
	return nil
}
