package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sheetSum/internal/logger"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Paths   PathsConfig   `toml:"paths" yaml:"paths"`
	Summary SummaryConfig `toml:"summary" yaml:"summary"`
	Roster  RosterConfig  `toml:"roster" yaml:"roster"`
	Log     LogConfig     `toml:"log" yaml:"log"`
}

type PathsConfig struct {
	TemplateFile    string `toml:"template_file" yaml:"template_file"`
	InputDirectory  string `toml:"input_directory" yaml:"input_directory"`
	OutputDirectory string `toml:"output_directory" yaml:"output_directory"`
	RosterFile      string `toml:"roster_file" yaml:"roster_file"`
}

type SummaryConfig struct {
	TemplateTab  string   `toml:"template_tab" yaml:"template_tab"`
	PruneSheets  []string `toml:"prune_sheets" yaml:"prune_sheets"`
	OutputSuffix string   `toml:"output_suffix" yaml:"output_suffix"`
	Extensions   []string `toml:"extensions" yaml:"extensions"`
	TempPrefix   string   `toml:"temp_prefix" yaml:"temp_prefix"`
}

type RosterConfig struct {
	Column string `toml:"column" yaml:"column"`
}

type LogConfig struct {
	Directory string `toml:"directory" yaml:"directory"`
	Level     string `toml:"level" yaml:"level"`
}

// Default returns the configuration used when no config file exists yet.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			TemplateFile:    "Template.xlsx",
			InputDirectory:  "client_portfolio",
			OutputDirectory: ".",
			RosterFile:      "account_list.xlsx",
		},
		Summary: SummaryConfig{
			TemplateTab:  "tab1",
			PruneSheets:  []string{"Calculations"},
			OutputSuffix: "_summary",
			Extensions:   []string{".xlsx", ".xlsm"},
			TempPrefix:   "~$",
		},
		Roster: RosterConfig{
			Column: "Client",
		},
		Log: LogConfig{
			Directory: "logs",
			Level:     "info",
		},
	}
}

// LoadConfig loads configuration from the specified config file path.
// TOML is the default format; .yaml and .yml files are decoded as YAML.
func LoadConfig(configPath string) (*Config, error) {
	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configDir := filepath.Dir(configPath)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		defaultConfig := Default()
		err = SaveConfig(configPath, defaultConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}

		logger.Info("Created default config file", "path", configPath)
		return defaultConfig, nil
	}

	var config Config
	if isYAML(configPath) {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else {
		if _, err := toml.DecodeFile(configPath, &config); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	config.applyDefaults()

	logger.Info("Loaded configuration", "path", configPath)
	return &config, nil
}

// SaveConfig saves configuration to the specified config file path
func SaveConfig(configPath string, config *Config) error {
	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if isYAML(configPath) {
		encoder := yaml.NewEncoder(file)
		defer encoder.Close()
		err = encoder.Encode(config)
	} else {
		err = toml.NewEncoder(file).Encode(config)
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	logger.Info("Saved configuration", "path", configPath)
	return nil
}

// Set defaults if missing
func (c *Config) applyDefaults() {
	def := Default()

	if c.Paths.TemplateFile == "" {
		c.Paths.TemplateFile = def.Paths.TemplateFile
	}
	if c.Paths.InputDirectory == "" {
		c.Paths.InputDirectory = def.Paths.InputDirectory
	}
	if c.Paths.OutputDirectory == "" {
		c.Paths.OutputDirectory = def.Paths.OutputDirectory
	}
	if c.Summary.TemplateTab == "" {
		c.Summary.TemplateTab = def.Summary.TemplateTab
	}
	// An explicit empty list disables pruning, so only a missing key is defaulted.
	if c.Summary.PruneSheets == nil {
		c.Summary.PruneSheets = def.Summary.PruneSheets
	}
	if c.Summary.OutputSuffix == "" {
		c.Summary.OutputSuffix = def.Summary.OutputSuffix
	}
	if len(c.Summary.Extensions) == 0 {
		c.Summary.Extensions = def.Summary.Extensions
	}
	if c.Summary.TempPrefix == "" {
		c.Summary.TempPrefix = def.Summary.TempPrefix
	}
	if c.Roster.Column == "" {
		c.Roster.Column = def.Roster.Column
	}
	if c.Log.Directory == "" {
		c.Log.Directory = def.Log.Directory
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
