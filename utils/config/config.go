package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Verbose enables informational logging when set via the --verbose flag.
var Verbose bool

// Debug enables debug logging when set via the --debug flag.
var Debug bool

// VerboseLog logs a message when verbose mode is enabled
func VerboseLog(format string, args ...interface{}) {
	if Verbose {
		log.Printf("[INFO] "+format, args...)
	}
}

// DebugLog logs a message when debug mode is enabled
func DebugLog(format string, args ...interface{}) {
	if Debug {
		log.Printf("[DEBUG] "+format, args...)
	}
}

// Config holds the persisted user configuration. It lives in
// ~/.ollamacli/config.yaml and is edited by the configure command or the
// /config and /theme chat commands.
type Config struct {
	Model            string `yaml:"model"`
	OllamaURL        string `yaml:"ollama_url"`
	OpenAICompatURL  string `yaml:"openai_compat_url,omitempty"`
	TerminalLauncher string `yaml:"terminal_launcher"`
	PythonCommand    string `yaml:"python_command"`
	WebEnabled       bool   `yaml:"web_enabled"`
	Theme            string `yaml:"theme"`
	RefreshRate      int    `yaml:"refresh_rate"`

	// Timeouts for the model server, in seconds. Connect is short so a
	// missing server fails fast; read is long because local generation of a
	// large file can take minutes.
	ConnectTimeoutSecs int `yaml:"connect_timeout,omitempty"`
	ReadTimeoutSecs    int `yaml:"read_timeout,omitempty"`
}

// Default returns a Config populated with the defaults used when no config
// file exists yet.
func Default() *Config {
	return &Config{
		Model:              "llama3",
		OllamaURL:          "http://localhost:11434",
		TerminalLauncher:   "konsole -e",
		PythonCommand:      "python3",
		WebEnabled:         true,
		Theme:              "dark",
		RefreshRate:        20,
		ConnectTimeoutSecs: 5,
		ReadTimeoutSecs:    300,
	}
}

// ConnectTimeout returns the connect timeout as a duration.
func (c *Config) ConnectTimeout() time.Duration {
	if c.ConnectTimeoutSecs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.ConnectTimeoutSecs) * time.Second
}

// ReadTimeout returns the read timeout as a duration.
func (c *Config) ReadTimeout() time.Duration {
	if c.ReadTimeoutSecs <= 0 {
		return 300 * time.Second
	}
	return time.Duration(c.ReadTimeoutSecs) * time.Second
}

// HomeDir returns the ollamacli data directory. OLLAMACLI_HOME overrides the
// default of ~/.ollamacli, which keeps tests and sandboxed runs out of the
// real home directory.
func HomeDir() string {
	if dir := os.Getenv("OLLAMACLI_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ollamacli"
	}
	return filepath.Join(home, ".ollamacli")
}

// ConfigPath returns the path of the config file.
func ConfigPath() string {
	return filepath.Join(HomeDir(), "config.yaml")
}

// ProjectsDir returns the directory where saved projects live.
func ProjectsDir() string {
	return filepath.Join(HomeDir(), "projects")
}

// HistoryPath returns the path of the prompt history file.
func HistoryPath() string {
	return filepath.Join(HomeDir(), "history")
}

// Load reads the config file, filling in defaults for anything missing. A
// missing file is not an error: the defaults are returned so first runs work
// without a configure step.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if cfg.Theme != "dark" && cfg.Theme != "light" {
		cfg.Theme = "dark"
	}
	if cfg.RefreshRate <= 0 {
		cfg.RefreshRate = 20
	}
	if cfg.OllamaURL == "" {
		cfg.OllamaURL = "http://localhost:11434"
	}

	return cfg, nil
}

// Save writes the config file, creating the data directory if needed.
func (c *Config) Save() error {
	if err := os.MkdirAll(HomeDir(), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	DebugLog("[Config] Saved configuration to %s", ConfigPath())
	return nil
}
