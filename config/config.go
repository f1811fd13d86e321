package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

type LLMConfig struct {
	Provider    string  `toml:"provider"`
	BaseURL     string  `toml:"base_url"`
	APIKey      string  `toml:"api_key,omitempty"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
}

// TargetConfig describes the API the assistant is allowed to call with
// the api_request tool. The bearer token here is deliberately separate
// from the LLM provider API key.
type TargetConfig struct {
	BaseURL     string `toml:"base_url"`
	SchemaURL   string `toml:"schema_url,omitempty"`
	BearerToken string `toml:"bearer_token,omitempty"`
}

type ToolsConfig struct {
	Enabled     bool `toml:"enabled"`
	AutoExecute bool `toml:"auto_execute"`
}

type UserConfig struct {
	LLM          LLMConfig    `toml:"llm"`
	Target       TargetConfig `toml:"target"`
	Tools        ToolsConfig  `toml:"tools"`
	SystemPrompt string       `toml:"system_prompt,omitempty"`
}

type Config struct {
	DataDirectory string
	LLM           LLMConfig
	Target        TargetConfig
	Tools         ToolsConfig
	SystemPrompt  string
}

var Debug = false
var DebugLog *log.Logger

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// SchemaURL returns the configured schema URL, defaulting to
// <target>/openapi.json when unset.
func (c *Config) SchemaURL() string {
	if c.Target.SchemaURL != "" {
		return c.Target.SchemaURL
	}
	return c.Target.BaseURL + "/openapi.json"
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("APITUI_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("APITUI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("APITUI_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("APITUI_TARGET_URL"); v != "" {
		c.Target.BaseURL = v
	}
	if v := os.Getenv("APITUI_DATA_DIR"); v != "" {
		c.DataDirectory = v
	}
}

func CheckDebug() bool {
	debug := os.Getenv("APITUI_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600 - the debug log may contain request/response fragments
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (APITUI_DEBUG=%s) ===", os.Getenv("APITUI_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

func Load() (*Config, error) {
	systemCfg, err := LoadSystemConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load system config: %w", err)
	}

	cfg := &Config{DataDirectory: systemCfg.DataDirectory}
	cfg.applyEnvOverrides()

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	userCfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	cfg.LLM = userCfg.LLM
	cfg.Target = userCfg.Target
	cfg.Tools = userCfg.Tools
	cfg.SystemPrompt = userCfg.SystemPrompt
	cfg.applyEnvOverrides()

	return cfg, nil
}

// UserView converts the runtime config back to its on-disk form,
// used when the settings view saves changes.
func (c *Config) UserView() *UserConfig {
	return &UserConfig{
		LLM:          c.LLM,
		Target:       c.Target,
		Tools:        c.Tools,
		SystemPrompt: c.SystemPrompt,
	}
}
