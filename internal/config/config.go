package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// Chat-completion backend
	OpenAIKey     string `json:"openai_api_key,omitempty"`
	OpenAIAPIType string `json:"openai_api_type,omitempty"` // "open_ai" or "azure"
	OpenAIBase    string `json:"openai_api_base,omitempty"`
	OpenAIVersion string `json:"openai_api_version,omitempty"`

	// Generative-content backend
	GoogleKey string `json:"google_api_key,omitempty"`

	// Self-hosted completion server
	FastChatHost string `json:"fastchat_host,omitempty"`
	FastChatPort int    `json:"fastchat_port,omitempty"`

	// Defaults
	DefaultProvider string `json:"default_provider,omitempty"`
	DefaultModel    string `json:"default_model,omitempty"`
}

var (
	configDir  string
	configFile string
	current    *Config
)

func init() {
	// Use ~/.config/modelbridge for config
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	configDir = filepath.Join(home, ".config", "modelbridge")
	configFile = filepath.Join(configDir, "config.json")
}

// Load reads the config from disk
func Load() (*Config, error) {
	if current != nil {
		return current, nil
	}

	current = &Config{
		DefaultProvider: "openai",
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			return current, nil // Return default config
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, current); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return current, nil
}

// Save writes the config to disk
func Save(cfg *Config) error {
	// Ensure config directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	current = cfg
	return nil
}

// Get returns the current config, loading if necessary
func Get() *Config {
	if current == nil {
		_, _ = Load()
	}
	return current
}

// Set updates a config value by key
func Set(key, value string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	switch key {
	case "openai_api_key", "openai":
		cfg.OpenAIKey = value
	case "openai_api_type", "api_type":
		cfg.OpenAIAPIType = value
	case "openai_api_base", "api_base":
		cfg.OpenAIBase = value
	case "openai_api_version", "api_version":
		cfg.OpenAIVersion = value
	case "google_api_key", "google":
		cfg.GoogleKey = value
	case "fastchat_host":
		cfg.FastChatHost = value
	case "fastchat_port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("fastchat_port must be a number: %w", err)
		}
		cfg.FastChatPort = port
	case "default_provider", "provider":
		cfg.DefaultProvider = value
	case "default_model", "model":
		cfg.DefaultModel = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	return Save(cfg)
}

// Delete removes a config value
func Delete(key string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	switch key {
	case "openai_api_key", "openai":
		cfg.OpenAIKey = ""
	case "openai_api_type", "api_type":
		cfg.OpenAIAPIType = ""
	case "openai_api_base", "api_base":
		cfg.OpenAIBase = ""
	case "openai_api_version", "api_version":
		cfg.OpenAIVersion = ""
	case "google_api_key", "google":
		cfg.GoogleKey = ""
	case "fastchat_host":
		cfg.FastChatHost = ""
	case "fastchat_port":
		cfg.FastChatPort = 0
	case "default_provider", "provider":
		cfg.DefaultProvider = ""
	case "default_model", "model":
		cfg.DefaultModel = ""
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	return Save(cfg)
}

// GetOpenAIKey returns the OpenAI API key (config or env)
func GetOpenAIKey() string {
	cfg := Get()
	if cfg.OpenAIKey != "" {
		return cfg.OpenAIKey
	}
	return os.Getenv("OPENAI_API_KEY")
}

// GetOpenAIAPIType returns the deployment mode, "open_ai" or "azure"
// (config or env, defaulting to "open_ai")
func GetOpenAIAPIType() string {
	cfg := Get()
	if cfg.OpenAIAPIType != "" {
		return cfg.OpenAIAPIType
	}
	if t := os.Getenv("OPENAI_API_TYPE"); t != "" {
		return t
	}
	return "open_ai"
}

// GetOpenAIBase returns the gateway base URL (config or env)
func GetOpenAIBase() string {
	cfg := Get()
	if cfg.OpenAIBase != "" {
		return cfg.OpenAIBase
	}
	return os.Getenv("OPENAI_API_BASE")
}

// GetOpenAIVersion returns the gateway api-version (config or env)
func GetOpenAIVersion() string {
	cfg := Get()
	if cfg.OpenAIVersion != "" {
		return cfg.OpenAIVersion
	}
	return os.Getenv("OPENAI_API_VERSION")
}

// GetGoogleKey returns the Google API key (config or env)
func GetGoogleKey() string {
	cfg := Get()
	if cfg.GoogleKey != "" {
		return cfg.GoogleKey
	}
	return os.Getenv("GOOGLE_API_KEY")
}

// GetFastChatHost returns the completion server host (config or env,
// defaulting to localhost)
func GetFastChatHost() string {
	cfg := Get()
	if cfg.FastChatHost != "" {
		return cfg.FastChatHost
	}
	if h := os.Getenv("FASTCHAT_HOST"); h != "" {
		return h
	}
	return "localhost"
}

// GetFastChatPort returns the completion server port (config or env,
// defaulting to 8888)
func GetFastChatPort() int {
	cfg := Get()
	if cfg.FastChatPort != 0 {
		return cfg.FastChatPort
	}
	if p := os.Getenv("FASTCHAT_PORT"); p != "" {
		if port, err := strconv.Atoi(p); err == nil {
			return port
		}
	}
	return 8888
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return configFile
}

// ListKeys returns configured keys (masked for display)
func ListKeys() map[string]string {
	cfg := Get()
	result := make(map[string]string)

	if cfg.OpenAIKey != "" {
		result["openai_api_key"] = maskKey(cfg.OpenAIKey)
	} else if os.Getenv("OPENAI_API_KEY") != "" {
		result["openai_api_key"] = maskKey(os.Getenv("OPENAI_API_KEY")) + " (env)"
	}

	if cfg.GoogleKey != "" {
		result["google_api_key"] = maskKey(cfg.GoogleKey)
	} else if os.Getenv("GOOGLE_API_KEY") != "" {
		result["google_api_key"] = maskKey(os.Getenv("GOOGLE_API_KEY")) + " (env)"
	}

	if cfg.OpenAIAPIType != "" {
		result["openai_api_type"] = cfg.OpenAIAPIType
	}

	if cfg.OpenAIBase != "" {
		result["openai_api_base"] = cfg.OpenAIBase
	}

	if cfg.OpenAIVersion != "" {
		result["openai_api_version"] = cfg.OpenAIVersion
	}

	if cfg.FastChatHost != "" {
		result["fastchat_host"] = cfg.FastChatHost
	}

	if cfg.FastChatPort != 0 {
		result["fastchat_port"] = strconv.Itoa(cfg.FastChatPort)
	}

	if cfg.DefaultProvider != "" {
		result["default_provider"] = cfg.DefaultProvider
	}

	if cfg.DefaultModel != "" {
		result["default_model"] = cfg.DefaultModel
	}

	return result
}

// maskKey shows only first 4 and last 4 characters
func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
