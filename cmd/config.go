package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ghost/internal/llm"

	"github.com/spf13/viper"
)

// Config is the decoded application configuration.
type Config struct {
	Provider       string        `mapstructure:"provider"`
	APIURL         string        `mapstructure:"api_url"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	SystemPrompt   string        `mapstructure:"system_prompt"`
	HistoryLimit   int           `mapstructure:"history_limit"`
	AutoFollowUp   bool          `mapstructure:"auto_followup"`
	MaxFollowUps   int           `mapstructure:"max_followups"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	SerperAPIKey   string        `mapstructure:"serper_api_key"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	FetchMaxChars  int           `mapstructure:"fetch_max_chars"`

	Approval struct {
		Extra []string `mapstructure:"extra"`
	} `mapstructure:"approval"`

	Storage struct {
		Backend string `mapstructure:"backend"`
		Dir     string `mapstructure:"dir"`
	} `mapstructure:"storage"`

	Metrics struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"metrics"`

	Log struct {
		Level string `mapstructure:"level"`
		File  string `mapstructure:"file"`
	} `mapstructure:"log"`

	Attach struct {
		PID int `mapstructure:"pid"`
	} `mapstructure:"attach"`
}

func (c Config) providerConfig() llm.ProviderConfig {
	return llm.ProviderConfig{
		Provider: c.Provider,
		APIURL:   c.APIURL,
		APIKey:   c.APIKey,
		Timeout:  c.RequestTimeout,
	}
}

func (c Config) requireAPIKey() error {
	if c.APIKey == "" {
		return fmt.Errorf("API key is not set. Please configure it in .ghost.yaml or the GHOST_API_KEY environment variable")
	}
	return nil
}

// dataDir is where chats and logs live by default.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ghost"
	}
	return filepath.Join(home, ".ghost")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", llm.ProviderOpenRouter)
	v.SetDefault("api_url", llm.DefaultOpenRouterURL)
	v.SetDefault("model", "gryphe/mythomax-l2-13b")
	v.SetDefault("history_limit", llm.DefaultHistoryLimit)
	v.SetDefault("auto_followup", false)
	v.SetDefault("max_followups", 3)
	v.SetDefault("request_timeout", 60*time.Second)
	v.SetDefault("fetch_timeout", 15*time.Second)
	v.SetDefault("fetch_max_chars", 12000)
	v.SetDefault("approval.extra", []string{})
	v.SetDefault("storage.backend", "json")
	v.SetDefault("storage.dir", filepath.Join(dataDir(), "chats"))
	v.SetDefault("metrics.addr", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(dataDir(), "ghost.log"))
	v.SetDefault("attach.pid", 0)
}

// loadConfig reads the optional config file and environment into a Config.
func loadConfig(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(".ghost")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}
	v.SetEnvPrefix("GHOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	return cfg, nil
}
