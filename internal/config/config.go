// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// Components receive it at construction time and never read global state.
type Interface interface {
	Logger() LoggerConfig
	Agent() AgentConfig
	Session() SessionConfig
	RAG() RAGConfig
	Experience() ExperienceConfig
	Browser() BrowserConfig
	Receivers() ReceiversConfig
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	AgentCfg      AgentConfig      `mapstructure:"agent" yaml:"agent"`
	SessionCfg    SessionConfig    `mapstructure:"session" yaml:"session"`
	RAGCfg        RAGConfig        `mapstructure:"rag" yaml:"rag"`
	ExperienceCfg ExperienceConfig `mapstructure:"experience" yaml:"experience"`
	BrowserCfg    BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	ReceiversCfg  ReceiversConfig  `mapstructure:"receivers" yaml:"receivers"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig         { return c.LoggerCfg }
func (c *Config) Agent() AgentConfig           { return c.AgentCfg }
func (c *Config) Session() SessionConfig       { return c.SessionCfg }
func (c *Config) RAG() RAGConfig               { return c.RAGCfg }
func (c *Config) Experience() ExperienceConfig { return c.ExperienceCfg }
func (c *Config) Browser() BrowserConfig       { return c.BrowserCfg }
func (c *Config) Receivers() ReceiversConfig   { return c.ReceiversCfg }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// AgentConfig holds settings related to the agents and the oracle behind them.
type AgentConfig struct {
	LLM LLMRouterConfig `mapstructure:"llm" yaml:"llm"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderGemini LLMProvider = "gemini"
)

// LLMRouterConfig names the primary and fallback engines.
type LLMRouterConfig struct {
	Primary string `mapstructure:"primary" yaml:"primary"`
	Backup  string `mapstructure:"backup" yaml:"backup"`
	// RequestsPerMinute throttles oracle calls; zero disables throttling.
	RequestsPerMinute float64                   `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	Models            map[string]LLMModelConfig `mapstructure:"models" yaml:"models"`
}

// LLMModelConfig defines the configuration for a single engine.
type LLMModelConfig struct {
	Provider    LLMProvider    `mapstructure:"provider" yaml:"provider"`
	Model       string         `mapstructure:"model" yaml:"model"`
	APIKey      string         `mapstructure:"api_key" yaml:"-"`
	Endpoint    string         `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration  `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float32        `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int            `mapstructure:"max_tokens" yaml:"max_tokens"`
	Pricing     *PricingConfig `mapstructure:"pricing" yaml:"pricing"`
}

// PricingConfig is the USD price per million tokens. A model without pricing
// reports an unknown cost.
type PricingConfig struct {
	InputPerMillion  float64 `mapstructure:"input_per_million" yaml:"input_per_million"`
	OutputPerMillion float64 `mapstructure:"output_per_million" yaml:"output_per_million"`
}

// SessionConfig controls the step loop.
type SessionConfig struct {
	LogRoot               string        `mapstructure:"log_root" yaml:"log_root"`
	SafeGuard             bool          `mapstructure:"safe_guard" yaml:"safe_guard"`
	SleepTime             time.Duration `mapstructure:"sleep_time" yaml:"sleep_time"`
	ErrorCooldown         time.Duration `mapstructure:"error_cooldown" yaml:"error_cooldown"`
	MaxStep               int           `mapstructure:"max_step" yaml:"max_step"`
	IncludeLastScreenshot bool          `mapstructure:"include_last_screenshot" yaml:"include_last_screenshot"`
	ConcatScreenshot      bool          `mapstructure:"concat_screenshot" yaml:"concat_screenshot"`
	ControlTypes          []string      `mapstructure:"control_types" yaml:"control_types"`
}

// RAGSourceConfig toggles one retrieval source.
type RAGSourceConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	TopK    int  `mapstructure:"top_k" yaml:"top_k"`
}

// RAGConfig holds the four independent retrieval sources.
type RAGConfig struct {
	Experience    RAGSourceConfig `mapstructure:"experience" yaml:"experience"`
	Demonstration RAGSourceConfig `mapstructure:"demonstration" yaml:"demonstration"`
	OfflineDocs   RAGSourceConfig `mapstructure:"offline_docs" yaml:"offline_docs"`
	OnlineSearch  RAGSourceConfig `mapstructure:"online_search" yaml:"online_search"`
}

// ExperienceConfig locates the YAML stores used for retrieval and for saving
// summarized experience.
type ExperienceConfig struct {
	SavePath          string `mapstructure:"save_path" yaml:"save_path"`
	DemonstrationPath string `mapstructure:"demonstration_path" yaml:"demonstration_path"`
	DocsPath          string `mapstructure:"docs_path" yaml:"docs_path"`
	AskToSave         bool   `mapstructure:"ask_to_save" yaml:"ask_to_save"`
}

// BrowserConfig selects the Chrome instance exposed as a desktop. With a
// RemoteURL the driver attaches to a running browser; otherwise it launches
// one and opens StartURL.
type BrowserConfig struct {
	RemoteURL string        `mapstructure:"remote_url" yaml:"remote_url"`
	Headless  bool          `mapstructure:"headless" yaml:"headless"`
	StartURL  string        `mapstructure:"start_url" yaml:"start_url"`
	Args      []string      `mapstructure:"args" yaml:"args"`
	AppRoot   string        `mapstructure:"app_root" yaml:"app_root"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ReceiversConfig selects the receiver registry and the roots allowed to use
// an API receiver.
type ReceiversConfig struct {
	RegistryFile string   `mapstructure:"registry_file" yaml:"registry_file"`
	EnabledRoots []string `mapstructure:"enabled_roots" yaml:"enabled_roots"`
}

// RootEnabled reports whether an API receiver may be attached for root.
func (r ReceiversConfig) RootEnabled(root string) bool {
	for _, enabled := range r.EnabledRoots {
		if strings.EqualFold(enabled, root) {
			return true
		}
	}
	return false
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "uipilot")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Agent --
	v.SetDefault("agent.llm.primary", "openai-primary")
	v.SetDefault("agent.llm.backup", "gemini-backup")
	v.SetDefault("agent.llm.requests_per_minute", 0)
	v.SetDefault("agent.llm.models", map[string]any{
		"openai-primary": map[string]any{
			"provider":    "openai",
			"model":       "gpt-4o",
			"api_timeout": "120s",
			"temperature": 0.0,
			"max_tokens":  2000,
			"pricing": map[string]any{
				"input_per_million":  2.5,
				"output_per_million": 10.0,
			},
		},
		"gemini-backup": map[string]any{
			"provider":    "gemini",
			"model":       "gemini-2.5-flash",
			"api_timeout": "120s",
			"temperature": 0.0,
			"max_tokens":  2000,
			"pricing": map[string]any{
				"input_per_million":  0.3,
				"output_per_million": 2.5,
			},
		},
	})

	// -- Session --
	v.SetDefault("session.log_root", "logs")
	v.SetDefault("session.safe_guard", true)
	v.SetDefault("session.sleep_time", "5s")
	v.SetDefault("session.error_cooldown", "3s")
	v.SetDefault("session.max_step", 30)
	v.SetDefault("session.include_last_screenshot", true)
	v.SetDefault("session.concat_screenshot", true)
	v.SetDefault("session.control_types", []string{
		"Button", "Edit", "TabItem", "Document", "ListItem", "MenuItem",
		"ScrollBar", "TreeItem", "Hyperlink", "ComboBox", "RadioButton",
	})

	// -- RAG --
	v.SetDefault("rag.experience.enabled", false)
	v.SetDefault("rag.experience.top_k", 5)
	v.SetDefault("rag.demonstration.enabled", false)
	v.SetDefault("rag.demonstration.top_k", 5)
	v.SetDefault("rag.offline_docs.enabled", false)
	v.SetDefault("rag.offline_docs.top_k", 1)
	v.SetDefault("rag.online_search.enabled", false)
	v.SetDefault("rag.online_search.top_k", 5)

	// -- Experience --
	v.SetDefault("experience.save_path", "vectordb/experience/experience.yaml")
	v.SetDefault("experience.demonstration_path", "vectordb/demonstration/demonstration.yaml")
	v.SetDefault("experience.docs_path", "vectordb/docs/docs.yaml")
	v.SetDefault("experience.ask_to_save", true)

	// -- Browser --
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.start_url", "about:blank")
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.app_root", "chrome.exe")
	v.SetDefault("browser.timeout", "30s")

	// -- Receivers --
	v.SetDefault("receivers.registry_file", "")
	v.SetDefault("receivers.enabled_roots", []string{"WINWORD.EXE", "chrome.exe"})
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Keys are never required in the config file.
	for name, model := range cfg.AgentCfg.LLM.Models {
		if model.APIKey == "" {
			model.APIKey = apiKeyFromEnv(model.Provider)
			cfg.AgentCfg.LLM.Models[name] = model
		}
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func apiKeyFromEnv(provider LLMProvider) string {
	switch provider {
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ProviderGemini:
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GOOGLE_API_KEY")
	}
	return ""
}

func (c *Config) expandPaths() error {
	paths := []*string{
		&c.LoggerCfg.LogFile,
		&c.SessionCfg.LogRoot,
		&c.ExperienceCfg.SavePath,
		&c.ExperienceCfg.DemonstrationPath,
		&c.ExperienceCfg.DocsPath,
		&c.ReceiversCfg.RegistryFile,
	}
	for _, p := range paths {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.SessionCfg.MaxStep <= 0 {
		return fmt.Errorf("session.max_step must be a positive integer")
	}
	if c.SessionCfg.SleepTime < 0 || c.SessionCfg.ErrorCooldown < 0 {
		return fmt.Errorf("session.sleep_time and session.error_cooldown must not be negative")
	}
	if c.SessionCfg.LogRoot == "" {
		return fmt.Errorf("session.log_root is a required configuration field")
	}
	if err := c.AgentCfg.LLM.Validate(); err != nil {
		return fmt.Errorf("agent.llm configuration invalid: %w", err)
	}
	if err := c.RAGCfg.Validate(); err != nil {
		return fmt.Errorf("rag configuration invalid: %w", err)
	}
	return nil
}

// Validate checks that the primary and backup names point at usable models.
func (l *LLMRouterConfig) Validate() error {
	if l.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute must not be negative")
	}
	if l.Primary == "" {
		return fmt.Errorf("primary model name is required")
	}
	for _, name := range []string{l.Primary, l.Backup} {
		if name == "" {
			continue
		}
		model, ok := l.Models[name]
		if !ok {
			return fmt.Errorf("model %q is not defined under models", name)
		}
		switch model.Provider {
		case ProviderOpenAI, ProviderGemini:
		default:
			return fmt.Errorf("model %q uses unsupported provider %q", name, model.Provider)
		}
		if model.Model == "" {
			return fmt.Errorf("model %q has no model id", name)
		}
	}
	return nil
}

// Validate checks the retrieval settings.
func (r *RAGConfig) Validate() error {
	sources := map[string]RAGSourceConfig{
		"experience":    r.Experience,
		"demonstration": r.Demonstration,
		"offline_docs":  r.OfflineDocs,
		"online_search": r.OnlineSearch,
	}
	for name, src := range sources {
		if src.Enabled && src.TopK <= 0 {
			return fmt.Errorf("%s.top_k must be positive when enabled", name)
		}
	}
	return nil
}
