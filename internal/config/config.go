package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "SMART_FEEDS_CONFIG"
	timezoneEnv     = "SMART_FEEDS_TIMEZONE"
	workspaceEnv    = "WORKSPACE_DIR"
	inputDirEnv     = "INPUT_DIR"
	outputDirEnv    = "OUTPUT_DIR"
	browserDirEnv   = "BROWSER_USER_DATA_DIR"
	modelEnv        = "MODEL_ID"
	languageEnv     = "OUTPUT_LANGUAGE"
	llmAPIKeyEnv    = "LLM_API_KEY"
	openAIKeyEnv    = "OPENAI_API_KEY"
	llmEndpointEnv  = "LLM_ENDPOINT"
	retryMaxEnv     = "RETRY_MAX_ATTEMPTS"
	retryDelayEnv   = "RETRY_DELAY_SECONDS"
	databaseDSNEnv  = "DATABASE_DSN"
	telegramToken   = "TELEGRAM_BOT_TOKEN"
	telegramChatID  = "TELEGRAM_CHAT_ID"
)

// Provider names for the classifier and synthesizer capabilities.
const (
	ProviderLLM       = "llm"
	ProviderInference = "inference"
	ProviderPlain     = "plain"
)

// Storage backends.
const (
	DriverMarkdown = "markdown"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds high-level settings required across the application.
type Config struct {
	Workspace     WorkspaceConfig    `yaml:"workspace"`
	Logging       LoggingConfig      `yaml:"logging"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Fetch         FetchConfig        `yaml:"fetch"`
	Browser       BrowserConfig      `yaml:"browser"`
	Storage       StorageConfig      `yaml:"storage"`
	Dedup         DedupConfig        `yaml:"dedup"`
	Providers     ProviderConfig     `yaml:"providers"`
	LLM           LLMConfig          `yaml:"llm"`
	ML            MLConfig           `yaml:"ml"`
	Notifications NotificationConfig `yaml:"notifications"`
	Server        ServerConfig       `yaml:"server"`
}

// WorkspaceConfig locates inputs (sources, interests, browser profile) and outputs.
type WorkspaceConfig struct {
	Dir       string `yaml:"dir"`
	InputDir  string `yaml:"inputDir"`
	OutputDir string `yaml:"outputDir"`
}

// LoggingConfig selects verbosity and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SchedulerConfig defines the day-key time zone and daemon cadence.
type SchedulerConfig struct {
	Timezone            string         `yaml:"timezone"`
	Interval            time.Duration  `yaml:"interval"`
	SummarizeAfterFetch bool           `yaml:"summarizeAfterFetch"`
	location            *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// FetchConfig tunes the Fetch Phase.
type FetchConfig struct {
	Concurrency     int           `yaml:"concurrency"`
	SourceTimeout   time.Duration `yaml:"sourceTimeout"`
	AppendAttempts  int           `yaml:"appendAttempts"`
	AppendBackoff   time.Duration `yaml:"appendBackoff"`
	UserAgent       string        `yaml:"userAgent"`
	FeedLimit       int           `yaml:"feedLimit"`
	MaxItemsPerPage int           `yaml:"maxItemsPerPage"`
}

// BrowserConfig drives the session-persistent browser transport.
type BrowserConfig struct {
	UserDataDir       string        `yaml:"userDataDir"`
	Headless          bool          `yaml:"headless"`
	RemoteURL         string        `yaml:"remoteURL"`
	Proxy             string        `yaml:"proxy"`
	Scrolls           int           `yaml:"scrolls"`
	NavigationTimeout time.Duration `yaml:"navigationTimeout"`
}

// StorageConfig selects the record and digest backend.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// DedupConfig controls the cross-run seen-URL ledger.
type DedupConfig struct {
	SeenLedger bool `yaml:"seenLedger"`
	MaxEntries int  `yaml:"maxEntries"`
}

// ProviderConfig picks the implementation behind each external capability.
type ProviderConfig struct {
	Classifier  string `yaml:"classifier"`
	Synthesizer string `yaml:"synthesizer"`
}

// LLMConfig defines how to contact an OpenAI-compatible chat API.
type LLMConfig struct {
	Endpoint          string        `yaml:"endpoint"`
	Model             string        `yaml:"model"`
	APIKey            string        `yaml:"apiKey"`
	OutputLanguage    string        `yaml:"outputLanguage"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
	RetryMaxAttempts  int           `yaml:"retryMaxAttempts"`
	RetryDelay        time.Duration `yaml:"retryDelay"`
	Timeout           time.Duration `yaml:"timeout"`
}

// MLConfig describes the JSON inference-service integration.
type MLConfig struct {
	InferenceURL string `yaml:"inferenceUrl"`
	APIKey       string `yaml:"apiKey"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Enabled reports whether both credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads YAML configuration located by SMART_FEEDS_CONFIG (if present) and applies environment overrides.
func Load() Config {
	return LoadFrom(os.Getenv(configPathEnv))
}

// LoadFrom reads YAML configuration from path (if non-empty) and applies environment overrides.
func LoadFrom(path string) Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: cannot load .env: %v", err)
	}

	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			merged, err := mergeConfig(cfg, raw)
			if err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = merged
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.applyFloors()
	cfg.bindTimezone()

	return cfg
}

// InputDir resolves the inputs directory under the workspace.
func (c Config) InputDir() string {
	return c.resolve(c.Workspace.InputDir)
}

// OutputDir resolves the outputs directory under the workspace.
func (c Config) OutputDir() string {
	return c.resolve(c.Workspace.OutputDir)
}

// SourcesPath is the TOML file listing websites and feeds.
func (c Config) SourcesPath() string {
	return filepath.Join(c.InputDir(), "sources.toml")
}

// InterestsPath is the free-form interest profile.
func (c Config) InterestsPath() string {
	return filepath.Join(c.InputDir(), "interests.md")
}

// BrowserUserDataDir returns the persistent browser profile directory.
func (c Config) BrowserUserDataDir() string {
	if c.Browser.UserDataDir != "" {
		return c.resolve(c.Browser.UserDataDir)
	}
	return filepath.Join(c.InputDir(), "browser")
}

// SeenLedgerPath is the file holding hashes of already judged URLs.
func (c Config) SeenLedgerPath() string {
	return filepath.Join(c.OutputDir(), "seen_urls.txt")
}

func (c Config) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	workspace := c.Workspace.Dir
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, dir)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(workspaceEnv); v != "" {
		c.Workspace.Dir = v
	}
	if v := os.Getenv(inputDirEnv); v != "" {
		c.Workspace.InputDir = v
	}
	if v := os.Getenv(outputDirEnv); v != "" {
		c.Workspace.OutputDir = v
	}
	if v := os.Getenv(browserDirEnv); v != "" {
		c.Browser.UserDataDir = v
	}
	if v := os.Getenv(timezoneEnv); v != "" {
		c.Scheduler.Timezone = v
	}

	if v := os.Getenv(modelEnv); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv(languageEnv); v != "" {
		c.LLM.OutputLanguage = v
	}
	if v := os.Getenv(llmEndpointEnv); v != "" {
		c.LLM.Endpoint = v
	}
	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	} else if v := os.Getenv(openAIKeyEnv); v != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(retryMaxEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LLM.RetryMaxAttempts = n
		} else {
			log.Printf("config: ignoring %s=%q: %v", retryMaxEnv, v, err)
		}
	}
	if v := os.Getenv(retryDelayEnv); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil {
			c.LLM.RetryDelay = time.Duration(secs * float64(time.Second))
		} else {
			log.Printf("config: ignoring %s=%q: %v", retryDelayEnv, v, err)
		}
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Storage.DSN = v
	}

	if v := os.Getenv(telegramToken); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatID); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) applyFloors() {
	if c.Fetch.Concurrency < 1 {
		c.Fetch.Concurrency = 1
	}
	if c.Fetch.AppendAttempts < 1 {
		c.Fetch.AppendAttempts = 1
	}
	if c.LLM.RetryMaxAttempts < 0 {
		c.LLM.RetryMaxAttempts = 0
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

// mergeConfig decodes raw YAML over a copy of base; keys absent from the
// file keep their base values.
func mergeConfig(base Config, raw []byte) (Config, error) {
	merged := base
	if err := yaml.Unmarshal(raw, &merged); err != nil {
		return base, err
	}
	return merged, nil
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Workspace: WorkspaceConfig{Dir: ".", InputDir: "inputs", OutputDir: "data"},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Scheduler: SchedulerConfig{
			Timezone:            defaultTimezone,
			Interval:            6 * time.Hour,
			SummarizeAfterFetch: true,
			location:            tz,
		},
		Fetch: FetchConfig{
			Concurrency:     1,
			SourceTimeout:   2 * time.Minute,
			AppendAttempts:  3,
			AppendBackoff:   500 * time.Millisecond,
			UserAgent:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
			FeedLimit:       5,
			MaxItemsPerPage: 50,
		},
		Browser: BrowserConfig{
			Headless:          true,
			Scrolls:           0,
			NavigationTimeout: 60 * time.Second,
		},
		Storage:   StorageConfig{Driver: DriverMarkdown},
		Dedup:     DedupConfig{SeenLedger: true, MaxEntries: 100000},
		Providers: ProviderConfig{Classifier: ProviderLLM, Synthesizer: ProviderLLM},
		LLM: LLMConfig{
			Endpoint:          "https://api.openai.com/v1/chat/completions",
			Model:             "gpt-4o-mini",
			OutputLanguage:    "English",
			RequestsPerSecond: 1,
			RetryMaxAttempts:  8,
			RetryDelay:        5 * time.Second,
			Timeout:           60 * time.Second,
		},
		ML:     MLConfig{InferenceURL: "", APIKey: ""},
		Server: ServerConfig{Addr: ":8080"},
	}
}
