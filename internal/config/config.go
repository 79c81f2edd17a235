package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig holds the complete application configuration
type AppConfig struct {
	Scraper ScraperConfig `yaml:"scraper"`
	IO      IOConfig      `yaml:"io"`
	Monkey  MonkeyConfig  `yaml:"monkey"`
	Forms   FormsConfig   `yaml:"forms"`
	Capture CaptureConfig `yaml:"capture"`
	Loader  LoaderConfig  `yaml:"loader"`
	Report  ReportConfig  `yaml:"report"`
	Proxies ProxyConfig   `yaml:"proxies"`
	Browser BrowserConfig `yaml:"browser"`
	Logger  LoggerConfig  `yaml:"logger"`
}

// ScraperConfig holds the session scheduling configuration
type ScraperConfig struct {
	Workers    int      `yaml:"workers"`
	UserAgents []string `yaml:"user_agents,omitempty"`
}

// IOConfig holds the input/output configuration
type IOConfig struct {
	InputFile    string   `yaml:"input_file"`
	Targets      []string `yaml:"targets"`
	OutputFile   string   `yaml:"output_file"`
	OutputFormat string   `yaml:"output_format"`
}

// MonkeyConfig holds the fuzz session timing and horde setup
type MonkeyConfig struct {
	Duration           time.Duration `yaml:"duration"`
	ScreenshotInterval time.Duration `yaml:"screenshot_interval"`
	NavigateInterval   time.Duration `yaml:"navigate_interval"`
	InteractInterval   time.Duration `yaml:"interact_interval"`
	HordeDelay         time.Duration `yaml:"horde_delay"`
	Engine             string        `yaml:"engine"`
	Species            []string      `yaml:"species"`
	Seed               int64         `yaml:"seed"`
}

// FormsConfig holds the form seeding literals
type FormsConfig struct {
	WaitTimeout  time.Duration `yaml:"wait_timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Email        string        `yaml:"email"`
	Password     string        `yaml:"password"`
	Placeholder  string        `yaml:"placeholder"`
}

// CaptureConfig holds the console capture rules
type CaptureConfig struct {
	Suppress []string `yaml:"suppress"`
}

// LoaderConfig holds the external script bootstrap configuration
type LoaderConfig struct {
	Scripts    []string      `yaml:"scripts"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// ReportConfig holds the PDF report layout and destination
type ReportConfig struct {
	Prefix         string  `yaml:"prefix"`
	OutputDir      string  `yaml:"output_dir"`
	JSON           bool    `yaml:"json"`
	PageBreakText  float64 `yaml:"page_break_text"`
	PageBreakImage float64 `yaml:"page_break_image"`
}

// ProxyConfig holds the proxy configuration
type ProxyConfig struct {
	Enabled bool     `yaml:"enabled"`
	Rotate  bool     `yaml:"rotate"`
	List    []string `yaml:"list"`
	Auth    struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"auth"`
}

// BrowserConfig holds the Chrome launch configuration
type BrowserConfig struct {
	Headless     bool   `yaml:"headless"`
	UserAgent    string `yaml:"user_agent"`
	WindowWidth  int    `yaml:"window_width"`
	WindowHeight int    `yaml:"window_height"`
	ExecPath     string `yaml:"exec_path"`
}

// LoggerConfig holds the logging configuration
type LoggerConfig struct {
	Level       string      `yaml:"level"`
	Format      string      `yaml:"format"`
	AddSource   bool        `yaml:"add_source"`
	ServiceName string      `yaml:"service_name"`
	LogFile     string      `yaml:"log_file"`
	MaxSize     int         `yaml:"max_size"`
	MaxBackups  int         `yaml:"max_backups"`
	MaxAge      int         `yaml:"max_age"`
	Compress    bool        `yaml:"compress"`
	Colors      ColorConfig `yaml:"colors"`
}

// ColorConfig maps log levels to terminal colour names
type ColorConfig struct {
	Debug string `yaml:"debug"`
	Info  string `yaml:"info"`
	Warn  string `yaml:"warn"`
	Error string `yaml:"error"`
}

// Load loads the configuration from a YAML file on top of the defaults
func Load(filename string) (*AppConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	// Set default user agents if none provided
	if len(config.Scraper.UserAgents) == 0 {
		config.Scraper.UserAgents = DefaultUserAgents
	}

	return config, nil
}

// Default creates the default configuration
func Default() *AppConfig {
	return &AppConfig{
		Scraper: ScraperConfig{
			Workers:    1,
			UserAgents: DefaultUserAgents,
		},
		IO: IOConfig{
			OutputFile:   "results.json",
			OutputFormat: "json",
		},
		Monkey: MonkeyConfig{
			Duration:           DefaultDuration,
			ScreenshotInterval: DefaultScreenshotInterval,
			NavigateInterval:   DefaultNavigateInterval,
			InteractInterval:   DefaultInteractInterval,
			HordeDelay:         DefaultHordeDelay,
			Engine:             EngineGremlins,
			Species:            append([]string(nil), DefaultSpecies...),
		},
		Forms: FormsConfig{
			WaitTimeout:  DefaultFormWait,
			PollInterval: DefaultFormPoll,
			Email:        DefaultEmail,
			Password:     DefaultPassword,
			Placeholder:  DefaultPlaceholder,
		},
		Capture: CaptureConfig{
			Suppress: []string{DefaultSuppression},
		},
		Loader: LoaderConfig{
			Scripts:    append([]string(nil), DefaultScripts...),
			RetryDelay: 2 * time.Second,
		},
		Report: ReportConfig{
			Prefix:         DefaultReportPrefix,
			OutputDir:      ".",
			PageBreakText:  270,
			PageBreakImage: 250,
		},
		Proxies: ProxyConfig{
			Rotate: true,
			List:   []string{},
		},
		Browser: BrowserConfig{
			Headless:     true,
			UserAgent:    DefaultUserAgents[0],
			WindowWidth:  1366,
			WindowHeight: 900,
		},
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "spa-monkey",
			MaxSize:     10,
			MaxBackups:  3,
			MaxAge:      7,
			Colors: ColorConfig{
				Debug: "cyan",
				Info:  "green",
				Warn:  "yellow",
				Error: "red",
			},
		},
	}
}

// Validate checks the configuration for values the session cannot run with
func (c *AppConfig) Validate() error {
	if c.Scraper.Workers < 1 {
		return fmt.Errorf("scraper.workers must be at least 1, got %d", c.Scraper.Workers)
	}
	if c.Monkey.Duration < 0 {
		return fmt.Errorf("monkey.duration must not be negative, got %v", c.Monkey.Duration)
	}
	intervals := map[string]time.Duration{
		"monkey.screenshot_interval": c.Monkey.ScreenshotInterval,
		"monkey.navigate_interval":   c.Monkey.NavigateInterval,
		"monkey.interact_interval":   c.Monkey.InteractInterval,
		"monkey.horde_delay":         c.Monkey.HordeDelay,
		"forms.poll_interval":        c.Forms.PollInterval,
	}
	for name, d := range intervals {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, d)
		}
	}
	if c.Forms.WaitTimeout < 0 {
		return fmt.Errorf("forms.wait_timeout must not be negative, got %v", c.Forms.WaitTimeout)
	}
	switch c.Monkey.Engine {
	case EngineGremlins, EngineNative:
	default:
		return fmt.Errorf("unknown monkey.engine %q", c.Monkey.Engine)
	}
	if len(c.Monkey.Species) == 0 {
		return fmt.Errorf("monkey.species must not be empty")
	}
	for _, s := range c.Monkey.Species {
		if !isKnownSpecies(s) {
			return fmt.Errorf("unknown species %q", s)
		}
	}
	if c.Report.Prefix == "" {
		return fmt.Errorf("report.prefix must not be empty")
	}
	return nil
}

func isKnownSpecies(name string) bool {
	for _, s := range DefaultSpecies {
		if s == name {
			return true
		}
	}
	return false
}
