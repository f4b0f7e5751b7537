package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/v0xg/menusweep/internal/scanner"
)

const (
	DefaultConfigPath = "menusweep.yml"

	envURL          = "MENUSWEEP_URL"
	envUsername     = "MENUSWEEP_USERNAME"
	envPassword     = "MENUSWEEP_PASSWORD"
	envHeadless     = "MENUSWEEP_HEADLESS"
	envOutput       = "MENUSWEEP_OUTPUT"
	envLeafMode     = "MENUSWEEP_LEAF_MODE"
	envSkipSides    = "MENUSWEEP_SKIP_SIDES"
	envPatternsFile = "MENUSWEEP_PATTERNS_FILE"
	envEvidenceDir  = "MENUSWEEP_EVIDENCE_DIR"
	envLogFormat    = "MENUSWEEP_LOG_FORMAT"
	envMetricsFile  = "MENUSWEEP_METRICS_FILE"
	envVerbose      = "MENUSWEEP_VERBOSE"
)

// Leaf action modes.
const (
	LeafModeLeaves = "leaves"
	LeafModeAll    = "all"
)

// Loader merges configuration coming from files, environment variables, and CLI flags.
type Loader struct {
	ConfigPath string
}

// Selectors locate the parts of the application shell.
type Selectors struct {
	SideMenu     string `yaml:"sideMenu"`
	SideButton   string `yaml:"sideButton"`
	TopMenu      string `yaml:"topMenu"`
	LeftMenu     string `yaml:"leftMenu"`
	PanelClass   string `yaml:"panelClass"`
	TreeClass    string `yaml:"treeClass"`
	TreeItem     string `yaml:"treeItem"`
	Label        string `yaml:"label"`
	SearchButton string `yaml:"searchButton"`
	SearchLabel  string `yaml:"searchLabel"`
	CloseTabs    string `yaml:"closeTabs"`

	UserInput     string `yaml:"userInput"`
	PasswordInput string `yaml:"passwordInput"`
	LoginButton   string `yaml:"loginButton"`
	LoginLabel    string `yaml:"loginLabel"`
}

// Timing holds the settle delays and bounded waits.
type Timing struct {
	SideSettle    time.Duration `yaml:"sideSettle"`
	TopSettle     time.Duration `yaml:"topSettle"`
	NodeSettle    time.Duration `yaml:"nodeSettle"`
	PanelSettle   time.Duration `yaml:"panelSettle"`
	SearchVisible time.Duration `yaml:"searchVisible"`
	SearchSettle  time.Duration `yaml:"searchSettle"`
	TabSettle     time.Duration `yaml:"tabSettle"`
	Idle          time.Duration `yaml:"idle"`
	Action        time.Duration `yaml:"action"`
	// ClickRate caps clicks per second; zero means unlimited.
	ClickRate float64 `yaml:"clickRate"`
}

// Evidence configures finding screenshots.
type Evidence struct {
	Enabled    bool          `yaml:"enabled"`
	Dir        string        `yaml:"dir"`
	GIF        string        `yaml:"gif"`
	MaxWidth   uint          `yaml:"maxWidth"`
	FrameDelay time.Duration `yaml:"frameDelay"`
}

// RuntimeConfig contains the fully merged settings of a sweep.
type RuntimeConfig struct {
	URL           string                `yaml:"url"`
	Username      string                `yaml:"username"`
	Password      string                `yaml:"password"`
	Headless      bool                  `yaml:"headless"`
	Width         int                   `yaml:"width"`
	Height        int                   `yaml:"height"`
	ProfileDir    string                `yaml:"profileDir"`
	BlockHTTPS    bool                  `yaml:"blockHTTPS"`
	Output        string                `yaml:"output"`
	LeafMode      string                `yaml:"leafMode"`
	AnomalyPolicy string                `yaml:"anomalyPolicy"`
	SkipSides     []string              `yaml:"skipSides"`
	Selectors     Selectors             `yaml:"selectors"`
	Timing        Timing                `yaml:"timing"`
	Patterns      []scanner.PatternSpec `yaml:"patterns"`
	PatternsFile  string                `yaml:"patternsFile"`
	Evidence      Evidence              `yaml:"evidence"`
	LogFormat     string                `yaml:"logFormat"`
	Verbose       bool                  `yaml:"verbose"`
	MetricsFile   string                `yaml:"metricsFile"`
}

// Overrides captures values coming from env vars or CLI flags.
type Overrides struct {
	URL          string
	Username     string
	Password     string
	Headless     *bool
	ProfileDir   string
	BlockHTTPS   *bool
	Output       string
	LeafMode     string
	SkipSides    []string
	PatternsFile string
	EvidenceDir  string
	EvidenceGIF  string
	LogFormat    string
	Verbose      *bool
	MetricsFile  string
}

// DefaultSelectors match the cl- widget set of the target application.
func DefaultSelectors() Selectors {
	return Selectors{
		SideMenu:      ".right-button-type-common .cl-text",
		SideButton:    `[role="button"]`,
		TopMenu:       ".cl-navigationbar .cl-navigationbar-item",
		LeftMenu:      ".cl-accodion-header, .cl-tree-item",
		PanelClass:    "cl-accodion-header",
		TreeClass:     "cl-tree-item",
		TreeItem:      ".cl-tree-item",
		Label:         ".cl-text",
		SearchButton:  `div[role="button"]`,
		SearchLabel:   "조회",
		CloseTabs:     `div[title="모든 탭 닫기"]`,
		UserInput:     `input[type="text"][title="아이디를 입력하세요."]`,
		PasswordInput: `input[type="password"][title="비밀번호를 입력하세요."]`,
		LoginButton:   `div[role="button"]`,
		LoginLabel:    "Login",
	}
}

// DefaultTiming returns delays tuned for the target UI's animations.
func DefaultTiming() Timing {
	return Timing{
		SideSettle:    100 * time.Millisecond,
		TopSettle:     100 * time.Millisecond,
		NodeSettle:    100 * time.Millisecond,
		PanelSettle:   200 * time.Millisecond,
		SearchVisible: 3 * time.Second,
		SearchSettle:  3 * time.Second,
		TabSettle:     100 * time.Millisecond,
		Idle:          10 * time.Second,
		Action:        10 * time.Second,
	}
}

// DefaultRuntimeConfig returns the baseline configuration when no overrides are provided.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Headless:      true,
		Width:         1600,
		Height:        900,
		BlockHTTPS:    true,
		Output:        "scanResult.json",
		LeafMode:      LeafModeLeaves,
		AnomalyPolicy: "tag",
		Selectors:     DefaultSelectors(),
		Timing:        DefaultTiming(),
		Evidence: Evidence{
			Dir:        "evidence",
			MaxWidth:   1280,
			FrameDelay: 1500 * time.Millisecond,
		},
		LogFormat: "text",
	}
}

// Load resolves the final runtime configuration.
func (l Loader) Load(override Overrides) (RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()
	path := l.ConfigPath
	if path == "" {
		path = DefaultConfigPath
	}

	if fileExists(path) {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.apply(overridesFromEnv())
	cfg.apply(override)
	return cfg, nil
}

// Validate ensures the config contains the minimum required data for a sweep.
func (c RuntimeConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("no target URL configured; provide --url or set %s", envURL)
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid target URL %q", c.URL)
	}
	if c.BlockHTTPS && u.Scheme == "https" {
		return errors.New("target uses https but https requests are blocked; disable blockHTTPS")
	}

	switch c.LeafMode {
	case LeafModeLeaves, LeafModeAll:
	default:
		return fmt.Errorf("leaf mode must be %q or %q (got %q)", LeafModeLeaves, LeafModeAll, c.LeafMode)
	}
	switch c.AnomalyPolicy {
	case "tag", "skip":
	default:
		return fmt.Errorf("anomaly policy must be tag or skip (got %q)", c.AnomalyPolicy)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json (got %q)", c.LogFormat)
	}

	if c.Output == "" {
		return errors.New("output path cannot be empty")
	}
	if c.Selectors.SideMenu == "" || c.Selectors.TopMenu == "" || c.Selectors.LeftMenu == "" {
		return errors.New("side, top and left menu selectors are required")
	}
	if c.Selectors.PanelClass == "" && c.Selectors.TreeClass == "" {
		return errors.New("at least one of panelClass and treeClass is required")
	}

	t := c.Timing
	for name, d := range map[string]time.Duration{
		"sideSettle": t.SideSettle, "topSettle": t.TopSettle, "nodeSettle": t.NodeSettle,
		"panelSettle": t.PanelSettle, "searchVisible": t.SearchVisible, "searchSettle": t.SearchSettle,
		"tabSettle": t.TabSettle, "idle": t.Idle, "action": t.Action,
	} {
		if d < 0 {
			return fmt.Errorf("timing %s cannot be negative (got %s)", name, d)
		}
	}
	if t.ClickRate < 0 {
		return fmt.Errorf("click rate cannot be negative (got %g)", t.ClickRate)
	}
	return nil
}

// Registry builds the pattern registry: inline patterns win over the
// patterns file, which wins over the built-in defaults.
func (c RuntimeConfig) Registry() (*scanner.Registry, error) {
	specs := c.Patterns
	if len(specs) == 0 && c.PatternsFile != "" {
		loaded, err := scanner.LoadSpecs(c.PatternsFile)
		if err != nil {
			return nil, err
		}
		specs = loaded
	}
	if len(specs) == 0 {
		specs = scanner.DefaultPatterns()
	}
	return scanner.NewRegistry(specs)
}

func (c *RuntimeConfig) apply(src Overrides) {
	if src.URL != "" {
		c.URL = src.URL
	}
	if src.Username != "" {
		c.Username = src.Username
	}
	if src.Password != "" {
		c.Password = src.Password
	}
	if src.Headless != nil {
		c.Headless = *src.Headless
	}
	if src.ProfileDir != "" {
		c.ProfileDir = src.ProfileDir
	}
	if src.BlockHTTPS != nil {
		c.BlockHTTPS = *src.BlockHTTPS
	}
	if src.Output != "" {
		c.Output = src.Output
	}
	if src.LeafMode != "" {
		c.LeafMode = src.LeafMode
	}
	if len(src.SkipSides) > 0 {
		c.SkipSides = cleanList(src.SkipSides)
	}
	if src.PatternsFile != "" {
		c.PatternsFile = src.PatternsFile
		c.Patterns = nil
	}
	if src.EvidenceDir != "" {
		c.Evidence.Dir = src.EvidenceDir
		c.Evidence.Enabled = true
	}
	if src.EvidenceGIF != "" {
		c.Evidence.GIF = src.EvidenceGIF
		c.Evidence.Enabled = true
	}
	if src.LogFormat != "" {
		c.LogFormat = src.LogFormat
	}
	if src.Verbose != nil {
		c.Verbose = *src.Verbose
	}
	if src.MetricsFile != "" {
		c.MetricsFile = src.MetricsFile
	}
}

func overridesFromEnv() Overrides {
	ov := Overrides{
		URL:          os.Getenv(envURL),
		Username:     os.Getenv(envUsername),
		Password:     os.Getenv(envPassword),
		Output:       os.Getenv(envOutput),
		LeafMode:     os.Getenv(envLeafMode),
		PatternsFile: os.Getenv(envPatternsFile),
		EvidenceDir:  os.Getenv(envEvidenceDir),
		LogFormat:    os.Getenv(envLogFormat),
		MetricsFile:  os.Getenv(envMetricsFile),
	}
	if value := os.Getenv(envSkipSides); value != "" {
		ov.SkipSides = ParseList(value)
	}
	if value, ok := envBool(envHeadless); ok {
		ov.Headless = &value
	}
	if value, ok := envBool(envVerbose); ok {
		ov.Verbose = &value
	}
	return ov
}

func envBool(name string) (bool, bool) {
	value := os.Getenv(name)
	if value == "" {
		return false, false
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, false
	}
	return parsed, true
}

// ParseList splits comma or newline separated input.
func ParseList(input string) []string {
	return cleanList(strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	}))
}

func cleanList(values []string) []string {
	var out []string
	for _, v := range values {
		candidate := strings.TrimSpace(v)
		if candidate != "" {
			out = append(out, candidate)
		}
	}
	return out
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
