package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Tool classes used by the default tool-class map. The agent class is the
// one the feature engine counts as agent spawning.
const (
	ClassShell    = "shell"
	ClassRead     = "read"
	ClassEdit     = "edit"
	ClassWrite    = "write"
	ClassSearch   = "search"
	ClassWeb      = "web"
	ClassAgent    = "agent"
	ClassPlanning = "planning"
	ClassOther    = "other"
)

// ErrInvalidConfig is wrapped by every ValidationError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// Thresholds are the cutoffs of the ordered archetype rules.
type Thresholds struct {
	// AdaptiveVarianceMin is inclusive: variance >= value is Adaptive
	AdaptiveVarianceMin float64 `yaml:"adaptive_variance_min"`

	// DelegatorTrustMin is exclusive: trust > value
	DelegatorTrustMin float64 `yaml:"delegator_trust_min"`

	// CouncilTrustMin is exclusive: trust > value
	CouncilTrustMin float64 `yaml:"council_trust_min"`

	// GuardianTrustMax is exclusive: trust < value
	GuardianTrustMax float64 `yaml:"guardian_trust_max"`

	// StrategistTrustMax is exclusive: trust < value
	StrategistTrustMax float64 `yaml:"strategist_trust_max"`

	// SophisticationSplit separates low (< value) from high (>= value) sophistication
	SophisticationSplit float64 `yaml:"sophistication_split"`
}

// RiskTiers groups tool names by risk for the supplementary acceptance rates.
type RiskTiers struct {
	High []string `yaml:"high"`
	Low  []string `yaml:"low"`
}

// SophisticationConfig weights and normalises the sophistication sub-scores.
type SophisticationConfig struct {
	AgentWeight     float64 `yaml:"agent_weight"`
	DiversityWeight float64 `yaml:"diversity_weight"`
	DepthWeight     float64 `yaml:"depth_weight"`

	// AgentRateCeiling is the agent-spawn rate that maps to a full agent score
	AgentRateCeiling float64 `yaml:"agent_rate_ceiling"`

	// DepthFloor and DepthCeiling bound the log-scaled mean session depth
	DepthFloor   float64 `yaml:"depth_floor"`
	DepthCeiling float64 `yaml:"depth_ceiling"`
}

// VarianceConfig controls the cross-context dispersion measure.
type VarianceConfig struct {
	// MinContextTrustEvents is the number of trust-tool events a context
	// needs before its trust level takes part in the dispersion
	MinContextTrustEvents int `yaml:"min_context_trust_events"`

	// RangeCeiling is the trust range across contexts that maps to variance 1.0
	RangeCeiling float64 `yaml:"range_ceiling"`
}

// AnalyticsConfig tunes the supplementary trend and session-arc measures.
type AnalyticsConfig struct {
	// MinEventsPerWeek drops weeks with fewer trust-tool events from the trend
	MinEventsPerWeek int `yaml:"min_events_per_week"`

	// ArcWindow is the number of trust-tool decisions compared at each end of a session
	ArcWindow int `yaml:"arc_window"`

	// ArcMinSessions is how many sessions of at least twice ArcWindow the arc needs
	ArcMinSessions int `yaml:"arc_min_sessions"`

	// ShiftThreshold is the rate change that counts as a trend or an arc
	ShiftThreshold float64 `yaml:"shift_threshold"`
}

// FeatureConfig configures the feature engine.
type FeatureConfig struct {
	// MinEvents below which a classification is marked low-confidence
	MinEvents int `yaml:"min_events"`

	// TrustTools are the high-risk tool names trust_level is computed over
	TrustTools []string `yaml:"trust_tools"`

	RiskTiers RiskTiers `yaml:"risk_tiers"`

	// ToolClasses maps tool names to tool classes; the set of classes is the
	// vocabulary tool diversity is measured against
	ToolClasses map[string]string `yaml:"tool_classes"`

	// SnapJudgmentMS is the decision time under which a decision counts as a snap judgment
	SnapJudgmentMS int64 `yaml:"snap_judgment_ms"`

	Sophistication SophisticationConfig `yaml:"sophistication"`
	Variance       VarianceConfig       `yaml:"variance"`
	Analytics      AnalyticsConfig      `yaml:"analytics"`
}

// AxesConfig holds the verdict cutoffs of the axis independence validator.
type AxesConfig struct {
	// WeakBelow: |r| < value is weak
	WeakBelow float64 `yaml:"weak_below"`

	// StrongAbove: |r| > value is strong, anything between is moderate
	StrongAbove float64 `yaml:"strong_above"`
}

// ShareConfig configures the opt-in aggregate sharing.
type ShareConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token"`
	Timeout  string `yaml:"timeout"`
}

// TimeoutDuration returns the parsed share timeout, defaulting to 10s.
func (s ShareConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(s.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// Config represents suzerain configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogsDir is the Claude Code projects directory holding session logs
	LogsDir string `yaml:"logs_dir"`

	// UserID keys the cached classification; defaults to the OS user name
	UserID string `yaml:"user_id"`

	Thresholds Thresholds    `yaml:"thresholds"`
	Features   FeatureConfig `yaml:"features"`
	Axes       AxesConfig    `yaml:"axes"`
	Share      ShareConfig   `yaml:"share"`
}

// DefaultToolClasses returns the built-in tool-name to tool-class map.
func DefaultToolClasses() map[string]string {
	return map[string]string{
		"Bash":            ClassShell,
		"BashOutput":      ClassShell,
		"KillShell":       ClassShell,
		"Read":            ClassRead,
		"NotebookRead":    ClassRead,
		"Edit":            ClassEdit,
		"MultiEdit":       ClassEdit,
		"NotebookEdit":    ClassEdit,
		"Write":           ClassWrite,
		"Glob":            ClassSearch,
		"Grep":            ClassSearch,
		"LS":              ClassSearch,
		"WebFetch":        ClassWeb,
		"WebSearch":       ClassWeb,
		"Task":            ClassAgent,
		"TaskOutput":      ClassAgent,
		"TodoWrite":       ClassPlanning,
		"AskUserQuestion": ClassPlanning,
		"ExitPlanMode":    ClassPlanning,
	}
}

// DefaultConfig returns a Config with the research defaults
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		LogsDir:  "~/.claude/projects",
		Thresholds: Thresholds{
			AdaptiveVarianceMin: 0.3,
			DelegatorTrustMin:   0.8,
			CouncilTrustMin:     0.7,
			GuardianTrustMax:    0.5,
			StrategistTrustMax:  0.7,
			SophisticationSplit: 0.4,
		},
		Features: FeatureConfig{
			MinEvents:  10,
			TrustTools: []string{"Bash"},
			RiskTiers: RiskTiers{
				High: []string{"Bash", "Write", "Edit", "NotebookEdit"},
				Low:  []string{"Read", "Glob", "Grep", "WebFetch", "WebSearch"},
			},
			ToolClasses:    DefaultToolClasses(),
			SnapJudgmentMS: 500,
			Sophistication: SophisticationConfig{
				AgentWeight:      0.4,
				DiversityWeight:  0.3,
				DepthWeight:      0.3,
				AgentRateCeiling: 0.10,
				DepthFloor:       4,
				DepthCeiling:     1000,
			},
			Variance: VarianceConfig{
				MinContextTrustEvents: 5,
				RangeCeiling:          0.5,
			},
			Analytics: AnalyticsConfig{
				MinEventsPerWeek: 5,
				ArcWindow:        10,
				ArcMinSessions:   3,
				ShiftThreshold:   0.1,
			},
		},
		Axes: AxesConfig{
			WeakBelow:   0.3,
			StrongAbove: 0.5,
		},
		Share: ShareConfig{
			Enabled:  false,
			Endpoint: "https://suzerain.dev/api/v1/profiles",
			Timeout:  "10s",
		},
	}
}

// Load loads configuration from the specified file path.
// A missing file yields the defaults; a malformed file is an error and an
// out-of-range value is a *ValidationError.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromHome loads $SUZERAIN_HOME/config.yaml
func LoadFromHome() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

func (c *Config) applyEnv() {
	if token := os.Getenv("SUZERAIN_SHARE_TOKEN"); token != "" {
		c.Share.Token = token
	}
	if ep := os.Getenv("SUZERAIN_SHARE_ENDPOINT"); ep != "" {
		c.Share.Endpoint = ep
	}
}

// Marshal renders the configuration as YAML. The share token is redacted.
func (c *Config) Marshal() ([]byte, error) {
	redacted := *c
	if redacted.Share.Token != "" {
		redacted.Share.Token = "<redacted>"
	}
	return yaml.Marshal(&redacted)
}

// Validate checks every configurable value and reports all problems at once
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		add("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	th := c.Thresholds
	f := c.Features
	s := f.Sophistication

	// YAML accepts .nan and .inf, which every range check below lets through
	floats := map[string]float64{
		"thresholds.adaptive_variance_min":           th.AdaptiveVarianceMin,
		"thresholds.delegator_trust_min":             th.DelegatorTrustMin,
		"thresholds.council_trust_min":               th.CouncilTrustMin,
		"thresholds.guardian_trust_max":              th.GuardianTrustMax,
		"thresholds.strategist_trust_max":            th.StrategistTrustMax,
		"thresholds.sophistication_split":            th.SophisticationSplit,
		"features.sophistication.agent_weight":       s.AgentWeight,
		"features.sophistication.diversity_weight":   s.DiversityWeight,
		"features.sophistication.depth_weight":       s.DepthWeight,
		"features.sophistication.agent_rate_ceiling": s.AgentRateCeiling,
		"features.sophistication.depth_floor":        s.DepthFloor,
		"features.sophistication.depth_ceiling":      s.DepthCeiling,
		"features.variance.range_ceiling":            f.Variance.RangeCeiling,
		"features.analytics.shift_threshold":         f.Analytics.ShiftThreshold,
		"axes.weak_below":                            c.Axes.WeakBelow,
		"axes.strong_above":                          c.Axes.StrongAbove,
	}
	for _, name := range sortedKeys(floats) {
		if v := floats[name]; math.IsNaN(v) || math.IsInf(v, 0) {
			add("%s must be a finite number, got %g", name, v)
		}
	}

	unit := map[string]float64{
		"thresholds.adaptive_variance_min": th.AdaptiveVarianceMin,
		"thresholds.delegator_trust_min":   th.DelegatorTrustMin,
		"thresholds.council_trust_min":     th.CouncilTrustMin,
		"thresholds.guardian_trust_max":    th.GuardianTrustMax,
		"thresholds.strategist_trust_max":  th.StrategistTrustMax,
		"thresholds.sophistication_split":  th.SophisticationSplit,
	}
	for _, name := range sortedKeys(unit) {
		if v := unit[name]; v < 0 || v > 1 {
			add("%s must be within [0,1], got %g", name, v)
		}
	}
	if th.AdaptiveVarianceMin == 0 {
		add("thresholds.adaptive_variance_min must be > 0, otherwise every vector is Adaptive")
	}
	if th.GuardianTrustMax > th.DelegatorTrustMin {
		add("thresholds.guardian_trust_max (%g) exceeds thresholds.delegator_trust_min (%g)", th.GuardianTrustMax, th.DelegatorTrustMin)
	}
	if th.StrategistTrustMax > th.CouncilTrustMin {
		add("thresholds.strategist_trust_max (%g) exceeds thresholds.council_trust_min (%g)", th.StrategistTrustMax, th.CouncilTrustMin)
	}

	if f.MinEvents < 1 {
		add("features.min_events must be >= 1, got %d", f.MinEvents)
	}
	if len(f.TrustTools) == 0 {
		add("features.trust_tools must name at least one tool")
	}
	low := make(map[string]bool, len(f.RiskTiers.Low))
	for _, name := range f.RiskTiers.Low {
		low[name] = true
	}
	for _, name := range f.RiskTiers.High {
		if low[name] {
			add("tool %q is listed in both features.risk_tiers.high and features.risk_tiers.low", name)
		}
	}
	if len(f.ToolClasses) == 0 {
		add("features.tool_classes must not be empty")
	}
	for tool, class := range f.ToolClasses {
		if strings.TrimSpace(class) == "" {
			add("features.tool_classes[%s] has an empty class", tool)
		}
	}
	if f.SnapJudgmentMS < 0 {
		add("features.snap_judgment_ms must be >= 0, got %d", f.SnapJudgmentMS)
	}

	if s.AgentWeight < 0 || s.DiversityWeight < 0 || s.DepthWeight < 0 {
		add("features.sophistication weights must be >= 0")
	}
	if s.AgentWeight+s.DiversityWeight+s.DepthWeight <= 0 {
		add("features.sophistication weights must not all be zero")
	}
	if s.AgentRateCeiling <= 0 || s.AgentRateCeiling > 1 {
		add("features.sophistication.agent_rate_ceiling must be within (0,1], got %g", s.AgentRateCeiling)
	}
	if s.DepthFloor < 1 {
		add("features.sophistication.depth_floor must be >= 1, got %g", s.DepthFloor)
	}
	if s.DepthCeiling <= s.DepthFloor {
		add("features.sophistication.depth_floor (%g) must be below depth_ceiling (%g)", s.DepthFloor, s.DepthCeiling)
	}

	if f.Variance.MinContextTrustEvents < 1 {
		add("features.variance.min_context_trust_events must be >= 1, got %d", f.Variance.MinContextTrustEvents)
	}
	if f.Variance.RangeCeiling <= 0 || f.Variance.RangeCeiling > 1 {
		add("features.variance.range_ceiling must be within (0,1], got %g", f.Variance.RangeCeiling)
	}

	a := f.Analytics
	if a.MinEventsPerWeek < 1 {
		add("features.analytics.min_events_per_week must be >= 1, got %d", a.MinEventsPerWeek)
	}
	if a.ArcWindow < 1 {
		add("features.analytics.arc_window must be >= 1, got %d", a.ArcWindow)
	}
	if a.ArcMinSessions < 1 {
		add("features.analytics.arc_min_sessions must be >= 1, got %d", a.ArcMinSessions)
	}
	if a.ShiftThreshold < 0 || a.ShiftThreshold > 1 {
		add("features.analytics.shift_threshold must be within [0,1], got %g", a.ShiftThreshold)
	}

	if c.Axes.WeakBelow <= 0 || c.Axes.StrongAbove > 1 || c.Axes.WeakBelow > c.Axes.StrongAbove {
		add("axes.weak_below (%g) and axes.strong_above (%g) must satisfy 0 < weak_below <= strong_above <= 1", c.Axes.WeakBelow, c.Axes.StrongAbove)
	}

	if c.Share.Enabled && c.Share.Endpoint == "" {
		add("share.endpoint cannot be empty when sharing is enabled")
	}
	if c.Share.Timeout != "" {
		if _, err := time.ParseDuration(c.Share.Timeout); err != nil {
			add("invalid share.timeout %q: %v", c.Share.Timeout, err)
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ToolClass returns the configured class of a tool, or ClassOther.
func (f FeatureConfig) ToolClass(tool string) string {
	if class, ok := f.ToolClasses[tool]; ok {
		return class
	}
	return ClassOther
}

// Vocabulary returns the sorted set of known tool classes.
func (f FeatureConfig) Vocabulary() []string {
	seen := make(map[string]bool)
	for _, class := range f.ToolClasses {
		seen[class] = true
	}
	return sortedKeys(seen)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
