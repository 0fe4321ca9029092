package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"scopevm/pkg/interpreter"
	"scopevm/pkg/report"

	"gopkg.in/yaml.v3"
)

// Config holds the run options that can be set from a YAML file and flags
type Config struct {
	MaxCallDepth          int    `yaml:"max_call_depth"`           // 0 = unlimited
	MaxSteps              int    `yaml:"max_steps"`                // 0 = unlimited
	AbortOnAnalysisErrors bool   `yaml:"abort_on_analysis_errors"` // skip execution after analysis errors
	UnresolvedCall        string `yaml:"unresolved_call"`          // skip | fatal
	Output                string `yaml:"output"`                   // text | yaml
}

// ValidationError aggregates config validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		MaxCallDepth:          interpreter.DefaultMaxCallDepth,
		MaxSteps:              0,
		AbortOnAnalysisErrors: false,
		UnresolvedCall:        interpreter.SkipUnresolved.String(),
		Output:                string(report.Text),
	}
}

// Load reads a YAML config file on top of the defaults
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, fmt.Errorf("config: empty path")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return cfg, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return cfg, fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()

	if err := cfg.decode(file); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", absPath, err)
	}

	return cfg, cfg.Validate()
}

// Parse reads a YAML config from r on top of the defaults
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	if err := cfg.decode(r); err != nil {
		return cfg, fmt.Errorf("config: parse: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c *Config) decode(r io.Reader) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks every field and reports all problems at once
func (c Config) Validate() error {
	var errs ValidationError
	if c.MaxCallDepth < 0 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("max_call_depth must be >= 0, got %d", c.MaxCallDepth))
	}
	if c.MaxSteps < 0 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("max_steps must be >= 0, got %d", c.MaxSteps))
	}
	if _, err := interpreter.ParseUnresolvedCallPolicy(c.UnresolvedCall); err != nil {
		errs.Issues = append(errs.Issues, "unresolved_call: "+err.Error())
	}
	if _, err := report.ParseFormat(c.Output); err != nil {
		errs.Issues = append(errs.Issues, "output: "+err.Error())
	}

	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// InterpreterOptions converts the config into interpreter options
func (c Config) InterpreterOptions() []interpreter.Option {
	policy, _ := interpreter.ParseUnresolvedCallPolicy(c.UnresolvedCall)
	return []interpreter.Option{
		interpreter.WithMaxCallDepth(c.MaxCallDepth),
		interpreter.WithMaxSteps(c.MaxSteps),
		interpreter.WithUnresolvedCallPolicy(policy),
	}
}

// Format returns the configured report format
func (c Config) Format() report.Format {
	f, _ := report.ParseFormat(c.Output)
	return f
}
