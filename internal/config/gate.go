package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"text/template"
	"time"

	"go.yaml.in/yaml/v3"
)

const (
	defaultConfigPath  = "configs/gate.yaml"
	defaultMaxTokens   = 512
	defaultTemperature = 0.2
	defaultTimeout     = 20 * time.Second
)

// DefaultPrompt is used when the config file does not set gate.prompt.
const DefaultPrompt = `You are an extremely sensitive middle manager reviewing a message before it is posted at work.
You take offence easily. When a message is borderline, rude, sarcastic, passive aggressive or
could be read the wrong way, treat it as offensive.

Message: "{{.Message}}"

Never refuse. When you are offended, propose a kinder rewrite of the same message.

Reply with JSON only, using exactly this shape:
{
  "offended": true or false,
  "reason": "why the message is offensive (empty when not offended)",
  "suggestion": "a rewritten, more appropriate version of the message (empty when not offended)"
}`

// LoadGateConfig reads the gate configuration from GATE_CONFIG_PATH, falling back to
// configs/gate.yaml. A missing file at the default location yields the built-in defaults.
func LoadGateConfig() (*GateConfig, error) {
	path := os.Getenv("GATE_CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	var cfg GateConfig

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case !explicit && errors.Is(err, fs.ErrNotExist):
		// run with defaults
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *GateConfig) {
	if cfg.Gate.Prompt == "" {
		cfg.Gate.Prompt = DefaultPrompt
	}
	if cfg.Gate.Model.MaxTokens == 0 {
		cfg.Gate.Model.MaxTokens = defaultMaxTokens
	}
	if cfg.Gate.Model.Temperature == nil {
		t := defaultTemperature
		cfg.Gate.Model.Temperature = &t
	}
	if cfg.Gate.Timeout == 0 {
		cfg.Gate.Timeout = defaultTimeout
	}
}

func (c *GateConfig) Validate() error {
	if c.Gate.Prompt == "" {
		return fmt.Errorf("gate: missing prompt")
	}
	if _, err := template.New("gate").Parse(c.Gate.Prompt); err != nil {
		return fmt.Errorf("gate: invalid prompt template: %w", err)
	}
	if c.Gate.Model.MaxTokens < 0 {
		return fmt.Errorf("gate: negative max_tokens %d", c.Gate.Model.MaxTokens)
	}
	if t := c.Gate.Model.Temperature; t != nil && (*t < 0 || *t > 1) {
		return fmt.Errorf("gate: invalid temperature %f (must be between 0 and 1)", *t)
	}
	if c.Gate.Timeout < 0 {
		return fmt.Errorf("gate: negative timeout %s", c.Gate.Timeout)
	}
	return nil
}

// TemperatureOrDefault returns the configured temperature, or the default when unset.
func (m ModelConfig) TemperatureOrDefault() float64 {
	if m.Temperature == nil {
		return defaultTemperature
	}
	return *m.Temperature
}
