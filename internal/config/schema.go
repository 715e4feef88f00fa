package config

import "time"

// GateConfig is the top level of configs/gate.yaml.
type GateConfig struct {
	Gate GateSettings `yaml:"gate"`
}

// GateSettings holds the prompt template and the model parameters used for every evaluation.
// The prompt is a text/template rendered with PromptData.
type GateSettings struct {
	Prompt  string        `yaml:"prompt"`
	Model   ModelConfig   `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type ModelConfig struct {
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"`
}

// PromptData is what the prompt template sees.
type PromptData struct {
	Message string
}
