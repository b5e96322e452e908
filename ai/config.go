// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"errors"
	"fmt"
	"strings"
)

// Classifier backends.
const (
	ProviderComprehend = "comprehend"
	ProviderOpenAI     = "openai"
	ProviderMock       = "mock"
)

// Config holds configuration for the sentiment classifier.
type Config struct {
	// Provider selects the backend: "comprehend", "openai" or "mock".
	Provider string `yaml:"provider"`

	// Host is the base URL of an OpenAI-compatible API.
	// Example: "http://localhost:11434/v1" for a local server
	Host string `yaml:"host"`

	// Model is the chat model used for classification.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	Model string `yaml:"model"`

	// Token authenticates against the API. Local servers accept "none".
	Token string `yaml:"token"`

	// LanguageCode is passed with every request unless a caller overrides it.
	// Default: "en"
	LanguageCode string `yaml:"languageCode"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider sets the classifier backend.
func WithProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

// WithHost sets the OpenAI-compatible host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the classifier model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithToken sets the API token.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// WithLanguageCode sets the default language code.
func WithLanguageCode(code string) ConfigOption {
	return func(c *Config) {
		c.LanguageCode = code
	}
}

// DefaultConfig returns a Config that classifies with Amazon Comprehend and
// carries defaults for a local OpenAI-compatible service.
func DefaultConfig() *Config {
	return &Config{
		Provider:     ProviderComprehend,
		Host:         "http://localhost:11434/v1",
		Model:        "qwen2.5:3b",
		Token:        "none",
		LanguageCode: DefaultLanguageCode,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the host if missing, which is required by most
// OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/") + "/v1"
	}
	if c.LanguageCode == "" {
		c.LanguageCode = DefaultLanguageCode
	}
	if c.Token == "" {
		c.Token = "none"
	}
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Provider {
	case ProviderComprehend, ProviderMock:
	case ProviderOpenAI:
		if c.Host == "" {
			return errors.New("ai config: Host is required")
		}
		if c.Model == "" {
			return errors.New("ai config: Model is required")
		}
	default:
		return fmt.Errorf("ai config: unknown provider %q", c.Provider)
	}
	return nil
}
