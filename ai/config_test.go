package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, ProviderComprehend, cfg.Provider)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	assert.Equal(t, "qwen2.5:3b", cfg.Model)
	assert.Equal(t, "en", cfg.LanguageCode)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with options", func(t *testing.T) {
		cfg := NewConfig(
			WithProvider(ProviderOpenAI),
			WithHost("http://custom:8080/v1"),
			WithModel("gpt-4o-mini"),
			WithToken("sk-test"),
			WithLanguageCode("de"),
		)

		assert.Equal(t, ProviderOpenAI, cfg.Provider)
		assert.Equal(t, "http://custom:8080/v1", cfg.Host)
		assert.Equal(t, "gpt-4o-mini", cfg.Model)
		assert.Equal(t, "sk-test", cfg.Token)
		assert.Equal(t, "de", cfg.LanguageCode)
	})
}

func TestConfig_Normalize(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{name: "adds v1", host: "http://localhost:11434", want: "http://localhost:11434/v1"},
		{name: "trailing slash", host: "http://localhost:11434/", want: "http://localhost:11434/v1"},
		{name: "already normalized", host: "http://localhost:11434/v1", want: "http://localhost:11434/v1"},
		{name: "empty stays empty", host: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Provider: " OpenAI ", Host: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.Host)
			assert.Equal(t, ProviderOpenAI, cfg.Provider)
			assert.Equal(t, DefaultLanguageCode, cfg.LanguageCode)
			assert.Equal(t, "none", cfg.Token)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, NewConfig().Validate())
	require.NoError(t, NewConfig(WithProvider(ProviderMock)).Validate())
	require.NoError(t, NewConfig(WithProvider(ProviderOpenAI)).Validate())

	err := NewConfig(WithProvider(ProviderOpenAI), WithModel("")).Validate()
	assert.ErrorContains(t, err, "Model is required")

	err = NewConfig(WithProvider(ProviderOpenAI), WithHost("")).Validate()
	assert.ErrorContains(t, err, "Host is required")

	err = NewConfig(WithProvider("watson")).Validate()
	assert.ErrorContains(t, err, "unknown provider")
}

func TestTruncateUTF8(t *testing.T) {
	assert.Equal(t, "hello", TruncateUTF8("hello", 10))
	assert.Equal(t, "hel", TruncateUTF8("hello", 3))
	// "é" is two bytes; cutting inside it backs off to the rune start.
	assert.Equal(t, "caf", TruncateUTF8("café", 4))
	assert.Equal(t, "café", TruncateUTF8("café", 5))
}
