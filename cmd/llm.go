package cmd

import (
	"github.com/spf13/viper"

	"github.com/joescharf/discissue/internal/llm"
)

// newLLMClient creates an LLM client from config/env, or returns nil if no API key is configured.
func newLLMClient() *llm.Client {
	apiKey := viper.GetString("anthropic.api_key")
	if apiKey == "" {
		return nil
	}
	return llm.NewClient(apiKey, viper.GetString("anthropic.model"),
		llm.WithMaxTokens(viper.GetInt("anthropic.max_tokens")))
}
