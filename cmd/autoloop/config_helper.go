package main

import (
	"github.com/ChamsBouzaiene/autoloop/internal/config"
	"github.com/ChamsBouzaiene/autoloop/internal/providers"
)

// providerEnv returns a lookup for the provider factory. Variables set in the
// environment win; the saved config fills the provider's key and base URL
// otherwise.
func providerEnv(cfg *config.Config, getenv func(string) string) func(string) string {
	keyVar, _, baseURLVar, _ := providers.EnvVars(cfg.LLMProvider)
	return func(name string) string {
		if v := getenv(name); v != "" {
			return v
		}
		switch {
		case name == "LLM_PROVIDER":
			return cfg.LLMProvider
		case name == keyVar && keyVar != "":
			return cfg.APIKey
		case name == baseURLVar && baseURLVar != "":
			return cfg.BaseURL
		}
		return ""
	}
}
