package vision

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Provider names accepted by SelectProvider.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderAuto      = "auto"
	ProviderOff       = "off"
)

// SelectProvider decides which backend to build from the configured
// provider name and which API keys are present. It returns "" when vision
// checks should be bypassed. "auto" prefers Anthropic.
func SelectProvider(provider string, hasAnthropicKey, hasGeminiKey bool) (string, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderOff, "none", "":
		return "", nil
	case ProviderAuto:
		switch {
		case hasAnthropicKey:
			return ProviderAnthropic, nil
		case hasGeminiKey:
			return ProviderGemini, nil
		default:
			return "", nil
		}
	case ProviderAnthropic:
		if !hasAnthropicKey {
			return "", eris.New("vision: provider anthropic requires anthropic.key")
		}
		return ProviderAnthropic, nil
	case ProviderGemini:
		if !hasGeminiKey {
			return "", eris.New("vision: provider gemini requires gemini.key")
		}
		return ProviderGemini, nil
	default:
		return "", eris.Errorf("vision: unknown provider %q", provider)
	}
}
