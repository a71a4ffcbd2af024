// Package llm provides centralized model configuration and client
// abstractions for text, JSON, and vision generation.
package llm

// ModelTier represents the capability level required for a task.
type ModelTier string

const (
	// TierLite is for simple tasks: classification, extraction.
	TierLite ModelTier = "lite"
	// TierStandard is for moderate reasoning: structured content generation.
	TierStandard ModelTier = "standard"
	// TierVision is for image-grounded tasks: screenshot layout review.
	TierVision ModelTier = "vision"
)

// Config holds the model selection per tier.
type Config struct {
	Models map[ModelTier]string
}

// DefaultConfig returns the default Gemini model mapping.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierVision:   "gemini-2.5-flash",
		},
	}
}

// GetModel returns the model name for a tier, falling back to the standard
// tier and then the lite tier when no mapping exists.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}
