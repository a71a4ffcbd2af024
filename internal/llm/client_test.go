package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock_PlainJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, CleanJSONBlock(`{"a":1}`))
}

func TestCleanJSONBlock_JSONFence(t *testing.T) {
	in := "```json\n{\"a\": 1}\n```"
	assert.Equal(t, `{"a": 1}`, CleanJSONBlock(in))
}

func TestCleanJSONBlock_GenericFence(t *testing.T) {
	in := "```\n{\"a\": 1}\n```"
	assert.Equal(t, `{"a": 1}`, CleanJSONBlock(in))
}

func TestCleanJSONBlock_Whitespace(t *testing.T) {
	assert.Equal(t, `{}`, CleanJSONBlock("  {}  \n"))
}

func TestGetModel_FallbackChain(t *testing.T) {
	cfg := &Config{Models: map[ModelTier]string{TierLite: "lite-model"}}
	assert.Equal(t, "lite-model", cfg.GetModel(TierVision))

	cfg.Models[TierStandard] = "standard-model"
	assert.Equal(t, "standard-model", cfg.GetModel(TierVision))

	cfg.Models[TierVision] = "vision-model"
	assert.Equal(t, "vision-model", cfg.GetModel(TierVision))
}

func TestGetModel_Empty(t *testing.T) {
	cfg := &Config{Models: map[ModelTier]string{}}
	assert.Equal(t, "", cfg.GetModel(TierStandard))
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(context.Background(), DefaultConfig(), "")
	assert.Error(t, err)
}
