package advisor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingGenerator struct {
	prompt string
	text   string
	err    error
}

func (g *recordingGenerator) Generate(_ context.Context, prompt, _ string) (string, error) {
	g.prompt = prompt
	return g.text, g.err
}

func TestRenderReplacesPlaceholders(t *testing.T) {
	prompt, err := Render(Government, PromptData{
		"policy_delay":  7,
		"r0_value":      2.5,
		"active_cases":  1200,
		"fatality_rate": 1.4,
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "delayed by 7 days")
	assert.Contains(t, prompt, "Disease R₀: 2.5")
	assert.Contains(t, prompt, "Current active cases: 1200")
	assert.NotContains(t, prompt, "{{")
}

func TestRenderLeavesMissingKeys(t *testing.T) {
	prompt, err := Render(PublicSentiment, PromptData{"region": "Kano"})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Region Kano")
	assert.Contains(t, prompt, "{{sentiment_score}}")
}

func TestRenderUnknownKind(t *testing.T) {
	_, err := Render(Kind("weather"), nil)
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestKinds(t *testing.T) {
	assert.Equal(t, []Kind{FundingEvaluator, Government, Logistics, PolicyAdvisor, PublicSentiment}, Kinds())
}

func TestAsk(t *testing.T) {
	g := &recordingGenerator{text: "allocate to Region A"}
	prompt, text, err := Ask(context.Background(), g, FundingEvaluator, PromptData{"gov_wallet": 2500000})
	require.NoError(t, err)
	assert.Equal(t, "allocate to Region A", text)
	assert.Equal(t, prompt, g.prompt)
	assert.Contains(t, prompt, "Government wallet: 2500000 ADA")

	g.err = errors.New("quota")
	_, _, err = Ask(context.Background(), g, FundingEvaluator, nil)
	require.EqualError(t, err, "quota")
}

func TestGeminiRequiresKey(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), "", "")
	require.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = Unconfigured{}.Generate(context.Background(), "hi", "")
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestRenderFormatsJSONNumbers(t *testing.T) {
	prompt, err := Render(FundingEvaluator, PromptData{"gov_wallet": 2500000.0, "urgency_score": 8.5})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Government wallet: 2500000 ADA")
	assert.Contains(t, prompt, "Urgency level: 8.5/10")
}
