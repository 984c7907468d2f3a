package advisor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type Kind string

const (
	PolicyAdvisor    Kind = "policy"
	Logistics        Kind = "logistics"
	Government       Kind = "government"
	PublicSentiment  Kind = "sentiment"
	FundingEvaluator Kind = "funding"
)

var ErrUnknownKind = errors.New("advisor: unknown prompt kind")

// PromptData fills {{key}} placeholders. Keys without a value stay in the prompt verbatim.
type PromptData map[string]any

var templates = map[Kind]string{
	PolicyAdvisor: `You are a government public health policy advisor. A disease is spreading with the following parameters:
• Infection rate: {{infection_rate}}%
• Vaccination coverage: {{vaccination_rate}}%
• Government response delay: {{response_delay_days}} days
• Population size: {{population_size}}
• Disease: {{disease_name}}

Based on this data, what public health actions should we take immediately to reduce transmission and prevent fatalities? Be specific, concise, and action-oriented.`,

	Logistics: `You are a logistics agent during an active outbreak in Region {{region_name}}.
Here are the latest figures:
• Total infections: {{infection_count}}
• Available hospital beds: {{available_beds}}
• Medical staff: {{available_medics}}
• Medicine stock level: {{medicine_level}}%
• Available funding: {{funding}} ADA

What is the most effective way to distribute resources? Prioritize based on urgency, severity, and potential health impact.`,

	Government: `You are simulating a government response during an epidemic. The current policy (e.g., lockdown or funding) has been delayed by {{policy_delay}} days.
• Disease R₀: {{r0_value}}
• Current active cases: {{active_cases}}
• Fatality rate: {{fatality_rate}}%

What is the projected impact of this delay, and what decisions must be made now to minimize harm?`,

	PublicSentiment: `You are monitoring public sentiment during a pandemic in Region {{region}}.
• Sentiment index: {{sentiment_score}}/10
• Vaccine distrust rate: {{distrust_percentage}}%
• Public compliance: {{compliance_level}}%

Suggest strategies (communication or community engagement) to improve vaccine acceptance and policy trust in this region.`,

	FundingEvaluator: `You are advising a blockchain-based funding distribution system using Masumi testnet.
• Government wallet: {{gov_wallet}} ADA
• NGO wallet: {{ngo_wallet}} ADA
• Urgency level: {{urgency_score}}/10
• Top 3 regional needs: {{regional_needs_summary}}

How should the simulation allocate funding efficiently to maximize medical impact and policy success?`,
}

// Kinds lists the available templates in a stable order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(templates))
	for k := range templates {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func Render(kind Kind, data PromptData) (string, error) {
	tmpl, ok := templates[kind]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownKind, kind)
	}
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{{"+key+"}}", formatValue(value))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl), nil
}

// formatValue keeps JSON numbers out of exponent notation.
func formatValue(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// Ask renders the template for kind and sends it to g.
func Ask(ctx context.Context, g Generator, kind Kind, data PromptData) (prompt, text string, err error) {
	prompt, err = Render(kind, data)
	if err != nil {
		return "", "", err
	}
	text, err = g.Generate(ctx, prompt, "")
	return prompt, text, err
}
