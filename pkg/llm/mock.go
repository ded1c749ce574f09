package llm

import "context"

// MockGenerator is a configurable mock for testing dispatch and service
// logic. Set GenerateFunc to control behavior.
type MockGenerator struct {
	// GenerateFunc is called when Generate is invoked. If nil, returns an
	// empty string and nil error.
	GenerateFunc func(ctx context.Context, prompt string, apiKey string) (string, error)

	// ModelName is returned by Model. Defaults to "mock-model".
	ModelName string

	// Call tracking for verification.
	GenerateCalls int
	PromptsSeen   []string
	KeysSeen      []string
}

// Generate implements Generator.
func (m *MockGenerator) Generate(ctx context.Context, prompt string, apiKey string) (string, error) {
	m.GenerateCalls++
	m.PromptsSeen = append(m.PromptsSeen, prompt)
	m.KeysSeen = append(m.KeysSeen, apiKey)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, apiKey)
	}
	return "", nil
}

// Model implements Generator.
func (m *MockGenerator) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

// Ensure MockGenerator implements Generator at compile time.
var _ Generator = (*MockGenerator)(nil)
