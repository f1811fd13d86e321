package config

// Preset is a known LLM provider endpoint. All presets speak the
// OpenAI-compatible chat completions protocol; they differ only in
// where they live and whether an API key is expected.
type Preset struct {
	ID      string
	Name    string
	BaseURL string
}

var presets = []Preset{
	{ID: "openai", Name: "OpenAI", BaseURL: "https://api.openai.com/v1"},
	{ID: "anthropic", Name: "Anthropic", BaseURL: "https://api.anthropic.com/v1"},
	{ID: "ollama", Name: "Ollama", BaseURL: "http://localhost:11434/v1"},
	{ID: "lmstudio", Name: "LM Studio", BaseURL: "http://localhost:1234/v1"},
	{ID: "vllm", Name: "vLLM", BaseURL: "http://localhost:8000/v1"},
	{ID: "azure", Name: "Azure OpenAI", BaseURL: "https://YOUR_RESOURCE_NAME.openai.azure.com/openai/deployments/YOUR_DEPLOYMENT"},
	{ID: "custom", Name: "Custom", BaseURL: ""},
}

// Presets returns the provider presets in display order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// PresetByID looks up a preset, falling back to "custom" for unknown IDs.
func PresetByID(id string) Preset {
	for _, p := range presets {
		if p.ID == id {
			return p
		}
	}
	return presets[len(presets)-1]
}
