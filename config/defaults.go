package config

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/apitui",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		LLM: LLMConfig{
			Provider:    "openai",
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4",
			MaxTokens:   4096,
			Temperature: 0.7,
		},
		Target: TargetConfig{
			BaseURL: "http://localhost:8000",
		},
		Tools: ToolsConfig{
			Enabled:     true,
			AutoExecute: false,
		},
	}
}

func GenerateSystemConfigTemplate() string {
	return `# apitui System Configuration
# Location: ~/.config/apitui/settings.toml
# This file uses TOML format: https://toml.io

# Directory where chat state and user config are stored
data_directory = "~/.local/share/apitui"
`
}

func GenerateUserConfigTemplate() string {
	return `# apitui User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

[llm]
# Provider preset: openai | anthropic | ollama | lmstudio | vllm | azure | custom
provider = "openai"

# Any OpenAI-compatible chat completions endpoint
base_url = "https://api.openai.com/v1"

# API key for the LLM provider (leave empty for local providers)
api_key = ""

model = "gpt-4"
max_tokens = 4096
temperature = 0.7

[target]
# Base URL of the API the assistant may call with tools
base_url = "http://localhost:8000"

# OpenAPI schema location (defaults to <base_url>/openapi.json)
schema_url = ""

# Bearer token sent with tool requests (separate from the LLM api_key)
bearer_token = ""

[tools]
# Expose the api_request tool to the model
enabled = true

# Execute proposed tool calls without asking for confirmation
auto_execute = false
`
}
