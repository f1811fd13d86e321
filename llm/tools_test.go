package llm

import (
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

func TestConvertMCPTools(t *testing.T) {
	tests := []struct {
		name     string
		input    []mcptypes.Tool
		expected int
		validate func(t *testing.T, result []Tool)
	}{
		{
			name:     "empty tools",
			input:    []mcptypes.Tool{},
			expected: 0,
			validate: func(t *testing.T, result []Tool) {
				if result != nil {
					t.Errorf("expected nil, got %d tools", len(result))
				}
			},
		},
		{
			name: "simple tool",
			input: []mcptypes.Tool{
				{
					Name:        "api_request",
					Description: "Call the target API",
					InputSchema: mcptypes.ToolInputSchema{
						Type:       "object",
						Properties: map[string]any{},
					},
				},
			},
			expected: 1,
			validate: func(t *testing.T, result []Tool) {
				if result[0].Type != "function" {
					t.Errorf("expected type 'function', got %q", result[0].Type)
				}
				if result[0].Function.Name != "api_request" {
					t.Errorf("expected name 'api_request', got %q", result[0].Function.Name)
				}
				if result[0].Function.Description != "Call the target API" {
					t.Errorf("description = %q", result[0].Function.Description)
				}
			},
		},
		{
			name: "tool with properties and required",
			input: []mcptypes.Tool{
				{
					Name: "api_request",
					InputSchema: mcptypes.ToolInputSchema{
						Type: "object",
						Properties: map[string]any{
							"method": map[string]any{
								"type": "string",
								"enum": []any{"GET", "POST"},
							},
							"path": map[string]any{"type": "string"},
						},
						Required: []string{"method", "path"},
					},
				},
			},
			expected: 1,
			validate: func(t *testing.T, result []Tool) {
				params := result[0].Function.Parameters
				if params["type"] != "object" {
					t.Errorf("parameters.type = %v", params["type"])
				}
				props, ok := params["properties"].(map[string]any)
				if !ok {
					t.Fatalf("properties type = %T", params["properties"])
				}
				if _, ok := props["method"]; !ok {
					t.Error("method property missing")
				}
				required, ok := params["required"].([]string)
				if !ok || len(required) != 2 {
					t.Errorf("required = %v", params["required"])
				}
			},
		},
		{
			name: "empty required omitted",
			input: []mcptypes.Tool{
				{
					Name: "ping",
					InputSchema: mcptypes.ToolInputSchema{
						Type:       "object",
						Properties: map[string]any{},
						Required:   []string{},
					},
				},
			},
			expected: 1,
			validate: func(t *testing.T, result []Tool) {
				if _, ok := result[0].Function.Parameters["required"]; ok {
					t.Error("empty required list was included")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertMCPTools(tt.input)
			if len(result) != tt.expected {
				t.Fatalf("got %d tools, want %d", len(result), tt.expected)
			}
			tt.validate(t, result)
		})
	}
}
