package openapi

import (
	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// ToolName is the function name the model calls to hit the target API.
const ToolName = "api_request"

// RequestTool returns the tool definition exposed to the model for
// executing requests against the documented API.
func RequestTool() mcptypes.Tool {
	return mcptypes.Tool{
		Name: ToolName,
		Description: "Execute an HTTP request against the documented API. " +
			"Use the endpoint listing in the system context to pick the method and path. " +
			"Path placeholders like {id} are filled from path_params.",
		InputSchema: mcptypes.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"method": map[string]any{
					"type":        "string",
					"enum":        []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
					"description": "HTTP method",
				},
				"path": map[string]any{
					"type":        "string",
					"description": "Endpoint path, may contain {name} placeholders",
				},
				"query_params": map[string]any{
					"type":                 "object",
					"description":          "Query string parameters",
					"additionalProperties": map[string]any{"type": "string"},
				},
				"path_params": map[string]any{
					"type":                 "object",
					"description":          "Values for {name} placeholders in path",
					"additionalProperties": map[string]any{"type": "string"},
				},
				"body": map[string]any{
					"description": "JSON request body for POST/PUT/PATCH",
				},
			},
			Required: []string{"method", "path"},
		},
	}
}

// SystemPrompt builds the chat system prompt from the schema summary.
// With tools enabled the model is told it can execute requests itself;
// without them it falls back to explaining endpoints and writing curl
// examples.
func SystemPrompt(summary string, toolsEnabled bool) string {
	prompt := "You are a helpful API assistant. The user is looking at an API " +
		"documentation page for an OpenAPI-compliant REST API."

	if summary != "" {
		prompt += " Here is the OpenAPI context for this API:\n\n" + summary +
			"\n\nUse this schema to answer questions about the API."
	}

	if toolsEnabled {
		prompt += " You can execute requests against this API with the " + ToolName +
			" tool. Use it when the user asks you to fetch real data or try an endpoint. " +
			"Report the result, including error statuses, rather than guessing."
	} else {
		prompt += " When appropriate, provide example curl commands or code snippets " +
			"based on the endpoint definitions."
	}

	return prompt
}
