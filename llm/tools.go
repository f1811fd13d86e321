package llm

import (
	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// ConvertMCPTools converts MCP tool definitions to the chat completions
// tool format. Both sides carry JSON Schema; the conversion just moves
// the input schema under function.parameters.
//
// MCP Tool structure:
//
//	{
//	  "name": "api_request",
//	  "description": "...",
//	  "inputSchema": {
//	    "type": "object",
//	    "properties": {...},
//	    "required": [...]
//	  }
//	}
//
// Chat completions tool structure:
//
//	{
//	  "type": "function",
//	  "function": {
//	    "name": "api_request",
//	    "description": "...",
//	    "parameters": {...}
//	  }
//	}
func ConvertMCPTools(mcpTools []mcptypes.Tool) []Tool {
	if len(mcpTools) == 0 {
		return nil
	}

	result := make([]Tool, len(mcpTools))

	for i, tool := range mcpTools {
		params := map[string]any{
			"type":       tool.InputSchema.Type,
			"properties": tool.InputSchema.Properties,
		}

		if len(tool.InputSchema.Required) > 0 {
			params["required"] = tool.InputSchema.Required
		}

		if tool.InputSchema.Defs != nil {
			params["$defs"] = tool.InputSchema.Defs
		}

		result[i] = Tool{
			Type: "function",
			Function: FunctionDef{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  params,
			},
		}
	}

	return result
}
